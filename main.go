package main

import "github.com/kozaktomas/facetag/cmd"

func main() {
	cmd.Execute()
}
