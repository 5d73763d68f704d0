package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facetag",
	Short: "Detect and label known faces in photos",
	Long: `facetag enrolls a roster of known identities from their reference images
and labels every face found in an uploaded photo with the closest identity,
or "unknown" when nobody is close enough.

Use "facetag serve" for the browser upload page, or "facetag identify" to
annotate a local file.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
