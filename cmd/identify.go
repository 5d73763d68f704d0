package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facetag/internal/constants"
	"github.com/kozaktomas/facetag/internal/enroll"
	"github.com/kozaktomas/facetag/internal/imageio"
	"github.com/kozaktomas/facetag/internal/pipeline"
	"github.com/kozaktomas/facetag/internal/render"
	"github.com/kozaktomas/facetag/internal/session"
)

var identifyCmd = &cobra.Command{
	Use:   "identify <image>",
	Short: "Label the faces in a local photo",
	Long: `Enroll the roster, then detect and label every face in the given photo
and write an annotated copy.

Examples:
  # Writes group.annotated.png next to the input
  facetag identify group.jpg

  # Explicit output as lossy WebP
  facetag identify group.jpg --out /tmp/group.webp --format webp --quality 80

  # Stricter matching and JSON output
  facetag identify group.jpg --threshold 0.5 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)

	identifyCmd.Flags().String("out", "", "Output file (defaults to <input>.annotated.<format>)")
	identifyCmd.Flags().String("format", "png", "Output format: png, jpg or webp")
	identifyCmd.Flags().Int("quality", constants.DefaultJPEGQuality, "Quality for jpg and lossy webp (1-100)")
	identifyCmd.Flags().Bool("lossless", false, "Use lossless webp encoding")
	identifyCmd.Flags().Float64("threshold", 0, "Match distance threshold (defaults to MATCH_THRESHOLD)")
	identifyCmd.Flags().Bool("json", false, "Output as JSON")
}

// defaultOutputPath puts the annotated copy next to the input.
func defaultOutputPath(input string, format imageio.Format) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + ".annotated." + string(format)
}

// IdentifyOutput represents the result of the identify command
type IdentifyOutput struct {
	Input  string          `json:"input"`
	Output string          `json:"output,omitempty"`
	Result pipeline.Result `json:"result"`
}

func runIdentify(cmd *cobra.Command, args []string) error {
	input := args[0]
	jsonOutput := mustGetBool(cmd, "json")

	format, err := imageio.ParseFormat(mustGetString(cmd, "format"))
	if err != nil {
		return err
	}
	quality := mustGetInt(cmd, "quality")
	if quality < 1 || quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", quality)
	}
	out := mustGetString(cmd, "out")
	if out == "" {
		out = defaultOutputPath(input, format)
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	analyzer, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	ctx := context.Background()
	enrolled, err := enrollRoster(ctx, cfg, analyzer, enroll.Options{})
	if err != nil {
		return err
	}
	logOutcomes(enrolled)

	m, err := buildMatcher(cfg, enrolled, mustGetFloat64(cmd, "threshold"))
	if err != nil {
		return err
	}

	p := pipeline.New(analyzer, m, detectionPolicy(cfg))
	state, result, err := p.Run(ctx, session.State{}, &pipeline.Upload{Name: filepath.Base(input), Data: data})
	if err != nil {
		return err
	}

	annotated := render.Composite(state.Image.Image, state.Overlay)
	opts := imageio.EncodeOptions{Quality: quality, Lossless: mustGetBool(cmd, "lossless")}
	if err := imageio.WriteFile(out, annotated, format, opts); err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(IdentifyOutput{Input: input, Output: out, Result: result})
	}

	if result.Status == pipeline.StatusNoFaces {
		fmt.Println(result.Message)
	}
	for i, face := range result.Faces {
		fmt.Printf("  #%d  %-24s at (%.0f, %.0f) %.0fx%.0f\n",
			i+1, face.Text, face.Box.X, face.Box.Y, face.Box.Width, face.Box.Height)
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}
