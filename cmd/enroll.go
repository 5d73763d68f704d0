package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/facetag/internal/enroll"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll the identity roster and report what was found",
	Long: `Fetch every reference image of the configured roster, detect the face in
each and report how many descriptors each identity ended up with.

Useful to check a roster before serving it. Nothing is persisted.

Examples:
  # Human-readable summary
  facetag enroll

  # JSON output
  facetag enroll --json`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().Bool("json", false, "Output as JSON")
}

// EnrollIdentityReport summarises one identity.
type EnrollIdentityReport struct {
	Name        string             `json:"name"`
	Descriptors int                `json:"descriptors"`
	Skipped     []EnrollSkipReport `json:"skipped,omitempty"`
}

// EnrollSkipReport describes one reference image that produced no descriptor.
type EnrollSkipReport struct {
	Index  int           `json:"index"`
	Status enroll.Status `json:"status"`
	Error  string        `json:"error,omitempty"`
}

// EnrollResult represents the result of an enroll run
type EnrollResult struct {
	Success       bool                   `json:"success"`
	Identities    []EnrollIdentityReport `json:"identities"`
	Enrolled      int                    `json:"enrolled"`
	Skipped       int                    `json:"skipped"`
	DurationMs    int64                  `json:"duration_ms"`
	DurationHuman string                 `json:"duration_human,omitempty"`
}

func buildEnrollResult(result enroll.Result, duration time.Duration) EnrollResult {
	out := EnrollResult{
		Success:       true,
		Enrolled:      result.Enrolled(),
		DurationMs:    duration.Milliseconds(),
		DurationHuman: formatDuration(duration),
	}

	byIdentity := make(map[string][]EnrollSkipReport)
	for _, o := range result.Skipped() {
		skip := EnrollSkipReport{Index: o.Index, Status: o.Status}
		if o.Err != nil {
			skip.Error = o.Err.Error()
		}
		byIdentity[o.Identity] = append(byIdentity[o.Identity], skip)
		out.Skipped++
	}

	for _, set := range result.Sets {
		out.Identities = append(out.Identities, EnrollIdentityReport{
			Name:        set.Label,
			Descriptors: len(set.Descriptors),
			Skipped:     byIdentity[set.Label],
		})
	}
	return out
}

func runEnroll(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	analyzer, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	total := len(cfg.Roster.Identities) * cfg.Roster.ImagesPerIdentity
	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Enrolling"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
	}

	opts := enroll.Options{}
	if bar != nil {
		opts.OnImage = func(enroll.ImageOutcome) { bar.Add(1) }
	}

	startTime := time.Now()
	result, err := enrollRoster(context.Background(), cfg, analyzer, opts)
	if err != nil {
		return err
	}
	report := buildEnrollResult(result, time.Since(startTime))

	if jsonOutput {
		report.DurationHuman = ""
		return outputJSON(report)
	}

	fmt.Println()
	logOutcomes(result)
	fmt.Println("\nIdentities:")
	for _, id := range report.Identities {
		fmt.Printf("  %-20s %d/%d faces\n", id.Name, id.Descriptors, cfg.Roster.ImagesPerIdentity)
	}
	fmt.Printf("\nEnrolled %d reference faces, skipped %d images in %s\n",
		report.Enrolled, report.Skipped, report.DurationHuman)
	return nil
}
