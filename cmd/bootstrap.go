package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kozaktomas/facetag/internal/config"
	"github.com/kozaktomas/facetag/internal/embedding"
	"github.com/kozaktomas/facetag/internal/enroll"
	"github.com/kozaktomas/facetag/internal/imageio"
	"github.com/kozaktomas/facetag/internal/matcher"
	"github.com/kozaktomas/facetag/internal/neural"
	"github.com/kozaktomas/facetag/internal/neural/dlib"
	"github.com/kozaktomas/facetag/internal/refsource"
)

// loadConfig reads the environment, applies roster overrides and validates.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.ResolveRoster(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newAnalyzer brings up the configured face backend. Failure is fatal.
func newAnalyzer(cfg *config.Config) (neural.Analyzer, error) {
	switch cfg.Models.Backend {
	case config.BackendRemote:
		client := embedding.NewClient(cfg.Embedding.URL)
		fmt.Printf("Using remote face backend at %s\n", client.BaseURL())
		return neural.NewRemote(client), nil
	default:
		fmt.Printf("Loading dlib face models from %s...\n", cfg.Models.Dir)
		start := time.Now()
		rec, err := dlib.Load(cfg.Models.Dir, cfg.Models.CNN)
		if err != nil {
			return nil, err
		}
		fmt.Printf("Face models loaded in %s\n", formatDuration(time.Since(start)))
		return rec, nil
	}
}

// newSource picks the reference directory when set, the URL template otherwise.
func newSource(cfg *config.Config) (refsource.Source, error) {
	if cfg.Reference.Dir != "" {
		return refsource.NewDirSource(cfg.Reference.Dir)
	}
	timeout := time.Duration(cfg.Reference.TimeoutSeconds) * time.Second
	return refsource.NewHTTPSource(cfg.Roster.ReferenceURL, timeout)
}

// detectionPolicy maps the config onto the detection buffer policy.
func detectionPolicy(cfg *config.Config) imageio.Policy {
	return imageio.Policy{
		Fixed:       cfg.Detection.Policy == config.PolicyFixed,
		FixedWidth:  cfg.Detection.FixedWidth,
		FixedHeight: cfg.Detection.FixedHeight,
		MaxSize:     cfg.Detection.MaxSize,
	}
}

// enrollRoster runs enrollment for the configured roster.
func enrollRoster(ctx context.Context, cfg *config.Config, analyzer neural.Analyzer, opts enroll.Options) (enroll.Result, error) {
	source, err := newSource(cfg)
	if err != nil {
		return enroll.Result{}, err
	}
	return enroll.Run(ctx, analyzer, source, cfg.Roster.Identities, cfg.Roster.ImagesPerIdentity, opts), nil
}

// logOutcomes reports skipped reference images: a warning when no face was
// found, an error otherwise.
func logOutcomes(result enroll.Result) {
	for _, o := range result.Skipped() {
		switch o.Status {
		case enroll.StatusNoFace:
			log.Printf("Warning: no face found: %s/%d", o.Identity, o.Index)
		default:
			log.Printf("Error processing %s/%d (%s): %v", o.Identity, o.Index, o.Status, o.Err)
		}
	}
}

// buildMatcher creates the matcher from enrolled sets.
func buildMatcher(cfg *config.Config, result enroll.Result, threshold float64) (*matcher.FaceMatcher, error) {
	if threshold <= 0 {
		threshold = cfg.Matcher.Threshold
	}
	m, err := matcher.New(result.Sets, threshold, matcher.Strategy(cfg.Matcher.Strategy))
	if err != nil {
		return nil, fmt.Errorf("building matcher: %w", err)
	}
	for _, id := range m.Identities() {
		if !id.Matchable {
			log.Printf("Warning: %s has no usable reference faces and will never match", id.Label)
		}
	}
	return m, nil
}
