// Package enroll builds labeled descriptor sets for a roster of identities
// from their reference images.
package enroll

import (
	"context"
	"sync"

	"github.com/kozaktomas/facetag/internal/matcher"
	"github.com/kozaktomas/facetag/internal/neural"
	"github.com/kozaktomas/facetag/internal/refsource"
)

// Status is the outcome of enrolling one reference image.
type Status string

const (
	StatusOK           Status = "ok"
	StatusFetchFailed  Status = "fetch_failed"
	StatusDetectFailed Status = "detect_failed"
	StatusNoFace       Status = "no_face"
)

// ImageOutcome describes what happened to one reference image.
type ImageOutcome struct {
	Identity string `json:"identity"`
	Index    int    `json:"index"`
	Status   Status `json:"status"`
	Err      error  `json:"-"`
}

// Options tunes a Run.
type Options struct {
	// OnImage is called after every processed image. It may be called from
	// several goroutines at once.
	OnImage func(ImageOutcome)
}

// Result is the aggregated enrollment outcome.
type Result struct {
	// Sets has one entry per input name, in input order.
	Sets []matcher.LabeledDescriptors
	// Outcomes is ordered by identity then image index.
	Outcomes []ImageOutcome
}

// Skipped returns the outcomes that did not produce a descriptor.
func (r Result) Skipped() []ImageOutcome {
	var out []ImageOutcome
	for _, o := range r.Outcomes {
		if o.Status != StatusOK {
			out = append(out, o)
		}
	}
	return out
}

// Enrolled returns the number of descriptors gathered across all identities.
func (r Result) Enrolled() int {
	n := 0
	for _, s := range r.Sets {
		n += len(s.Descriptors)
	}
	return n
}

// Run enrolls every identity concurrently. Images of one identity are
// processed sequentially with indices 1..perIdentity. A failing image is
// recorded and skipped.
func Run(ctx context.Context, analyzer neural.Analyzer, source refsource.Source, names []string, perIdentity int, opts Options) Result {
	sets := make([]matcher.LabeledDescriptors, len(names))
	outcomes := make([][]ImageOutcome, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(slot int, name string) {
			defer wg.Done()
			sets[slot], outcomes[slot] = enrollIdentity(ctx, analyzer, source, name, perIdentity, opts)
		}(i, name)
	}
	wg.Wait()

	result := Result{Sets: sets}
	for _, o := range outcomes {
		result.Outcomes = append(result.Outcomes, o...)
	}
	return result
}

func enrollIdentity(ctx context.Context, analyzer neural.Analyzer, source refsource.Source, name string, perIdentity int, opts Options) (matcher.LabeledDescriptors, []ImageOutcome) {
	set := matcher.LabeledDescriptors{Label: name}
	outcomes := make([]ImageOutcome, 0, perIdentity)

	for index := 1; index <= perIdentity; index++ {
		outcome, desc := enrollImage(ctx, analyzer, source, name, index)
		if desc != nil {
			set.Descriptors = append(set.Descriptors, desc)
		}
		outcomes = append(outcomes, outcome)
		if opts.OnImage != nil {
			opts.OnImage(outcome)
		}
	}
	return set, outcomes
}

func enrollImage(ctx context.Context, analyzer neural.Analyzer, source refsource.Source, name string, index int) (ImageOutcome, neural.Descriptor) {
	outcome := ImageOutcome{Identity: name, Index: index}

	if err := ctx.Err(); err != nil {
		outcome.Status, outcome.Err = StatusFetchFailed, err
		return outcome, nil
	}

	img, err := source.Fetch(ctx, name, index)
	if err != nil {
		outcome.Status, outcome.Err = StatusFetchFailed, err
		return outcome, nil
	}

	det, err := analyzer.DetectSingle(ctx, img)
	if err != nil {
		outcome.Status, outcome.Err = StatusDetectFailed, err
		return outcome, nil
	}
	if det == nil || len(det.Descriptor) == 0 {
		outcome.Status = StatusNoFace
		return outcome, nil
	}

	outcome.Status = StatusOK
	return outcome, det.Descriptor
}
