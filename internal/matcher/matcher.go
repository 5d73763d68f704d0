// Package matcher assigns identity labels to face descriptors by comparing
// them against enrolled reference descriptors.
package matcher

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/facetag/internal/constants"
	"github.com/kozaktomas/facetag/internal/facematch"
	"github.com/kozaktomas/facetag/internal/neural"
)

// ErrEmptyMatcher is returned when a matcher is built without any identity.
var ErrEmptyMatcher = errors.New("matcher needs at least one labeled descriptor set")

// Strategy selects how the distance between a query and an identity is computed.
type Strategy string

const (
	// StrategyMean uses the mean distance to all of an identity's descriptors.
	StrategyMean Strategy = "mean"
	// StrategyNearest uses the single nearest enrolled descriptor.
	StrategyNearest Strategy = "nearest"
)

// HNSW graph parameters. Rosters are small, so M stays low.
const (
	hnswMaxNeighbors = 8
	hnswSearchK      = 1
)

// LabeledDescriptors is one enrolled identity.
type LabeledDescriptors struct {
	Label       string              `json:"label"`
	Descriptors []neural.Descriptor `json:"-"`
}

// Match is the outcome of matching one query descriptor.
type Match struct {
	Label    string  `json:"label"`
	Distance float64 `json:"distance"`
}

// Unknown reports whether no identity was close enough.
func (m Match) Unknown() bool {
	return m.Label == constants.UnknownLabel
}

// String renders the label the way it is drawn on the overlay: "Elon (0.42)".
func (m Match) String() string {
	if math.IsInf(m.Distance, 0) || math.IsNaN(m.Distance) {
		return m.Label
	}
	return fmt.Sprintf("%s (%.2f)", m.Label, m.Distance)
}

// Identity summarises an enrolled identity.
type Identity struct {
	Label       string `json:"label"`
	Descriptors int    `json:"descriptors"`
	Matchable   bool   `json:"matchable"`
}

// FaceMatcher is read-only after construction and safe for concurrent use.
type FaceMatcher struct {
	sets      []LabeledDescriptors
	threshold float64
	strategy  Strategy
	dim       int

	// nearest strategy index; keys are positions in flat.
	mu    sync.Mutex
	graph *hnsw.Graph[int]
	owner []int // flat position -> set index
	flat  []neural.Descriptor
}

// New builds a matcher. Sets with zero descriptors are kept for reporting
// but never match.
func New(sets []LabeledDescriptors, threshold float64, strategy Strategy) (*FaceMatcher, error) {
	if len(sets) == 0 {
		return nil, ErrEmptyMatcher
	}
	if threshold <= 0 {
		threshold = constants.DefaultMatchThreshold
	}
	switch strategy {
	case "":
		strategy = StrategyMean
	case StrategyMean, StrategyNearest:
	default:
		return nil, fmt.Errorf("unknown match strategy %q", strategy)
	}

	m := &FaceMatcher{
		sets:      make([]LabeledDescriptors, len(sets)),
		threshold: threshold,
		strategy:  strategy,
	}
	for i, s := range sets {
		descs := make([]neural.Descriptor, 0, len(s.Descriptors))
		for _, d := range s.Descriptors {
			if len(d) == 0 {
				continue
			}
			if m.dim == 0 {
				m.dim = len(d)
			} else if len(d) != m.dim {
				return nil, fmt.Errorf("descriptor dimension mismatch for %q: got %d, want %d", s.Label, len(d), m.dim)
			}
			descs = append(descs, d)
			m.flat = append(m.flat, d)
			m.owner = append(m.owner, i)
		}
		m.sets[i] = LabeledDescriptors{Label: s.Label, Descriptors: descs}
	}

	if strategy == StrategyNearest && len(m.flat) > 0 {
		g := hnsw.NewGraph[int]()
		g.M = hnswMaxNeighbors
		g.Ml = 1.0 / float64(hnswMaxNeighbors)
		g.Distance = hnsw.EuclideanDistance
		for i, d := range m.flat {
			g.Add(hnsw.MakeNode(i, []float32(d)))
		}
		m.graph = g
	}

	return m, nil
}

// Threshold returns the distance under which a match is accepted.
func (m *FaceMatcher) Threshold() float64 {
	return m.threshold
}

// Strategy returns the configured distance strategy.
func (m *FaceMatcher) Strategy() Strategy {
	return m.strategy
}

// FindBestMatch returns the closest identity, or unknown with the best
// distance found when nothing is within the threshold.
func (m *FaceMatcher) FindBestMatch(query neural.Descriptor) Match {
	if len(query) == 0 || len(m.flat) == 0 || (m.dim > 0 && len(query) != m.dim) {
		return Match{Label: constants.UnknownLabel, Distance: math.Inf(1)}
	}

	var best Match
	if m.strategy == StrategyNearest {
		best = m.nearest(query)
	} else {
		best = m.mean(query)
	}

	if best.Distance <= m.threshold {
		return best
	}
	return Match{Label: constants.UnknownLabel, Distance: best.Distance}
}

func (m *FaceMatcher) mean(query neural.Descriptor) Match {
	best := Match{Distance: math.Inf(1)}
	for _, s := range m.sets {
		if len(s.Descriptors) == 0 {
			continue
		}
		var sum float64
		for _, d := range s.Descriptors {
			sum += EuclideanDistance(query, d)
		}
		if dist := sum / float64(len(s.Descriptors)); dist < best.Distance {
			best = Match{Label: s.Label, Distance: dist}
		}
	}
	return best
}

func (m *FaceMatcher) nearest(query neural.Descriptor) Match {
	m.mu.Lock()
	neighbors := m.graph.Search([]float32(query), hnswSearchK)
	m.mu.Unlock()

	if len(neighbors) == 0 {
		return Match{Distance: math.Inf(1)}
	}
	pos := neighbors[0].Key
	return Match{
		Label:    m.sets[m.owner[pos]].Label,
		Distance: EuclideanDistance(query, m.flat[pos]),
	}
}

// Identities lists the enrolled identities in enrollment order.
func (m *FaceMatcher) Identities() []Identity {
	out := make([]Identity, len(m.sets))
	for i, s := range m.sets {
		out[i] = Identity{
			Label:       s.Label,
			Descriptors: len(s.Descriptors),
			Matchable:   len(s.Descriptors) > 0,
		}
	}
	return out
}

// Lookup finds an identity by name, ignoring case and diacritics.
func (m *FaceMatcher) Lookup(name string) (Identity, bool) {
	for _, id := range m.Identities() {
		if facematch.SameIdentity(id.Label, name) {
			return id, true
		}
	}
	return Identity{}, false
}

// EuclideanDistance returns the L2 distance between two descriptors of the
// same length.
func EuclideanDistance(a, b neural.Descriptor) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
