// Package correlation detects whether events are correlated with the
// dimensions of a multivariate time series, and in which direction and
// with which effect.
package correlation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/soltixdb/cets/internal/analytics"
	"github.com/soltixdb/cets/internal/logging"
)

// CorrelationType encodes the direction and effect of a detected correlation.
// Values 0-2 mean the event is followed by a change of the series, 3-5 mean
// the series changes before the event.
type CorrelationType int

const (
	TypeNone              CorrelationType = -1 // not correlated
	TypeEventToSeries     CorrelationType = 0  // event -> series, no significant level change
	TypeEventToSeriesRise CorrelationType = 1  // series rises after the event
	TypeEventToSeriesFall CorrelationType = 2  // series falls after the event
	TypeSeriesToEvent     CorrelationType = 3  // series -> event, no significant level change
	TypeSeriesToEventRise CorrelationType = 4  // series rises around the event
	TypeSeriesToEventFall CorrelationType = 5  // series falls around the event
	TypeEitherDirection   CorrelationType = 6  // ground truth only: direction not labelled

	seriesToEventOffset = 3
)

var arrows = map[CorrelationType]string{
	TypeEventToSeries:     "<-( )",
	TypeEventToSeriesRise: "<-(+)",
	TypeEventToSeriesFall: "<-(-)",
	TypeSeriesToEvent:     "( )->",
	TypeSeriesToEventRise: "(+)->",
	TypeSeriesToEventFall: "(-)->",
}

// String returns the arrow notation used in verbose output
func (t CorrelationType) String() string {
	if a, ok := arrows[t]; ok {
		return a
	}
	if t == TypeNone {
		return "none"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// EventToSeries reports whether the event precedes the series change
func (t CorrelationType) EventToSeries() bool {
	return t >= TypeEventToSeries && t < TypeSeriesToEvent
}

// SeriesToEvent reports whether the series change precedes the event
func (t CorrelationType) SeriesToEvent() bool {
	return t >= TypeSeriesToEvent && t <= TypeSeriesToEventFall
}

// TestResult is the outcome of testing one dimension against one event sequence.
// Front and Rear hold the two NN test decisions (front vs reference, rear vs
// reference); testers without such sub-tests leave them false.
type TestResult struct {
	Correlated bool
	Front      bool
	Rear       bool
	Type       CorrelationType
}

// Uncorrelated is the result reported when no correlation was found
var Uncorrelated = TestResult{Correlated: false, Type: TypeNone}

type testResultWire struct {
	R bool            `json:"r" yaml:"r"`
	D [2]bool         `json:"d" yaml:"d,flow"`
	T CorrelationType `json:"t" yaml:"t"`
}

// MarshalJSON encodes the result as {"r":bool,"d":[front,rear],"t":int}
func (r TestResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(testResultWire{R: r.Correlated, D: [2]bool{r.Front, r.Rear}, T: r.Type})
}

// UnmarshalJSON decodes the {"r","d","t"} shape
func (r *TestResult) UnmarshalJSON(data []byte) error {
	var w testResultWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = TestResult{Correlated: w.R, Front: w.D[0], Rear: w.D[1], Type: w.T}
	return nil
}

// MarshalYAML encodes the result with the same field names as JSON
func (r TestResult) MarshalYAML() (interface{}, error) {
	return testResultWire{R: r.Correlated, D: [2]bool{r.Front, r.Rear}, T: r.Type}, nil
}

// TestInput is one (dimension, event sequence) pair handed to a tester.
type TestInput struct {
	// Series holds one normalized dimension
	Series []float64

	// Events holds the ascending event indices
	Events analytics.EventSequence

	// SubLength is the window length k
	SubLength int

	// Random draws reference windows
	Random RandomSource

	// Workers is the parallelism a tester may use inside one test.
	// Zero or one means sequential.
	Workers int
}

// CorrelationTester decides whether a series dimension and an event sequence
// are correlated.
type CorrelationTester interface {
	// Name returns the tester name
	Name() string

	// Test runs the test for a single dimension
	Test(ctx context.Context, in TestInput) (TestResult, error)
}

// LengthEstimator is implemented by testers that need a per-sample window
// length. The engine skips estimation for testers that do not implement it.
type LengthEstimator interface {
	SubLengths(ctx context.Context, sample analytics.Series) ([]int, error)
}

// TesterFactory builds a tester from configuration
type TesterFactory func(cfg Config, logger *logging.Logger) (CorrelationTester, error)

var (
	registryMu     sync.RWMutex
	testerRegistry = make(map[string]TesterFactory)
)

// RegisterTester adds a tester factory to the registry
func RegisterTester(name string, factory TesterFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	testerRegistry[name] = factory
}

// GetTester builds a tester by name
func GetTester(name string, cfg Config, logger *logging.Logger) (CorrelationTester, error) {
	registryMu.RLock()
	factory, ok := testerRegistry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown correlation tester: %s", name)
	}
	return factory(cfg, logger)
}

// ListTesters returns the sorted names of available testers
func ListTesters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(testerRegistry))
	for name := range testerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
