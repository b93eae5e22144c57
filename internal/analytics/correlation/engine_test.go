package correlation

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/cets/internal/analytics"
)

type recordingObserver struct {
	mu    sync.Mutex
	tests int
	runs  int
}

func (o *recordingObserver) ObserveTest(tester string, result TestResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tests++
}

func (o *recordingObserver) ObserveRun(tester string, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs++
}

func newTestEngine(t *testing.T, name string, cfg Config) *Engine {
	t.Helper()
	tester, err := GetTester(name, cfg, nil)
	require.NoError(t, err)
	engine, err := NewEngine(tester, cfg, nil)
	require.NoError(t, err)
	return engine
}

func stepSample(seed uint64, dims int, events analytics.EventSequence) analytics.Series {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	cols := make([][]float64, dims)
	for d := range cols {
		cols[d] = stepSeries(rng, 1000, events, 20, 1, 0.5)
	}
	return columns(cols...)
}

func TestEngine_StepAfterEvents(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SubLength = 20
	cfg.Workers = 4
	engine := newTestEngine(t, TesterCETS, cfg)

	events := analytics.EventSequence{100, 250, 400, 550, 700}
	sample := stepSample(51, 5, events)

	report, err := engine.Run(context.Background(), []analytics.Series{sample}, [][]analytics.EventSequence{{events}})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	require.Len(t, report.Results[0], 5)

	eventToSeries := 0
	for d, dim := range report.Results[0] {
		r := dim[0]
		if r.Correlated && r.Type.EventToSeries() {
			eventToSeries++
		}
		if r.Correlated {
			assert.Equal(t, EffectRise, Effect(int(r.Type)%3), "dimension %d should rise after the event", d)
		}
	}
	assert.GreaterOrEqual(t, eventToSeries, 3, "most dimensions should show event -> series")
	assert.Equal(t, [][]int{{20, 20, 20, 20, 20}}, report.SubLengths)
}

func TestEngine_NoiseIsUncorrelated(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SubLength = 20
	engine := newTestEngine(t, TesterCETS, cfg)

	rng := rand.New(rand.NewPCG(61, 62))
	trials := 10
	samples := make([]analytics.Series, trials)
	events := make([][]analytics.EventSequence, trials)
	for i := range samples {
		noise := make([]float64, 1000)
		for j := range noise {
			noise[j] = rng.NormFloat64()
		}
		samples[i] = columns(noise)

		picked := rng.Perm(940)[:5]
		sort.Ints(picked)
		seq := make(analytics.EventSequence, len(picked))
		for j, p := range picked {
			seq[j] = p + 30
		}
		events[i] = []analytics.EventSequence{seq}
	}

	report, err := engine.Run(context.Background(), samples, events)
	require.NoError(t, err)

	uncorrelated := 0
	for i := range report.Results {
		if !report.Results[i][0][0].Correlated {
			uncorrelated++
		}
	}
	assert.GreaterOrEqual(t, uncorrelated, 8)
}

func TestEngine_DeterministicAcrossWorkerCounts(t *testing.T) {
	events := analytics.EventSequence{100, 250, 400, 550, 700}
	samples := []analytics.Series{stepSample(71, 3, events), stepSample(72, 2, events)}
	groups := [][]analytics.EventSequence{
		{events, {120, 480, 820}},
		{events},
	}

	var reports []*Report
	for _, workers := range []int{1, 4} {
		cfg := DefaultConfig()
		cfg.SubLength = 20
		cfg.Workers = workers
		cfg.Seed = 99

		report, err := newTestEngine(t, TesterCETS, cfg).Run(context.Background(), samples, groups)
		require.NoError(t, err)
		reports = append(reports, report)
	}

	assert.Equal(t, reports[0].Results, reports[1].Results)
	assert.Equal(t, reports[0].Findings, reports[1].Findings)
}

func TestEngine_SkipsDegenerateSample(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SubLength = 20
	engine := newTestEngine(t, TesterCETS, cfg)

	events := analytics.EventSequence{100, 250, 400, 550, 700}
	constant := make(analytics.Series, 1000)
	for i := range constant {
		constant[i] = []float64{2, 2}
	}

	report, err := engine.Run(context.Background(),
		[]analytics.Series{constant, stepSample(81, 1, events)},
		[][]analytics.EventSequence{{events}, {events}})
	require.NoError(t, err)

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, 0, report.Skipped[0].Sample)
	assert.Equal(t, [][]TestResult{{Uncorrelated}, {Uncorrelated}}, report.Results[0])
	assert.Len(t, report.Results[1], 1)
}

func TestEngine_WarnsWhenNoSubLength(t *testing.T) {
	engine := newTestEngine(t, TesterCETS, DefaultConfig())

	sample := columns(ramp(800, false), ramp(800, true))
	events := analytics.EventSequence{100, 300, 500}

	report, err := engine.Run(context.Background(), []analytics.Series{sample}, [][]analytics.EventSequence{{events}})
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, 0, report.Warnings[0].Sample)
	assert.Equal(t, []int{0, 0}, report.SubLengths[0])
	for _, dim := range report.Results[0] {
		assert.Equal(t, Uncorrelated, dim[0])
	}
	assert.Empty(t, report.Findings)
}

func TestEngine_Pearson(t *testing.T) {
	engine := newTestEngine(t, TesterPearson, DefaultConfig())

	events := analytics.EventSequence{10, 40, 70}
	indicator := events.Indicator(100)
	noise := make([]float64, 100)
	for i := range noise {
		noise[i] = float64(i%3) / 2
	}
	sample := columns(noise, indicator)

	report, err := engine.Run(context.Background(), []analytics.Series{sample}, [][]analytics.EventSequence{{events}})
	require.NoError(t, err)

	assert.Nil(t, report.SubLengths)
	assert.Equal(t, TesterPearson, report.Tester)
	assert.Equal(t, TestResult{Correlated: true, Type: TypeEventToSeriesRise}, report.Results[0][1][0])

	var messages []string
	for _, f := range report.Findings {
		messages = append(messages, f.Message)
	}
	assert.Contains(t, messages, "Time-series X1 dim 2 <-(+) Effect 1")
}

func TestEngine_InvalidInput(t *testing.T) {
	engine := newTestEngine(t, TesterCETS, DefaultConfig())
	sample := columns(ramp(100, false))

	_, err := engine.Run(context.Background(), []analytics.Series{sample}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = engine.Run(context.Background(), []analytics.Series{sample}, [][]analytics.EventSequence{{{50, 20}}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = engine.Run(context.Background(), []analytics.Series{sample}, [][]analytics.EventSequence{{{10, 200}}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEngine_Cancelled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SubLength = 20
	engine := newTestEngine(t, TesterCETS, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := analytics.EventSequence{100, 250, 400}
	_, err := engine.Run(ctx, []analytics.Series{stepSample(91, 2, events)}, [][]analytics.EventSequence{{events}})
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestEngine_Observer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SubLength = 20
	observer := &recordingObserver{}
	engine := newTestEngine(t, TesterCETS, cfg).WithObserver(observer)

	events := analytics.EventSequence{100, 250, 400}
	_, err := engine.Run(context.Background(), []analytics.Series{stepSample(93, 3, events)}, [][]analytics.EventSequence{{events, events}})
	require.NoError(t, err)

	assert.Equal(t, 6, observer.tests)
	assert.Equal(t, 1, observer.runs)
}

func TestInnerWorkers(t *testing.T) {
	tests := []struct {
		name          string
		workers, jobs int
		want          int
	}{
		{"more jobs than workers", 4, 10, 1},
		{"equal", 4, 4, 1},
		{"single job gets the whole budget", 8, 1, 8},
		{"split with remainder", 8, 3, 2},
		{"no jobs", 8, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, innerWorkers(tt.workers, tt.jobs))
		})
	}
}

func TestFormatFinding(t *testing.T) {
	assert.Equal(t, "Time-series X2 dim 3 (-)-> Effect 1", FormatFinding(1, 2, 0, TypeSeriesToEventFall))
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(nil, DefaultConfig(), nil)
	assert.Error(t, err)

	tester, err := NewPearsonTester(DefaultConfig())
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.R = 0
	_, err = NewEngine(tester, cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
