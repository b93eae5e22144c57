package correlation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soltixdb/cets/internal/analytics"
	"github.com/soltixdb/cets/internal/logging"
)

// Results is indexed [sample][dimension][event sequence].
type Results [][][]TestResult

// SampleIssue records a sample that was skipped or degraded during a run.
type SampleIssue struct {
	Sample int    `json:"sample" yaml:"sample"`
	Reason string `json:"reason" yaml:"reason"`
}

// Finding is a correlated (sample, dimension, event sequence) triple with
// its human-readable description.
type Finding struct {
	Sample    int             `json:"sample" yaml:"sample"`
	Dimension int             `json:"dimension" yaml:"dimension"`
	Event     int             `json:"event" yaml:"event"`
	Type      CorrelationType `json:"type" yaml:"type"`
	Message   string          `json:"message" yaml:"message"`
}

// Report is the outcome of an engine run.
type Report struct {
	Tester     string        `json:"tester" yaml:"tester"`
	Results    Results       `json:"results" yaml:"results"`
	SubLengths [][]int       `json:"sub_lengths,omitempty" yaml:"sub_lengths,omitempty"`
	Skipped    []SampleIssue `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Warnings   []SampleIssue `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Findings   []Finding     `json:"findings" yaml:"findings"`
}

// Observer receives per-test and per-run measurements
type Observer interface {
	ObserveTest(tester string, result TestResult)
	ObserveRun(tester string, elapsed time.Duration)
}

// Engine runs a tester over every (sample, dimension, event sequence) triple.
type Engine struct {
	tester   CorrelationTester
	cfg      Config
	logger   *logging.Logger
	observer Observer
}

// NewEngine creates an engine; a nil logger uses the global one
func NewEngine(tester CorrelationTester, cfg Config, logger *logging.Logger) (*Engine, error) {
	if tester == nil {
		return nil, fmt.Errorf("tester is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Global()
	}
	return &Engine{tester: tester, cfg: cfg, logger: logger}, nil
}

// WithObserver attaches a measurement sink
func (e *Engine) WithObserver(o Observer) *Engine {
	e.observer = o
	return e
}

type job struct {
	sample, dim, event int
}

// Run normalizes every sample, prepares window lengths when the tester needs
// them and tests all triples on a bounded worker pool
func (e *Engine) Run(ctx context.Context, samples []analytics.Series, events [][]analytics.EventSequence) (*Report, error) {
	if len(samples) != len(events) {
		return nil, fmt.Errorf("%w: %d samples but %d event groups", ErrInvalidInput, len(samples), len(events))
	}

	start := time.Now()
	name := e.tester.Name()
	e.logger.Info("Correlation analysis started", "tester", name, "samples", len(samples))

	report := &Report{
		Tester:     name,
		Results:    make(Results, len(samples)),
		SubLengths: make([][]int, len(samples)),
		Findings:   []Finding{},
	}
	estimator, needsLength := e.tester.(LengthEstimator)

	normalized := make([]analytics.Series, len(samples))
	var jobs []job
	for i, sample := range samples {
		if err := sample.Validate(); err != nil {
			return nil, fmt.Errorf("%w: sample %d: %v", ErrInvalidInput, i, err)
		}
		for j, seq := range events[i] {
			if err := seq.Validate(sample.Len()); err != nil {
				return nil, fmt.Errorf("%w: sample %d event group %d: %v", ErrInvalidInput, i, j, err)
			}
		}

		report.Results[i] = uncorrelatedGrid(sample.Dims(), len(events[i]))

		norm, err := Normalize(sample)
		if err != nil {
			e.logger.Warn("Skipping sample", "sample", i, "error", err)
			report.Skipped = append(report.Skipped, SampleIssue{Sample: i, Reason: err.Error()})
			continue
		}
		normalized[i] = norm

		if needsLength {
			lengths, err := estimator.SubLengths(ctx, norm)
			switch {
			case errors.Is(err, ErrNoSubLength):
				e.logger.Warn("No sub-series length found, sample reported uncorrelated", "sample", i)
				report.Warnings = append(report.Warnings, SampleIssue{Sample: i, Reason: err.Error()})
			case err != nil:
				return nil, err
			}
			report.SubLengths[i] = lengths
		}

		for d := 0; d < sample.Dims(); d++ {
			for ev := range events[i] {
				jobs = append(jobs, job{sample: i, dim: d, event: ev})
			}
		}
	}
	if !needsLength {
		report.SubLengths = nil
	}

	inner := innerWorkers(e.cfg.workers(), len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.workers())
	for _, jb := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			in := TestInput{
				Series:  normalized[jb.sample].Dimension(jb.dim),
				Events:  events[jb.sample][jb.event],
				Random:  jobSource(e.cfg.Seed, jb.sample, jb.dim, jb.event),
				Workers: inner,
			}
			if needsLength {
				in.SubLength = report.SubLengths[jb.sample][jb.dim]
			}

			result, err := e.tester.Test(gctx, in)
			if err != nil {
				return fmt.Errorf("sample %d dim %d event %d: %w", jb.sample, jb.dim, jb.event, err)
			}
			report.Results[jb.sample][jb.dim][jb.event] = result
			if e.observer != nil {
				e.observer.ObserveTest(name, result)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.Findings = BuildFindings(report.Results)

	elapsed := time.Since(start)
	if e.observer != nil {
		e.observer.ObserveRun(name, elapsed)
	}
	e.logger.Info("Correlation analysis finished",
		"tester", name,
		"tests", len(jobs),
		"findings", len(report.Findings),
		"skipped", len(report.Skipped),
		"duration", elapsed.String())

	return report, nil
}

// innerWorkers splits the worker budget left over when there are fewer
// tests than workers
func innerWorkers(workers, jobs int) int {
	if jobs <= 0 || jobs >= workers {
		return 1
	}
	return workers / jobs
}

// BuildFindings lists every correlated result in index order
func BuildFindings(results Results) []Finding {
	findings := []Finding{}
	for i, dims := range results {
		for d, evs := range dims {
			for ev, r := range evs {
				if !r.Correlated {
					continue
				}
				findings = append(findings, Finding{
					Sample:    i,
					Dimension: d,
					Event:     ev,
					Type:      r.Type,
					Message:   FormatFinding(i, d, ev, r.Type),
				})
			}
		}
	}
	return findings
}

// FormatFinding renders a correlated triple with 1-based numbering
func FormatFinding(sample, dim, event int, t CorrelationType) string {
	return fmt.Sprintf("Time-series X%d dim %d %s Effect %d", sample+1, dim+1, t, event+1)
}

func uncorrelatedGrid(dims, events int) [][]TestResult {
	grid := make([][]TestResult, dims)
	for d := range grid {
		grid[d] = make([]TestResult, events)
		for ev := range grid[d] {
			grid[d][ev] = Uncorrelated
		}
	}
	return grid
}
