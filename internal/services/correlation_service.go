package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/soltixdb/cets/internal/analytics"
	"github.com/soltixdb/cets/internal/analytics/correlation"
	"github.com/soltixdb/cets/internal/dataset"
	"github.com/soltixdb/cets/internal/logging"
	"github.com/soltixdb/cets/internal/models"
	"github.com/soltixdb/cets/internal/utils"
)

// CorrelationService runs correlation analyses for the API and the worker
type CorrelationService struct {
	logger   *logging.Logger
	base     correlation.Config
	observer correlation.Observer
}

// NewCorrelationService creates a new CorrelationService. base is the
// configured analysis; observer may be nil.
func NewCorrelationService(logger *logging.Logger, base correlation.Config, observer correlation.Observer) *CorrelationService {
	if logger == nil {
		logger = logging.Global()
	}
	return &CorrelationService{
		logger:   logger,
		base:     base,
		observer: observer,
	}
}

// Testers returns the registered tester names
func (s *CorrelationService) Testers() []string {
	return correlation.ListTesters()
}

// DefaultTester is used when a request names none
func (s *CorrelationService) DefaultTester() string {
	return correlation.TesterCETS
}

// Execute validates the request, builds the tester and runs the engine
func (s *CorrelationService) Execute(ctx context.Context, req *models.CorrelateRequest) (*correlation.Report, error) {
	if err := req.Validate(utils.MaxSamplesPerRequest); err != nil {
		return nil, NewServiceError(CodeInvalidRequest, err.Error())
	}

	name := req.Tester
	if name == "" {
		name = s.DefaultTester()
	}
	if !s.known(name) {
		return nil, NewServiceErrorWithDetails(CodeInvalidTester,
			fmt.Sprintf("unknown correlation tester: %s", name),
			map[string]interface{}{"available": s.Testers()})
	}

	cfg := s.base
	if req.Params != nil {
		cfg = req.Params.Apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, paramsError(err)
	}

	tester, err := correlation.GetTester(name, cfg, s.logger)
	if err != nil {
		return nil, paramsError(err)
	}
	engine, err := correlation.NewEngine(tester, cfg, s.logger)
	if err != nil {
		return nil, paramsError(err)
	}
	if s.observer != nil {
		engine.WithObserver(s.observer)
	}

	samples, events, err := buildInputs(req)
	if err != nil {
		return nil, NewServiceError(CodeInvalidRequest, err.Error())
	}

	report, err := engine.Run(ctx, samples, events)
	if err != nil {
		if errors.Is(err, correlation.ErrInvalidInput) {
			return nil, NewServiceError(CodeInvalidRequest, err.Error())
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewServiceError(CodeAnalysisTimeout, "analysis did not finish before the deadline")
		}
		s.logger.Error("Correlation analysis failed", "tester", name, "error", err)
		return nil, NewServiceError(CodeAnalysisFailed, err.Error())
	}

	if len(report.Skipped) == len(samples) {
		reasons := make([]string, len(report.Skipped))
		for i, issue := range report.Skipped {
			reasons[i] = issue.Reason
		}
		return nil, NewServiceErrorWithDetails(CodeDegenerateInput,
			"no sample could be normalized",
			map[string]interface{}{"reasons": reasons})
	}

	return report, nil
}

func (s *CorrelationService) known(name string) bool {
	for _, t := range s.Testers() {
		if t == name {
			return true
		}
	}
	return false
}

// buildInputs converts the request payload into engine inputs. Labels turn
// into one event sequence per sample made of their rising edges.
func buildInputs(req *models.CorrelateRequest) ([]analytics.Series, [][]analytics.EventSequence, error) {
	samples := make([]analytics.Series, len(req.Samples))
	events := make([][]analytics.EventSequence, len(req.Samples))

	for i, sample := range req.Samples {
		samples[i] = analytics.Series(sample)

		if len(req.Labels) > 0 {
			events[i] = []analytics.EventSequence{dataset.ChangePoints(req.Labels[i])}
			continue
		}

		groups := req.Events[i]
		if len(groups) > utils.MaxEventSequencesPerSample {
			return nil, nil, fmt.Errorf("sample %d has %d event sequences (max %d)",
				i, len(groups), utils.MaxEventSequencesPerSample)
		}
		events[i] = make([]analytics.EventSequence, len(groups))
		for j, g := range groups {
			events[i][j] = analytics.EventSequence(g)
		}
	}

	return samples, events, nil
}

func paramsError(err error) *ServiceError {
	var cfgErr *correlation.InvalidConfigurationError
	if errors.As(err, &cfgErr) {
		return NewServiceErrorWithDetails(CodeInvalidParams, err.Error(),
			map[string]interface{}{"field": cfgErr.Field})
	}
	return NewServiceError(CodeInvalidParams, err.Error())
}
