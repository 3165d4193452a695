package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/model-orchestrator/models"
	"github.com/upb/model-orchestrator/services"
	"github.com/upb/model-orchestrator/services/catalog"
	"github.com/upb/model-orchestrator/services/dispatch"
	"github.com/upb/model-orchestrator/services/selector"
	"github.com/upb/model-orchestrator/services/usage"
)

// Service runs the orchestration pipeline: validate the request, find capable
// providers, rank them into a chain, dispatch down the chain, record usage.
type Service struct {
	catalog    *catalog.Catalog
	selector   *selector.Selector
	dispatcher *dispatch.Dispatcher
	recorder   *usage.Recorder
	logger     *zap.Logger
}

// NewService creates a new orchestrator Service
func NewService(
	cat *catalog.Catalog,
	sel *selector.Selector,
	disp *dispatch.Dispatcher,
	rec *usage.Recorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		catalog:    cat,
		selector:   sel,
		dispatcher: disp,
		recorder:   rec,
		logger:     logger,
	}
}

// Orchestrate handles one request end to end. Validation failures return an
// error and write no usage record; everything past validation writes exactly
// one record, success or not. Cancellation mid-dispatch returns a canceled
// error after recording the abandoned attempt.
func (s *Service) Orchestrate(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	if err := s.validate(req); err != nil {
		return nil, err
	}
	s.applyDefaults(req)

	logger := s.logger.With(
		zap.String("request_id", req.RequestID),
		zap.String("task", string(req.Task)),
		zap.String("asset_kind", string(req.AssetKind)),
		zap.String("strategy", string(req.Strategy)),
		zap.String("complexity", string(req.Complexity)),
	)

	capable := s.catalog.Capable(req.Task, req.AssetKind)
	if len(capable) == 0 {
		logger.Warn("no capable provider for request")
		result := s.failureResult(req, start, nil, "no capable provider")
		s.recordUsage(req, result)
		return result, nil
	}

	chain := s.selector.Select(req.Strategy, req.Complexity, capable)
	logger.Debug("candidate chain built",
		zap.Strings("chain", chain.Names()),
		zap.Int("capable_count", len(capable)))

	outcome, err := s.dispatcher.Dispatch(ctx, chain, &dispatch.Invocation{
		Task:      req.Task,
		AssetKind: req.AssetKind,
		Payload:   req.Payload,
		Metadata:  req.Metadata,
	})
	if err != nil {
		// Caller abandoned the request. Record what was attempted, then surface.
		logger.Info("request canceled mid-dispatch",
			zap.Int("providers_attempted", attemptCount(outcome)),
			zap.Error(err))
		result := s.failureResult(req, start, outcome, "request canceled")
		s.recordUsage(req, result)
		return nil, err
	}

	if outcome.Exhausted {
		logger.Warn("provider chain exhausted",
			zap.Strings("fallback_chain", outcome.FallbackChain),
			zap.Int("attempts", len(outcome.Attempts)))
		result := s.failureResult(req, start, outcome, outcome.Err.Error())
		s.recordUsage(req, result)
		return result, nil
	}

	result := &Result{
		RequestID:        req.RequestID,
		ProviderUsed:     outcome.ProviderUsed,
		Data:             outcome.Response.Data,
		ConfidenceScore:  outcome.Response.ConfidenceScore,
		CostEstimate:     outcome.CostEstimate,
		FallbackChain:    outcome.FallbackChain,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Success:          true,
	}

	logger.Info("orchestration succeeded",
		zap.String("provider_used", result.ProviderUsed),
		zap.Int("fallback_depth", len(result.FallbackChain)),
		zap.Float64("cost_estimate", result.CostEstimate),
		zap.Int64("processing_time_ms", result.ProcessingTimeMs))

	s.recordUsage(req, result)
	return result, nil
}

// Providers returns all catalog profiles
func (s *Service) Providers() []*catalog.ProviderProfile {
	return s.catalog.List()
}

// CapableProviders returns catalog profiles supporting the task and asset kind
func (s *Service) CapableProviders(task catalog.TaskKind, asset catalog.AssetKind) ([]*catalog.ProviderProfile, error) {
	if !catalog.KnownTask(task) {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "unknown task kind", nil).
			WithDetail("task", string(task))
	}
	if !catalog.KnownAssetKind(asset) {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "unknown asset kind", nil).
			WithDetail("asset_kind", string(asset))
	}
	return s.catalog.Capable(task, asset), nil
}

// validate rejects malformed requests before any provider is contacted
func (s *Service) validate(req *Request) error {
	if req == nil {
		return services.ErrInvalidInput
	}
	if req.Task == "" {
		return services.ErrMissingTask
	}
	if req.AssetKind == "" {
		return services.ErrMissingAssetKind
	}
	if len(req.Payload) == 0 {
		return services.ErrMissingPayload
	}
	if !catalog.KnownTask(req.Task) {
		return services.NewDomainError(services.ErrorTypeValidation, "unknown task kind", nil).
			WithDetail("task", string(req.Task))
	}
	if !catalog.KnownAssetKind(req.AssetKind) {
		return services.NewDomainError(services.ErrorTypeValidation, "unknown asset kind", nil).
			WithDetail("asset_kind", string(req.AssetKind))
	}
	if req.Strategy != "" && !selector.KnownStrategy(req.Strategy) {
		return services.NewDomainError(services.ErrorTypeValidation, "unknown selection strategy", nil).
			WithDetail("strategy", string(req.Strategy))
	}
	if req.Complexity != "" && !selector.KnownComplexity(req.Complexity) {
		return services.NewDomainError(services.ErrorTypeValidation, "unknown complexity", nil).
			WithDetail("complexity", string(req.Complexity))
	}
	return nil
}

// applyDefaults fills optional request fields
func (s *Service) applyDefaults(req *Request) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Strategy == "" {
		req.Strategy = selector.StrategyBalanced
	}
	if req.Complexity == "" {
		req.Complexity = selector.ComplexityMedium
	}
}

// attemptCount tolerates a missing outcome
func attemptCount(outcome *dispatch.Outcome) int {
	if outcome == nil {
		return 0
	}
	return len(outcome.Attempts)
}

// failureResult builds the structured non-success result
func (s *Service) failureResult(req *Request, start time.Time, outcome *dispatch.Outcome, errMsg string) *Result {
	fallbackChain := []string{}
	if outcome != nil {
		fallbackChain = outcome.FallbackChain
	}
	return &Result{
		RequestID:        req.RequestID,
		ProviderUsed:     NoProvider,
		FallbackChain:    fallbackChain,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Success:          false,
		Error:            errMsg,
	}
}

// recordUsage queues the accounting record for the call. Recording failures
// are logged and swallowed; they never affect the caller's result.
func (s *Service) recordUsage(req *Request, result *Result) {
	record := models.NewUsageRecord(string(req.Task), string(req.AssetKind)).
		WithRequest(req.RequestID)

	if result.Success {
		record.WithSuccess(result.ProviderUsed, result.ProcessingTimeMs, result.CostEstimate, len(result.FallbackChain))
	} else {
		record.WithFailure(result.ProcessingTimeMs, len(result.FallbackChain), result.Error)
	}

	if err := s.recorder.Record(record); err != nil {
		s.logger.Warn("usage recording failed",
			zap.String("request_id", req.RequestID),
			zap.Error(err))
	}
}
