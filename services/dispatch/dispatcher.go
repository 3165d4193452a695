package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/upb/model-orchestrator/services"
	"github.com/upb/model-orchestrator/services/catalog"
	"github.com/upb/model-orchestrator/services/cost"
)

// Config holds dispatch timing tuning
type Config struct {
	// AttemptTimeoutFactor multiplies a profile's avg latency to bound one attempt
	AttemptTimeoutFactor float64

	// MinAttemptTimeout floors the per-attempt timeout
	MinAttemptTimeout time.Duration
}

// DefaultConfig returns the default dispatch configuration
func DefaultConfig() Config {
	return Config{
		AttemptTimeoutFactor: 3.0,
		MinAttemptTimeout:    500 * time.Millisecond,
	}
}

// AttemptResult records one provider attempt, success or failure
type AttemptResult struct {
	Provider string
	Err      error
	Duration time.Duration
}

// Outcome is the result of walking a candidate chain. Exhaustion is a normal
// outcome, not a transport error: Exhausted is set, ProviderUsed stays empty,
// cost and confidence stay zero, and Err carries the exhaustion detail.
type Outcome struct {
	ProviderUsed  string
	Response      *ProviderResponse
	CostEstimate  float64
	FallbackChain []string
	Attempts      []AttemptResult
	Exhausted     bool
	Err           error
}

// Dispatcher walks a candidate chain sequentially, at most one attempt per
// provider, until one succeeds or the chain runs out
type Dispatcher struct {
	client    ProviderClient
	estimator *cost.Estimator
	config    Config
	logger    *zap.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(client ProviderClient, estimator *cost.Estimator, config Config, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		client:    client,
		estimator: estimator,
		config:    config,
		logger:    logger,
	}
}

// Dispatch attempts each provider in chain order. The returned error is
// non-nil only when the caller's context ends mid-dispatch; the partial
// Outcome still lists the providers attempted before the cancellation.
// Exhaustion is reported through the Outcome alone.
func (d *Dispatcher) Dispatch(ctx context.Context, chain []*catalog.ProviderProfile, inv *Invocation) (*Outcome, error) {
	outcome := &Outcome{
		FallbackChain: []string{},
		Attempts:      make([]AttemptResult, 0, len(chain)),
	}

	for _, profile := range chain {
		if err := ctx.Err(); err != nil {
			return outcome, services.WrapError(services.ErrorTypeCanceled,
				"request canceled before provider attempt", err)
		}

		start := time.Now()
		resp, err := d.attempt(ctx, profile, inv)
		elapsed := time.Since(start)

		outcome.Attempts = append(outcome.Attempts, AttemptResult{
			Provider: profile.Name,
			Err:      err,
			Duration: elapsed,
		})

		if err == nil {
			outcome.ProviderUsed = profile.Name
			outcome.Response = resp
			outcome.CostEstimate = d.estimator.Estimate(profile, inv.Payload)
			return outcome, nil
		}

		// Caller gone: distinguish abandonment from a provider-side failure.
		// The abandoned attempt still counts toward the fallback chain.
		if ctx.Err() != nil {
			outcome.FallbackChain = append(outcome.FallbackChain, profile.Name)
			return outcome, services.WrapError(services.ErrorTypeCanceled,
				fmt.Sprintf("request canceled during attempt on provider %s", profile.Name), ctx.Err())
		}

		outcome.FallbackChain = append(outcome.FallbackChain, profile.Name)
		d.logger.Warn("provider attempt failed, advancing chain",
			zap.String("provider", profile.Name),
			zap.Duration("attempt_duration", elapsed),
			zap.Int("attempts_so_far", len(outcome.Attempts)),
			zap.Error(err))
	}

	outcome.Exhausted = true
	if len(chain) == 0 {
		outcome.Err = services.ErrNoCapableProvider
	} else {
		// Keep the last attempt's reason in the caller-facing error
		lastErr := outcome.Attempts[len(outcome.Attempts)-1].Err
		outcome.Err = services.WrapError(services.ErrorTypeExhaustion,
			fmt.Sprintf("all %d providers in chain failed", len(chain)), lastErr)
	}
	return outcome, nil
}

// attempt runs a single bounded provider call
func (d *Dispatcher) attempt(ctx context.Context, profile *catalog.ProviderProfile, inv *Invocation) (*ProviderResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.attemptTimeout(profile))
	defer cancel()

	return d.client.Call(attemptCtx, profile, inv)
}

// attemptTimeout derives the per-attempt budget from the profile's advertised
// latency, floored so optimistic profiles are not starved
func (d *Dispatcher) attemptTimeout(profile *catalog.ProviderProfile) time.Duration {
	timeout := time.Duration(float64(profile.AvgLatencyMs)*d.config.AttemptTimeoutFactor) * time.Millisecond
	if timeout < d.config.MinAttemptTimeout {
		timeout = d.config.MinAttemptTimeout
	}
	return timeout
}
