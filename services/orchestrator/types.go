package orchestrator

import (
	"github.com/upb/model-orchestrator/services/catalog"
	"github.com/upb/model-orchestrator/services/selector"
)

// Request is one orchestration call
type Request struct {
	// RequestID correlates the result and the usage record. Generated when empty.
	RequestID string

	Task      catalog.TaskKind
	AssetKind catalog.AssetKind
	Payload   []byte

	// Complexity defaults to medium when empty
	Complexity selector.Complexity

	// Strategy defaults to balanced when empty
	Strategy selector.Strategy

	Metadata map[string]string
}

// Result is the structured outcome of an orchestration call. Exhaustion is a
// result, not an error: Success is false, ProviderUsed is "none", cost and
// confidence are zero, and Error says what happened.
type Result struct {
	RequestID        string   `json:"request_id"`
	ProviderUsed     string   `json:"provider_used"`
	Data             []byte   `json:"data,omitempty"`
	ConfidenceScore  float64  `json:"confidence_score"`
	CostEstimate     float64  `json:"cost_estimate"`
	FallbackChain    []string `json:"fallback_chain"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
	Success          bool     `json:"success"`
	Error            string   `json:"error,omitempty"`
}

// NoProvider is the provider_used value reported when no provider did the work
const NoProvider = "none"
