package dispatch

import (
	"context"

	"github.com/upb/model-orchestrator/services/catalog"
)

// Invocation is the unit of work handed to a provider
type Invocation struct {
	Task      catalog.TaskKind
	AssetKind catalog.AssetKind
	Payload   []byte
	Metadata  map[string]string
}

// ProviderResponse is what a successful provider attempt yields
type ProviderResponse struct {
	// Data is the provider's output, passed through opaque
	Data []byte

	// ConfidenceScore is the provider's self-reported confidence in [0,1].
	// Providers that do not report one get the profile's accuracy score.
	ConfidenceScore float64
}

// ProviderClient executes a single attempt against one provider. The context
// carries the per-attempt deadline; implementations must honor it.
type ProviderClient interface {
	Call(ctx context.Context, profile *catalog.ProviderProfile, inv *Invocation) (*ProviderResponse, error)
}
