package cost

import (
	"github.com/upb/model-orchestrator/services/catalog"
)

// sizeUnitBytes is the billing granularity: one unit per started kilobyte.
const sizeUnitBytes = 1024

// Estimator converts payload size into a dollar estimate for a provider.
// Estimates are deterministic: same payload and same rate, same number.
type Estimator struct{}

// New creates a new Estimator
func New() *Estimator {
	return &Estimator{}
}

// SizeUnits returns the number of billable units for a payload. A non-empty
// payload always costs at least one unit; an empty payload costs zero.
func (e *Estimator) SizeUnits(payload []byte) int {
	if len(payload) == 0 {
		return 0
	}
	units := len(payload) / sizeUnitBytes
	if len(payload)%sizeUnitBytes != 0 {
		units++
	}
	return units
}

// Estimate returns the dollar cost of sending payload to the given provider.
// Monotonic in payload size for a fixed rate.
func (e *Estimator) Estimate(profile *catalog.ProviderProfile, payload []byte) float64 {
	return float64(e.SizeUnits(payload)) * profile.CostPerUnit
}
