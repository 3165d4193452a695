package selector

import (
	"sort"

	"github.com/upb/model-orchestrator/services/catalog"
)

// Strategy is the ranking policy used to order capable providers
// before tier truncation.
type Strategy string

const (
	// StrategyCostOptimized orders by ascending cost per unit
	StrategyCostOptimized Strategy = "cost_optimized"

	// StrategyBalanced orders by a weighted accuracy/availability/cost score
	StrategyBalanced Strategy = "balanced"

	// StrategyPerformance orders by descending accuracy score
	StrategyPerformance Strategy = "performance"
)

// Complexity classifies how demanding a request is
type Complexity string

const (
	ComplexityLow      Complexity = "low"
	ComplexityMedium   Complexity = "medium"
	ComplexityHigh     Complexity = "high"
	ComplexityCritical Complexity = "critical"
)

// KnownStrategy reports whether s is a recognized strategy
func KnownStrategy(s Strategy) bool {
	switch s {
	case StrategyCostOptimized, StrategyBalanced, StrategyPerformance:
		return true
	}
	return false
}

// KnownComplexity reports whether c is a recognized complexity class
func KnownComplexity(c Complexity) bool {
	switch c {
	case ComplexityLow, ComplexityMedium, ComplexityHigh, ComplexityCritical:
		return true
	}
	return false
}

// Chain is the ordered, deduplicated list of providers to attempt for one
// request. Built fresh per request, never cached across strategies.
type Chain []*catalog.ProviderProfile

// Names returns the provider names in chain order
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name
	}
	return names
}

// Chain composition caps per tier.
const (
	maxPrimary   = 2
	maxSecondary = 1
	maxFallback  = 1
)

// Weights of the balanced strategy score.
const (
	balancedAccuracyWeight     = 0.4
	balancedAvailabilityWeight = 0.3
	balancedCostWeight         = 0.3
)

// Config holds selector tuning
type Config struct {
	// CostCap normalizes cost_per_unit into [0,1] for the balanced score.
	// Rates at or above the cap contribute zero to the score.
	CostCap float64
}

// Selector ranks capable providers into an ordered candidate chain
type Selector struct {
	config Config
}

// New creates a new Selector
func New(config Config) *Selector {
	return &Selector{config: config}
}

// Select builds the candidate chain for one request. The input slice must be
// in catalog declaration order; all sorts are stable so equal keys preserve
// that order. An empty input yields an empty chain.
func (s *Selector) Select(strategy Strategy, complexity Complexity, capable []*catalog.ProviderProfile) Chain {
	if len(capable) == 0 {
		return nil
	}

	ranked := make([]*catalog.ProviderProfile, len(capable))
	copy(ranked, capable)

	switch strategy {
	case StrategyCostOptimized:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].CostPerUnit < ranked[j].CostPerUnit
		})
	case StrategyPerformance:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].AccuracyScore > ranked[j].AccuracyScore
		})
	default: // balanced
		sort.SliceStable(ranked, func(i, j int) bool {
			return s.balancedScore(ranked[i]) > s.balancedScore(ranked[j])
		})
	}

	// Complexity overrides the strategy: accuracy wins for high-stakes work,
	// cost wins for cheap work. Medium leaves the strategy ordering untouched.
	switch complexity {
	case ComplexityHigh, ComplexityCritical:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].AccuracyScore > ranked[j].AccuracyScore
		})
	case ComplexityLow:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].CostPerUnit < ranked[j].CostPerUnit
		})
	}

	return truncateByTier(ranked)
}

// balancedScore computes the weighted ranking score for the balanced strategy
func (s *Selector) balancedScore(p *catalog.ProviderProfile) float64 {
	normCost := 0.0
	if s.config.CostCap > 0 {
		normCost = p.CostPerUnit / s.config.CostCap
		if normCost > 1 {
			normCost = 1
		}
	}
	return balancedAccuracyWeight*p.AccuracyScore +
		balancedAvailabilityWeight*p.Availability +
		balancedCostWeight*(1-normCost)
}

// truncateByTier keeps at most 2 primary, 1 secondary and 1 fallback
// provider, preserving the ranked relative order within each tier, and
// concatenates primary -> secondary -> fallback.
func truncateByTier(ranked []*catalog.ProviderProfile) Chain {
	var primary, secondary, fallback []*catalog.ProviderProfile
	seen := make(map[string]struct{}, len(ranked))

	for _, p := range ranked {
		if _, dup := seen[p.Name]; dup {
			continue
		}
		seen[p.Name] = struct{}{}

		switch p.Tier {
		case catalog.TierPrimary:
			if len(primary) < maxPrimary {
				primary = append(primary, p)
			}
		case catalog.TierSecondary:
			if len(secondary) < maxSecondary {
				secondary = append(secondary, p)
			}
		case catalog.TierFallback:
			if len(fallback) < maxFallback {
				fallback = append(fallback, p)
			}
		}
	}

	chain := make(Chain, 0, len(primary)+len(secondary)+len(fallback))
	chain = append(chain, primary...)
	chain = append(chain, secondary...)
	chain = append(chain, fallback...)
	return chain
}
