package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/model-orchestrator/services/catalog"
)

func profile(name string, tier catalog.Tier, costPerUnit, accuracy, availability float64) *catalog.ProviderProfile {
	return &catalog.ProviderProfile{
		Name:                name,
		Tier:                tier,
		CostPerUnit:         costPerUnit,
		AvgLatencyMs:        1000,
		AccuracyScore:       accuracy,
		Availability:        availability,
		SupportedTasks:      []catalog.TaskKind{catalog.TaskCaptioning},
		SupportedAssetKinds: []catalog.AssetKind{catalog.AssetImage},
	}
}

func TestSelector_Select_CostOptimized(t *testing.T) {
	s := New(Config{CostCap: 0.05})

	capable := []*catalog.ProviderProfile{
		profile("expensive", catalog.TierPrimary, 0.0100, 0.96, 0.98),
		profile("cheap", catalog.TierPrimary, 0.0010, 0.90, 0.99),
	}

	chain := s.Select(StrategyCostOptimized, ComplexityMedium, capable)

	require.Len(t, chain, 2)
	assert.Equal(t, "cheap", chain[0].Name)
	assert.Equal(t, "expensive", chain[1].Name)
}

func TestSelector_Select_Performance(t *testing.T) {
	s := New(Config{CostCap: 0.05})

	capable := []*catalog.ProviderProfile{
		profile("cheap", catalog.TierPrimary, 0.0010, 0.90, 0.99),
		profile("accurate", catalog.TierPrimary, 0.0100, 0.96, 0.98),
	}

	chain := s.Select(StrategyPerformance, ComplexityMedium, capable)

	require.Len(t, chain, 2)
	assert.Equal(t, "accurate", chain[0].Name)
	assert.Equal(t, "cheap", chain[1].Name)
}

func TestSelector_Select_Balanced(t *testing.T) {
	s := New(Config{CostCap: 0.05})

	// cheap: 0.4*0.90 + 0.3*0.99 + 0.3*(1-0.02)  = 0.951
	// accurate: 0.4*0.96 + 0.3*0.98 + 0.3*(1-0.2) = 0.918
	capable := []*catalog.ProviderProfile{
		profile("accurate", catalog.TierPrimary, 0.0100, 0.96, 0.98),
		profile("cheap", catalog.TierPrimary, 0.0010, 0.90, 0.99),
	}

	chain := s.Select(StrategyBalanced, ComplexityMedium, capable)

	require.Len(t, chain, 2)
	assert.Equal(t, "cheap", chain[0].Name)
}

func TestSelector_Select_BalancedClampsCostAboveCap(t *testing.T) {
	s := New(Config{CostCap: 0.05})

	// Both rates exceed the cap so the cost term is zero for both and
	// accuracy plus availability decides.
	capable := []*catalog.ProviderProfile{
		profile("pricey-low-acc", catalog.TierPrimary, 0.0800, 0.85, 0.95),
		profile("pricier-high-acc", catalog.TierPrimary, 0.2000, 0.95, 0.95),
	}

	chain := s.Select(StrategyBalanced, ComplexityMedium, capable)

	require.Len(t, chain, 2)
	assert.Equal(t, "pricier-high-acc", chain[0].Name)
}

func TestSelector_Select_ComplexityOverride(t *testing.T) {
	s := New(Config{CostCap: 0.05})

	capable := []*catalog.ProviderProfile{
		profile("cheap", catalog.TierPrimary, 0.0010, 0.90, 0.99),
		profile("accurate", catalog.TierPrimary, 0.0100, 0.96, 0.98),
	}

	t.Run("high complexity reorders cost_optimized by accuracy", func(t *testing.T) {
		chain := s.Select(StrategyCostOptimized, ComplexityHigh, capable)
		require.Len(t, chain, 2)
		assert.Equal(t, "accurate", chain[0].Name)
	})

	t.Run("critical complexity reorders cost_optimized by accuracy", func(t *testing.T) {
		chain := s.Select(StrategyCostOptimized, ComplexityCritical, capable)
		require.Len(t, chain, 2)
		assert.Equal(t, "accurate", chain[0].Name)
	})

	t.Run("low complexity reorders performance by cost", func(t *testing.T) {
		chain := s.Select(StrategyPerformance, ComplexityLow, capable)
		require.Len(t, chain, 2)
		assert.Equal(t, "cheap", chain[0].Name)
	})

	t.Run("medium complexity leaves strategy order untouched", func(t *testing.T) {
		chain := s.Select(StrategyPerformance, ComplexityMedium, capable)
		require.Len(t, chain, 2)
		assert.Equal(t, "accurate", chain[0].Name)
	})
}

func TestSelector_Select_TierTruncation(t *testing.T) {
	s := New(Config{CostCap: 0.05})

	capable := []*catalog.ProviderProfile{
		profile("p1", catalog.TierPrimary, 0.001, 0.90, 0.99),
		profile("p2", catalog.TierPrimary, 0.002, 0.91, 0.99),
		profile("p3", catalog.TierPrimary, 0.003, 0.92, 0.99),
		profile("s1", catalog.TierSecondary, 0.004, 0.93, 0.99),
		profile("s2", catalog.TierSecondary, 0.005, 0.94, 0.99),
		profile("f1", catalog.TierFallback, 0.006, 0.95, 0.99),
		profile("f2", catalog.TierFallback, 0.007, 0.96, 0.99),
	}

	chain := s.Select(StrategyCostOptimized, ComplexityMedium, capable)

	// At most 2 primary, 1 secondary, 1 fallback, concatenated in tier order
	require.Len(t, chain, 4)
	assert.Equal(t, []string{"p1", "p2", "s1", "f1"}, chain.Names())
}

func TestSelector_Select_TierOrderBeatsRanking(t *testing.T) {
	s := New(Config{CostCap: 0.05})

	// The fallback provider is both cheapest and most accurate, but tier
	// concatenation still places it last.
	capable := []*catalog.ProviderProfile{
		profile("primary", catalog.TierPrimary, 0.010, 0.80, 0.99),
		profile("fallback", catalog.TierFallback, 0.001, 0.99, 0.99),
	}

	for _, strategy := range []Strategy{StrategyCostOptimized, StrategyBalanced, StrategyPerformance} {
		chain := s.Select(strategy, ComplexityMedium, capable)
		require.Len(t, chain, 2)
		assert.Equal(t, "primary", chain[0].Name, "strategy %s", strategy)
		assert.Equal(t, "fallback", chain[1].Name, "strategy %s", strategy)
	}
}

func TestSelector_Select_StableTieBreak(t *testing.T) {
	s := New(Config{CostCap: 0.05})

	// Identical metrics: declaration order decides
	capable := []*catalog.ProviderProfile{
		profile("first", catalog.TierPrimary, 0.001, 0.90, 0.99),
		profile("second", catalog.TierPrimary, 0.001, 0.90, 0.99),
	}

	for i := 0; i < 10; i++ {
		chain := s.Select(StrategyBalanced, ComplexityMedium, capable)
		require.Len(t, chain, 2)
		assert.Equal(t, "first", chain[0].Name)
		assert.Equal(t, "second", chain[1].Name)
	}
}

func TestSelector_Select_Deduplicates(t *testing.T) {
	s := New(Config{CostCap: 0.05})

	dup := profile("dup", catalog.TierPrimary, 0.001, 0.90, 0.99)
	chain := s.Select(StrategyCostOptimized, ComplexityMedium, []*catalog.ProviderProfile{dup, dup})

	require.Len(t, chain, 1)
	assert.Equal(t, "dup", chain[0].Name)
}

func TestSelector_Select_EmptyInput(t *testing.T) {
	s := New(Config{CostCap: 0.05})

	chain := s.Select(StrategyBalanced, ComplexityMedium, nil)
	assert.Empty(t, chain)
}

func TestSelector_Select_DoesNotMutateInput(t *testing.T) {
	s := New(Config{CostCap: 0.05})

	capable := []*catalog.ProviderProfile{
		profile("b", catalog.TierPrimary, 0.010, 0.96, 0.98),
		profile("a", catalog.TierPrimary, 0.001, 0.90, 0.99),
	}

	_ = s.Select(StrategyCostOptimized, ComplexityMedium, capable)

	assert.Equal(t, "b", capable[0].Name)
	assert.Equal(t, "a", capable[1].Name)
}

func TestKnownStrategy(t *testing.T) {
	assert.True(t, KnownStrategy(StrategyCostOptimized))
	assert.True(t, KnownStrategy(StrategyBalanced))
	assert.True(t, KnownStrategy(StrategyPerformance))
	assert.False(t, KnownStrategy("fastest"))
	assert.False(t, KnownStrategy(""))
}

func TestKnownComplexity(t *testing.T) {
	assert.True(t, KnownComplexity(ComplexityLow))
	assert.True(t, KnownComplexity(ComplexityMedium))
	assert.True(t, KnownComplexity(ComplexityHigh))
	assert.True(t, KnownComplexity(ComplexityCritical))
	assert.False(t, KnownComplexity("extreme"))
}
