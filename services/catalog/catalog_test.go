package catalog

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile(name string, tier Tier) *ProviderProfile {
	return &ProviderProfile{
		Name:                name,
		Tier:                tier,
		CostPerUnit:         0.001,
		AvgLatencyMs:        800,
		AccuracyScore:       0.9,
		Availability:        0.99,
		SupportedTasks:      []TaskKind{TaskCaptioning, TaskTagging},
		SupportedAssetKinds: []AssetKind{AssetImage, AssetText},
	}
}

func TestCatalog_New(t *testing.T) {
	c, err := New([]*ProviderProfile{
		validProfile("a", TierPrimary),
		validProfile("b", TierSecondary),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestCatalog_New_RejectsDuplicateNames(t *testing.T) {
	_, err := New([]*ProviderProfile{
		validProfile("a", TierPrimary),
		validProfile("a", TierSecondary),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate provider name")
}

func TestCatalog_New_RejectsInvalidProfile(t *testing.T) {
	t.Run("bad tier", func(t *testing.T) {
		p := validProfile("a", "gold")
		_, err := New([]*ProviderProfile{p})
		assert.Error(t, err)
	})

	t.Run("accuracy out of range", func(t *testing.T) {
		p := validProfile("a", TierPrimary)
		p.AccuracyScore = 1.5
		_, err := New([]*ProviderProfile{p})
		assert.Error(t, err)
	})

	t.Run("no supported tasks", func(t *testing.T) {
		p := validProfile("a", TierPrimary)
		p.SupportedTasks = nil
		_, err := New([]*ProviderProfile{p})
		assert.Error(t, err)
	})

	t.Run("unknown task kind", func(t *testing.T) {
		p := validProfile("a", TierPrimary)
		p.SupportedTasks = []TaskKind{"divination"}
		_, err := New([]*ProviderProfile{p})
		assert.Error(t, err)
	})

	t.Run("negative cost", func(t *testing.T) {
		p := validProfile("a", TierPrimary)
		p.CostPerUnit = -0.1
		_, err := New([]*ProviderProfile{p})
		assert.Error(t, err)
	})
}

func TestCatalog_Capable(t *testing.T) {
	audio := validProfile("audio-only", TierPrimary)
	audio.SupportedTasks = []TaskKind{TaskTranscription}
	audio.SupportedAssetKinds = []AssetKind{AssetAudio}

	c, err := New([]*ProviderProfile{
		validProfile("first", TierPrimary),
		audio,
		validProfile("second", TierFallback),
	})
	require.NoError(t, err)

	t.Run("filters on both task and asset kind", func(t *testing.T) {
		capable := c.Capable(TaskCaptioning, AssetImage)
		require.Len(t, capable, 2)
		assert.Equal(t, "first", capable[0].Name)
		assert.Equal(t, "second", capable[1].Name)
	})

	t.Run("task supported but asset kind not", func(t *testing.T) {
		capable := c.Capable(TaskTranscription, AssetVideo)
		assert.Empty(t, capable)
	})

	t.Run("preserves declaration order", func(t *testing.T) {
		capable := c.Capable(TaskTranscription, AssetAudio)
		require.Len(t, capable, 1)
		assert.Equal(t, "audio-only", capable[0].Name)
	})
}

func TestCatalog_Replace(t *testing.T) {
	c, err := New([]*ProviderProfile{validProfile("old", TierPrimary)})
	require.NoError(t, err)

	err = c.Replace([]*ProviderProfile{
		validProfile("new-a", TierPrimary),
		validProfile("new-b", TierSecondary),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("old")
	assert.False(t, ok)
	_, ok = c.Get("new-a")
	assert.True(t, ok)
}

func TestCatalog_Replace_InvalidSetKeepsOld(t *testing.T) {
	c, err := New([]*ProviderProfile{validProfile("old", TierPrimary)})
	require.NoError(t, err)

	bad := validProfile("bad", TierPrimary)
	bad.Availability = 2.0
	err = c.Replace([]*ProviderProfile{bad})
	require.Error(t, err)

	_, ok := c.Get("old")
	assert.True(t, ok)
}

func TestCatalog_ConcurrentReadDuringReplace(t *testing.T) {
	c, err := New([]*ProviderProfile{
		validProfile("a", TierPrimary),
		validProfile("b", TierSecondary),
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				capable := c.Capable(TaskCaptioning, AssetImage)
				// A reader sees either the full old set or the full new set
				assert.Contains(t, []int{2, 3}, len(capable))
			}
		}()
	}

	for i := 0; i < 100; i++ {
		err := c.Replace([]*ProviderProfile{
			validProfile("a", TierPrimary),
			validProfile("b", TierSecondary),
			validProfile("c", TierFallback),
		})
		require.NoError(t, err)
		err = c.Replace([]*ProviderProfile{
			validProfile("a", TierPrimary),
			validProfile("b", TierSecondary),
		})
		require.NoError(t, err)
	}

	close(stop)
	wg.Wait()
}

func TestCatalog_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")

	content := `[
		{
			"name": "vision-svc",
			"tier": "primary",
			"cost_per_unit": 0.002,
			"avg_latency_ms": 700,
			"accuracy_score": 0.92,
			"availability": 0.99,
			"supported_tasks": ["captioning", "tagging"],
			"supported_asset_kinds": ["image"],
			"endpoint": "http://vision.internal:9000"
		}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	p, ok := c.Get("vision-svc")
	require.True(t, ok)
	assert.Equal(t, TierPrimary, p.Tier)
	assert.Equal(t, "http://vision.internal:9000", p.Endpoint)
}

func TestCatalog_LoadFile_Missing(t *testing.T) {
	_, err := LoadFile("/nonexistent/catalog.json")
	assert.Error(t, err)
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 4, c.Len())

	// Every default profile validates and the tiers cover the whole chain
	tiers := make(map[Tier]int)
	for _, p := range c.List() {
		require.NoError(t, p.Validate())
		tiers[p.Tier]++
	}
	assert.Equal(t, 2, tiers[TierPrimary])
	assert.Equal(t, 1, tiers[TierSecondary])
	assert.Equal(t, 1, tiers[TierFallback])
}

func TestProviderProfile_Supports(t *testing.T) {
	p := validProfile("a", TierPrimary)

	assert.True(t, p.Supports(TaskCaptioning, AssetImage))
	assert.False(t, p.Supports(TaskTranscription, AssetImage))
	assert.False(t, p.Supports(TaskCaptioning, AssetVideo))
}
