package catalog

// Default returns the built-in catalog used when CATALOG_PATH is not set.
// Rates are dollars per size unit; accuracy and availability come from
// offline benchmarks and are refreshed with each release.
func Default() (*Catalog, error) {
	return New([]*ProviderProfile{
		{
			Name:          "vertex-flash",
			Tier:          TierPrimary,
			CostPerUnit:   0.0010,
			AvgLatencyMs:  850,
			AccuracyScore: 0.90,
			Availability:  0.99,
			SupportedTasks: []TaskKind{
				TaskGeneration, TaskCaptioning, TaskTagging, TaskModeration,
			},
			SupportedAssetKinds: []AssetKind{
				AssetText, AssetImage, AssetDocument,
			},
		},
		{
			Name:          "openai-omni",
			Tier:          TierPrimary,
			CostPerUnit:   0.0100,
			AvgLatencyMs:  1400,
			AccuracyScore: 0.96,
			Availability:  0.98,
			SupportedTasks: []TaskKind{
				TaskGeneration, TaskCaptioning, TaskTagging, TaskTranscription, TaskModeration,
			},
			SupportedAssetKinds: []AssetKind{
				AssetText, AssetImage, AssetAudio, AssetVideo, AssetDocument,
			},
		},
		{
			Name:          "anthropic-haiku",
			Tier:          TierSecondary,
			CostPerUnit:   0.0025,
			AvgLatencyMs:  950,
			AccuracyScore: 0.93,
			Availability:  0.97,
			SupportedTasks: []TaskKind{
				TaskGeneration, TaskCaptioning, TaskTagging, TaskModeration,
			},
			SupportedAssetKinds: []AssetKind{
				AssetText, AssetImage, AssetDocument,
			},
		},
		{
			Name:          "local-onnx",
			Tier:          TierFallback,
			CostPerUnit:   0.0001,
			AvgLatencyMs:  2500,
			AccuracyScore: 0.78,
			Availability:  0.995,
			SupportedTasks: []TaskKind{
				TaskCaptioning, TaskTagging, TaskTranscription, TaskModeration,
			},
			SupportedAssetKinds: []AssetKind{
				AssetText, AssetImage, AssetAudio,
			},
		},
	})
}
