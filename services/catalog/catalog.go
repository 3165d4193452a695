package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
)

// TaskKind identifies a kind of work a provider can perform
type TaskKind string

const (
	TaskGeneration    TaskKind = "generation"
	TaskCaptioning    TaskKind = "captioning"
	TaskTagging       TaskKind = "tagging"
	TaskTranscription TaskKind = "transcription"
	TaskModeration    TaskKind = "moderation"
)

// AssetKind identifies the kind of asset a request operates on
type AssetKind string

const (
	AssetText     AssetKind = "text"
	AssetImage    AssetKind = "image"
	AssetAudio    AssetKind = "audio"
	AssetVideo    AssetKind = "video"
	AssetDocument AssetKind = "document"
)

// Tier is a provider's role class, used to bound chain composition
type Tier string

const (
	TierPrimary   Tier = "primary"
	TierSecondary Tier = "secondary"
	TierFallback  Tier = "fallback"
)

// KnownTask reports whether t is a recognized task kind
func KnownTask(t TaskKind) bool {
	switch t {
	case TaskGeneration, TaskCaptioning, TaskTagging, TaskTranscription, TaskModeration:
		return true
	}
	return false
}

// KnownAssetKind reports whether a is a recognized asset kind
func KnownAssetKind(a AssetKind) bool {
	switch a {
	case AssetText, AssetImage, AssetAudio, AssetVideo, AssetDocument:
		return true
	}
	return false
}

// ProviderProfile describes one interchangeable backend provider.
// Profiles are read-only after load; the catalog never mutates them in place.
type ProviderProfile struct {
	Name                string      `json:"name"`
	Tier                Tier        `json:"tier"`
	CostPerUnit         float64     `json:"cost_per_unit"`
	AvgLatencyMs        int         `json:"avg_latency_ms"`
	AccuracyScore       float64     `json:"accuracy_score"`
	Availability        float64     `json:"availability"`
	SupportedTasks      []TaskKind  `json:"supported_tasks"`
	SupportedAssetKinds []AssetKind `json:"supported_asset_kinds"`

	// Endpoint is the HTTP base URL the dispatch client calls for this provider.
	Endpoint string `json:"endpoint,omitempty"`
}

// Supports reports whether the profile covers both the task and the asset kind
func (p *ProviderProfile) Supports(task TaskKind, asset AssetKind) bool {
	return containsTask(p.SupportedTasks, task) && containsAsset(p.SupportedAssetKinds, asset)
}

// Validate checks profile field invariants
func (p *ProviderProfile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	switch p.Tier {
	case TierPrimary, TierSecondary, TierFallback:
	default:
		return fmt.Errorf("provider %s: invalid tier %q", p.Name, p.Tier)
	}
	if p.CostPerUnit < 0 {
		return fmt.Errorf("provider %s: cost_per_unit must be >= 0", p.Name)
	}
	if p.AvgLatencyMs < 0 {
		return fmt.Errorf("provider %s: avg_latency_ms must be >= 0", p.Name)
	}
	if p.AccuracyScore < 0 || p.AccuracyScore > 1 {
		return fmt.Errorf("provider %s: accuracy_score must be in [0,1]", p.Name)
	}
	if p.Availability < 0 || p.Availability > 1 {
		return fmt.Errorf("provider %s: availability must be in [0,1]", p.Name)
	}
	if len(p.SupportedTasks) == 0 {
		return fmt.Errorf("provider %s: at least one supported task is required", p.Name)
	}
	if len(p.SupportedAssetKinds) == 0 {
		return fmt.Errorf("provider %s: at least one supported asset kind is required", p.Name)
	}
	for _, t := range p.SupportedTasks {
		if !KnownTask(t) {
			return fmt.Errorf("provider %s: unknown task kind %q", p.Name, t)
		}
	}
	for _, a := range p.SupportedAssetKinds {
		if !KnownAssetKind(a) {
			return fmt.Errorf("provider %s: unknown asset kind %q", p.Name, a)
		}
	}
	return nil
}

// snapshot is an immutable view of the loaded profiles.
// Declaration order is preserved; Capable relies on it for the selector's tie-break.
type snapshot struct {
	profiles []*ProviderProfile
	byName   map[string]*ProviderProfile
}

// Catalog is the process-wide provider registry. Reads are lock-free against
// an atomic snapshot; updates replace the whole snapshot, never individual
// entries, so a concurrent reader can never observe a half-updated ranking.
type Catalog struct {
	snap atomic.Pointer[snapshot]
}

// New creates a catalog from the given profiles. Profiles are validated and
// deduplicated by name (first declaration wins).
func New(profiles []*ProviderProfile) (*Catalog, error) {
	c := &Catalog{}
	if err := c.Replace(profiles); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile creates a catalog from a JSON file containing an array of profiles
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var profiles []*ProviderProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	return New(profiles)
}

// Replace atomically swaps in a full new profile set. This is the only
// mutation the catalog supports; partial in-place edits are not possible.
func (c *Catalog) Replace(profiles []*ProviderProfile) error {
	snap := &snapshot{
		profiles: make([]*ProviderProfile, 0, len(profiles)),
		byName:   make(map[string]*ProviderProfile, len(profiles)),
	}
	for _, p := range profiles {
		if p == nil {
			return fmt.Errorf("catalog profile cannot be nil")
		}
		if err := p.Validate(); err != nil {
			return err
		}
		if _, exists := snap.byName[p.Name]; exists {
			return fmt.Errorf("duplicate provider name %q", p.Name)
		}
		snap.byName[p.Name] = p
		snap.profiles = append(snap.profiles, p)
	}
	c.snap.Store(snap)
	return nil
}

// Capable returns all profiles supporting both the task and the asset kind,
// in catalog declaration order. An empty result is not an error; the caller
// treats it as a validation-level failure before any dispatch.
func (c *Catalog) Capable(task TaskKind, asset AssetKind) []*ProviderProfile {
	snap := c.snap.Load()
	var capable []*ProviderProfile
	for _, p := range snap.profiles {
		if p.Supports(task, asset) {
			capable = append(capable, p)
		}
	}
	return capable
}

// Get retrieves a profile by name
func (c *Catalog) Get(name string) (*ProviderProfile, bool) {
	snap := c.snap.Load()
	p, ok := snap.byName[name]
	return p, ok
}

// List returns all profiles in declaration order
func (c *Catalog) List() []*ProviderProfile {
	snap := c.snap.Load()
	out := make([]*ProviderProfile, len(snap.profiles))
	copy(out, snap.profiles)
	return out
}

// Len returns the number of registered profiles
func (c *Catalog) Len() int {
	return len(c.snap.Load().profiles)
}

func containsTask(tasks []TaskKind, t TaskKind) bool {
	for _, have := range tasks {
		if have == t {
			return true
		}
	}
	return false
}

func containsAsset(assets []AssetKind, a AssetKind) bool {
	for _, have := range assets {
		if have == a {
			return true
		}
	}
	return false
}
