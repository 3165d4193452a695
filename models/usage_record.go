package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageRecord captures one orchestration outcome for accounting. Exactly one
// record is written per orchestration call, success or not.
type UsageRecord struct {
	ID               uuid.UUID `json:"id" db:"id"`
	RequestID        string    `json:"request_id" db:"request_id"`
	Task             string    `json:"task" db:"task"`
	AssetKind        string    `json:"asset_kind" db:"asset_kind"`
	ProviderUsed     string    `json:"provider_used" db:"provider_used"`
	ProcessingTimeMs int64     `json:"processing_time_ms" db:"processing_time_ms"`
	CostEstimate     float64   `json:"cost_estimate" db:"cost_estimate"`
	Success          bool      `json:"success" db:"success"`
	FallbackDepth    int       `json:"fallback_depth" db:"fallback_depth"`
	ErrorMessage     *string   `json:"error_message,omitempty" db:"error_message"`
	RecordedAt       time.Time `json:"recorded_at" db:"recorded_at"`
}

// NewUsageRecord creates a usage record with a fresh ID and timestamp
func NewUsageRecord(task, assetKind string) *UsageRecord {
	return &UsageRecord{
		ID:         uuid.New(),
		Task:       task,
		AssetKind:  assetKind,
		RecordedAt: time.Now().UTC(),
	}
}

// WithRequest attaches the originating request ID
func (r *UsageRecord) WithRequest(requestID string) *UsageRecord {
	r.RequestID = requestID
	return r
}

// WithSuccess fills the fields of a successful orchestration
func (r *UsageRecord) WithSuccess(provider string, processingTimeMs int64, costEstimate float64, fallbackDepth int) *UsageRecord {
	r.ProviderUsed = provider
	r.ProcessingTimeMs = processingTimeMs
	r.CostEstimate = costEstimate
	r.Success = true
	r.FallbackDepth = fallbackDepth
	return r
}

// WithFailure fills the fields of an exhausted or failed orchestration.
// Cost stays zero; no provider did billable work.
func (r *UsageRecord) WithFailure(processingTimeMs int64, fallbackDepth int, errorMessage string) *UsageRecord {
	r.ProviderUsed = "none"
	r.ProcessingTimeMs = processingTimeMs
	r.Success = false
	r.FallbackDepth = fallbackDepth
	if errorMessage != "" {
		r.ErrorMessage = &errorMessage
	}
	return r
}

// TableName returns the database table name for usage records
func (r *UsageRecord) TableName() string {
	return "usage_records"
}
