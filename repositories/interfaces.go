package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/upb/model-orchestrator/models"
)

// UsageRepository persists orchestration usage records
type UsageRepository interface {
	// Insert writes a single usage record
	Insert(ctx context.Context, record *models.UsageRecord) error

	// GetByID retrieves a usage record by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.UsageRecord, error)

	// GetByRequestID retrieves the record written for one orchestration call
	GetByRequestID(ctx context.Context, requestID string) (*models.UsageRecord, error)

	// GetByProvider retrieves recent records attributed to one provider
	GetByProvider(ctx context.Context, provider string, limit, offset int) ([]*models.UsageRecord, error)

	// GetByDateRange retrieves records within a time window
	GetByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*models.UsageRecord, error)

	// SumCostByProvider aggregates estimated spend per provider within a window
	SumCostByProvider(ctx context.Context, start, end time.Time) (map[string]float64, error)
}
