package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/upb/model-orchestrator/models"
	"github.com/upb/model-orchestrator/repositories"
	"github.com/upb/model-orchestrator/services"
	"go.uber.org/zap"
)

// UsageRepository implements the repositories.UsageRepository interface
type UsageRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *DB, logger *zap.Logger) repositories.UsageRepository {
	return &UsageRepository{
		db:     db,
		logger: logger,
	}
}

// Insert writes a single usage record
func (r *UsageRepository) Insert(ctx context.Context, record *models.UsageRecord) error {
	query := `
		INSERT INTO usage_records (
			id, request_id, task, asset_kind, provider_used,
			processing_time_ms, cost_estimate, success, fallback_depth,
			error_message, recorded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.RequestID,
		record.Task,
		record.AssetKind,
		record.ProviderUsed,
		record.ProcessingTimeMs,
		record.CostEstimate,
		record.Success,
		record.FallbackDepth,
		record.ErrorMessage,
		record.RecordedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}

	r.logger.Debug("usage record inserted",
		zap.String("id", record.ID.String()),
		zap.String("provider_used", record.ProviderUsed))
	return nil
}

// GetByID retrieves a usage record by ID
func (r *UsageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UsageRecord, error) {
	query := `
		SELECT id, request_id, task, asset_kind, provider_used,
		       processing_time_ms, cost_estimate, success, fallback_depth,
		       error_message, recorded_at
		FROM usage_records
		WHERE id = $1
	`

	record := &models.UsageRecord{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID,
		&record.RequestID,
		&record.Task,
		&record.AssetKind,
		&record.ProviderUsed,
		&record.ProcessingTimeMs,
		&record.CostEstimate,
		&record.Success,
		&record.FallbackDepth,
		&record.ErrorMessage,
		&record.RecordedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, services.NewDomainError(services.ErrorTypeNotFound,
				fmt.Sprintf("usage record not found: %s", id), nil)
		}
		return nil, fmt.Errorf("failed to get usage record: %w", err)
	}

	return record, nil
}

// GetByRequestID retrieves the record written for one orchestration call
func (r *UsageRepository) GetByRequestID(ctx context.Context, requestID string) (*models.UsageRecord, error) {
	query := `
		SELECT id, request_id, task, asset_kind, provider_used,
		       processing_time_ms, cost_estimate, success, fallback_depth,
		       error_message, recorded_at
		FROM usage_records
		WHERE request_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	record := &models.UsageRecord{}
	err := r.db.QueryRowContext(ctx, query, requestID).Scan(
		&record.ID,
		&record.RequestID,
		&record.Task,
		&record.AssetKind,
		&record.ProviderUsed,
		&record.ProcessingTimeMs,
		&record.CostEstimate,
		&record.Success,
		&record.FallbackDepth,
		&record.ErrorMessage,
		&record.RecordedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, services.NewDomainError(services.ErrorTypeNotFound,
				fmt.Sprintf("usage record not found for request: %s", requestID), nil)
		}
		return nil, fmt.Errorf("failed to get usage record: %w", err)
	}

	return record, nil
}

// GetByProvider retrieves recent records attributed to one provider
func (r *UsageRepository) GetByProvider(ctx context.Context, provider string, limit, offset int) ([]*models.UsageRecord, error) {
	query := `
		SELECT id, request_id, task, asset_kind, provider_used,
		       processing_time_ms, cost_estimate, success, fallback_depth,
		       error_message, recorded_at
		FROM usage_records
		WHERE provider_used = $1
		ORDER BY recorded_at DESC
		LIMIT $2 OFFSET $3
	`

	return r.queryUsageRecords(ctx, query, provider, limit, offset)
}

// GetByDateRange retrieves records within a time window
func (r *UsageRepository) GetByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*models.UsageRecord, error) {
	query := `
		SELECT id, request_id, task, asset_kind, provider_used,
		       processing_time_ms, cost_estimate, success, fallback_depth,
		       error_message, recorded_at
		FROM usage_records
		WHERE recorded_at >= $1 AND recorded_at <= $2
		ORDER BY recorded_at DESC
		LIMIT $3 OFFSET $4
	`

	return r.queryUsageRecords(ctx, query, start, end, limit, offset)
}

// SumCostByProvider aggregates estimated spend per provider within a window
func (r *UsageRepository) SumCostByProvider(ctx context.Context, start, end time.Time) (map[string]float64, error) {
	query := `
		SELECT provider_used, COALESCE(SUM(cost_estimate), 0)
		FROM usage_records
		WHERE recorded_at >= $1 AND recorded_at <= $2 AND success = true
		GROUP BY provider_used
	`

	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage cost: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var provider string
		var total float64
		if err := rows.Scan(&provider, &total); err != nil {
			return nil, fmt.Errorf("failed to scan usage cost row: %w", err)
		}
		totals[provider] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage cost rows: %w", err)
	}

	return totals, nil
}

// queryUsageRecords is a helper method to query multiple usage records
func (r *UsageRepository) queryUsageRecords(ctx context.Context, query string, args ...interface{}) ([]*models.UsageRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer rows.Close()

	var records []*models.UsageRecord
	for rows.Next() {
		record := &models.UsageRecord{}
		err := rows.Scan(
			&record.ID,
			&record.RequestID,
			&record.Task,
			&record.AssetKind,
			&record.ProviderUsed,
			&record.ProcessingTimeMs,
			&record.CostEstimate,
			&record.Success,
			&record.FallbackDepth,
			&record.ErrorMessage,
			&record.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage record rows: %w", err)
	}

	return records, nil
}
