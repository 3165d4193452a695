package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/upb/model-orchestrator/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// CatalogSizer reports how many providers the catalog currently holds
type CatalogSizer interface {
	Len() int
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db      *sql.DB
	catalog CatalogSizer
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db may be nil when usage
// records go to the log sink.
func NewHealthHandler(db *sql.DB, catalog CatalogSizer, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		catalog: catalog,
		logger:  logger,
	}
}

// HandleHealth handles GET /healthz
// Basic liveness check - always returns 200 if the service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// Readiness requires a non-empty catalog and, when configured, a reachable database
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if h.catalog.Len() == 0 {
		checks["catalog"] = "empty"
		allHealthy = false
	} else {
		checks["catalog"] = "healthy"
	}

	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		allHealthy = false
	} else if h.db != nil {
		checks["database"] = "healthy"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// checkDatabase checks database connectivity
func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil // No database configured
	}

	if err := h.db.PingContext(ctx); err != nil {
		return err
	}

	var result int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return err
	}

	return nil
}
