package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/upb/model-orchestrator/services/catalog"
	"github.com/upb/model-orchestrator/services/orchestrator"
	"github.com/upb/model-orchestrator/services/selector"
	"github.com/upb/model-orchestrator/utils"
)

// OrchestrateRequest is the wire shape of POST /api/v1/orchestrate
type OrchestrateRequest struct {
	Task             string            `json:"task" validate:"required"`
	AssetKind        string            `json:"asset_kind" validate:"required"`
	InputPayload     []byte            `json:"input_payload" validate:"required"`
	Complexity       string            `json:"complexity,omitempty" validate:"omitempty,oneof=low medium high critical"`
	BudgetPreference string            `json:"budget_preference,omitempty" validate:"omitempty,oneof=cost_optimized balanced performance"`
	Context          map[string]string `json:"context,omitempty"`
}

// OrchestrateResponse is the wire shape of the orchestrate result
type OrchestrateResponse struct {
	Success     bool                 `json:"success"`
	Result      *orchestrator.Result `json:"result"`
	TotalTimeMs int64                `json:"total_time_ms"`
}

// OrchestratorService defines the interface for orchestration operations
type OrchestratorService interface {
	Orchestrate(ctx context.Context, req *orchestrator.Request) (*orchestrator.Result, error)
}

// OrchestrateHandler handles orchestration HTTP requests
type OrchestrateHandler struct {
	service OrchestratorService
	logger  *zap.Logger
}

// NewOrchestrateHandler creates a new OrchestrateHandler
func NewOrchestrateHandler(service OrchestratorService, logger *zap.Logger) *OrchestrateHandler {
	return &OrchestrateHandler{
		service: service,
		logger:  logger,
	}
}

// HandleOrchestrate handles POST /api/v1/orchestrate. An exhausted chain is a
// 200 with success false; only rejected or canceled requests get error codes.
func (h *OrchestrateHandler) HandleOrchestrate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)
	start := time.Now()

	var wireReq OrchestrateRequest
	if err := json.NewDecoder(r.Body).Decode(&wireReq); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&wireReq); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	serviceReq := &orchestrator.Request{
		RequestID:  requestID,
		Task:       catalog.TaskKind(wireReq.Task),
		AssetKind:  catalog.AssetKind(wireReq.AssetKind),
		Payload:    wireReq.InputPayload,
		Complexity: selector.Complexity(wireReq.Complexity),
		Strategy:   selector.Strategy(wireReq.BudgetPreference),
		Metadata:   wireReq.Context,
	}

	result, err := h.service.Orchestrate(ctx, serviceReq)
	if err != nil {
		h.logger.Warn("orchestration rejected",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	// The orchestrate body is the contract's top-level shape, not the
	// data-wrapped envelope the read endpoints use
	if err := utils.WriteJSON(w, http.StatusOK, OrchestrateResponse{
		Success:     result.Success,
		Result:      result,
		TotalTimeMs: time.Since(start).Milliseconds(),
	}); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}
