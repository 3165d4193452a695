package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/model-orchestrator/models"
	"github.com/upb/model-orchestrator/utils"
)

const (
	defaultRecordLimit = 50
	maxRecordLimit     = 200

	// defaultUsageWindow bounds unfiltered reads to the last day
	defaultUsageWindow = 24 * time.Hour
)

// UsageStore defines the usage accounting reads exposed over HTTP
type UsageStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.UsageRecord, error)
	GetByRequestID(ctx context.Context, requestID string) (*models.UsageRecord, error)
	GetByProvider(ctx context.Context, provider string, limit, offset int) ([]*models.UsageRecord, error)
	GetByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*models.UsageRecord, error)
	SumCostByProvider(ctx context.Context, start, end time.Time) (map[string]float64, error)
}

// UsageHandler handles usage accounting HTTP requests
type UsageHandler struct {
	store  UsageStore
	logger *zap.Logger
}

// NewUsageHandler creates a new UsageHandler
func NewUsageHandler(store UsageStore, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{
		store:  store,
		logger: logger,
	}
}

// UsageListResponse is the wire shape of usage record listings
type UsageListResponse struct {
	Records []*models.UsageRecord `json:"records"`
	Count   int                   `json:"count"`
}

// CostSummaryResponse is the wire shape of the per-provider spend aggregate
type CostSummaryResponse struct {
	From  time.Time          `json:"from"`
	To    time.Time          `json:"to"`
	Costs map[string]float64 `json:"costs"`
}

// HandleGetRecord handles GET /api/v1/usage/records/{id}
func (h *UsageHandler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid usage record ID", nil)
		return
	}

	record, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, record)
}

// HandleListRecords handles GET /api/v1/usage/records. One filter applies per
// request: request_id, provider, or a from/to window (default: the last day).
func (h *UsageHandler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := paginationParams(q)

	if requestID := q.Get("request_id"); requestID != "" {
		record, err := h.store.GetByRequestID(r.Context(), requestID)
		if err != nil {
			HandleServiceError(w, err, h.logger)
			return
		}
		_ = utils.WriteOK(w, UsageListResponse{
			Records: []*models.UsageRecord{record},
			Count:   1,
		})
		return
	}

	if provider := q.Get("provider"); provider != "" {
		records, err := h.store.GetByProvider(r.Context(), provider, limit, offset)
		if err != nil {
			HandleServiceError(w, err, h.logger)
			return
		}
		h.writeRecords(w, records)
		return
	}

	from, to, err := windowParams(q)
	if err != nil {
		_ = utils.WriteBadRequest(w, "from and to must be RFC 3339 timestamps", nil)
		return
	}

	records, err := h.store.GetByDateRange(r.Context(), from, to, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	h.writeRecords(w, records)
}

// HandleCostSummary handles GET /api/v1/usage/costs
func (h *UsageHandler) HandleCostSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := windowParams(r.URL.Query())
	if err != nil {
		_ = utils.WriteBadRequest(w, "from and to must be RFC 3339 timestamps", nil)
		return
	}

	costs, err := h.store.SumCostByProvider(r.Context(), from, to)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, CostSummaryResponse{
		From:  from,
		To:    to,
		Costs: costs,
	})
}

func (h *UsageHandler) writeRecords(w http.ResponseWriter, records []*models.UsageRecord) {
	if records == nil {
		records = []*models.UsageRecord{}
	}
	_ = utils.WriteOK(w, UsageListResponse{
		Records: records,
		Count:   len(records),
	})
}

func paginationParams(q url.Values) (limit, offset int) {
	limit = defaultRecordLimit
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxRecordLimit {
		limit = maxRecordLimit
	}

	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

func windowParams(q url.Values) (from, to time.Time, err error) {
	to = time.Now().UTC()
	from = to.Add(-defaultUsageWindow)

	if v := q.Get("from"); v != "" {
		from, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if v := q.Get("to"); v != "" {
		to, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return from, to, nil
}
