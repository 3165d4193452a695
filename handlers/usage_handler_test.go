package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/model-orchestrator/models"
	"github.com/upb/model-orchestrator/services"
)

// stubUsageStore returns canned data and remembers query arguments
type stubUsageStore struct {
	record  *models.UsageRecord
	records []*models.UsageRecord
	costs   map[string]float64
	err     error

	gotID       uuid.UUID
	gotProvider string
	gotLimit    int
	gotOffset   int
	gotFrom     time.Time
	gotTo       time.Time
}

func (s *stubUsageStore) GetByID(_ context.Context, id uuid.UUID) (*models.UsageRecord, error) {
	s.gotID = id
	return s.record, s.err
}

func (s *stubUsageStore) GetByRequestID(_ context.Context, requestID string) (*models.UsageRecord, error) {
	return s.record, s.err
}

func (s *stubUsageStore) GetByProvider(_ context.Context, provider string, limit, offset int) ([]*models.UsageRecord, error) {
	s.gotProvider = provider
	s.gotLimit = limit
	s.gotOffset = offset
	return s.records, s.err
}

func (s *stubUsageStore) GetByDateRange(_ context.Context, start, end time.Time, limit, offset int) ([]*models.UsageRecord, error) {
	s.gotFrom = start
	s.gotTo = end
	s.gotLimit = limit
	s.gotOffset = offset
	return s.records, s.err
}

func (s *stubUsageStore) SumCostByProvider(_ context.Context, start, end time.Time) (map[string]float64, error) {
	s.gotFrom = start
	s.gotTo = end
	return s.costs, s.err
}

func newUsageRouter(store *stubUsageStore) http.Handler {
	logger, _ := zap.NewDevelopment()
	h := NewUsageHandler(store, logger)

	r := chi.NewRouter()
	r.Get("/api/v1/usage/records", h.HandleListRecords)
	r.Get("/api/v1/usage/records/{id}", h.HandleGetRecord)
	r.Get("/api/v1/usage/costs", h.HandleCostSummary)
	return r
}

func usageGet(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sampleUsageRecord() *models.UsageRecord {
	return models.NewUsageRecord("captioning", "image").
		WithRequest("req-1").
		WithSuccess("vertex-flash", 42, 0.001, 0)
}

func TestUsageHandler_GetRecord(t *testing.T) {
	record := sampleUsageRecord()
	store := &stubUsageStore{record: record}
	router := newUsageRouter(store)

	rec := usageGet(t, router, "/api/v1/usage/records/"+record.ID.String())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, record.ID, store.gotID)

	var resp struct {
		Data models.UsageRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, record.ID, resp.Data.ID)
	assert.Equal(t, "vertex-flash", resp.Data.ProviderUsed)
}

func TestUsageHandler_GetRecord_InvalidID(t *testing.T) {
	router := newUsageRouter(&stubUsageStore{})

	rec := usageGet(t, router, "/api/v1/usage/records/not-a-uuid")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsageHandler_GetRecord_NotFound(t *testing.T) {
	store := &stubUsageStore{
		err: services.NewDomainError(services.ErrorTypeNotFound, "usage record not found", nil),
	}
	router := newUsageRouter(store)

	rec := usageGet(t, router, "/api/v1/usage/records/"+uuid.NewString())

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsageHandler_ListRecords_ByRequestID(t *testing.T) {
	record := sampleUsageRecord()
	store := &stubUsageStore{record: record}
	router := newUsageRouter(store)

	rec := usageGet(t, router, "/api/v1/usage/records?request_id=req-1")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data UsageListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Count)
	require.Len(t, resp.Data.Records, 1)
	assert.Equal(t, "req-1", resp.Data.Records[0].RequestID)
}

func TestUsageHandler_ListRecords_ByProvider(t *testing.T) {
	store := &stubUsageStore{records: []*models.UsageRecord{sampleUsageRecord()}}
	router := newUsageRouter(store)

	rec := usageGet(t, router, "/api/v1/usage/records?provider=vertex-flash&limit=10&offset=5")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "vertex-flash", store.gotProvider)
	assert.Equal(t, 10, store.gotLimit)
	assert.Equal(t, 5, store.gotOffset)
}

func TestUsageHandler_ListRecords_LimitCapped(t *testing.T) {
	store := &stubUsageStore{}
	router := newUsageRouter(store)

	rec := usageGet(t, router, "/api/v1/usage/records?provider=vertex-flash&limit=100000")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxRecordLimit, store.gotLimit)
}

func TestUsageHandler_ListRecords_DefaultWindow(t *testing.T) {
	store := &stubUsageStore{}
	router := newUsageRouter(store)

	rec := usageGet(t, router, "/api/v1/usage/records")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultRecordLimit, store.gotLimit)
	assert.InDelta(t, defaultUsageWindow.Seconds(), store.gotTo.Sub(store.gotFrom).Seconds(), 1)

	var resp struct {
		Data UsageListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Data.Count)
	assert.NotNil(t, resp.Data.Records)
}

func TestUsageHandler_ListRecords_BadTimestamp(t *testing.T) {
	router := newUsageRouter(&stubUsageStore{})

	rec := usageGet(t, router, "/api/v1/usage/records?from=yesterday")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsageHandler_CostSummary(t *testing.T) {
	store := &stubUsageStore{costs: map[string]float64{
		"vertex-flash": 0.12,
		"openai-gpt4v": 1.08,
	}}
	router := newUsageRouter(store)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	rec := usageGet(t, router, "/api/v1/usage/costs?from="+from.Format(time.RFC3339)+"&to="+to.Format(time.RFC3339))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, from, store.gotFrom)
	assert.Equal(t, to, store.gotTo)

	var resp struct {
		Data CostSummaryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 0.12, resp.Data.Costs["vertex-flash"], 1e-9)
	assert.InDelta(t, 1.08, resp.Data.Costs["openai-gpt4v"], 1e-9)
}
