package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/model-orchestrator/services/catalog"
	"github.com/upb/model-orchestrator/utils"
)

// CatalogService defines the catalog read operations exposed over HTTP
type CatalogService interface {
	Providers() []*catalog.ProviderProfile
	CapableProviders(task catalog.TaskKind, asset catalog.AssetKind) ([]*catalog.ProviderProfile, error)
}

// CatalogHandler handles provider catalog HTTP requests
type CatalogHandler struct {
	service CatalogService
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(service CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger,
	}
}

// ProviderListResponse is the wire shape of catalog listings
type ProviderListResponse struct {
	Providers []*catalog.ProviderProfile `json:"providers"`
	Count     int                        `json:"count"`
}

// HandleListProviders handles GET /api/v1/catalog/providers
func (h *CatalogHandler) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	providers := h.service.Providers()
	_ = utils.WriteOK(w, ProviderListResponse{
		Providers: providers,
		Count:     len(providers),
	})
}

// HandleCapableProviders handles GET /api/v1/catalog/providers/capable.
// Results preserve catalog declaration order, not ranked order.
func (h *CatalogHandler) HandleCapableProviders(w http.ResponseWriter, r *http.Request) {
	task := r.URL.Query().Get("task")
	assetKind := r.URL.Query().Get("asset_kind")

	if task == "" || assetKind == "" {
		_ = utils.WriteBadRequest(w, "task and asset_kind query parameters are required", nil)
		return
	}

	providers, err := h.service.CapableProviders(catalog.TaskKind(task), catalog.AssetKind(assetKind))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, ProviderListResponse{
		Providers: providers,
		Count:     len(providers),
	})
}
