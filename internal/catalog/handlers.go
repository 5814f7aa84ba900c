package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/proposalhero/internal/common"
	"github.com/noah-isme/proposalhero/internal/pricing"
)

// Handler exposes reference-data endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

type replaceTiersRequest struct {
	Tiers []pricing.Tier `json:"tiers"`
}

// PricingTiers handles GET /api/v1/pricing-tiers?dimension=.
func (h *Handler) PricingTiers(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	d, err := pricing.ParseDimension(r.URL.Query().Get("dimension"))
	if err != nil {
		common.WriteError(w, badRequest("dimension", err.Error()))
		return
	}
	rows, err := h.service.ListPricingTiers(r.Context(), d)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// ReplacePricingTiers handles PUT /api/v1/pricing-tiers/{dimension}.
func (h *Handler) ReplacePricingTiers(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	d, err := pricing.ParseDimension(chi.URLParam(r, "dimension"))
	if err != nil {
		common.WriteError(w, badRequest("dimension", err.Error()))
		return
	}
	var req replaceTiersRequest
	if err := common.ReadJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	rows, err := h.service.ReplacePricingTiers(r.Context(), d, req.Tiers)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// Executives handles GET /api/v1/executives.
func (h *Handler) Executives(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	rows, err := h.service.ListExecutives(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// Executive handles GET /api/v1/executives/{name}.
func (h *Handler) Executive(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	row, err := h.service.GetExecutiveByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": row})
}

// ImplementationPackages handles GET /api/v1/implementation-packages.
func (h *Handler) ImplementationPackages(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	rows, err := h.service.ListImplementationPackages(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// CodeElements handles GET /api/v1/code-elements?category=.
func (h *Handler) CodeElements(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	rows, err := h.service.ListCodeElements(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// Opportunities handles GET /api/v1/opportunities?owner=.
func (h *Handler) Opportunities(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	rows, err := h.service.ListOpportunitiesByOwner(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// AccountType handles GET /api/v1/opportunities/{id}/account-type.
func (h *Handler) AccountType(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	id := chi.URLParam(r, "id")
	accountType, err := h.service.GetAccountTypeByOpportunity(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"opportunityId": id, "accountType": accountType}})
}

// writeError answers single-record misses with a bare null body.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		common.JSON(w, http.StatusNotFound, nil)
		return
	}
	common.WriteError(w, err)
}
