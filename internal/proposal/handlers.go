package proposal

import (
	"net/http"

	"github.com/noah-isme/proposalhero/internal/common"
)

// Handler exposes the proposal wizard endpoints.
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

type formRequest struct {
	Form FormData `json:"form"`
}

type wizardRequest struct {
	Wizard Wizard   `json:"wizard"`
	Form   FormData `json:"form"`
	Move   string   `json:"move"`
}

type reduceRequest struct {
	Form   FormData `json:"form"`
	Action Action   `json:"action"`
}

// Summary handles POST /api/v1/proposals/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "proposal service not configured", nil)
		return
	}
	var req formRequest
	if err := common.ReadJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	summary, err := h.service.Summarize(r.Context(), req.Form)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": summary})
}

// Wizard handles POST /api/v1/proposals/wizard.
func (h *Handler) Wizard(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "proposal service not configured", nil)
		return
	}
	var req wizardRequest
	if err := common.ReadJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	next, err := h.service.Navigate(req.Wizard, req.Form, req.Move)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if next.InvalidFields == nil {
		next.InvalidFields = []string{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"wizard":      next,
		"step":        next.CurrentStep.String(),
		"canGenerate": next.CanGenerate(req.Form),
	}})
}

// Reduce handles POST /api/v1/proposals/reduce.
func (h *Handler) Reduce(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "proposal service not configured", nil)
		return
	}
	var req reduceRequest
	if err := common.ReadJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	next, err := h.service.Reduce(req.Form, req.Action)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"form": next}})
}

// Generate handles POST /api/v1/proposals/generate.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "proposal service not configured", nil)
		return
	}
	var req formRequest
	if err := common.ReadJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	result, err := h.service.Generate(r.Context(), req.Form)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": result})
}
