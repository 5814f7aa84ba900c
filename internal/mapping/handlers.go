package mapping

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/noah-isme/proposalhero/internal/common"
	"github.com/noah-isme/proposalhero/internal/repo"
)

// Handler exposes variable-mapping and webhook endpoints.
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

type upsertRequest struct {
	VariableName string `json:"variableName"`
	FieldPath    string `json:"fieldPath"`
	Description  string `json:"description"`
}

// List handles GET /api/v1/variable-mappings.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "mapping service not configured", nil)
		return
	}
	rows, err := h.service.List(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// Upsert handles POST /api/v1/variable-mappings.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "mapping service not configured", nil)
		return
	}
	var req upsertRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	stored, err := h.service.Upsert(r.Context(), repo.VariableMapping{
		VariableName: req.VariableName,
		FieldPath:    req.FieldPath,
		Description:  req.Description,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": stored})
}

// Webhook handles POST /api/v1/webhooks/resolve. The body is {"template": ..., "data": ...};
// either member defaults to the whole body when absent.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "mapping service not configured", nil)
		return
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unable to read body", nil)
		return
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var body any
	if err := decoder.Decode(&body); err != nil {
		common.WriteError(w, &common.AppError{Code: "BAD_REQUEST", Message: "invalid JSON body", HTTPStatus: http.StatusBadRequest, Err: err})
		return
	}
	template, data := body, body
	if obj, ok := body.(map[string]any); ok {
		if t, ok := obj["template"]; ok {
			template = t
		}
		if d, ok := obj["data"]; ok {
			data = d
		}
	}
	result, err := h.service.ResolveWebhook(r.Context(), template, data)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}
