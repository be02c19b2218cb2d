package procurement

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nirmaan-flow/nirmaan-flow/internal/platform/httpx"
)

// Handler exposes the workflow endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/send-back", h.handleSendBack)
	r.Post("/orders/{name}/on-update", h.handleOrderUpdated)
	r.Get("/requests/{name}", h.handleGetRequest)
}

type sendBackRequest struct {
	ProjectID     string   `json:"project_id" validate:"required"`
	PRName        string   `json:"pr_name" validate:"required"`
	SelectedItems []string `json:"selected_items"`
	Comments      string   `json:"comments"`
}

// handleSendBack keeps the legacy envelope the frontend expects: every
// failure, whatever its cause, collapses to {"error": ..., "status": 400}.
func (h *Handler) handleSendBack(w http.ResponseWriter, r *http.Request) {
	var req sendBackRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.sendBackError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.sendBackError(w, err)
		return
	}

	_, err := h.service.SendBack(r.Context(), SendBackInput{
		ProjectID:     req.ProjectID,
		PRName:        req.PRName,
		SelectedItems: req.SelectedItems,
		Comments:      req.Comments,
	})
	if err != nil {
		h.sendBackError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Sent Back created and Procurement Request updated successfully.",
		"status":  200,
	})
}

func (h *Handler) sendBackError(w http.ResponseWriter, err error) {
	h.logger.Error("send back items", slog.Any("error", err))
	httpx.JSON(w, http.StatusBadRequest, map[string]any{
		"error":  err.Error(),
		"status": 400,
	})
}

// handleOrderUpdated is the hook the document layer calls after each save
// of a procurement order. Unlike send-back there is no catch-all: errors
// surface as the framework's generic failure response.
func (h *Handler) handleOrderUpdated(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.service.OrderUpdated(r.Context(), name); err != nil {
		h.logger.Error("order lifecycle hook", slog.Any("error", err), slog.String("order", name))
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "procurement order "+name+" not found")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "ok"})
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	pr, err := h.service.GetRequest(r.Context(), name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "procurement request "+name+" not found")
			return
		}
		h.logger.Error("get procurement request", slog.Any("error", err), slog.String("request", name))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": map[string]any{
			"name":             pr.Name,
			"project":          pr.Project,
			"work_package":     pr.WorkPackage,
			"workflow_state":   pr.WorkflowState,
			"procurement_list": ItemList{List: pr.ProcurementList},
			"category_list":    CategoryList{List: pr.CategoryList},
		},
	})
}
