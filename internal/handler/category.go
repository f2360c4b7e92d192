package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/spendwise/spendwise/internal/auth"
	"github.com/spendwise/spendwise/internal/handler/dto"
	"github.com/spendwise/spendwise/internal/service"
)

// CategoryHandler handles HTTP requests for category operations.
type CategoryHandler struct {
	svc    *service.CategoryService
	logger *slog.Logger
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(svc *service.CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/v1/categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	principalID := auth.UserIDFromContext(r.Context())

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	categories, err := h.svc.List(r.Context(), principalID, limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCategoryListResponse(categories))
}

// Create handles POST /api/v1/categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	principalID := auth.UserIDFromContext(r.Context())

	var req dto.CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	category, err := h.svc.Create(r.Context(), principalID, service.CreateCategoryInput{
		Name: req.Name,
		Icon: req.Icon,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("category_created", "category_id", category.ID, "user_id", principalID)

	writeJSON(w, http.StatusCreated, dto.ToCategoryResponse(category))
}

// Update handles PATCH /api/v1/categories/{id}.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	principalID := auth.UserIDFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Category ID is required")
		return
	}

	var req dto.UpdateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	category, err := h.svc.Update(r.Context(), principalID, id, service.UpdateCategoryInput{
		Name: req.Name,
		Icon: req.Icon,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("category_updated", "category_id", category.ID, "user_id", principalID)

	writeJSON(w, http.StatusOK, dto.ToCategoryResponse(category))
}

// Delete handles DELETE /api/v1/categories/{id}.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principalID := auth.UserIDFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Category ID is required")
		return
	}

	if err := h.svc.Delete(r.Context(), principalID, id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("category_deleted", "category_id", id, "user_id", principalID)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "category deleted"})
}
