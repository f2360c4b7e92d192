package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spendwise/spendwise/internal/auth"
	"github.com/spendwise/spendwise/internal/handler/dto"
	"github.com/spendwise/spendwise/internal/money"
	"github.com/spendwise/spendwise/internal/service"
)

// BudgetHandler handles HTTP requests for budget operations.
type BudgetHandler struct {
	svc    *service.BudgetService
	logger *slog.Logger
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(svc *service.BudgetService, logger *slog.Logger) *BudgetHandler {
	return &BudgetHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/v1/budgets.
func (h *BudgetHandler) List(w http.ResponseWriter, r *http.Request) {
	principalID := auth.UserIDFromContext(r.Context())

	budgets, err := h.svc.List(r.Context(), principalID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToBudgetListResponse(budgets))
}

// Create handles POST /api/v1/budgets.
func (h *BudgetHandler) Create(w http.ResponseWriter, r *http.Request) {
	principalID := auth.UserIDFromContext(r.Context())

	var req dto.CreateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	cents, err := money.ToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "amount: must be a positive monetary value")
		return
	}

	budget, err := h.svc.Create(r.Context(), principalID, service.CreateBudgetInput{
		AmountCents: cents,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("budget_created", "budget_id", budget.ID, "user_id", principalID)

	writeJSON(w, http.StatusCreated, dto.ToBudgetResponse(budget))
}

// Update handles PATCH /api/v1/budgets/{id}.
func (h *BudgetHandler) Update(w http.ResponseWriter, r *http.Request) {
	principalID := auth.UserIDFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Budget ID is required")
		return
	}

	var req dto.UpdateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	input := service.UpdateBudgetInput{}
	if req.Amount != nil {
		cents, err := money.ToCents(*req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "amount: must be a positive monetary value")
			return
		}
		input.AmountCents = &cents
	}

	budget, err := h.svc.Update(r.Context(), principalID, id, input)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("budget_updated", "budget_id", budget.ID, "user_id", principalID)

	writeJSON(w, http.StatusOK, dto.ToBudgetResponse(budget))
}

// Delete handles DELETE /api/v1/budgets/{id}.
func (h *BudgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principalID := auth.UserIDFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Budget ID is required")
		return
	}

	if err := h.svc.Delete(r.Context(), principalID, id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("budget_deleted", "budget_id", id, "user_id", principalID)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "budget deleted"})
}
