package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/spendwise/spendwise/internal/auth"
	"github.com/spendwise/spendwise/internal/handler/dto"
	"github.com/spendwise/spendwise/internal/money"
	"github.com/spendwise/spendwise/internal/service"
)

// ExpenseHandler handles HTTP requests for expense operations.
type ExpenseHandler struct {
	svc    *service.ExpenseService
	logger *slog.Logger
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(svc *service.ExpenseService, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/v1/expenses.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	principalID := auth.UserIDFromContext(r.Context())

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	expenses, err := h.svc.List(r.Context(), principalID, limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToExpenseListResponse(expenses))
}

// Create handles POST /api/v1/expenses.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	principalID := auth.UserIDFromContext(r.Context())

	var req dto.CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	cents, err := money.ToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "amount: must be a positive monetary value")
		return
	}

	date, err := dto.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	expense, err := h.svc.Create(r.Context(), principalID, service.CreateExpenseInput{
		AmountCents: cents,
		Description: req.Description,
		Date:        date,
		CategoryID:  req.CategoryID,
		BudgetID:    req.BudgetID,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("expense_created", "expense_id", expense.ID, "user_id", principalID)

	writeJSON(w, http.StatusCreated, dto.ToExpenseResponse(expense))
}

// Update handles PATCH /api/v1/expenses/{id}.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	principalID := auth.UserIDFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Expense ID is required")
		return
	}

	var req dto.UpdateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	input := service.UpdateExpenseInput{
		Description: req.Description,
		CategoryID:  req.CategoryID,
	}

	if req.Amount != nil {
		cents, err := money.ToCents(*req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "amount: must be a positive monetary value")
			return
		}
		input.AmountCents = &cents
	}

	if req.Date != nil {
		date, err := dto.ParseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		input.Date = &date
	}

	// Empty string clears the budget reference; any other value replaces it
	if req.BudgetID != nil {
		if *req.BudgetID == "" {
			input.RemoveBudget = true
		} else {
			input.BudgetID = req.BudgetID
		}
	}

	expense, err := h.svc.Update(r.Context(), principalID, id, input)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("expense_updated", "expense_id", expense.ID, "user_id", principalID)

	writeJSON(w, http.StatusOK, dto.ToExpenseResponse(expense))
}

// Delete handles DELETE /api/v1/expenses/{id}.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principalID := auth.UserIDFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Expense ID is required")
		return
	}

	if err := h.svc.Delete(r.Context(), principalID, id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("expense_deleted", "expense_id", id, "user_id", principalID)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "expense deleted"})
}
