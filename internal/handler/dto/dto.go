// Package dto provides Data Transfer Objects for API requests and responses.
// Monetary amounts cross the wire as decimal dollars and are converted to
// integer cents at this boundary.
package dto

import (
	"fmt"
	"time"

	"github.com/spendwise/spendwise/internal/model"
	"github.com/spendwise/spendwise/internal/money"
)

// DateFormat is the wire format for expense dates.
const DateFormat = "2006-01-02"

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// MessageResponse carries a confirmation message, e.g. after a delete.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreateCategoryRequest represents the request body for creating a category.
type CreateCategoryRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// UpdateCategoryRequest represents the request body for updating a category.
type UpdateCategoryRequest struct {
	Name *string `json:"name,omitempty"`
	Icon *string `json:"icon,omitempty"`
}

// CategoryResponse represents a category in API responses. Shared rows have
// a null owner_id.
type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	OwnerID   *string   `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToCategoryResponse converts a Category model to CategoryResponse.
func ToCategoryResponse(category *model.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		Icon:      category.Icon,
		OwnerID:   category.OwnerID,
		CreatedAt: category.CreatedAt,
		UpdatedAt: category.UpdatedAt,
	}
}

// ToCategoryListResponse converts a slice of Category models.
func ToCategoryListResponse(categories []*model.Category) []CategoryResponse {
	responses := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		responses[i] = *ToCategoryResponse(c)
	}
	return responses
}

// CreateBudgetRequest represents the request body for creating a budget.
type CreateBudgetRequest struct {
	Amount float64 `json:"amount"`
}

// UpdateBudgetRequest represents the request body for updating a budget.
type UpdateBudgetRequest struct {
	Amount *float64 `json:"amount,omitempty"`
}

// BudgetResponse represents a budget in API responses.
type BudgetResponse struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"amount"`
	OwnerID   *string   `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToBudgetResponse converts a Budget model to BudgetResponse.
func ToBudgetResponse(budget *model.Budget) *BudgetResponse {
	return &BudgetResponse{
		ID:        budget.ID,
		Amount:    money.FromCents(budget.AmountCents),
		OwnerID:   budget.OwnerID,
		CreatedAt: budget.CreatedAt,
		UpdatedAt: budget.UpdatedAt,
	}
}

// ToBudgetListResponse converts a slice of Budget models.
func ToBudgetListResponse(budgets []*model.Budget) []BudgetResponse {
	responses := make([]BudgetResponse, len(budgets))
	for i, b := range budgets {
		responses[i] = *ToBudgetResponse(b)
	}
	return responses
}

// CreateExpenseRequest represents the request body for creating an expense.
type CreateExpenseRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
	Date        string  `json:"date"`
	CategoryID  string  `json:"category_id"`
	BudgetID    *string `json:"budget_id,omitempty"`
}

// UpdateExpenseRequest represents the request body for updating an expense.
// A budget_id explicitly set to the empty string clears the reference.
type UpdateExpenseRequest struct {
	Amount      *float64 `json:"amount,omitempty"`
	Description *string  `json:"description,omitempty"`
	Date        *string  `json:"date,omitempty"`
	CategoryID  *string  `json:"category_id,omitempty"`
	BudgetID    *string  `json:"budget_id,omitempty"`
}

// ExpenseResponse represents an expense in API responses.
type ExpenseResponse struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date"`
	CategoryID  string    `json:"category_id"`
	BudgetID    *string   `json:"budget_id,omitempty"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToExpenseResponse converts an Expense model to ExpenseResponse.
func ToExpenseResponse(expense *model.Expense) *ExpenseResponse {
	return &ExpenseResponse{
		ID:          expense.ID,
		Amount:      money.FromCents(expense.AmountCents),
		Description: expense.Description,
		Date:        expense.Date.Format(DateFormat),
		CategoryID:  expense.CategoryID,
		BudgetID:    expense.BudgetID,
		OwnerID:     expense.OwnerID,
		CreatedAt:   expense.CreatedAt,
		UpdatedAt:   expense.UpdatedAt,
	}
}

// ToExpenseListResponse converts a slice of Expense models.
func ToExpenseListResponse(expenses []*model.Expense) []ExpenseResponse {
	responses := make([]ExpenseResponse, len(expenses))
	for i, e := range expenses {
		responses[i] = *ToExpenseResponse(e)
	}
	return responses
}

// ParseDate parses a wire-format expense date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be in %s format", DateFormat)
	}
	return t, nil
}

// RegisterRequest represents the request body for creating an account.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// LoginRequest represents the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents an account in API responses. The password hash
// never appears here.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionResponse represents a freshly opened session.
type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// ToUserResponse converts a User model to UserResponse.
func ToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: user.CreatedAt,
	}
}
