package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HammerMeetNail/splitledger/internal/models"
	"github.com/HammerMeetNail/splitledger/internal/services"
)

type ExpenseHandler struct {
	expenseService services.ExpenseServiceInterface
}

func NewExpenseHandler(expenseService services.ExpenseServiceInterface) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

type ParticipantRequest struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type CreateExpenseRequest struct {
	Category     models.Category      `json:"category"`
	Name         string               `json:"name"`
	Amount       decimal.Decimal      `json:"amount"`
	Date         string               `json:"date,omitempty"`
	IsShared     bool                 `json:"is_shared"`
	PaidBy       *string              `json:"paid_by,omitempty"`
	Participants []ParticipantRequest `json:"participants,omitempty"`
}

// ExpenseView is the wire form of an expense; Date is a calendar day.
type ExpenseView struct {
	ID           uuid.UUID            `json:"id"`
	OwnerID      string               `json:"owner_id"`
	Category     models.Category      `json:"category"`
	Name         string               `json:"name"`
	Amount       decimal.Decimal      `json:"amount"`
	Date         string               `json:"date"`
	CreatedAt    time.Time            `json:"created_at"`
	IsShared     bool                 `json:"is_shared"`
	PaidBy       *string              `json:"paid_by,omitempty"`
	Participants []models.Participant `json:"participants"`
}

type ExpenseResponse struct {
	Expense *ExpenseView `json:"expense,omitempty"`
	Message string       `json:"message,omitempty"`
}

type ExpenseListResponse struct {
	Expenses []ExpenseView `json:"expenses"`
}

func newExpenseView(e models.Expense) ExpenseView {
	participants := e.Participants
	if participants == nil {
		participants = []models.Participant{}
	}
	return ExpenseView{
		ID:           e.ID,
		OwnerID:      e.OwnerID,
		Category:     e.Category,
		Name:         e.Name,
		Amount:       e.Amount,
		Date:         e.Date.Format(models.DateLayout),
		CreatedAt:    e.CreatedAt,
		IsShared:     e.IsShared,
		PaidBy:       e.PaidBy,
		Participants: participants,
	}
}

func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	expenses, err := h.expenseService.ListForUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "listing expenses", err)
		return
	}

	views := make([]ExpenseView, 0, len(expenses))
	for _, e := range expenses {
		views = append(views, newExpenseView(e))
	}
	writeJSON(w, http.StatusOK, ExpenseListResponse{Expenses: views})
}

func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params := models.CreateExpenseParams{
		OwnerID:  userID,
		Category: req.Category,
		Name:     req.Name,
		Amount:   req.Amount,
		IsShared: req.IsShared,
		PaidBy:   req.PaidBy,
	}
	if date := strings.TrimSpace(req.Date); date != "" {
		parsed, err := time.Parse(models.DateLayout, date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		params.Date = parsed
	}
	for _, p := range req.Participants {
		params.Participants = append(params.Participants, models.Participant{
			UserID: strings.TrimSpace(p.UserID),
			Amount: p.Amount,
		})
	}

	expense, err := h.expenseService.Create(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, "creating expense", err)
		return
	}

	view := newExpenseView(*expense)
	writeJSON(w, http.StatusCreated, ExpenseResponse{Expense: &view})
}

func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	expenseID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expense ID")
		return
	}

	if err := h.expenseService.Delete(r.Context(), userID, expenseID); err != nil {
		writeServiceError(w, r, "deleting expense", err)
		return
	}

	writeJSON(w, http.StatusOK, ExpenseResponse{Message: "Expense deleted"})
}
