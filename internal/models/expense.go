package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryFood          Category = "Food"
	CategoryTravel        Category = "Travel"
	CategoryShopping      Category = "Shopping"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealthcare    Category = "Healthcare"
	CategoryOther         Category = "Other"
)

// Categories lists every accepted expense category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryTravel,
	CategoryShopping,
	CategoryEntertainment,
	CategoryHealthcare,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// DateLayout is the wire format of an expense date.
const DateLayout = "2006-01-02"

type Participant struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
	User   *User           `json:"user,omitempty"`
}

type Expense struct {
	ID           uuid.UUID       `json:"id"`
	OwnerID      string          `json:"owner_id"`
	Category     Category        `json:"category"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	CreatedAt    time.Time       `json:"created_at"`
	IsShared     bool            `json:"is_shared"`
	PaidBy       *string         `json:"paid_by,omitempty"`
	Participants []Participant   `json:"participants,omitempty"`
}

// HasParticipant reports whether userID holds a share of the expense.
func (e *Expense) HasParticipant(userID string) bool {
	_, ok := e.ShareOf(userID)
	return ok
}

// ShareOf returns the participant amount attributed to userID.
func (e *Expense) ShareOf(userID string) (decimal.Decimal, bool) {
	for _, p := range e.Participants {
		if p.UserID == userID {
			return p.Amount, true
		}
	}
	return decimal.Zero, false
}

// PaidByUser reports whether the expense is shared and was paid by userID.
func (e *Expense) PaidByUser(userID string) bool {
	return e.IsShared && e.PaidBy != nil && *e.PaidBy == userID
}

type CreateExpenseParams struct {
	OwnerID      string
	Category     Category
	Name         string
	Amount       decimal.Decimal
	Date         time.Time
	IsShared     bool
	PaidBy       *string
	Participants []Participant
}
