// Package testutil provides fixtures shared by the ledger, service and
// handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HammerMeetNail/splitledger/internal/models"
)

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Day returns midnight UTC on the given calendar day.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func Share(userID, amount string) models.Participant {
	return models.Participant{UserID: userID, Amount: Dec(amount)}
}

// SharedExpense builds a shared expense owned and paid by payer.
func SharedExpense(payer, amount string, participants ...models.Participant) models.Expense {
	paidBy := payer
	return models.Expense{
		ID:           uuid.New(),
		OwnerID:      payer,
		Category:     models.CategoryFood,
		Name:         "dinner",
		Amount:       Dec(amount),
		IsShared:     true,
		PaidBy:       &paidBy,
		Participants: participants,
	}
}

func PersonalExpense(owner string, category models.Category, amount string, date time.Time) models.Expense {
	return models.Expense{
		ID:       uuid.New(),
		OwnerID:  owner,
		Category: category,
		Name:     string(category),
		Amount:   Dec(amount),
		Date:     date,
	}
}

// NewJSONRequest encodes data as the body of a test request.
func NewJSONRequest(t *testing.T, method, path string, data interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AssertStatusCode checks the recorded status and prints the body on mismatch.
func AssertStatusCode(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}
