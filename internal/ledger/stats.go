package ledger

import (
	"sort"
	"time"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"

	"github.com/HammerMeetNail/splitledger/internal/models"
)

type window struct {
	start, end time.Time
}

func (w window) contains(t time.Time) bool {
	return !t.Before(w.start) && !t.After(w.end)
}

// monthWindows returns the calendar month containing asOf and the one before.
func monthWindows(asOf time.Time) (current, previous window) {
	cur := now.With(asOf)
	current = window{start: cur.BeginningOfMonth(), end: cur.EndOfMonth()}

	prev := now.With(current.start.AddDate(0, 0, -1))
	previous = window{start: prev.BeginningOfMonth(), end: prev.EndOfMonth()}
	return current, previous
}

// ComputeStats rolls up the expenses userID owns or participates in. Month
// boundaries are taken in asOf's location; expense dates are calendar dates and
// are compared in that same location.
func ComputeStats(userID string, expenses []models.Expense, asOf time.Time) models.Stats {
	current, previous := monthWindows(asOf)

	var (
		total, prevTotal   = decimal.Zero, decimal.Zero
		shared, prevShared = decimal.Zero, decimal.Zero
		allTime            = decimal.Zero
		byCategory         = make(map[models.Category]decimal.Decimal)
		activeCurrent      = make(map[string]struct{})
		activePrevious     = make(map[string]struct{})
	)

	for i := range expenses {
		exp := &expenses[i]
		date := calendarDate(exp.Date, asOf.Location())

		byCategory[exp.Category] = byCategory[exp.Category].Add(exp.Amount)
		allTime = allTime.Add(exp.Amount)

		switch {
		case current.contains(date):
			total = total.Add(exp.Amount)
			if exp.IsShared {
				shared = shared.Add(exp.Amount)
			}
			collectCoParticipants(activeCurrent, exp, userID)
		case previous.contains(date):
			prevTotal = prevTotal.Add(exp.Amount)
			if exp.IsShared {
				prevShared = prevShared.Add(exp.Amount)
			}
			collectCoParticipants(activePrevious, exp, userID)
		}
	}

	newThisMonth := len(activeCurrent) - len(activePrevious)
	if newThisMonth < 0 {
		newThisMonth = 0
	}

	return models.Stats{
		TotalExpenses: models.PeriodStats{
			TotalAmount:   total,
			MonthlyChange: MonthlyChange(total, prevTotal),
		},
		SharedExpenses: models.PeriodStats{
			TotalAmount:   shared,
			MonthlyChange: MonthlyChange(shared, prevShared),
		},
		FriendsActivity: models.FriendsActivity{
			ActiveCount:  len(activeCurrent),
			NewThisMonth: newThisMonth,
		},
		ExpensesByCategory: categoryBreakdown(byCategory, allTime),
	}
}

// MonthlyChange is the percentage change from previous to current. It is 0
// when previous is 0, which also covers the no-history case.
func MonthlyChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	change, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Float64()
	return change
}

// collectCoParticipants records the other participants of exp when userID is
// itself one of them.
func collectCoParticipants(into map[string]struct{}, exp *models.Expense, userID string) {
	if !exp.HasParticipant(userID) {
		return
	}
	for _, p := range exp.Participants {
		if p.UserID != userID {
			into[p.UserID] = struct{}{}
		}
	}
}

func categoryBreakdown(byCategory map[models.Category]decimal.Decimal, total decimal.Decimal) []models.CategoryStats {
	result := make([]models.CategoryStats, 0, len(byCategory))
	if total.IsZero() {
		return result
	}

	hundred := decimal.NewFromInt(100)
	for category, amount := range byCategory {
		if amount.IsZero() {
			continue
		}
		pct, _ := amount.Div(total).Mul(hundred).Float64()
		result = append(result, models.CategoryStats{
			Name:       category,
			Amount:     amount,
			Percentage: pct,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if cmp := result[i].Amount.Cmp(result[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// calendarDate re-anchors a stored date (midnight UTC) to loc without moving
// it to a different day.
func calendarDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
