package models

import "github.com/shopspring/decimal"

type PeriodStats struct {
	TotalAmount   decimal.Decimal `json:"total_amount"`
	MonthlyChange float64         `json:"monthly_change"`
}

type FriendsActivity struct {
	ActiveCount  int `json:"active_count"`
	NewThisMonth int `json:"new_this_month"`
}

type CategoryStats struct {
	Name       Category        `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
}

type Stats struct {
	TotalExpenses      PeriodStats     `json:"total_expenses"`
	SharedExpenses     PeriodStats     `json:"shared_expenses"`
	FriendsActivity    FriendsActivity `json:"friends_activity"`
	ExpensesByCategory []CategoryStats `json:"expenses_by_category"`
}
