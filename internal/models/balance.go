package models

import "github.com/shopspring/decimal"

// Balance is the net position between a user and one friend. A positive
// Balance means the friend owes the user.
type Balance struct {
	Balance   decimal.Decimal `json:"balance"`
	IsSettled bool            `json:"is_settled"`
}

type FriendBalance struct {
	Friend User `json:"friend"`
	Balance
}
