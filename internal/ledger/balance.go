package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/HammerMeetNail/splitledger/internal/models"
)

// ComputeBalance folds the shared expenses between userID and friendID into
// a signed balance. Positive means the friend owes userID. Expenses paid by a
// third party are ignored even when both users participate.
func ComputeBalance(userID, friendID string, expenses []models.Expense) models.Balance {
	balance := decimal.Zero
	for i := range expenses {
		exp := &expenses[i]
		if !exp.IsShared {
			continue
		}
		switch {
		case exp.PaidByUser(userID):
			if share, ok := exp.ShareOf(friendID); ok {
				balance = balance.Add(share)
			}
		case exp.PaidByUser(friendID):
			if share, ok := exp.ShareOf(userID); ok {
				balance = balance.Sub(share)
			}
		}
	}

	return models.Balance{
		Balance:   balance,
		IsSettled: IsSettled(balance),
	}
}

// IsSettled reports whether a balance is within one cent of zero.
func IsSettled(balance decimal.Decimal) bool {
	return balance.Abs().LessThan(Tolerance)
}
