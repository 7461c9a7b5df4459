// Package ledger holds the pure arithmetic of the expense ledger: split
// validation, pairwise balances and the monthly statistics rollup. Nothing in
// here touches storage; callers load expenses and pass them in.
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/HammerMeetNail/splitledger/internal/models"
)

var (
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrNoParticipants       = errors.New("shared expense needs at least one participant")
	ErrMissingParticipant   = errors.New("participant user id is required")
	ErrDuplicateParticipant = errors.New("participant listed more than once")
	ErrSplitMismatch        = errors.New("participant amounts do not add up to the total")
)

// Tolerance is the largest difference between a total and the sum of its
// shares that still counts as reconciled. It is also the settlement threshold.
var Tolerance = decimal.New(1, -2)

// Normalize rounds an amount to cents.
func Normalize(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// ValidateSplit checks that participants' shares reconcile with total.
// A difference of exactly one cent is accepted so that thirds of a whole
// amount (33.33 x 3 against 100.00) pass.
func ValidateSplit(total decimal.Decimal, participants []models.Participant) error {
	if !total.IsPositive() {
		return ErrInvalidAmount
	}
	if len(participants) == 0 {
		return ErrNoParticipants
	}

	seen := make(map[string]struct{}, len(participants))
	sum := decimal.Zero
	for _, p := range participants {
		if p.UserID == "" {
			return ErrMissingParticipant
		}
		if _, dup := seen[p.UserID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateParticipant, p.UserID)
		}
		seen[p.UserID] = struct{}{}
		if !p.Amount.IsPositive() {
			return fmt.Errorf("%w: share of %s", ErrInvalidAmount, p.UserID)
		}
		sum = sum.Add(p.Amount)
	}

	if sum.Sub(total).Abs().GreaterThan(Tolerance) {
		return fmt.Errorf("%w: shares %s, total %s", ErrSplitMismatch, sum.StringFixed(2), total.StringFixed(2))
	}
	return nil
}
