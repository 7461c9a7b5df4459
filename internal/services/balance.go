package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/HammerMeetNail/splitledger/internal/ledger"
	"github.com/HammerMeetNail/splitledger/internal/models"
)

const balanceFanOut = 4

// FriendLister lists the friends of a user ordered by name.
type FriendLister interface {
	ListFriends(ctx context.Context, userID string) ([]models.User, error)
}

// BalanceService loads shared expenses and folds them into pairwise balances.
// Reads are not snapshot isolated: a balance computed while an expense is
// being deleted may include or miss it.
type BalanceService struct {
	db      DBConn
	friends FriendLister
}

func NewBalanceService(db DBConn, friends FriendLister) *BalanceService {
	return &BalanceService{db: db, friends: friends}
}

// ComputeBalance returns what friendID owes userID. A pair with no shared
// history is settled at zero.
func (s *BalanceService) ComputeBalance(ctx context.Context, userID, friendID string) (*models.Balance, error) {
	if _, err := getUser(ctx, s.db, "id", userID); err != nil {
		return nil, err
	}
	balance, err := s.pairBalance(ctx, userID, friendID)
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (s *BalanceService) pairBalance(ctx context.Context, userID, friendID string) (models.Balance, error) {
	expenses, err := loadExpenses(ctx, s.db, sharedBetween(userID, friendID))
	if err != nil {
		return models.Balance{}, fmt.Errorf("loading shared expenses: %w", err)
	}
	return ledger.ComputeBalance(userID, friendID, expenses), nil
}

// ComputeAllBalances returns a balance for every friend of userID, in the
// friend list's name order.
func (s *BalanceService) ComputeAllBalances(ctx context.Context, userID string) ([]models.FriendBalance, error) {
	if _, err := getUser(ctx, s.db, "id", userID); err != nil {
		return nil, err
	}

	friends, err := s.friends.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]models.FriendBalance, len(friends))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(balanceFanOut)
	for i, friend := range friends {
		g.Go(func() error {
			balance, err := s.pairBalance(gctx, userID, friend.ID)
			if err != nil {
				return err
			}
			results[i] = models.FriendBalance{Friend: friend, Balance: balance}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
