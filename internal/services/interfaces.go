package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/splitledger/internal/models"
)

// UserServiceInterface defines the contract for user operations.
type UserServiceInterface interface {
	Upsert(ctx context.Context, identity models.Identity) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// AuthServiceInterface defines the contract for session operations.
type AuthServiceInterface interface {
	Login(ctx context.Context, identity models.Identity) (*models.User, string, error)
	CreateSession(ctx context.Context, userID string) (token string, err error)
	ValidateSession(ctx context.Context, token string) (*models.User, error)
	DeleteSession(ctx context.Context, token string) error
}

// ExpenseServiceInterface defines the contract for expense operations.
type ExpenseServiceInterface interface {
	Create(ctx context.Context, params models.CreateExpenseParams) (*models.Expense, error)
	Delete(ctx context.Context, requesterID string, expenseID uuid.UUID) error
	ListForUser(ctx context.Context, userID string) ([]models.Expense, error)
}

// FriendServiceInterface defines the contract for the friend request state machine.
type FriendServiceInterface interface {
	SendRequest(ctx context.Context, senderID, recipientEmail string) (*models.FriendRequest, error)
	AcceptRequest(ctx context.Context, recipientID, senderID string) (*models.User, error)
	RejectRequest(ctx context.Context, recipientID, senderID string) error
	CancelRequest(ctx context.Context, senderID, recipientID string) error
	ListFriends(ctx context.Context, userID string) ([]models.User, error)
	ListIncoming(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error)
	ListOutgoing(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error)
	IsFriend(ctx context.Context, userID, otherUserID string) (bool, error)
}

// BalanceServiceInterface defines the contract for balance queries.
type BalanceServiceInterface interface {
	ComputeBalance(ctx context.Context, userID, friendID string) (*models.Balance, error)
	ComputeAllBalances(ctx context.Context, userID string) ([]models.FriendBalance, error)
}

// StatsServiceInterface defines the contract for statistics queries.
type StatsServiceInterface interface {
	GetStats(ctx context.Context, userID string) (*models.Stats, error)
}

var (
	_ UserServiceInterface    = (*UserService)(nil)
	_ AuthServiceInterface    = (*AuthService)(nil)
	_ ExpenseServiceInterface = (*ExpenseService)(nil)
	_ FriendServiceInterface  = (*FriendService)(nil)
	_ BalanceServiceInterface = (*BalanceService)(nil)
	_ StatsServiceInterface   = (*StatsService)(nil)
	_ StatsInvalidator        = (*StatsService)(nil)
)
