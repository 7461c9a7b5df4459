package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/splitledger/internal/models"
)

type mockUserService struct {
	UpsertFunc  func(ctx context.Context, identity models.Identity) (*models.User, error)
	GetByIDFunc func(ctx context.Context, id string) (*models.User, error)
	ListFunc    func(ctx context.Context) ([]models.User, error)
}

func (m *mockUserService) Upsert(ctx context.Context, identity models.Identity) (*models.User, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, identity)
	}
	return nil, nil
}

func (m *mockUserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserService) List(ctx context.Context) ([]models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

type mockAuthService struct {
	LoginFunc           func(ctx context.Context, identity models.Identity) (*models.User, string, error)
	CreateSessionFunc   func(ctx context.Context, userID string) (string, error)
	ValidateSessionFunc func(ctx context.Context, token string) (*models.User, error)
	DeleteSessionFunc   func(ctx context.Context, token string) error
}

func (m *mockAuthService) Login(ctx context.Context, identity models.Identity) (*models.User, string, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, identity)
	}
	return &models.User{ID: identity.ID, Email: identity.Email, Name: identity.Name}, "session-token", nil
}

func (m *mockAuthService) CreateSession(ctx context.Context, userID string) (string, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, userID)
	}
	return "session-token", nil
}

func (m *mockAuthService) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	if m.ValidateSessionFunc != nil {
		return m.ValidateSessionFunc(ctx, token)
	}
	return nil, nil
}

func (m *mockAuthService) DeleteSession(ctx context.Context, token string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, token)
	}
	return nil
}

type mockExpenseService struct {
	CreateFunc      func(ctx context.Context, params models.CreateExpenseParams) (*models.Expense, error)
	DeleteFunc      func(ctx context.Context, requesterID string, expenseID uuid.UUID) error
	ListForUserFunc func(ctx context.Context, userID string) ([]models.Expense, error)
}

func (m *mockExpenseService) Create(ctx context.Context, params models.CreateExpenseParams) (*models.Expense, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *mockExpenseService) Delete(ctx context.Context, requesterID string, expenseID uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, requesterID, expenseID)
	}
	return nil
}

func (m *mockExpenseService) ListForUser(ctx context.Context, userID string) ([]models.Expense, error) {
	if m.ListForUserFunc != nil {
		return m.ListForUserFunc(ctx, userID)
	}
	return nil, nil
}

type mockFriendService struct {
	SendRequestFunc   func(ctx context.Context, senderID, recipientEmail string) (*models.FriendRequest, error)
	AcceptRequestFunc func(ctx context.Context, recipientID, senderID string) (*models.User, error)
	RejectRequestFunc func(ctx context.Context, recipientID, senderID string) error
	CancelRequestFunc func(ctx context.Context, senderID, recipientID string) error
	ListFriendsFunc   func(ctx context.Context, userID string) ([]models.User, error)
	ListIncomingFunc  func(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error)
	ListOutgoingFunc  func(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error)
	IsFriendFunc      func(ctx context.Context, userID, otherUserID string) (bool, error)
}

func (m *mockFriendService) SendRequest(ctx context.Context, senderID, recipientEmail string) (*models.FriendRequest, error) {
	if m.SendRequestFunc != nil {
		return m.SendRequestFunc(ctx, senderID, recipientEmail)
	}
	return nil, nil
}

func (m *mockFriendService) AcceptRequest(ctx context.Context, recipientID, senderID string) (*models.User, error) {
	if m.AcceptRequestFunc != nil {
		return m.AcceptRequestFunc(ctx, recipientID, senderID)
	}
	return nil, nil
}

func (m *mockFriendService) RejectRequest(ctx context.Context, recipientID, senderID string) error {
	if m.RejectRequestFunc != nil {
		return m.RejectRequestFunc(ctx, recipientID, senderID)
	}
	return nil
}

func (m *mockFriendService) CancelRequest(ctx context.Context, senderID, recipientID string) error {
	if m.CancelRequestFunc != nil {
		return m.CancelRequestFunc(ctx, senderID, recipientID)
	}
	return nil
}

func (m *mockFriendService) ListFriends(ctx context.Context, userID string) ([]models.User, error) {
	if m.ListFriendsFunc != nil {
		return m.ListFriendsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockFriendService) ListIncoming(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error) {
	if m.ListIncomingFunc != nil {
		return m.ListIncomingFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockFriendService) ListOutgoing(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error) {
	if m.ListOutgoingFunc != nil {
		return m.ListOutgoingFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockFriendService) IsFriend(ctx context.Context, userID, otherUserID string) (bool, error) {
	if m.IsFriendFunc != nil {
		return m.IsFriendFunc(ctx, userID, otherUserID)
	}
	return false, nil
}

type mockBalanceService struct {
	ComputeBalanceFunc     func(ctx context.Context, userID, friendID string) (*models.Balance, error)
	ComputeAllBalancesFunc func(ctx context.Context, userID string) ([]models.FriendBalance, error)
}

func (m *mockBalanceService) ComputeBalance(ctx context.Context, userID, friendID string) (*models.Balance, error) {
	if m.ComputeBalanceFunc != nil {
		return m.ComputeBalanceFunc(ctx, userID, friendID)
	}
	return &models.Balance{IsSettled: true}, nil
}

func (m *mockBalanceService) ComputeAllBalances(ctx context.Context, userID string) ([]models.FriendBalance, error) {
	if m.ComputeAllBalancesFunc != nil {
		return m.ComputeAllBalancesFunc(ctx, userID)
	}
	return nil, nil
}

type mockStatsService struct {
	GetStatsFunc func(ctx context.Context, userID string) (*models.Stats, error)
}

func (m *mockStatsService) GetStats(ctx context.Context, userID string) (*models.Stats, error) {
	if m.GetStatsFunc != nil {
		return m.GetStatsFunc(ctx, userID)
	}
	return &models.Stats{}, nil
}
