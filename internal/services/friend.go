package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/HammerMeetNail/splitledger/internal/metrics"
	"github.com/HammerMeetNail/splitledger/internal/models"
)

var (
	ErrCannotFriendSelf      = errors.New("cannot send friend request to yourself")
	ErrAlreadyFriends        = errors.New("users are already friends")
	ErrDuplicateRequest      = errors.New("a pending friend request already exists between these users")
	ErrFriendRequestNotFound = errors.New("friend request not found")
)

const uniqueViolation = "23505"

const requestColumns = `r.id, r.sender_id, r.recipient_id, r.status, r.created_at, r.updated_at`

const userColumnsU = `u.id, u.name, u.email, u.avatar, u.created_at, u.last_login_at`

// FriendService runs the friend request state machine:
// PENDING moves to ACCEPTED or REJECTED (both kept), or is deleted on cancel.
type FriendService struct {
	db     DB
	events EventPublisher
}

func NewFriendService(db DB, events EventPublisher) *FriendService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &FriendService{db: db, events: events}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *FriendService) SendRequest(ctx context.Context, senderID, recipientEmail string) (*models.FriendRequest, error) {
	recipient, err := getUser(ctx, s.db, "email", recipientEmail)
	if err != nil {
		return nil, err
	}
	if recipient.ID == senderID {
		return nil, ErrCannotFriendSelf
	}

	friends, err := s.IsFriend(ctx, senderID, recipient.ID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, ErrAlreadyFriends
	}

	var pending bool
	err = s.db.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM friend_requests
			WHERE status = 'PENDING'
			  AND ((sender_id = $1 AND recipient_id = $2)
			    OR (sender_id = $2 AND recipient_id = $1))
		)`,
		senderID, recipient.ID,
	).Scan(&pending)
	if err != nil {
		return nil, fmt.Errorf("checking pending requests: %w", err)
	}
	if pending {
		return nil, ErrDuplicateRequest
	}

	request := &models.FriendRequest{}
	err = s.db.QueryRow(ctx,
		`INSERT INTO friend_requests (sender_id, recipient_id, status, created_at, updated_at)
		 VALUES ($1, $2, 'PENDING', NOW(), NOW())
		 RETURNING id, sender_id, recipient_id, status, created_at, updated_at`,
		senderID, recipient.ID,
	).Scan(&request.ID, &request.SenderID, &request.RecipientID, &request.Status, &request.CreatedAt, &request.UpdatedAt)
	if isUniqueViolation(err) {
		// Lost a race with a concurrent send for the same pair.
		return nil, ErrDuplicateRequest
	}
	if err != nil {
		return nil, fmt.Errorf("creating friend request: %w", err)
	}

	publish(ctx, s.events, models.Event{
		Type:         models.EventFriendRequestSent,
		ActorID:      senderID,
		SubjectID:    request.ID.String(),
		Participants: []string{senderID, recipient.ID},
	})
	metrics.RecordFriendRequest("sent")
	return request, nil
}

// AcceptRequest marks the sender's pending request ACCEPTED and creates the
// friendship in the same transaction. Re-running it for an accepted request
// whose friendship is missing re-creates the friendship.
func (s *FriendService) AcceptRequest(ctx context.Context, recipientID, senderID string) (*models.User, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin accept transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	var requestID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM friend_requests
		 WHERE sender_id = $1 AND recipient_id = $2 AND status = 'PENDING'
		 FOR UPDATE`,
		senderID, recipientID,
	).Scan(&requestID)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		repaired, err := s.repairAccepted(ctx, tx, recipientID, senderID)
		if err != nil {
			return nil, err
		}
		if !repaired {
			return nil, ErrFriendRequestNotFound
		}
	case err != nil:
		return nil, fmt.Errorf("locking friend request: %w", err)
	default:
		_, err = tx.Exec(ctx,
			`UPDATE friend_requests SET status = 'ACCEPTED', updated_at = NOW() WHERE id = $1`,
			requestID,
		)
		if err != nil {
			return nil, fmt.Errorf("accepting friend request: %w", err)
		}
		if _, err := insertFriendship(ctx, tx, recipientID, senderID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit accept transaction: %w", err)
	}
	committed = true

	publish(ctx, s.events, models.Event{
		Type:         models.EventFriendRequestAccepted,
		ActorID:      recipientID,
		SubjectID:    senderID,
		Participants: []string{senderID, recipientID},
	})
	metrics.RecordFriendRequest("accepted")

	return getUser(ctx, s.db, "id", senderID)
}

// repairAccepted re-creates a friendship for an ACCEPTED request that lost it.
// It reports false when there is nothing to repair.
func (s *FriendService) repairAccepted(ctx context.Context, tx Tx, recipientID, senderID string) (bool, error) {
	var accepted bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM friend_requests
			WHERE sender_id = $1 AND recipient_id = $2 AND status = 'ACCEPTED'
		)`,
		senderID, recipientID,
	).Scan(&accepted)
	if err != nil {
		return false, fmt.Errorf("checking accepted request: %w", err)
	}
	if !accepted {
		return false, nil
	}
	return insertFriendship(ctx, tx, recipientID, senderID)
}

func insertFriendship(ctx context.Context, tx Tx, a, b string) (bool, error) {
	low, high := models.OrderedPair(a, b)
	result, err := tx.Exec(ctx,
		`INSERT INTO friendships (user_id, friend_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, friend_id) DO NOTHING`,
		low, high,
	)
	if err != nil {
		return false, fmt.Errorf("creating friendship: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// RejectRequest marks the request REJECTED. The record is kept.
func (s *FriendService) RejectRequest(ctx context.Context, recipientID, senderID string) error {
	result, err := s.db.Exec(ctx,
		`UPDATE friend_requests SET status = 'REJECTED', updated_at = NOW()
		 WHERE sender_id = $1 AND recipient_id = $2 AND status = 'PENDING'`,
		senderID, recipientID,
	)
	if err != nil {
		return fmt.Errorf("rejecting friend request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrFriendRequestNotFound
	}

	publish(ctx, s.events, models.Event{
		Type:         models.EventFriendRequestRejected,
		ActorID:      recipientID,
		SubjectID:    senderID,
		Participants: []string{senderID, recipientID},
	})
	metrics.RecordFriendRequest("rejected")
	return nil
}

// CancelRequest deletes the sender's own pending request. Unlike a rejection
// nothing is kept.
func (s *FriendService) CancelRequest(ctx context.Context, senderID, recipientID string) error {
	result, err := s.db.Exec(ctx,
		`DELETE FROM friend_requests
		 WHERE sender_id = $1 AND recipient_id = $2 AND status = 'PENDING'`,
		senderID, recipientID,
	)
	if err != nil {
		return fmt.Errorf("canceling friend request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrFriendRequestNotFound
	}

	publish(ctx, s.events, models.Event{
		Type:         models.EventFriendRequestCanceled,
		ActorID:      senderID,
		SubjectID:    recipientID,
		Participants: []string{senderID, recipientID},
	})
	metrics.RecordFriendRequest("canceled")
	return nil
}

func (s *FriendService) IsFriend(ctx context.Context, userID, otherUserID string) (bool, error) {
	low, high := models.OrderedPair(userID, otherUserID)
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`,
		low, high,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking friendship: %w", err)
	}
	return exists, nil
}

func (s *FriendService) ListFriends(ctx context.Context, userID string) ([]models.User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+userColumnsU+`
		 FROM friendships f
		 JOIN users u ON u.id = CASE WHEN f.user_id = $1 THEN f.friend_id ELSE f.user_id END
		 WHERE f.user_id = $1 OR f.friend_id = $1
		 ORDER BY u.name, u.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	return collectUsers(rows)
}

// ListIncoming returns pending requests addressed to userID, newest first,
// each with its sender.
func (s *FriendService) ListIncoming(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error) {
	return s.listPending(ctx, "r.recipient_id", "r.sender_id", userID)
}

// ListOutgoing returns pending requests sent by userID, newest first, each
// with its recipient.
func (s *FriendService) ListOutgoing(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error) {
	return s.listPending(ctx, "r.sender_id", "r.recipient_id", userID)
}

func (s *FriendService) listPending(ctx context.Context, selfColumn, otherColumn, userID string) ([]models.FriendRequestWithUser, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+requestColumns+`, `+userColumnsU+`
		 FROM friend_requests r
		 JOIN users u ON u.id = `+otherColumn+`
		 WHERE `+selfColumn+` = $1 AND r.status = 'PENDING'
		 ORDER BY r.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing friend requests: %w", err)
	}
	defer rows.Close()

	requests := []models.FriendRequestWithUser{}
	for rows.Next() {
		var r models.FriendRequestWithUser
		if err := rows.Scan(
			&r.ID, &r.SenderID, &r.RecipientID, &r.Status, &r.CreatedAt, &r.UpdatedAt,
			&r.User.ID, &r.User.Name, &r.User.Email, &r.User.Avatar, &r.User.CreatedAt, &r.User.LastLoginAt,
		); err != nil {
			return nil, fmt.Errorf("scanning friend request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating friend requests: %w", err)
	}
	return requests, nil
}
