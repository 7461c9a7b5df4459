package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/HammerMeetNail/splitledger/internal/ledger"
	"github.com/HammerMeetNail/splitledger/internal/metrics"
	"github.com/HammerMeetNail/splitledger/internal/models"
)

var (
	ErrExpenseNotFound      = errors.New("expense not found")
	ErrNotExpenseOwner      = errors.New("only the owner can delete an expense")
	ErrParticipantNotFriend = errors.New("participant is not a friend of the owner")
	ErrInvalidCategory      = errors.New("unknown expense category")
	ErrInvalidPayer         = errors.New("payer must be the owner or a participant")
	ErrInvalidExpenseName   = errors.New("expense name is required")
	ErrUnexpectedSplit      = errors.New("personal expense cannot have participants or a payer")
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var expenseColumns = []string{
	"e.id", "e.owner_id", "e.category", "e.name", "e.amount::text",
	"e.date", "e.created_at", "e.is_shared", "e.paid_by",
}

// FriendChecker answers whether two users are friends.
type FriendChecker interface {
	IsFriend(ctx context.Context, userID, otherUserID string) (bool, error)
}

// StatsInvalidator drops cached statistics for the given users.
type StatsInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...string)
}

type ExpenseService struct {
	db      DB
	friends FriendChecker
	stats   StatsInvalidator
	events  EventPublisher
}

func NewExpenseService(db DB, friends FriendChecker, stats StatsInvalidator, events EventPublisher) *ExpenseService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &ExpenseService{db: db, friends: friends, stats: stats, events: events}
}

func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidationFailed, err)
}

// prepare normalises params in place and checks every invariant that does
// not need the store.
func prepare(params *models.CreateExpenseParams) error {
	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return validationError(ErrInvalidExpenseName)
	}
	if !params.Category.Valid() {
		return validationError(ErrInvalidCategory)
	}
	params.Amount = ledger.Normalize(params.Amount)
	if !params.Amount.IsPositive() {
		return validationError(ledger.ErrInvalidAmount)
	}
	if params.Date.IsZero() {
		params.Date = timeNow()
	}
	y, m, d := params.Date.Date()
	params.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	if !params.IsShared {
		if len(params.Participants) > 0 || params.PaidBy != nil {
			return validationError(ErrUnexpectedSplit)
		}
		return nil
	}

	params.Participants = append([]models.Participant(nil), params.Participants...)
	for i := range params.Participants {
		params.Participants[i].UserID = strings.TrimSpace(params.Participants[i].UserID)
		params.Participants[i].Amount = ledger.Normalize(params.Participants[i].Amount)
	}
	if err := ledger.ValidateSplit(params.Amount, params.Participants); err != nil {
		return validationError(err)
	}

	if params.PaidBy == nil || *params.PaidBy == "" {
		owner := params.OwnerID
		params.PaidBy = &owner
	}
	payer := *params.PaidBy
	if payer != params.OwnerID {
		found := false
		for _, p := range params.Participants {
			if p.UserID == payer {
				found = true
				break
			}
		}
		if !found {
			return validationError(ErrInvalidPayer)
		}
	}
	return nil
}

// Create validates and stores a new expense with its participants in one
// transaction. Every participant other than the owner must be the owner's
// friend.
func (s *ExpenseService) Create(ctx context.Context, params models.CreateExpenseParams) (*models.Expense, error) {
	if err := prepare(&params); err != nil {
		return nil, err
	}

	for _, p := range params.Participants {
		if p.UserID == params.OwnerID {
			continue
		}
		ok, err := s.friends.IsFriend(ctx, params.OwnerID, p.UserID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrParticipantNotFriend, p.UserID)
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin expense transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	expense := &models.Expense{
		OwnerID:      params.OwnerID,
		Category:     params.Category,
		Name:         params.Name,
		Amount:       params.Amount,
		Date:         params.Date,
		IsShared:     params.IsShared,
		PaidBy:       params.PaidBy,
		Participants: params.Participants,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO expenses (owner_id, category, name, amount, date, is_shared, paid_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		params.OwnerID, string(params.Category), params.Name, params.Amount.String(),
		params.Date, params.IsShared, params.PaidBy,
	).Scan(&expense.ID, &expense.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting expense: %w", err)
	}

	for i, p := range params.Participants {
		_, err := tx.Exec(ctx,
			`INSERT INTO expense_participants (expense_id, user_id, amount, position)
			 VALUES ($1, $2, $3, $4)`,
			expense.ID, p.UserID, p.Amount.String(), i,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting participant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit expense transaction: %w", err)
	}
	committed = true

	affected := affectedUsers(expense.OwnerID, expense.Participants)
	s.invalidate(ctx, affected)
	publish(ctx, s.events, models.Event{
		Type:         models.EventExpenseCreated,
		ActorID:      expense.OwnerID,
		SubjectID:    expense.ID.String(),
		Participants: affected,
	})
	metrics.RecordExpense("create", expense.IsShared)

	return expense, nil
}

// Delete removes an expense. Only its owner may do so.
func (s *ExpenseService) Delete(ctx context.Context, requesterID string, expenseID uuid.UUID) error {
	var ownerID string
	var shared bool
	err := s.db.QueryRow(ctx,
		`SELECT owner_id, is_shared FROM expenses WHERE id = $1`,
		expenseID,
	).Scan(&ownerID, &shared)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrExpenseNotFound
	}
	if err != nil {
		return fmt.Errorf("getting expense: %w", err)
	}
	if ownerID != requesterID {
		return ErrNotExpenseOwner
	}

	participants, err := loadParticipants(ctx, s.db, []uuid.UUID{expenseID})
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		`DELETE FROM expenses WHERE id = $1 AND owner_id = $2`,
		expenseID, requesterID,
	)
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}

	affected := affectedUsers(ownerID, participants[expenseID])
	s.invalidate(ctx, affected)
	publish(ctx, s.events, models.Event{
		Type:         models.EventExpenseDeleted,
		ActorID:      requesterID,
		SubjectID:    expenseID.String(),
		Participants: affected,
	})
	metrics.RecordExpense("delete", shared)

	return nil
}

// ListForUser returns the expenses userID owns or participates in, newest
// first. Participants carry their user record; participants whose user no
// longer resolves are left out.
func (s *ExpenseService) ListForUser(ctx context.Context, userID string) ([]models.Expense, error) {
	expenses, err := loadExpenses(ctx, s.db, ownedOrParticipated(userID))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, e := range expenses {
		for _, p := range e.Participants {
			if _, ok := seen[p.UserID]; !ok {
				seen[p.UserID] = struct{}{}
				ids = append(ids, p.UserID)
			}
		}
	}
	users, err := getUsers(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	for i := range expenses {
		resolved := make([]models.Participant, 0, len(expenses[i].Participants))
		for _, p := range expenses[i].Participants {
			u, ok := users[p.UserID]
			if !ok {
				continue
			}
			p.User = &u
			resolved = append(resolved, p)
		}
		expenses[i].Participants = resolved
	}
	return expenses, nil
}

func (s *ExpenseService) invalidate(ctx context.Context, userIDs []string) {
	if s.stats != nil {
		s.stats.Invalidate(ctx, userIDs...)
	}
}

func affectedUsers(ownerID string, participants []models.Participant) []string {
	out := []string{ownerID}
	for _, p := range participants {
		if p.UserID != ownerID {
			out = append(out, p.UserID)
		}
	}
	return out
}

func ownedOrParticipated(userID string) sq.Sqlizer {
	return sq.Or{
		sq.Eq{"e.owner_id": userID},
		sq.Expr(`EXISTS (SELECT 1 FROM expense_participants p WHERE p.expense_id = e.id AND p.user_id = ?)`, userID),
	}
}

// sharedBetween matches shared expenses paid by one of a and b where the
// other one holds a share.
func sharedBetween(a, b string) sq.Sqlizer {
	return sq.And{
		sq.Eq{"e.is_shared": true},
		sq.Or{
			sq.And{
				sq.Eq{"e.paid_by": a},
				sq.Expr(`EXISTS (SELECT 1 FROM expense_participants p WHERE p.expense_id = e.id AND p.user_id = ?)`, b),
			},
			sq.And{
				sq.Eq{"e.paid_by": b},
				sq.Expr(`EXISTS (SELECT 1 FROM expense_participants p WHERE p.expense_id = e.id AND p.user_id = ?)`, a),
			},
		},
	}
}

// loadExpenses runs the expense query for where and attaches participants in
// stored order.
func loadExpenses(ctx context.Context, db DBConn, where sq.Sqlizer) ([]models.Expense, error) {
	query, args, err := psql.Select(expenseColumns...).
		From("expenses e").
		Where(where).
		OrderBy("e.created_at DESC", "e.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building expense query: %w", err)
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	var ids []uuid.UUID
	for rows.Next() {
		var e models.Expense
		var amount string
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Category, &e.Name, &amount,
			&e.Date, &e.CreatedAt, &e.IsShared, &e.PaidBy); err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parsing expense amount: %w", err)
		}
		expenses = append(expenses, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expenses: %w", err)
	}

	participants, err := loadParticipants(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for i := range expenses {
		expenses[i].Participants = participants[expenses[i].ID]
	}
	return expenses, nil
}

func loadParticipants(ctx context.Context, db DBConn, expenseIDs []uuid.UUID) (map[uuid.UUID][]models.Participant, error) {
	out := make(map[uuid.UUID][]models.Participant, len(expenseIDs))
	if len(expenseIDs) == 0 {
		return out, nil
	}

	rows, err := db.Query(ctx,
		`SELECT expense_id, user_id, amount::text
		 FROM expense_participants
		 WHERE expense_id = ANY($1)
		 ORDER BY expense_id, position`,
		expenseIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("querying participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID uuid.UUID
		var p models.Participant
		var amount string
		if err := rows.Scan(&expenseID, &p.UserID, &amount); err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parsing participant amount: %w", err)
		}
		out[expenseID] = append(out[expenseID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating participants: %w", err)
	}
	return out, nil
}
