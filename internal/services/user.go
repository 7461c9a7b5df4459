package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/splitledger/internal/models"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrValidationFailed = errors.New("validation failed")
)

const userColumns = `id, name, email, avatar, created_at, last_login_at`

type UserService struct {
	db DBConn
}

func NewUserService(db DBConn) *UserService {
	return &UserService{db: db}
}

func scanUser(row Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Avatar, &user.CreatedAt, &user.LastLoginAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Upsert records a login. The first login creates the user; later ones only
// refresh the avatar and the last-login timestamp.
func (s *UserService) Upsert(ctx context.Context, identity models.Identity) (*models.User, error) {
	identity.ID = strings.TrimSpace(identity.ID)
	identity.Email = strings.TrimSpace(identity.Email)
	if identity.ID == "" || identity.Email == "" {
		return nil, fmt.Errorf("%w: identity id and email are required", ErrValidationFailed)
	}
	if strings.TrimSpace(identity.Name) == "" {
		identity.Name = identity.Email
	}

	user, err := scanUser(s.db.QueryRow(ctx,
		`INSERT INTO users (id, name, email, avatar, last_login_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (id) DO UPDATE
		   SET avatar = EXCLUDED.avatar,
		       last_login_at = EXCLUDED.last_login_at
		 RETURNING `+userColumns,
		identity.ID, identity.Name, identity.Email, identity.Avatar,
	))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: email %s belongs to another account", ErrValidationFailed, identity.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return getUser(ctx, s.db, "id", id)
}

func getUser(ctx context.Context, db DBConn, column, value string) (*models.User, error) {
	user, err := scanUser(db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = $1`,
		value,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by %s: %w", column, err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return collectUsers(rows)
}

// getUsers resolves ids to users. Unknown ids are absent from the result.
func getUsers(ctx context.Context, db DBConn, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	users, err := collectUsers(rows)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func collectUsers(rows Rows) ([]models.User, error) {
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}
