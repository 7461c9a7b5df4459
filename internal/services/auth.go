package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/blake2b"

	"github.com/HammerMeetNail/splitledger/internal/database"
	"github.com/HammerMeetNail/splitledger/internal/models"
)

const (
	sessionDuration  = 30 * 24 * time.Hour // 30 days
	sessionKeyPrefix = database.SessionKeyPrefix
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrSessionNotFound        = errors.New("session not found")
	ErrSessionExpired         = errors.New("session expired")
)

// AuthService issues and resolves opaque session tokens. Tokens are only
// stored hashed. Redis is the primary store; PostgreSQL backs it up when redis
// is unavailable.
type AuthService struct {
	db    DBConn
	redis RedisClient
}

func NewAuthService(db DBConn, redis RedisClient) *AuthService {
	return &AuthService{
		db:    db,
		redis: redis,
	}
}

// Login records the identity resolved by the gateway and opens a session.
func (s *AuthService) Login(ctx context.Context, identity models.Identity) (*models.User, string, error) {
	user, err := NewUserService(s.db).Upsert(ctx, identity)
	if err != nil {
		return nil, "", err
	}
	token, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) GenerateSessionToken() (token string, hash string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	token = hex.EncodeToString(bytes)
	return token, s.hashToken(token), nil
}

func (s *AuthService) hashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *AuthService) CreateSession(ctx context.Context, userID string) (token string, err error) {
	token, tokenHash, err := s.GenerateSessionToken()
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(sessionDuration)

	redisKey := sessionKeyPrefix + tokenHash
	err = s.redis.Set(ctx, redisKey, userID, sessionDuration)
	if err != nil {
		// Fall back to PostgreSQL if Redis fails
		_, err = s.db.Exec(ctx,
			`INSERT INTO sessions (user_id, token_hash, expires_at) VALUES ($1, $2, $3)`,
			userID, tokenHash, expiresAt,
		)
		if err != nil {
			return "", fmt.Errorf("creating session in database: %w", err)
		}
	}

	return token, nil
}

func (s *AuthService) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	tokenHash := s.hashToken(token)

	redisKey := sessionKeyPrefix + tokenHash
	userID, err := s.redis.Get(ctx, redisKey)
	if err == nil && userID != "" {
		// Sliding expiry.
		_ = s.redis.Expire(ctx, redisKey, sessionDuration)
		return getUser(ctx, s.db, "id", userID)
	}

	var sessionID uuid.UUID
	var expiresAt time.Time
	err = s.db.QueryRow(ctx,
		`SELECT id, user_id, expires_at FROM sessions WHERE token_hash = $1`,
		tokenHash,
	).Scan(&sessionID, &userID, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	if time.Now().After(expiresAt) {
		_, _ = s.db.Exec(ctx, "DELETE FROM sessions WHERE id = $1", sessionID)
		return nil, ErrSessionExpired
	}

	return getUser(ctx, s.db, "id", userID)
}

func (s *AuthService) DeleteSession(ctx context.Context, token string) error {
	tokenHash := s.hashToken(token)

	_ = s.redis.Del(ctx, sessionKeyPrefix+tokenHash)

	_, err := s.db.Exec(ctx, "DELETE FROM sessions WHERE token_hash = $1", tokenHash)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	return nil
}
