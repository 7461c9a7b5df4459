package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis holds three kinds of derived data, each under its own prefix. None of
// them is authoritative: sessions fall back to PostgreSQL, stats are
// recomputed and rate-limit buckets simply restart.
const (
	SessionKeyPrefix   = "session:"
	StatsKeyPrefix     = "stats:"
	RateLimitKeyPrefix = "ratelimit:api:"
)

var (
	newRedisClient = redis.NewClient
	redisPing      = func(ctx context.Context, client *redis.Client) error { return client.Ping(ctx).Err() }
)

// RedisSettings sizes the redis client. The zero value is replaced by
// DefaultRedisSettings.
type RedisSettings struct {
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultRedisSettings covers one session lookup and one rate-limit pipeline
// per request, plus occasional stats reads.
var DefaultRedisSettings = RedisSettings{
	PoolSize:     10,
	MinIdleConns: 3,
	DialTimeout:  5 * time.Second,
	ReadTimeout:  3 * time.Second,
	WriteTimeout: 3 * time.Second,
}

// RedisDB holds the client shared by sessions, the stats cache and the rate
// limiter.
type RedisDB struct {
	Client *redis.Client
}

func NewRedisDB(addr, password string, db int) (*RedisDB, error) {
	return NewRedisDBWithSettings(addr, password, db, DefaultRedisSettings)
}

func NewRedisDBWithSettings(addr, password string, db int, settings RedisSettings) (*RedisDB, error) {
	if settings == (RedisSettings{}) {
		settings = DefaultRedisSettings
	}

	client := newRedisClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  settings.DialTimeout,
		ReadTimeout:  settings.ReadTimeout,
		WriteTimeout: settings.WriteTimeout,
		PoolSize:     settings.PoolSize,
		MinIdleConns: settings.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), settings.DialTimeout)
	defer cancel()

	if err := redisPing(ctx, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", addr, err)
	}

	return &RedisDB{Client: client}, nil
}

func (r *RedisDB) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

func (r *RedisDB) Health(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return redisPing(ctx, r.Client)
}
