package repository

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RateLimiter counts hits per key in fixed windows. Callers treat an error
// as "allowed".
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, requests int, window time.Duration) (bool, error)
}

type RateLimitRepository interface {
	RateLimiter
	CleanupExpired(ctx context.Context) (int64, error)
}

type rateLimitRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewRateLimitRepository(pool *pgxpool.Pool) RateLimitRepository {
	return &rateLimitRepository{pool: pool, now: time.Now}
}

func hashKey(key string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}

func (r *rateLimitRepository) CheckRateLimit(ctx context.Context, key string, requests int, window time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	now := r.now()
	windowStart := now.Add(-window)

	// Rows whose window has lapsed restart at 1.
	const q = `
		INSERT INTO rate_limits (rl_key, count, window_start, expires_at)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (rl_key) DO UPDATE SET
			count = CASE
				WHEN rate_limits.window_start < $4 THEN 1
				ELSE rate_limits.count + 1
			END,
			window_start = CASE
				WHEN rate_limits.window_start < $4 THEN $2
				ELSE rate_limits.window_start
			END,
			expires_at = $3
		RETURNING count`

	var count int
	err := r.pool.QueryRow(ctx, q, hashKey(key), now, now.Add(window), windowStart).Scan(&count)
	if err != nil {
		return true, fmt.Errorf("rate limit upsert: %w", err)
	}

	return count <= requests, nil
}

func (r *rateLimitRepository) CleanupExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM rate_limits WHERE expires_at < now()`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
