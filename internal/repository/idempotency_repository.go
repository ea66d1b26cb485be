package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdempotencyRepository stores replayable responses in Postgres. It backs
// the Idempotency-Key middleware when Redis is not configured.
type IdempotencyRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	CleanupExpired(ctx context.Context) (int64, error)
}

type idempotencyRepository struct {
	pool *pgxpool.Pool
}

func NewIdempotencyRepository(pool *pgxpool.Pool) IdempotencyRepository {
	return &idempotencyRepository{pool: pool}
}

func (r *idempotencyRepository) Get(ctx context.Context, key string) (string, error) {
	const q = `SELECT response FROM idempotency_keys WHERE key_hash = $1 AND expires_at > now()`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var response string
	err := r.pool.QueryRow(ctx, q, hashKey(key)).Scan(&response)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return response, err
}

func (r *idempotencyRepository) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	const q = `
		INSERT INTO idempotency_keys (key_hash, response, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key_hash) DO NOTHING`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, hashKey(key), value, time.Now().Add(ttl))
	return err
}

func (r *idempotencyRepository) CleanupExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM idempotency_keys WHERE expires_at < now()`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
