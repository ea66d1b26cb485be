package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccessRequestRepository interface {
	Create(ctx context.Context, req *domain.AccessRequest) error
	FindRecentByEmail(ctx context.Context, email string, since time.Time) (*domain.AccessRequest, error)
	FindByID(ctx context.Context, id string) (*domain.AccessRequest, error)
	List(ctx context.Context, status *domain.AccessRequestStatus, limit, offset int) ([]domain.AccessRequest, error)
	Approve(ctx context.Context, id, approvedBy string, notes *string, guest *domain.Guest) (*domain.AccessRequest, error)
	Deny(ctx context.Context, id, deniedBy string, notes *string) (*domain.AccessRequest, error)
	MarkInvitationSent(ctx context.Context, id string, at time.Time) error
}

type accessRequestRepository struct {
	pool *pgxpool.Pool
}

func NewAccessRequestRepository(pool *pgxpool.Pool) AccessRequestRepository {
	return &accessRequestRepository{pool: pool}
}

const accessRequestColumns = `
	id::text, name, email, phone, address, message, status, admin_notes,
	invitation_code, invitation_sent_at, created_at, approved_at, approved_by`

func scanAccessRequest(row pgx.Row) (*domain.AccessRequest, error) {
	var a domain.AccessRequest
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.Phone, &a.Address, &a.Message, &a.Status, &a.AdminNotes,
		&a.InvitationCode, &a.InvitationSentAt, &a.CreatedAt, &a.ApprovedAt, &a.ApprovedBy,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accessRequestRepository) Create(ctx context.Context, req *domain.AccessRequest) error {
	const q = `
		INSERT INTO access_requests (name, email, phone, address, message, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, created_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return r.pool.QueryRow(ctx, q,
		req.Name, req.Email, req.Phone, req.Address, req.Message, req.Status,
	).Scan(&req.ID, &req.CreatedAt)
}

func (r *accessRequestRepository) FindRecentByEmail(ctx context.Context, email string, since time.Time) (*domain.AccessRequest, error) {
	q := `SELECT` + accessRequestColumns + `
		FROM access_requests
		WHERE lower(email) = lower($1) AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanAccessRequest(r.pool.QueryRow(ctx, q, email, since))
}

func (r *accessRequestRepository) FindByID(ctx context.Context, id string) (*domain.AccessRequest, error) {
	q := `SELECT` + accessRequestColumns + ` FROM access_requests WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanAccessRequest(r.pool.QueryRow(ctx, q, id))
}

func (r *accessRequestRepository) List(ctx context.Context, status *domain.AccessRequestStatus, limit, offset int) ([]domain.AccessRequest, error) {
	q := `SELECT` + accessRequestColumns + `
		FROM access_requests
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}

	rows, err := r.pool.Query(ctx, q, statusArg, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []domain.AccessRequest{}
	for rows.Next() {
		a, err := scanAccessRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *a)
	}
	return requests, rows.Err()
}

// Approve locks the request, provisions the guest and records the decision
// in one transaction. The guest's ID and timestamps are filled in on success.
func (r *accessRequestRepository) Approve(ctx context.Context, id, approvedBy string, notes *string, guest *domain.Guest) (*domain.AccessRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var decided *domain.AccessRequest
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockPending(ctx, tx, id); err != nil {
			return err
		}
		if err := insertGuest(ctx, tx, guest); err != nil {
			return err
		}

		q := `
			UPDATE access_requests SET
				status = 'approved',
				invitation_code = $2,
				admin_notes = COALESCE($3, admin_notes),
				approved_at = now(),
				approved_by = $4
			WHERE id = $1
			RETURNING` + accessRequestColumns

		var err error
		decided, err = scanAccessRequest(tx.QueryRow(ctx, q, id, guest.InvitationCode, notes, approvedBy))
		return err
	})
	if err != nil {
		return nil, err
	}
	return decided, nil
}

func (r *accessRequestRepository) Deny(ctx context.Context, id, deniedBy string, notes *string) (*domain.AccessRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var decided *domain.AccessRequest
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockPending(ctx, tx, id); err != nil {
			return err
		}

		q := `
			UPDATE access_requests SET
				status = 'denied',
				admin_notes = COALESCE($2, admin_notes),
				approved_at = now(),
				approved_by = $3
			WHERE id = $1
			RETURNING` + accessRequestColumns

		var err error
		decided, err = scanAccessRequest(tx.QueryRow(ctx, q, id, notes, deniedBy))
		return err
	})
	if err != nil {
		return nil, err
	}
	return decided, nil
}

func (r *accessRequestRepository) MarkInvitationSent(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE access_requests SET invitation_sent_at = $2 WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id, at)
	return err
}

func lockPending(ctx context.Context, tx pgx.Tx, id string) error {
	var status domain.AccessRequestStatus
	err := tx.QueryRow(ctx, `SELECT status FROM access_requests WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrRequestNotFound
	}
	if err != nil {
		return fmt.Errorf("lock access request: %w", err)
	}
	if status != domain.AccessRequestPending {
		return domain.ErrNotPending
	}
	return nil
}
