package repository

import (
	"context"
	"errors"
	"time"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GuestRepository interface {
	FindByCode(ctx context.Context, code string) (*domain.Guest, error)
	FindByEmail(ctx context.Context, email string) (*domain.Guest, error)
	FindByID(ctx context.Context, id string) (*domain.Guest, error)
	UpdateRSVP(ctx context.Context, g *domain.Guest) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type guestRepository struct {
	pool *pgxpool.Pool
}

func NewGuestRepository(pool *pgxpool.Pool) GuestRepository {
	return &guestRepository{pool: pool}
}

const guestColumns = `
	id::text, first_name, last_name, email, phone, invitation_code, rsvp_status,
	meal_preference, dietary_restrictions, plus_one_allowed, plus_one_name,
	plus_one_meal, notes, created_at, updated_at, rsvp_submitted_at`

func scanGuest(row pgx.Row) (*domain.Guest, error) {
	var g domain.Guest
	err := row.Scan(
		&g.ID, &g.FirstName, &g.LastName, &g.Email, &g.Phone, &g.InvitationCode, &g.RSVPStatus,
		&g.MealPreference, &g.DietaryRestrictions, &g.PlusOneAllowed, &g.PlusOneName,
		&g.PlusOneMeal, &g.Notes, &g.CreatedAt, &g.UpdatedAt, &g.RSVPSubmittedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *guestRepository) FindByCode(ctx context.Context, code string) (*domain.Guest, error) {
	q := `SELECT` + guestColumns + ` FROM guests WHERE invitation_code = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanGuest(r.pool.QueryRow(ctx, q, code))
}

func (r *guestRepository) FindByEmail(ctx context.Context, email string) (*domain.Guest, error) {
	q := `SELECT` + guestColumns + `
		FROM guests
		WHERE lower(email) = lower($1)
		ORDER BY created_at
		LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanGuest(r.pool.QueryRow(ctx, q, email))
}

func (r *guestRepository) FindByID(ctx context.Context, id string) (*domain.Guest, error) {
	q := `SELECT` + guestColumns + ` FROM guests WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanGuest(r.pool.QueryRow(ctx, q, id))
}

func (r *guestRepository) UpdateRSVP(ctx context.Context, g *domain.Guest) error {
	const q = `
		UPDATE guests SET
			rsvp_status = $2,
			meal_preference = $3,
			dietary_restrictions = $4,
			plus_one_name = $5,
			plus_one_meal = $6,
			notes = $7,
			rsvp_submitted_at = $8,
			updated_at = $8
		WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q,
		g.ID, g.RSVPStatus, g.MealPreference, g.DietaryRestrictions,
		g.PlusOneName, g.PlusOneMeal, g.Notes, g.RSVPSubmittedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGuestNotFound
	}
	return nil
}

// insertGuest runs inside the approval transaction. A duplicate invitation
// code surfaces as domain.ErrCodeCollision so the caller can retry.
func insertGuest(ctx context.Context, q querier, g *domain.Guest) error {
	const stmt = `
		INSERT INTO guests (first_name, last_name, email, phone, invitation_code, rsvp_status, plus_one_allowed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text, created_at, updated_at`

	err := q.QueryRow(ctx, stmt,
		g.FirstName, g.LastName, g.Email, g.Phone, g.InvitationCode, g.RSVPStatus, g.PlusOneAllowed,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if isUniqueViolation(err, "guests_invitation_code_key") {
		return domain.ErrCodeCollision
	}
	return err
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
