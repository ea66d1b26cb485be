package repository

import (
	"context"
	"errors"
	"time"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TemplateRepository interface {
	FindActiveByType(ctx context.Context, templateType string) (*domain.EmailTemplate, error)
	Create(ctx context.Context, t *domain.EmailTemplate) error
}

type templateRepository struct {
	pool *pgxpool.Pool
}

func NewTemplateRepository(pool *pgxpool.Pool) TemplateRepository {
	return &templateRepository{pool: pool}
}

func (r *templateRepository) FindActiveByType(ctx context.Context, templateType string) (*domain.EmailTemplate, error) {
	const q = `
		SELECT id::text, template_type, subject, html_body, text_body, is_active, created_at, updated_at
		FROM email_templates
		WHERE template_type = $1 AND is_active
		ORDER BY updated_at DESC
		LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.EmailTemplate
	err := r.pool.QueryRow(ctx, q, templateType).Scan(
		&t.ID, &t.TemplateType, &t.Subject, &t.HTMLBody, &t.TextBody, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *templateRepository) Create(ctx context.Context, t *domain.EmailTemplate) error {
	const q = `
		INSERT INTO email_templates (template_type, subject, html_body, text_body, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text, created_at, updated_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return r.pool.QueryRow(ctx, q, t.TemplateType, t.Subject, t.HTMLBody, t.TextBody, t.IsActive).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}
