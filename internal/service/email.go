package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/domain"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/mailer"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/repository"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/logger"
)

var ErrSendTimeout = errors.New("email send timed out")

// resolveTemplate returns the active template of the given type. When none
// exists the built-in default is persisted so admins can edit it later. A
// failed lookup or insert is logged and the default is used anyway.
func resolveTemplate(ctx context.Context, repo repository.TemplateRepository, templateType string) *domain.EmailTemplate {
	tpl, err := repo.FindActiveByType(ctx, templateType)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load email template, using default", "error", err, "template_type", templateType)
		return domain.DefaultTemplate(templateType)
	}
	if tpl != nil {
		return tpl
	}

	tpl = domain.DefaultTemplate(templateType)
	if err := repo.Create(ctx, tpl); err != nil {
		logger.ErrorContext(ctx, "Failed to persist default email template", "error", err, "template_type", templateType)
	} else {
		logger.InfoContext(ctx, "Created default email template", "template_type", templateType, "template_id", tpl.ID)
	}
	return tpl
}

// sendWithTimeout makes a single delivery attempt raced against timeout.
// The send keeps running in the background if the timer wins; its result is
// discarded. The caller's cancellation does not abort the send.
func sendWithTimeout(ctx context.Context, m mailer.Service, msg *mailer.Message, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("mailer panic: %v", r)}
			}
		}()
		id, err := m.Send(ctx, msg)
		done <- result{id: id, err: err}
	}()

	select {
	case res := <-done:
		return res.id, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("%w after %s", ErrSendTimeout, timeout)
	}
}
