package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/domain"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/mailer"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/repository"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/config"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/logger"
)

// RecoveryAck is the only thing a caller of the recovery endpoint ever sees.
const RecoveryAck = "If that email address is on our guest list, an email with your invitation code is on its way."

var (
	ErrRecoveryInvalidEmail = errors.New("recovery email is malformed")
	ErrRecoveryThrottled    = errors.New("recovery send limit reached for this email")
)

// RecoveryService emails an existing invitation code to its owner. The
// returned error describes the internal outcome for logging and tests; it must
// never influence the HTTP response. Unknown addresses return nil.
type RecoveryService interface {
	RecoverInvitation(ctx context.Context, email string) error
}

type recoveryService struct {
	guestRepo    repository.GuestRepository
	templateRepo repository.TemplateRepository
	limiter      repository.RateLimiter
	mailer       mailer.Service
	config       *config.Config
}

func NewRecoveryService(
	guestRepo repository.GuestRepository,
	templateRepo repository.TemplateRepository,
	limiter repository.RateLimiter,
	mailer mailer.Service,
	config *config.Config,
) RecoveryService {
	return &recoveryService{
		guestRepo:    guestRepo,
		templateRepo: templateRepo,
		limiter:      limiter,
		mailer:       mailer,
		config:       config,
	}
}

func (s *recoveryService) RecoverInvitation(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !domain.IsValidEmail(email) {
		logger.DebugContext(ctx, "Recovery request with malformed email")
		return ErrRecoveryInvalidEmail
	}

	if !s.mailer.Enabled() {
		logger.ErrorContext(ctx, "Invitation recovery requested but no mail transport is configured")
		return mailer.ErrNotConfigured
	}

	guest, err := s.guestRepo.FindByEmail(ctx, email)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to look up guest for recovery", "error", err, "email", logger.MaskEmail(email))
		return fmt.Errorf("failed to look up guest: %w", err)
	}
	if guest == nil {
		logger.InfoContext(ctx, "Recovery requested for unknown email", "email", logger.MaskEmail(email))
		return nil
	}

	allowed, err := s.limiter.CheckRateLimit(ctx, "recovery:"+email, s.config.RateLimit.RecoverySends, s.config.RateLimit.RecoverySendWindow)
	if err != nil {
		logger.WarnContext(ctx, "Recovery throttle check failed, allowing send", "error", err)
	} else if !allowed {
		logger.WarnContext(ctx, "Recovery send throttled", "guest_id", guest.ID)
		return ErrRecoveryThrottled
	}

	tpl := resolveTemplate(ctx, s.templateRepo, domain.TemplateInvitationRecovery)
	rendered := tpl.Render(domain.GuestTemplateVars(guest, s.config.Site.CoupleNames, s.config.Site.BaseURL))

	msg := &mailer.Message{
		ToEmail: email,
		ToName:  guest.FullName(),
		Subject: rendered.Subject,
		Text:    rendered.Text,
		HTML:    rendered.HTML,
	}

	messageID, err := sendWithTimeout(ctx, s.mailer, msg, s.config.Email.SendTimeout)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to send invitation recovery email", "error", err, "guest_id", guest.ID)
		return fmt.Errorf("failed to send recovery email: %w", err)
	}

	logger.InfoContext(ctx, "Invitation recovery email dispatched", "guest_id", guest.ID, "message_id", messageID)
	return nil
}
