package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/domain"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/mailer"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/repository"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/config"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/events"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/logger"
)

const maxCodeAttempts = 5

type AccessRequestService interface {
	Submit(ctx context.Context, req *domain.CreateAccessRequest) (*domain.AccessRequest, error)
	List(ctx context.Context, status *domain.AccessRequestStatus, limit, offset int) ([]domain.AccessRequest, error)
	Approve(ctx context.Context, id, adminEmail string, req *domain.DecideAccessRequest) (*domain.ApprovalResult, error)
	Deny(ctx context.Context, id, adminEmail string, req *domain.DecideAccessRequest) (*domain.AccessRequest, error)
}

type accessRequestService struct {
	requestRepo  repository.AccessRequestRepository
	templateRepo repository.TemplateRepository
	mailer       mailer.Service
	publisher    events.Publisher
	config       *config.Config
	now          func() time.Time
	generateCode func() (string, error)
}

func NewAccessRequestService(
	requestRepo repository.AccessRequestRepository,
	templateRepo repository.TemplateRepository,
	mailer mailer.Service,
	publisher events.Publisher,
	config *config.Config,
) AccessRequestService {
	return &accessRequestService{
		requestRepo:  requestRepo,
		templateRepo: templateRepo,
		mailer:       mailer,
		publisher:    publisher,
		config:       config,
		now:          time.Now,
		generateCode: domain.GenerateCode,
	}
}

// Submit queues a public access request. Unlike recovery, a recent request
// from the same email is reported back as domain.ErrDuplicateRequest.
func (s *accessRequestService) Submit(ctx context.Context, req *domain.CreateAccessRequest) (*domain.AccessRequest, error) {
	now := s.now()

	req.Normalize()
	if err := req.Validate(now, s.config.Intake.MaxSubmissionAge, s.config.Intake.MaxClockSkew); err != nil {
		if errors.Is(err, domain.ErrBotDetected) {
			logger.WarnContext(ctx, "Access request honeypot triggered")
		}
		return nil, err
	}

	existing, err := s.requestRepo.FindRecentByEmail(ctx, req.Email, now.Add(-s.config.Intake.DuplicateWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate request: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateRequest
	}

	ar := &domain.AccessRequest{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Status:  domain.AccessRequestPending,
	}
	if req.Message != "" {
		ar.Message = &req.Message
	}

	if err := s.requestRepo.Create(ctx, ar); err != nil {
		return nil, fmt.Errorf("failed to create access request: %w", err)
	}

	logger.InfoContext(ctx, "Access request submitted", "request_id", ar.ID, "email", logger.MaskEmail(ar.Email))

	if err := s.publisher.Publish(ctx, events.AccessRequestSubmitted, events.AccessRequestSubmittedEvent{
		RequestID: ar.ID,
		Name:      ar.Name,
		CreatedAt: ar.CreatedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish access request event", "error", err, "request_id", ar.ID)
	}

	return ar, nil
}

func (s *accessRequestService) List(ctx context.Context, status *domain.AccessRequestStatus, limit, offset int) ([]domain.AccessRequest, error) {
	requests, err := s.requestRepo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list access requests: %w", err)
	}
	return requests, nil
}

// Approve provisions a guest with a fresh invitation code and then tries,
// once, to email the invitation. A failed email does not undo the approval.
func (s *accessRequestService) Approve(ctx context.Context, id, adminEmail string, req *domain.DecideAccessRequest) (*domain.ApprovalResult, error) {
	notes, err := decisionNotes(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load access request: %w", err)
	}
	if existing == nil {
		return nil, domain.ErrRequestNotFound
	}
	if !existing.Status.CanTransition(domain.AccessRequestApproved) {
		return nil, domain.ErrNotPending
	}

	first, last := existing.SplitName()
	email := existing.Email
	phone := existing.Phone
	guest := &domain.Guest{
		FirstName:  first,
		LastName:   last,
		Email:      &email,
		Phone:      &phone,
		RSVPStatus: domain.RSVPPending,
	}

	var approved *domain.AccessRequest
	for attempt := 1; ; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate invitation code: %w", err)
		}
		guest.InvitationCode = code

		approved, err = s.requestRepo.Approve(ctx, id, adminEmail, notes, guest)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrCodeCollision) || attempt >= maxCodeAttempts {
			if errors.Is(err, domain.ErrRequestNotFound) || errors.Is(err, domain.ErrNotPending) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to approve access request: %w", err)
		}
		logger.WarnContext(ctx, "Invitation code collision, regenerating", "attempt", attempt)
	}

	logger.InfoContext(ctx, "Access request approved", "request_id", id, "guest_id", guest.ID, "approved_by", adminEmail)

	sent := s.sendInvitation(ctx, approved, guest)

	if err := s.publisher.Publish(ctx, events.AccessRequestApproved, events.AccessRequestDecidedEvent{
		RequestID: id,
		Status:    string(domain.AccessRequestApproved),
		GuestID:   guest.ID,
		DecidedBy: adminEmail,
		DecidedAt: s.now(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish approval event", "error", err, "request_id", id)
	}

	return &domain.ApprovalResult{Request: approved, GuestID: guest.ID, InvitationSent: sent}, nil
}

func (s *accessRequestService) sendInvitation(ctx context.Context, ar *domain.AccessRequest, guest *domain.Guest) bool {
	if !s.mailer.Enabled() {
		logger.WarnContext(ctx, "Mail transport not configured, invitation not emailed", "request_id", ar.ID)
		return false
	}

	tpl := resolveTemplate(ctx, s.templateRepo, domain.TemplateInvitation)
	rendered := tpl.Render(domain.GuestTemplateVars(guest, s.config.Site.CoupleNames, s.config.Site.BaseURL))

	messageID, err := sendWithTimeout(ctx, s.mailer, &mailer.Message{
		ToEmail: ar.Email,
		ToName:  guest.FullName(),
		Subject: rendered.Subject,
		Text:    rendered.Text,
		HTML:    rendered.HTML,
	}, s.config.Email.SendTimeout)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to send invitation email", "error", err, "request_id", ar.ID)
		return false
	}

	sentAt := s.now().UTC()
	if err := s.requestRepo.MarkInvitationSent(ctx, ar.ID, sentAt); err != nil {
		logger.ErrorContext(ctx, "Failed to record invitation send", "error", err, "request_id", ar.ID)
	} else {
		ar.InvitationSentAt = &sentAt
	}

	logger.InfoContext(ctx, "Invitation email dispatched", "request_id", ar.ID, "message_id", messageID)
	return true
}

func (s *accessRequestService) Deny(ctx context.Context, id, adminEmail string, req *domain.DecideAccessRequest) (*domain.AccessRequest, error) {
	notes, err := decisionNotes(req)
	if err != nil {
		return nil, err
	}

	denied, err := s.requestRepo.Deny(ctx, id, adminEmail, notes)
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) || errors.Is(err, domain.ErrNotPending) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to deny access request: %w", err)
	}

	logger.InfoContext(ctx, "Access request denied", "request_id", id, "denied_by", adminEmail)

	if err := s.publisher.Publish(ctx, events.AccessRequestDenied, events.AccessRequestDecidedEvent{
		RequestID: id,
		Status:    string(domain.AccessRequestDenied),
		DecidedBy: adminEmail,
		DecidedAt: s.now(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish denial event", "error", err, "request_id", id)
	}

	return denied, nil
}

func decisionNotes(req *domain.DecideAccessRequest) (*string, error) {
	if req == nil {
		return nil, nil
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.AdminNotes == "" {
		return nil, nil
	}
	return &req.AdminNotes, nil
}
