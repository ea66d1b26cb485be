package service

import (
	"context"
	"fmt"
	"time"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/domain"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/repository"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/events"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/logger"
)

type RSVPService interface {
	Submit(ctx context.Context, guestID string, req *domain.RSVPRequest) (*domain.GuestSnapshot, error)
}

type rsvpService struct {
	guestRepo repository.GuestRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewRSVPService(guestRepo repository.GuestRepository, publisher events.Publisher) RSVPService {
	return &rsvpService{
		guestRepo: guestRepo,
		publisher: publisher,
		now:       time.Now,
	}
}

// Submit overwrites the guest's RSVP fields. Concurrent submissions for the
// same guest are last-write-wins.
func (s *rsvpService) Submit(ctx context.Context, guestID string, req *domain.RSVPRequest) (*domain.GuestSnapshot, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	guest, err := s.guestRepo.FindByID(ctx, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guest: %w", err)
	}
	if guest == nil {
		return nil, domain.ErrGuestNotFound
	}

	if req.Attending == domain.RSVPAttending && req.PlusOneName != "" && !guest.PlusOneAllowed {
		return nil, domain.ErrPlusOneNotAllowed
	}

	now := s.now().UTC()
	req.ApplyTo(guest, now)

	if err := s.guestRepo.UpdateRSVP(ctx, guest); err != nil {
		return nil, fmt.Errorf("failed to save rsvp: %w", err)
	}

	logger.InfoContext(ctx, "RSVP submitted", "guest_id", guest.ID, "status", guest.RSVPStatus)

	if err := s.publisher.Publish(ctx, events.RSVPSubmitted, events.RSVPSubmittedEvent{
		GuestID:     guest.ID,
		Status:      string(guest.RSVPStatus),
		PlusOne:     guest.PlusOneName != nil,
		SubmittedAt: now,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish rsvp event", "error", err, "guest_id", guest.ID)
	}

	return guest.Snapshot(), nil
}
