package service

import (
	"context"
	"fmt"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/domain"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/repository"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/auth"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/config"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/logger"
)

type InvitationService interface {
	ValidateCode(ctx context.Context, code string) (*domain.SessionResponse, error)
	GuestFromSession(ctx context.Context, guestID string) (*domain.Guest, error)
}

type invitationService struct {
	guestRepo repository.GuestRepository
	config    *config.Config
}

func NewInvitationService(guestRepo repository.GuestRepository, config *config.Config) InvitationService {
	return &invitationService{
		guestRepo: guestRepo,
		config:    config,
	}
}

// ValidateCode resolves a submitted code to a guest and issues a session.
// Malformed and unknown codes both return domain.ErrInvalidCode.
func (s *invitationService) ValidateCode(ctx context.Context, code string) (*domain.SessionResponse, error) {
	code = domain.NormalizeCode(code)
	if !domain.IsValidCodeFormat(code) {
		return nil, domain.ErrInvalidCode
	}

	guest, err := s.guestRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invitation code: %w", err)
	}
	if guest == nil {
		return nil, domain.ErrInvalidCode
	}

	token, err := auth.NewGuestSession(guest.ID, s.config.Auth.JWTSecret, s.config.Auth.GuestSessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create guest session: %w", err)
	}

	logger.InfoContext(ctx, "Guest session issued", "guest_id", guest.ID)

	return &domain.SessionResponse{
		Guest:        guest.Snapshot(),
		SessionToken: token,
		ExpiresIn:    int64(s.config.Auth.GuestSessionTTL.Seconds()),
	}, nil
}

// GuestFromSession re-loads the guest behind a session token so member pages
// never act on a guest that no longer exists.
func (s *invitationService) GuestFromSession(ctx context.Context, guestID string) (*domain.Guest, error) {
	guest, err := s.guestRepo.FindByID(ctx, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guest: %w", err)
	}
	if guest == nil {
		return nil, domain.ErrGuestNotFound
	}
	return guest, nil
}
