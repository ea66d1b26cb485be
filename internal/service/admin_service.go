package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/domain"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/auth"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/config"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/logger"
)

type AdminService interface {
	Login(ctx context.Context, req *domain.AdminLoginRequest) (*domain.AdminSession, error)
}

type adminService struct {
	config *config.Config
}

func NewAdminService(config *config.Config) AdminService {
	return &adminService{config: config}
}

func (s *adminService) Login(ctx context.Context, req *domain.AdminLoginRequest) (*domain.AdminSession, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash := s.config.Admin.PasswordHash
	if hash == "" {
		logger.ErrorContext(ctx, "Admin login attempted but ADMIN_PASSWORD_HASH is not set")
		return nil, domain.ErrInvalidCredentials
	}

	// Compare even on an email mismatch so both failures take similar time.
	valid, err := argon2id.ComparePasswordAndHash(req.Password, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid || req.Email != strings.ToLower(s.config.Admin.Email) {
		logger.WarnContext(ctx, "Admin login failed", "email", logger.MaskEmail(req.Email))
		return nil, domain.ErrInvalidCredentials
	}

	token, err := auth.NewAdminToken(req.Email, s.config.Auth.JWTSecret, s.config.Auth.AdminTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin token: %w", err)
	}

	logger.InfoContext(ctx, "Admin logged in", "email", logger.MaskEmail(req.Email))

	return &domain.AdminSession{
		AccessToken: token,
		ExpiresIn:   int64(s.config.Auth.AdminTokenTTL.Seconds()),
	}, nil
}
