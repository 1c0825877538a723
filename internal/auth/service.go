package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgAuth "github.com/angelmondragon/gearhub-backend/pkg/auth"
	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	AdminLogin(ctx context.Context, req LoginRequest) (*AdminLoginResponse, error)
	// Session resolves the admin behind a verified token. Deactivated or
	// deleted admins lose access even while their token is unexpired.
	Session(ctx context.Context, adminID uuid.UUID) (*AdminDTO, error)
}

type service struct {
	admins adminRepository
	hasher *security.Hasher
	tokens *pkgAuth.Signer
	logg   *logger.Logger
	now    func() time.Time
}

type adminRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	AdminRepo adminRepository
	Hasher    *security.Hasher
	JWTConfig config.JWTConfig
	Logger    *logger.Logger
	Now       func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.AdminRepo == nil {
		return nil, fmt.Errorf("admin repository is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	tokens, err := pkgAuth.NewSigner(params.JWTConfig)
	if err != nil {
		return nil, err
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		admins: params.AdminRepo,
		hasher: params.Hasher,
		tokens: tokens,
		logg:   logg,
		now:    now,
	}, nil
}

func (s *service) AdminLogin(ctx context.Context, req LoginRequest) (*AdminLoginResponse, error) {
	admin, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.admins.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	admin.LastLoginAt = &now

	accessToken, expiresAt, err := s.tokens.Mint(now, pkgAuth.AccessTokenPayload{
		UserID: admin.ID,
		Email:  admin.Email,
		Role:   enums.RoleAdmin,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &AdminLoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Admin:       FromModel(admin),
	}, nil
}

func (s *service) Session(ctx context.Context, adminID uuid.UUID) (*AdminDTO, error) {
	admin, err := s.admins.FindByID(ctx, adminID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session no longer valid")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup admin")
	}
	if !admin.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session no longer valid")
	}
	return FromModel(admin), nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.AdminUser, error) {
	input := strings.TrimSpace(email)
	if input == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	admin, err := s.admins.FindByEmail(ctx, strings.ToLower(input))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup admin")
	}

	check, err := s.hasher.Verify(password, admin.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !check.Match || !admin.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if check.Stale {
		s.rehash(ctx, admin, password)
	}
	return admin, nil
}

// rehash upgrades a hash made with older argon costs. Failure only costs the
// upgrade, never the login.
func (s *service) rehash(ctx context.Context, admin *models.AdminUser, password string) {
	fresh, err := s.hasher.Hash(password)
	if err == nil {
		err = s.admins.UpdatePassword(ctx, admin.ID, fresh)
	}
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "admin_id", admin.ID.String()), "password rehash skipped: "+err.Error())
		return
	}
	admin.PasswordHash = fresh
}
