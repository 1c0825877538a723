package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/security"
	"gorm.io/gorm"
)

// AdminRegisterRequest contains the credentials used to provision an admin.
type AdminRegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// AdminRegisterService provisions admin accounts for the seed tool.
type AdminRegisterService interface {
	// Ensure creates the admin or, when the email already exists, resets its
	// password. The bool reports whether a new row was inserted.
	Ensure(ctx context.Context, req AdminRegisterRequest) (*AdminDTO, bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AdminRegisterServiceParams names the dependencies for the admin register flow.
type AdminRegisterServiceParams struct {
	Repo   *Repository
	Tx     txRunner
	Hasher *security.Hasher
}

type adminRegisterService struct {
	repo   *Repository
	tx     txRunner
	hasher *security.Hasher
}

// NewAdminRegisterService builds the admin provisioning service.
func NewAdminRegisterService(params AdminRegisterServiceParams) (AdminRegisterService, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "admin repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Hasher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "password hasher required")
	}
	return &adminRegisterService{
		repo:   params.Repo,
		tx:     params.Tx,
		hasher: params.Hasher,
	}, nil
}

func (s *adminRegisterService) Ensure(ctx context.Context, req AdminRegisterRequest) (*AdminDTO, bool, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, false, pkgerrors.FieldError("email", "is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, false, pkgerrors.FieldError("name", "is required")
	}
	if len(req.Password) < 8 {
		return nil, false, pkgerrors.FieldError("password", "must be at least 8 characters")
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var (
		result  *AdminDTO
		created bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByEmail(ctx, email)
		switch {
		case err == nil:
			if err := repo.UpdatePassword(ctx, existing.ID, passwordHash); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reset admin password")
			}
			result = FromModel(existing)
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check admin email")
		}

		admin := &models.AdminUser{
			Email:        email,
			Name:         name,
			PasswordHash: passwordHash,
			IsActive:     true,
		}
		if err := repo.Create(ctx, admin); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create admin")
		}
		result = FromModel(admin)
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}
