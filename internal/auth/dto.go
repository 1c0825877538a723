package auth

import (
	"time"

	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/google/uuid"
)

// LoginRequest captures the credentials sent to the admin login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminDTO is the public view of an admin account.
type AdminDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// AdminLoginResponse carries the bearer token for the admin API.
type AdminLoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Admin       *AdminDTO `json:"admin"`
}

// FromModel maps an admin row to its DTO.
func FromModel(admin *models.AdminUser) *AdminDTO {
	if admin == nil {
		return nil
	}
	return &AdminDTO{
		ID:          admin.ID,
		Email:       admin.Email,
		Name:        admin.Name,
		LastLoginAt: admin.LastLoginAt,
	}
}
