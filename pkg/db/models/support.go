package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// FAQ is a help center entry.
type FAQ struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Question  string         `gorm:"column:question;not null"`
	Answer    string         `gorm:"column:answer;not null"`
	Tags      pq.StringArray `gorm:"column:tags;type:text[];not null;default:'{}'"`
	Position  int            `gorm:"column:position;not null;default:0"`
	IsActive  bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (FAQ) TableName() string {
	return "faqs"
}

func (f *FAQ) BeforeCreate(*gorm.DB) error {
	ensureID(&f.ID)
	return nil
}

// ContactMessage is a submission of the help center contact form.
type ContactMessage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;not null"`
	Subject   string    `gorm:"column:subject;not null"`
	Message   string    `gorm:"column:message;not null"`
	ClientIP  *string   `gorm:"column:client_ip"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (m *ContactMessage) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// AdminUser can sign in to the admin API.
type AdminUser struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string     `gorm:"column:email;not null;uniqueIndex:ux_admin_users_email"`
	Name         string     `gorm:"column:name;not null"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (u *AdminUser) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
