// Package contact accepts help center messages and hands them to support.
package contact

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox"
	"github.com/angelmondragon/gearhub-backend/pkg/outbox/payloads"
)

const rateLimitScope = "contact"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Service accepts contact form submissions.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error)
}

// SubmitInput is the contact form. Website is a honeypot that humans leave empty.
type SubmitInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Subject  string `json:"subject" validate:"required,min=3,max=120"`
	Message  string `json:"message" validate:"required,min=10,max=2000"`
	Website  string `json:"website"`
	ClientIP string `json:"-"`
}

// SubmitResult reports acceptance. ID is nil for dropped honeypot submissions.
type SubmitResult struct {
	Accepted bool       `json:"accepted"`
	ID       *uuid.UUID `json:"id,omitempty"`
}

// ServiceParams groups contact dependencies. Limiter is optional.
type ServiceParams struct {
	DB      *gorm.DB
	Tx      txRunner
	Outbox  outboxPublisher
	Limiter rateLimiter
	Config  config.ContactConfig
	Logger  *logger.Logger
}

type service struct {
	db       *gorm.DB
	tx       txRunner
	outbox   outboxPublisher
	limiter  rateLimiter
	limit    int64
	window   time.Duration
	validate *validator.Validate
	logg     *logger.Logger
}

// NewService validates dependencies and applies rate limit defaults.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, errors.New("database required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	limit := int64(params.Config.RateLimitMax)
	if limit <= 0 {
		limit = 5
	}
	window := params.Config.RateLimitWindow
	if window <= 0 {
		window = 10 * time.Minute
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return &service{
		db:       params.DB,
		tx:       params.Tx,
		outbox:   params.Outbox,
		limiter:  params.Limiter,
		limit:    limit,
		window:   window,
		validate: v,
		logg:     params.Logger,
	}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	input = input.normalize()
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	if input.Website != "" {
		s.logg.Info(s.logg.WithField(ctx, "client_ip", input.ClientIP), "contact honeypot triggered")
		return &SubmitResult{Accepted: true}, nil
	}

	if err := s.allow(ctx, input.ClientIP); err != nil {
		return nil, err
	}

	msg := &models.ContactMessage{
		Name:    input.Name,
		Email:   input.Email,
		Subject: input.Subject,
		Message: input.Message,
	}
	if input.ClientIP != "" {
		ip := input.ClientIP
		msg.ClientIP = &ip
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Create(msg).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store contact message")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventContactSubmitted,
			AggregateType: enums.AggregateContactMessage,
			AggregateID:   msg.ID,
			OccurredAt:    msg.CreatedAt,
			Data: payloads.ContactSubmittedEvent{
				MessageID: msg.ID,
				Name:      msg.Name,
				Email:     msg.Email,
				Subject:   msg.Subject,
				Message:   msg.Message,
				CreatedAt: msg.CreatedAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "contact_message_id", msg.ID.String()), "contact message accepted")
	id := msg.ID
	return &SubmitResult{Accepted: true, ID: &id}, nil
}

// allow applies the per-IP fixed window. Redis failures let the message through.
func (s *service) allow(ctx context.Context, clientIP string) error {
	if s.limiter == nil || clientIP == "" {
		return nil
	}
	ok, count, err := s.limiter.FixedWindowAllow(ctx, rateLimitScope+":"+clientIP, s.limit, s.window)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "contact rate limit unavailable")
		return nil
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many messages, please try again later").
			WithDetails(map[string]any{"limit": s.limit, "count": count, "window_seconds": int(s.window.Seconds())}).
			WithRetryAfter(s.window)
	}
	return nil
}

func (in SubmitInput) normalize() SubmitInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	in.Website = strings.TrimSpace(in.Website)
	in.ClientIP = strings.TrimSpace(in.ClientIP)
	return in
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := map[string]string{}
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			details[fe.Field()] = "is required"
		case "email":
			details[fe.Field()] = "must be a valid email"
		case "min":
			details[fe.Field()] = fmt.Sprintf("must be at least %s characters", fe.Param())
		case "max":
			details[fe.Field()] = fmt.Sprintf("must be at most %s characters", fe.Param())
		default:
			details[fe.Field()] = "is invalid"
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "please fill out all fields correctly").WithDetails(details)
}
