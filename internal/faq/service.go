// Package faq serves help center questions.
package faq

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
)

// Repository reads and writes faqs.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListActive returns active entries by position. A non-empty tag filters on
// array membership.
func (r *Repository) ListActive(ctx context.Context, tag string) ([]models.FAQ, error) {
	var rows []models.FAQ
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if tag != "" {
		if r.db.Dialector.Name() == "postgres" {
			q = q.Where("? = ANY(tags)", tag)
		} else {
			// text[] is stored as its quoted literal ({"a","b"}) outside Postgres.
			q = q.Where(`(',' || replace(trim(tags, '{}'), '"', '') || ',') LIKE ?`, "%,"+tag+",%")
		}
	}
	err := q.Order("position ASC, created_at ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) Create(ctx context.Context, faq *models.FAQ) error {
	return r.db.WithContext(ctx).Create(faq).Error
}

// Service lists and creates FAQ entries.
type Service interface {
	List(ctx context.Context, tag string) ([]View, error)
	Create(ctx context.Context, input CreateInput) (*View, error)
}

// View is the public FAQ shape.
type View struct {
	ID       uuid.UUID `json:"id"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Tags     []string  `json:"tags"`
	Position int       `json:"position"`
}

// CreateInput is an admin FAQ entry.
type CreateInput struct {
	Question string   `json:"question" validate:"required,min=5,max=300"`
	Answer   string   `json:"answer" validate:"required,min=2,max=5000"`
	Tags     []string `json:"tags" validate:"max=10,dive,min=1,max=40"`
	Position int      `json:"position" validate:"min=0"`
	Inactive bool     `json:"inactive"`
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("faq repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, tag string) ([]View, error) {
	rows, err := s.repo.ListActive(ctx, normalizeTag(tag))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list faqs")
	}
	views := make([]View, 0, len(rows))
	for i := range rows {
		views = append(views, newView(&rows[i]))
	}
	return views, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*View, error) {
	question := strings.TrimSpace(input.Question)
	answer := strings.TrimSpace(input.Answer)
	if question == "" {
		return nil, pkgerrors.FieldError("question", "question is required")
	}
	if answer == "" {
		return nil, pkgerrors.FieldError("answer", "answer is required")
	}
	if input.Position < 0 {
		return nil, pkgerrors.FieldError("position", "position must not be negative")
	}

	tags := pq.StringArray{}
	seen := map[string]struct{}{}
	for _, raw := range input.Tags {
		tag := normalizeTag(raw)
		if tag == "" {
			continue
		}
		if !validTag(tag) {
			return nil, pkgerrors.FieldError("tags", "tags may only contain letters, digits and dashes")
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	row := &models.FAQ{
		Question: question,
		Answer:   answer,
		Tags:     tags,
		Position: input.Position,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create faq")
	}
	if input.Inactive {
		if err := s.repo.db.WithContext(ctx).Model(row).Update("is_active", false).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate faq")
		}
		row.IsActive = false
	}
	view := newView(row)
	return &view, nil
}

func newView(f *models.FAQ) View {
	tags := []string(f.Tags)
	if tags == nil {
		tags = []string{}
	}
	return View{
		ID:       f.ID,
		Question: f.Question,
		Answer:   f.Answer,
		Tags:     tags,
		Position: f.Position,
	}
}

func validTag(tag string) bool {
	for _, r := range tag {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
