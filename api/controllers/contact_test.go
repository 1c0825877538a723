package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/internal/contact"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
)

type stubContactService struct {
	input contact.SubmitInput
	err   error
}

func (s *stubContactService) Submit(ctx context.Context, input contact.SubmitInput) (*contact.SubmitResult, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	id := uuid.New()
	return &contact.SubmitResult{Accepted: true, ID: &id}, nil
}

const contactBody = `{"name":"Sam Hiker","email":"sam@example.com","subject":"Sizing","message":"Which frame size fits a 180cm torso?"}`

func TestContactSubmitAccepted(t *testing.T) {
	svc := &stubContactService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader(contactBody))
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	resp := httptest.NewRecorder()

	ContactSubmit(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.input.ClientIP != "203.0.113.9" {
		t.Fatalf("expected client ip from proxy header, got %q", svc.input.ClientIP)
	}
}

func TestContactSubmitIgnoresClientIPInBody(t *testing.T) {
	svc := &stubContactService{}
	body := strings.TrimSuffix(contactBody, "}") + `,"ClientIP":"1.2.3.4"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader(body))
	resp := httptest.NewRecorder()

	ContactSubmit(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected unknown field to be rejected, got %d", resp.Code)
	}
}

func TestContactSubmitRateLimited(t *testing.T) {
	svc := &stubContactService{err: pkgerrors.New(pkgerrors.CodeRateLimit, "too many messages")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader(contactBody))
	resp := httptest.NewRecorder()

	ContactSubmit(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
}
