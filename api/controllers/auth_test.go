package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/api/middleware"
	"github.com/angelmondragon/gearhub-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
)

type stubAuthService struct {
	req       auth.LoginRequest
	sessionID uuid.UUID
	err       error
}

func (s *stubAuthService) Session(ctx context.Context, adminID uuid.UUID) (*auth.AdminDTO, error) {
	s.sessionID = adminID
	if s.err != nil {
		return nil, s.err
	}
	return &auth.AdminDTO{ID: adminID, Email: "ops@gearhub.dev"}, nil
}

func (s *stubAuthService) AdminLogin(ctx context.Context, req auth.LoginRequest) (*auth.AdminLoginResponse, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &auth.AdminLoginResponse{AccessToken: "token", TokenType: "Bearer", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func TestAdminAuthLoginSuccess(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/admin/login", strings.NewReader(`{"email":"ops@gearhub.dev","password":"hunter22"}`))
	resp := httptest.NewRecorder()

	AdminAuthLogin(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("Cache-Control") != "no-store" {
		t.Fatal("expected token response to be uncacheable")
	}
	if svc.req.Email != "ops@gearhub.dev" {
		t.Fatalf("unexpected request %+v", svc.req)
	}
}

func TestAdminAuthLoginBadCredentials(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/admin/login", strings.NewReader(`{"email":"ops@gearhub.dev","password":"wrong"}`))
	resp := httptest.NewRecorder()

	AdminAuthLogin(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminAuthLoginRequiresEmail(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/admin/login", strings.NewReader(`{"password":"hunter22"}`))
	resp := httptest.NewRecorder()

	AdminAuthLogin(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminSessionUsesTokenSubject(t *testing.T) {
	svc := &stubAuthService{}
	adminID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), adminID.String()))
	resp := httptest.NewRecorder()

	AdminSession(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.sessionID != adminID {
		t.Fatalf("expected session lookup for %s, got %s", adminID, svc.sessionID)
	}
}

func TestAdminSessionWithoutIdentity(t *testing.T) {
	resp := httptest.NewRecorder()
	AdminSession(&stubAuthService{}, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/session", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminSessionDeactivatedAdmin(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "session no longer valid")}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()

	AdminSession(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
