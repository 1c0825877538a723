package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/api/middleware"
	"github.com/angelmondragon/gearhub-backend/api/responses"
	"github.com/angelmondragon/gearhub-backend/api/validators"
	"github.com/angelmondragon/gearhub-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

// AdminAuthLogin exchanges admin credentials for a bearer token.
func AdminAuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AdminLogin(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		noStore(w)
		if logg != nil && result.Admin != nil {
			logg.Info(logg.WithField(r.Context(), "admin_id", result.Admin.ID.String()), "admin.login")
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminSession returns the admin behind the bearer token.
func AdminSession(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		adminID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing admin identity"))
			return
		}

		admin, err := svc.Session(r.Context(), adminID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		noStore(w)
		responses.WriteSuccess(w, admin)
	}
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
