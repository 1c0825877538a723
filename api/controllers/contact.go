package controllers

import (
	"net/http"

	"github.com/angelmondragon/gearhub-backend/api/middleware"
	"github.com/angelmondragon/gearhub-backend/api/responses"
	"github.com/angelmondragon/gearhub-backend/api/validators"
	"github.com/angelmondragon/gearhub-backend/internal/contact"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

// ContactSubmit accepts the public contact form.
func ContactSubmit(svc contact.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contact service unavailable"))
			return
		}

		var body contact.SubmitInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.ClientIP = middleware.ClientIP(r)

		result, err := svc.Submit(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, result)
	}
}
