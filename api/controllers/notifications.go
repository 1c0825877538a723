package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/gearhub-backend/api/responses"
	"github.com/angelmondragon/gearhub-backend/api/validators"
	"github.com/angelmondragon/gearhub-backend/internal/notifications"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/pagination"
)

var errInboxUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable")

// ListNotifications serves the admin inbox, newest first. Filters:
// ?unreadOnly=true and ?type=order_created,contact_message.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errInboxUnavailable)
			return
		}

		params := notifications.ListParams{
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			Types:  notificationTypes(r),
		}
		var err error
		if params.Limit, err = validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.UnreadOnly, err = validators.ParseQueryBool(r, "unreadOnly"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// MarkNotificationRead answers with the notification as stored after the
// update.
func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errInboxUnavailable)
			return
		}

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "notificationId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification id"))
			return
		}
		row, err := svc.MarkRead(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errInboxUnavailable)
			return
		}

		count, err := svc.MarkAllRead(r.Context(), notificationTypes(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithField(r.Context(), "updated", count)
		logg.Info(ctx, "notifications.read_all")
		responses.WriteSuccess(w, map[string]int64{"updated": count})
	}
}

func notificationTypes(r *http.Request) []enums.NotificationType {
	raw := validators.ParseQueryList(r, "type")
	if len(raw) == 0 {
		return nil
	}
	types := make([]enums.NotificationType, len(raw))
	for i, v := range raw {
		types[i] = enums.NotificationType(strings.ToLower(v))
	}
	return types
}
