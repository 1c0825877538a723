// Package analytics serves the admin sales dashboard.
package analytics

import (
	"net/http"

	"github.com/angelmondragon/gearhub-backend/api/responses"
	"github.com/angelmondragon/gearhub-backend/internal/analytics"
	"github.com/angelmondragon/gearhub-backend/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

func AdminSales(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if service == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "analytics unavailable"))
			return
		}

		rng, err := resolveSalesRange(r, timeNowUTC())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := service.Query(ctx, types.SalesQueryRequest{Start: rng.start, End: rng.end})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
