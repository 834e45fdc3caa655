package controllers

import (
	"net/http"

	"github.com/dsdroute/dsdroute-backend/api/responses"
	"github.com/dsdroute/dsdroute-backend/internal/dashboard"
	"github.com/dsdroute/dsdroute-backend/pkg/logger"
)

// DashboardSummary returns the admin landing counters.
func DashboardSummary(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summarize(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
