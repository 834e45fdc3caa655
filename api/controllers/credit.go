package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dsdroute/dsdroute-backend/api/responses"
	"github.com/dsdroute/dsdroute-backend/internal/credit"
	"github.com/dsdroute/dsdroute-backend/pkg/logger"
)

// CreditBillsByShop lists a shop's credit ledger, newest first.
func CreditBillsByShop(svc credit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := pathUUID(r, chi.URLParam(r, "shopId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bills, err := svc.ListByShop(r.Context(), shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bills)
	}
}

// CreditOutstandingByShop returns a shop's live unsettled balance.
func CreditOutstandingByShop(svc credit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := pathUUID(r, chi.URLParam(r, "shopId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		total, err := svc.OutstandingAmount(r.Context(), shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"shopId": shopID, "outstanding": total})
	}
}
