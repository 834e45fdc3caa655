package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dsdroute/dsdroute-backend/api/responses"
	"github.com/dsdroute/dsdroute-backend/api/validators"
	"github.com/dsdroute/dsdroute-backend/internal/orders"
	"github.com/dsdroute/dsdroute-backend/pkg/enums"
	pkgerrors "github.com/dsdroute/dsdroute-backend/pkg/errors"
	"github.com/dsdroute/dsdroute-backend/pkg/logger"
)

type orderLineRequest struct {
	ProductID uuid.UUID       `json:"productId" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type returnLineRequest struct {
	ProductID    uuid.UUID        `json:"productId" validate:"required"`
	Quantity     int              `json:"quantity" validate:"required,gt=0"`
	Reason       string           `json:"reason" validate:"required"`
	RefundAmount *decimal.Decimal `json:"refundAmount,omitempty"`
}

type orderPaymentRequest struct {
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	PaymentType  string          `json:"paymentType" validate:"required"`
	ChequeNumber *string         `json:"chequeNumber,omitempty"`
}

type createOrderRequest struct {
	ShopID          uuid.UUID            `json:"shopId" validate:"required"`
	OrderDate       *time.Time           `json:"orderDate,omitempty"`
	Notes           *string              `json:"notes,omitempty"`
	NetTotal        decimal.Decimal      `json:"netTotal"`
	TaxPercentage   decimal.Decimal      `json:"taxPercentage"`
	InvoiceDiscount decimal.Decimal      `json:"invoiceDiscount"`
	Items           []orderLineRequest   `json:"items" validate:"required,min=1,dive"`
	Returns         []returnLineRequest  `json:"returns,omitempty" validate:"omitempty,dive"`
	Payment         *orderPaymentRequest `json:"payment,omitempty"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// OrderCreate submits a new order for the calling rep.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.CreateOrderInput{
			ShopID:          req.ShopID,
			Notes:           req.Notes,
			NetTotal:        req.NetTotal,
			TaxPercentage:   req.TaxPercentage,
			InvoiceDiscount: req.InvoiceDiscount,
		}
		if req.OrderDate != nil {
			input.OrderDate = *req.OrderDate
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, orders.OrderLineInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		}
		for _, ret := range req.Returns {
			input.Returns = append(input.Returns, orders.ReturnLineInput{
				ProductID:    ret.ProductID,
				Quantity:     ret.Quantity,
				Reason:       ret.Reason,
				RefundAmount: ret.RefundAmount,
			})
		}
		if req.Payment != nil {
			paymentType, err := enums.ParsePaymentType(req.Payment.PaymentType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment type"))
				return
			}
			input.Payment = &orders.PaymentInput{
				Amount:       req.Payment.Amount,
				PaymentType:  paymentType,
				ChequeNumber: req.Payment.ChequeNumber,
			}
		}

		dto, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// OrderList returns a cursor page of orders visible to the caller.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter, err := orderListFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), actor, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// OrderDetail returns one order with its lines and history.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Detail(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// OrderApprove moves an order to approved. Admin only.
func OrderApprove(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Approve(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// OrderReject declines an order with a reason. Admin only.
func OrderReject(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req rejectRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Reject(r.Context(), actor, id, strings.TrimSpace(req.Reason))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// OrderDeliver marks an approved order as delivered.
func OrderDeliver(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.MarkDelivered(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func orderListFilter(r *http.Request) (orders.ListFilter, error) {
	var filter orders.ListFilter

	shopID, err := validators.ParseQueryUUID(r, "shopId")
	if err != nil {
		return filter, err
	}
	filter.ShopID = shopID

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
		}
		filter.Status = &status
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "from must be RFC3339")
		}
		filter.From = &from
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "to must be RFC3339")
		}
		filter.To = &to
	}

	return filter, nil
}
