package dashboard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dsdroute/dsdroute-backend/pkg/enums"
	pkgerrors "github.com/dsdroute/dsdroute-backend/pkg/errors"
)

type orderCounter interface {
	CountByStatus(ctx context.Context, status enums.OrderStatus) (int64, error)
}

type paymentCounter interface {
	CountUnverified(ctx context.Context) (int64, error)
}

type returnCounter interface {
	CountByStatus(ctx context.Context, status enums.ReturnStatus) (int64, error)
}

type creditTotaler interface {
	TotalOutstanding(ctx context.Context) (decimal.Decimal, error)
}

// Summary is the admin landing snapshot: everything waiting on a decision
// plus the total credit exposure.
type Summary struct {
	PendingOrders      int64           `json:"pendingOrders"`
	UnverifiedPayments int64           `json:"unverifiedPayments"`
	PendingReturns     int64           `json:"pendingReturns"`
	OutstandingCredit  decimal.Decimal `json:"outstandingCredit"`
}

// Service aggregates the admin dashboard counters.
type Service interface {
	Summarize(ctx context.Context) (*Summary, error)
}

type service struct {
	orders   orderCounter
	payments paymentCounter
	returns  returnCounter
	credit   creditTotaler
}

// NewService builds the dashboard service.
func NewService(orders orderCounter, payments paymentCounter, returns returnCounter, credit creditTotaler) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if returns == nil {
		return nil, fmt.Errorf("return repository required")
	}
	if credit == nil {
		return nil, fmt.Errorf("credit repository required")
	}
	return &service{orders: orders, payments: payments, returns: returns, credit: credit}, nil
}

func (s *service) Summarize(ctx context.Context) (*Summary, error) {
	pendingOrders, err := s.orders.CountByStatus(ctx, enums.OrderStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending orders")
	}
	unverified, err := s.payments.CountUnverified(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unverified payments")
	}
	pendingReturns, err := s.returns.CountByStatus(ctx, enums.ReturnStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending returns")
	}
	outstanding, err := s.credit.TotalOutstanding(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum outstanding credit")
	}

	return &Summary{
		PendingOrders:      pendingOrders,
		UnverifiedPayments: unverified,
		PendingReturns:     pendingReturns,
		OutstandingCredit:  outstanding,
	}, nil
}
