package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsdroute/dsdroute-backend/pkg/enums"
	pkgerrors "github.com/dsdroute/dsdroute-backend/pkg/errors"
)

type stubOrderCounter struct {
	pending int64
	err     error
}

func (s stubOrderCounter) CountByStatus(ctx context.Context, status enums.OrderStatus) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if status == enums.OrderStatusPending {
		return s.pending, nil
	}
	return 0, nil
}

type stubPaymentCounter struct {
	unverified int64
}

func (s stubPaymentCounter) CountUnverified(ctx context.Context) (int64, error) {
	return s.unverified, nil
}

type stubReturnCounter struct {
	pending int64
}

func (s stubReturnCounter) CountByStatus(ctx context.Context, status enums.ReturnStatus) (int64, error) {
	if status == enums.ReturnStatusPending {
		return s.pending, nil
	}
	return 0, nil
}

type stubCreditTotaler struct {
	total decimal.Decimal
}

func (s stubCreditTotaler) TotalOutstanding(ctx context.Context) (decimal.Decimal, error) {
	return s.total, nil
}

func TestSummarizeAggregatesCounters(t *testing.T) {
	svc, err := NewService(
		stubOrderCounter{pending: 4},
		stubPaymentCounter{unverified: 2},
		stubReturnCounter{pending: 1},
		stubCreditTotaler{total: decimal.NewFromInt(1250)},
	)
	require.NoError(t, err)

	summary, err := svc.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), summary.PendingOrders)
	assert.Equal(t, int64(2), summary.UnverifiedPayments)
	assert.Equal(t, int64(1), summary.PendingReturns)
	assert.True(t, summary.OutstandingCredit.Equal(decimal.NewFromInt(1250)))
}

func TestSummarizeWrapsCounterFailure(t *testing.T) {
	svc, err := NewService(
		stubOrderCounter{err: errors.New("db offline")},
		stubPaymentCounter{},
		stubReturnCounter{},
		stubCreditTotaler{},
	)
	require.NoError(t, err)

	_, err = svc.Summarize(context.Background())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}

func TestNewServiceRequiresAllCounters(t *testing.T) {
	_, err := NewService(nil, stubPaymentCounter{}, stubReturnCounter{}, stubCreditTotaler{})
	assert.Error(t, err)
}
