package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dsdroute/dsdroute-backend/internal/notify"
	"github.com/dsdroute/dsdroute-backend/internal/orders"
	"github.com/dsdroute/dsdroute-backend/pkg/db"
	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	"github.com/dsdroute/dsdroute-backend/pkg/enums"
	pkgerrors "github.com/dsdroute/dsdroute-backend/pkg/errors"
	"github.com/dsdroute/dsdroute-backend/pkg/outbox"
	"github.com/dsdroute/dsdroute-backend/pkg/pagination"
)

type paymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	SumForOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
	List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
}

type orderReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type notifyPublisher interface {
	Publish(ctx context.Context, tx *gorm.DB, event notify.Event) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes standalone payment operations.
type Service interface {
	Create(ctx context.Context, actor orders.Actor, input CreatePaymentInput) (*PaymentDTO, error)
	Verify(ctx context.Context, actor orders.Actor, paymentID uuid.UUID) (*PaymentDTO, error)
	List(ctx context.Context, actor orders.Actor, filter ListFilter, params pagination.Params) (*PaymentPage, error)
	Detail(ctx context.Context, actor orders.Actor, paymentID uuid.UUID) (*PaymentDTO, error)
}

type service struct {
	tx     txRunner
	repo   paymentRepository
	orders orderReader
	notify notifyPublisher
	clock  func() time.Time
}

// NewService builds the payments service.
func NewService(tx txRunner, repo paymentRepository, orderRepo orderReader, notifier notifyPublisher) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notify service required")
	}
	return &service{
		tx:     tx,
		repo:   repo,
		orders: orderRepo,
		notify: notifier,
		clock:  time.Now,
	}, nil
}

// CreatePaymentInput captures a payment recorded after delivery.
type CreatePaymentInput struct {
	OrderID      uuid.UUID
	Amount       decimal.Decimal
	PaymentType  enums.PaymentType
	ChequeNumber *string
	Notes        *string
}

// Create records a payment against a delivered order. Standalone payments
// start unverified; an admin signs them off later.
func (s *service) Create(ctx context.Context, actor orders.Actor, input CreatePaymentInput) (*PaymentDTO, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if !input.PaymentType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment type")
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order")
	}

	if !actor.CanViewAll() && order.SalesRepID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot record payment for another rep's order")
	}
	if order.Status != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payments can only be recorded for delivered orders")
	}

	totalPaid, err := s.repo.SumForOrder(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum order payments")
	}
	remaining := order.TotalAmount.Sub(totalPaid)
	if !remaining.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has been fully paid")
	}
	if input.Amount.GreaterThan(remaining) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("payment amount cannot exceed remaining balance of %s", remaining.StringFixed(2)))
	}

	payment := &models.Payment{
		OrderID:      order.ID,
		Amount:       input.Amount,
		PaymentType:  input.PaymentType,
		PaymentDate:  s.clock(),
		ChequeNumber: input.ChequeNumber,
		Notes:        input.Notes,
		RecordedByID: &actor.ID,
		IsVerified:   false,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		if actor.CanViewAll() {
			return nil
		}
		return s.notify.Publish(ctx, tx, notify.Event{
			Event:       enums.NotifyPaymentRecorded,
			AggregateID: payment.ID,
			Actor:       &outbox.ActorRef{UserID: actor.ID, Role: actor.Role.String()},
			Title:       "Payment recorded",
			Message:     fmt.Sprintf("Payment of %s recorded on order %s by %s", input.Amount.StringFixed(2), order.OrderNumber, actor.Email),
			ToAdmins:    true,
			Data: map[string]any{
				"paymentId":   payment.ID,
				"orderId":     order.ID,
				"orderNumber": order.OrderNumber,
				"amount":      input.Amount,
				"salesRep":    actor.Email,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	return s.Detail(ctx, actor, payment.ID)
}

// Verify flags a payment as checked by an admin and notifies the rep who
// owns the order.
func (s *service) Verify(ctx context.Context, actor orders.Actor, paymentID uuid.UUID) (*PaymentDTO, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find payment")
	}
	if payment.IsVerified {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is already verified")
	}

	now := s.clock()
	payment.IsVerified = true
	payment.VerifiedAt = &now
	payment.VerifiedByID = &actor.ID

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Save(payment).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment")
		}
		if payment.Order == nil {
			return nil
		}
		return s.notify.Publish(ctx, tx, notify.Event{
			Event:       enums.NotifyPaymentVerified,
			AggregateID: payment.ID,
			Actor:       &outbox.ActorRef{UserID: actor.ID, Role: actor.Role.String()},
			Title:       "Payment verified",
			Message:     fmt.Sprintf("Your payment of %s on order %s has been verified", payment.Amount.StringFixed(2), payment.Order.OrderNumber),
			UserIDs:     []uuid.UUID{payment.Order.SalesRepID},
			Data: map[string]any{
				"paymentId": payment.ID,
				"orderId":   payment.OrderID,
				"amount":    payment.Amount,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	dto := ToPaymentDTO(*payment)
	return &dto, nil
}

func (s *service) List(ctx context.Context, actor orders.Actor, filter ListFilter, params pagination.Params) (*PaymentPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	if !actor.CanViewAll() {
		repID := actor.ID
		filter.SalesRepID = &repID
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, filter, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}

	page := &PaymentPage{Items: make([]PaymentDTO, 0, len(rows))}
	for i, row := range rows {
		if i == limit {
			break
		}
		page.Items = append(page.Items, ToPaymentDTO(row))
	}
	if len(rows) > limit {
		last := rows[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
	}
	return page, nil
}

func (s *service) Detail(ctx context.Context, actor orders.Actor, paymentID uuid.UUID) (*PaymentDTO, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find payment")
	}
	if !actor.CanViewAll() && payment.Order != nil && payment.Order.SalesRepID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment belongs to another rep")
	}
	dto := ToPaymentDTO(*payment)
	return &dto, nil
}
