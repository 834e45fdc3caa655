package returns

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

type returnRepository interface {
	CreateTx(tx *gorm.DB, ret *models.Return) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Return, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Return, error)
	SaveTx(tx *gorm.DB, ret *models.Return) error
	List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Return, error)
}

type productLocker interface {
	LockForUpdateTx(tx *gorm.DB, id uuid.UUID) (*models.Product, error)
	AdjustStockTx(tx *gorm.DB, id uuid.UUID, delta int) error
}

type orderReader interface {
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Order, error)
}

type notifyPublisher interface {
	Publish(ctx context.Context, tx *gorm.DB, event notify.Event) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the standalone return workflow.
type Service interface {
	Create(ctx context.Context, actor orders.Actor, input CreateReturnInput) (*ReturnDTO, error)
	Approve(ctx context.Context, actor orders.Actor, returnID uuid.UUID) (*ReturnDTO, error)
	Reject(ctx context.Context, actor orders.Actor, returnID uuid.UUID, reason string) (*ReturnDTO, error)
	List(ctx context.Context, actor orders.Actor, filter ListFilter, params pagination.Params) (*ReturnPage, error)
	Detail(ctx context.Context, actor orders.Actor, returnID uuid.UUID) (*ReturnDTO, error)
}

type service struct {
	tx       txRunner
	repo     returnRepository
	products productLocker
	orders   orderReader
	notify   notifyPublisher
	clock    func() time.Time
}

// NewService builds the returns service.
func NewService(tx txRunner, repo returnRepository, products productLocker, orderRepo orderReader, notifier notifyPublisher) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("return repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notify service required")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		products: products,
		orders:   orderRepo,
		notify:   notifier,
		clock:    time.Now,
	}, nil
}

// CreateReturnInput captures a standalone return.
type CreateReturnInput struct {
	ShopID       uuid.UUID
	ProductID    uuid.UUID
	OrderID      *uuid.UUID
	Quantity     int
	Reason       string
	RefundAmount *decimal.Decimal
}

// Create records a pending return and optimistically restocks the product.
// The stock increment is reversed if an admin later rejects the return.
func (s *service) Create(ctx context.Context, actor orders.Actor, input CreateReturnInput) (*ReturnDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return quantity must be positive")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return reason is required")
	}

	var created *models.Return
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := s.products.LockForUpdateTx(tx, input.ProductID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product")
		}

		if input.OrderID != nil {
			if _, err := s.orders.FindByIDTx(tx, *input.OrderID); err != nil {
				if db.IsNotFound(err) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order")
			}
		}

		now := s.clock()
		ret := &models.Return{
			ShopID:        input.ShopID,
			ProductID:     input.ProductID,
			OrderID:       input.OrderID,
			Quantity:      input.Quantity,
			Reason:        input.Reason,
			ReturnDate:    now,
			Status:        enums.ReturnStatusPending,
			RefundAmount:  input.RefundAmount,
			ProcessedByID: &actor.ID,
		}
		if err := s.repo.CreateTx(tx, ret); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return")
		}
		if err := s.products.AdjustStockTx(tx, input.ProductID, input.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock product")
		}

		created = ret
		if actor.CanViewAll() {
			return nil
		}
		return s.notify.Publish(ctx, tx, notify.Event{
			Event:       enums.NotifyReturnCreated,
			AggregateID: ret.ID,
			Actor:       &outbox.ActorRef{UserID: actor.ID, Role: actor.Role.String()},
			Title:       "Return recorded",
			Message:     fmt.Sprintf("%d x %s returned by %s", input.Quantity, product.Name, actor.Email),
			ToAdmins:    true,
			Data: map[string]any{
				"returnId":    ret.ID,
				"productName": product.Name,
				"quantity":    input.Quantity,
				"salesRep":    actor.Email,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	return s.Detail(ctx, actor, created.ID)
}

// Approve accepts a pending return. Stock was already incremented at create
// time, so approval only records the decision.
func (s *service) Approve(ctx context.Context, actor orders.Actor, returnID uuid.UUID) (*ReturnDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ret, err := s.loadForUpdate(tx, returnID)
		if err != nil {
			return err
		}
		if ret.Status != enums.ReturnStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending returns can be approved")
		}

		now := s.clock()
		ret.Status = enums.ReturnStatusApproved
		ret.ApprovedAt = &now
		ret.ApprovedByID = &actor.ID
		if err := s.repo.SaveTx(tx, ret); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save return")
		}

		return s.notifyOrderRep(ctx, tx, actor, ret, enums.NotifyReturnApproved,
			"Return approved",
			fmt.Sprintf("Your return of %d x %s has been approved", ret.Quantity, productName(ret)))
	})
	if err != nil {
		return nil, err
	}
	return s.detailUnchecked(ctx, returnID)
}

// Reject declines a pending return and takes the optimistic stock increment
// back out.
func (s *service) Reject(ctx context.Context, actor orders.Actor, returnID uuid.UUID, reason string) (*ReturnDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ret, err := s.loadForUpdate(tx, returnID)
		if err != nil {
			return err
		}
		if ret.Status != enums.ReturnStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending returns can be rejected")
		}

		ret.Status = enums.ReturnStatusRejected
		ret.RejectionReason = &reason
		if err := s.repo.SaveTx(tx, ret); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save return")
		}

		if _, err := s.products.LockForUpdateTx(tx, ret.ProductID); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product")
		}
		if err := s.products.AdjustStockTx(tx, ret.ProductID, -ret.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reverse restock")
		}

		return s.notifyOrderRep(ctx, tx, actor, ret, enums.NotifyReturnRejected,
			"Return rejected",
			fmt.Sprintf("Your return of %d x %s was rejected: %s", ret.Quantity, productName(ret), reason))
	})
	if err != nil {
		return nil, err
	}
	return s.detailUnchecked(ctx, returnID)
}

// notifyOrderRep pings the sales rep who owns the linked order. Returns with
// no order link have no rep to tell, so nothing is published.
func (s *service) notifyOrderRep(ctx context.Context, tx *gorm.DB, actor orders.Actor, ret *models.Return, event enums.NotificationEvent, title, message string) error {
	if ret.OrderID == nil {
		return nil
	}
	order, err := s.orders.FindByIDTx(tx, *ret.OrderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find linked order")
	}
	return s.notify.Publish(ctx, tx, notify.Event{
		Event:       event,
		AggregateID: ret.ID,
		Actor:       &outbox.ActorRef{UserID: actor.ID, Role: actor.Role.String()},
		Title:       title,
		Message:     message,
		UserIDs:     []uuid.UUID{order.SalesRepID},
		Data:        map[string]any{"returnId": ret.ID, "orderId": order.ID},
	})
}

func (s *service) List(ctx context.Context, actor orders.Actor, filter ListFilter, params pagination.Params) (*ReturnPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	if !actor.CanViewAll() {
		repID := actor.ID
		filter.ProcessedByID = &repID
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, filter, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list returns")
	}

	page := &ReturnPage{Items: make([]ReturnDTO, 0, len(rows))}
	for i, row := range rows {
		if i == limit {
			break
		}
		page.Items = append(page.Items, ToReturnDTO(row))
	}
	if len(rows) > limit {
		last := rows[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
	}
	return page, nil
}

func (s *service) Detail(ctx context.Context, actor orders.Actor, returnID uuid.UUID) (*ReturnDTO, error) {
	ret, err := s.repo.FindByID(ctx, returnID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find return")
	}
	if !actor.CanViewAll() && ret.ProcessedByID != nil && *ret.ProcessedByID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "return belongs to another rep")
	}
	dto := ToReturnDTO(*ret)
	return &dto, nil
}

func (s *service) detailUnchecked(ctx context.Context, returnID uuid.UUID) (*ReturnDTO, error) {
	ret, err := s.repo.FindByID(ctx, returnID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload return")
	}
	dto := ToReturnDTO(*ret)
	return &dto, nil
}

func (s *service) loadForUpdate(tx *gorm.DB, returnID uuid.UUID) (*models.Return, error) {
	ret, err := s.repo.FindByIDTx(tx, returnID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find return")
	}
	return ret, nil
}

func productName(ret *models.Return) string {
	if ret.Product != nil {
		return ret.Product.Name
	}
	return ret.ProductID.String()
}
