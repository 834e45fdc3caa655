package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dsdroute/dsdroute-backend/internal/credit"
	"github.com/dsdroute/dsdroute-backend/internal/notify"
	"github.com/dsdroute/dsdroute-backend/pkg/db"
	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	"github.com/dsdroute/dsdroute-backend/pkg/enums"
	pkgerrors "github.com/dsdroute/dsdroute-backend/pkg/errors"
	"github.com/dsdroute/dsdroute-backend/pkg/outbox"
	"github.com/dsdroute/dsdroute-backend/pkg/pagination"
)

type orderRepository interface {
	CreateTx(tx *gorm.DB, order *models.Order) error
	CountForDayTx(tx *gorm.DB, day time.Time) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	SaveTx(tx *gorm.DB, order *models.Order) error
	List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Order, error)
}

type productLocker interface {
	LockForUpdateTx(tx *gorm.DB, id uuid.UUID) (*models.Product, error)
	AdjustStockTx(tx *gorm.DB, id uuid.UUID, delta int) error
}

type shopFinder interface {
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Shop, error)
}

type returnInserter interface {
	CreateTx(tx *gorm.DB, ret *models.Return) error
}

type paymentInserter interface {
	CreateTx(tx *gorm.DB, payment *models.Payment) error
}

type creditReconciler interface {
	Reconcile(tx *gorm.DB, input credit.ReconcileInput) error
}

type notifyPublisher interface {
	Publish(ctx context.Context, tx *gorm.DB, event notify.Event) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Actor identifies the authenticated caller of an order operation.
type Actor struct {
	ID    uuid.UUID
	Email string
	Role  enums.Role
}

// CanViewAll reports whether the actor sees every order or only their own.
func (a Actor) CanViewAll() bool {
	return enums.HasPermission(a.Role, enums.PermViewAllOrders)
}

// Service exposes the order workflow.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateOrderInput) (*OrderDTO, error)
	Approve(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error)
	Reject(ctx context.Context, actor Actor, orderID uuid.UUID, reason string) (*OrderDTO, error)
	MarkDelivered(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, actor Actor, filter ListFilter, params pagination.Params) (*OrderPage, error)
	Detail(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error)
}

type service struct {
	tx       txRunner
	repo     orderRepository
	products productLocker
	shops    shopFinder
	returns  returnInserter
	payments paymentInserter
	credit   creditReconciler
	notify   notifyPublisher
	clock    func() time.Time
}

// NewService wires the order workflow with its collaborators.
func NewService(
	tx txRunner,
	repo orderRepository,
	products productLocker,
	shops shopFinder,
	returns returnInserter,
	payments paymentInserter,
	creditSvc creditReconciler,
	notifier notifyPublisher,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if shops == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	if returns == nil {
		return nil, fmt.Errorf("return repository required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if creditSvc == nil {
		return nil, fmt.Errorf("credit service required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notify service required")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		products: products,
		shops:    shops,
		returns:  returns,
		payments: payments,
		credit:   creditSvc,
		notify:   notifier,
		clock:    time.Now,
	}, nil
}

// OrderLineInput is one requested product line. UnitPrice is the price the
// rep quoted on the order form, which may differ from the current catalog
// price.
type OrderLineInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// ReturnLineInput is an inline return captured on the order form. These are
// auto-approved because the rep is standing in the shop with the goods.
type ReturnLineInput struct {
	ProductID    uuid.UUID
	Quantity     int
	Reason       string
	RefundAmount *decimal.Decimal
}

// PaymentInput is the optional payment taken at order time.
type PaymentInput struct {
	Amount       decimal.Decimal
	PaymentType  enums.PaymentType
	ChequeNumber *string
}

// CreateOrderInput is the full order submission. NetTotal is the invoice
// total as computed on the order form (line totals minus per-item discounts,
// plus tax, minus the invoice discount); the engine stores it as-is rather
// than recomputing it. TaxPercentage and InvoiceDiscount are kept for the
// audit trail only.
type CreateOrderInput struct {
	ShopID          uuid.UUID
	OrderDate       time.Time
	Notes           *string
	NetTotal        decimal.Decimal
	TaxPercentage   decimal.Decimal
	InvoiceDiscount decimal.Decimal
	Items           []OrderLineInput
	Returns         []ReturnLineInput
	Payment         *PaymentInput
}

// Create runs the whole order submission in one transaction: stock is
// checked and decremented under row locks, the order and its items are
// inserted, an order-time payment is recorded pre-verified, inline returns
// restock immediately, and the shop's credit ledger is reconciled against
// the new total. Any failure rolls the entire submission back.
func (s *service) Create(ctx context.Context, actor Actor, input CreateOrderInput) (*OrderDTO, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		shop, err := s.shops.FindByIDTx(tx, input.ShopID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find shop")
		}
		if !shop.IsActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shop is inactive")
		}

		now := s.clock()
		orderDate := input.OrderDate
		if orderDate.IsZero() {
			orderDate = now
		}

		orderNumber, err := s.nextOrderNumber(tx, orderDate)
		if err != nil {
			return err
		}

		items, err := s.reserveStock(tx, input.Items)
		if err != nil {
			return err
		}

		total := input.NetTotal.Round(2)

		order := &models.Order{
			OrderNumber:     orderNumber,
			ShopID:          input.ShopID,
			SalesRepID:      actor.ID,
			OrderDate:       orderDate,
			Status:          enums.OrderStatusPending,
			TotalAmount:     total,
			TaxPercentage:   input.TaxPercentage,
			InvoiceDiscount: input.InvoiceDiscount,
			Notes:           input.Notes,
			Items:           items,
		}
		if err := s.repo.CreateTx(tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		effectivePayment := decimal.Zero
		if input.Payment != nil && input.Payment.Amount.IsPositive() {
			payment := &models.Payment{
				OrderID:      order.ID,
				Amount:       input.Payment.Amount,
				PaymentType:  input.Payment.PaymentType,
				PaymentDate:  now,
				ChequeNumber: input.Payment.ChequeNumber,
				RecordedByID: &actor.ID,
				IsVerified:   true,
			}
			if err := s.payments.CreateTx(tx, payment); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order payment")
			}
			effectivePayment = input.Payment.Amount
		}

		if err := s.restockInlineReturns(tx, actor, order, input.Returns, now); err != nil {
			return err
		}

		err = s.credit.Reconcile(tx, credit.ReconcileInput{
			ShopID:      input.ShopID,
			SalesRepID:  actor.ID,
			ActorEmail:  actor.Email,
			OrderNumber: orderNumber,
			TotalOwed:   total,
			Payment:     effectivePayment,
		})
		if err != nil {
			return err
		}

		err = s.notify.Publish(ctx, tx, notify.Event{
			Event:       enums.NotifyOrderCreated,
			AggregateID: order.ID,
			Actor:       &outbox.ActorRef{UserID: actor.ID, Role: actor.Role.String()},
			Title:       "New order submitted",
			Message:     fmt.Sprintf("Order %s for %s awaits approval", orderNumber, shop.Name),
			ToAdmins:    true,
			Data: map[string]any{
				"orderId":     order.ID,
				"orderNumber": orderNumber,
				"shopName":    shop.Name,
				"salesRep":    actor.Email,
				"totalAmount": total,
			},
		})
		if err != nil {
			return err
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, created.ID)
}

func validateCreateInput(input CreateOrderInput) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item unit price cannot be negative")
		}
	}
	if input.NetTotal.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "net total cannot be negative")
	}
	for _, ret := range input.Returns {
		if ret.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "return quantity must be positive")
		}
	}
	if input.TaxPercentage.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "tax percentage cannot be negative")
	}
	if input.InvoiceDiscount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invoice discount cannot be negative")
	}
	if input.Payment != nil {
		if input.Payment.Amount.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment amount cannot be negative")
		}
		if input.Payment.Amount.IsPositive() && !input.Payment.PaymentType.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment type")
		}
	}
	return nil
}

// nextOrderNumber builds ORD{yyyyMMdd}{seq} where seq restarts daily.
func (s *service) nextOrderNumber(tx *gorm.DB, day time.Time) (string, error) {
	count, err := s.repo.CountForDayTx(tx, day)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders for day")
	}
	return fmt.Sprintf("ORD%s%03d", day.Format("20060102"), count+1), nil
}

// reserveStock locks each product row, rejects oversells, and decrements
// stock. The item rows record the unit price from the order form, not the
// current catalog price.
func (s *service) reserveStock(tx *gorm.DB, lines []OrderLineInput) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		product, err := s.products.LockForUpdateTx(tx, line.ProductID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product")
		}
		if product.StockQty < line.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("insufficient stock for %s: available %d, requested %d", product.Name, product.StockQty, line.Quantity))
		}
		if err := s.products.AdjustStockTx(tx, product.ID, -line.Quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
		})
	}
	return items, nil
}

// restockInlineReturns records auto-approved returns taken on the order form
// and puts the goods back into stock.
func (s *service) restockInlineReturns(tx *gorm.DB, actor Actor, order *models.Order, lines []ReturnLineInput, now time.Time) error {
	for _, line := range lines {
		ret := &models.Return{
			ShopID:        order.ShopID,
			ProductID:     line.ProductID,
			OrderID:       &order.ID,
			Quantity:      line.Quantity,
			Reason:        line.Reason,
			ReturnDate:    now,
			Status:        enums.ReturnStatusApproved,
			RefundAmount:  line.RefundAmount,
			ProcessedByID: &actor.ID,
			ApprovedAt:    &now,
			ApprovedByID:  &actor.ID,
		}
		if err := s.returns.CreateTx(tx, ret); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inline return")
		}
		if _, err := s.products.LockForUpdateTx(tx, line.ProductID); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "returned product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock returned product")
		}
		if err := s.products.AdjustStockTx(tx, line.ProductID, line.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock returned product")
		}
	}
	return nil
}

// Approve moves the order to approved and notifies the owning rep. The
// transition is deliberately permitted from any status.
func (s *service) Approve(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.loadForUpdate(tx, orderID)
		if err != nil {
			return err
		}

		now := s.clock()
		order.Status = enums.OrderStatusApproved
		order.ApprovedAt = &now
		order.ApprovedByID = &actor.ID
		if err := s.repo.SaveTx(tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}

		return s.notify.Publish(ctx, tx, notify.Event{
			Event:       enums.NotifyOrderApproved,
			AggregateID: order.ID,
			Actor:       &outbox.ActorRef{UserID: actor.ID, Role: actor.Role.String()},
			Title:       "Order approved",
			Message:     fmt.Sprintf("Order %s for %s has been approved", order.OrderNumber, shopName(order)),
			UserIDs:     []uuid.UUID{order.SalesRepID},
			Data:        map[string]any{"orderId": order.ID, "orderNumber": order.OrderNumber},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, orderID)
}

// Reject marks the order rejected with a reason and notifies the owning rep.
// Stock and credit are intentionally left untouched.
func (s *service) Reject(ctx context.Context, actor Actor, orderID uuid.UUID, reason string) (*OrderDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.loadForUpdate(tx, orderID)
		if err != nil {
			return err
		}

		order.Status = enums.OrderStatusRejected
		order.RejectionReason = &reason
		if err := s.repo.SaveTx(tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}

		return s.notify.Publish(ctx, tx, notify.Event{
			Event:       enums.NotifyOrderRejected,
			AggregateID: order.ID,
			Actor:       &outbox.ActorRef{UserID: actor.ID, Role: actor.Role.String()},
			Title:       "Order rejected",
			Message:     fmt.Sprintf("Order %s for %s was rejected: %s", order.OrderNumber, shopName(order), reason),
			UserIDs:     []uuid.UUID{order.SalesRepID},
			Data:        map[string]any{"orderId": order.ID, "orderNumber": order.OrderNumber, "reason": reason},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, orderID)
}

// MarkDelivered transitions an approved order to delivered. Reps may only
// deliver their own orders; a rep delivery also pings the admins.
func (s *service) MarkDelivered(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.loadForUpdate(tx, orderID)
		if err != nil {
			return err
		}

		if !actor.CanViewAll() && order.SalesRepID != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cannot deliver another rep's order")
		}
		if order.Status != enums.OrderStatusApproved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only approved orders can be marked as delivered")
		}

		now := s.clock()
		order.Status = enums.OrderStatusDelivered
		order.DeliveredAt = &now
		order.DeliveredByID = &actor.ID
		if err := s.repo.SaveTx(tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}

		if actor.CanViewAll() {
			return nil
		}
		return s.notify.Publish(ctx, tx, notify.Event{
			Event:       enums.NotifyOrderDelivered,
			AggregateID: order.ID,
			Actor:       &outbox.ActorRef{UserID: actor.ID, Role: actor.Role.String()},
			Title:       "Order delivered",
			Message:     fmt.Sprintf("Order %s for %s was delivered by %s", order.OrderNumber, shopName(order), actor.Email),
			ToAdmins:    true,
			Data:        map[string]any{"orderId": order.ID, "orderNumber": order.OrderNumber, "deliveredBy": actor.Email},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, orderID)
}

func (s *service) List(ctx context.Context, actor Actor, filter ListFilter, params pagination.Params) (*OrderPage, error) {
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	page := &OrderPage{Items: make([]OrderDTO, 0, len(rows))}
	for i, row := range rows {
		if i == limit {
			break
		}
		page.Items = append(page.Items, ToOrderDTO(row))
	}
	if len(rows) > limit {
		last := rows[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
	}
	return page, nil
}

func (s *service) Detail(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order")
	}
	if !actor.CanViewAll() && order.SalesRepID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another rep")
	}
	dto := ToOrderDTO(*order)
	return &dto, nil
}

func (s *service) loadForUpdate(tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDTx(tx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order")
	}
	return order, nil
}

func (s *service) reload(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	dto := ToOrderDTO(*order)
	return &dto, nil
}

func shopName(order *models.Order) string {
	if order.Shop != nil {
		return order.Shop.Name
	}
	return order.ShopID.String()
}
