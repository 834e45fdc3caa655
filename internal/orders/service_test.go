package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dsdroute/dsdroute-backend/internal/credit"
	"github.com/dsdroute/dsdroute-backend/internal/notify"
	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	"github.com/dsdroute/dsdroute-backend/pkg/enums"
	pkgerrors "github.com/dsdroute/dsdroute-backend/pkg/errors"
	"github.com/dsdroute/dsdroute-backend/pkg/pagination"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubOrderRepo struct {
	created    *models.Order
	stored     map[uuid.UUID]*models.Order
	dayCount   int64
	lastFilter ListFilter
	listRows   []models.Order
}

func (s *stubOrderRepo) CreateTx(tx *gorm.DB, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.created = order
	if s.stored == nil {
		s.stored = map[uuid.UUID]*models.Order{}
	}
	s.stored[order.ID] = order
	return nil
}

func (s *stubOrderRepo) CountForDayTx(tx *gorm.DB, day time.Time) (int64, error) {
	return s.dayCount, nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.stored[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrderRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	order, ok := s.stored[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrderRepo) SaveTx(tx *gorm.DB, order *models.Order) error {
	if s.stored == nil {
		s.stored = map[uuid.UUID]*models.Order{}
	}
	s.stored[order.ID] = order
	return nil
}

func (s *stubOrderRepo) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	s.lastFilter = filter
	if len(s.listRows) > limit {
		return s.listRows[:limit], nil
	}
	return s.listRows, nil
}

type stubProducts struct {
	byID    map[uuid.UUID]*models.Product
	adjusts []stockAdjust
}

type stockAdjust struct {
	id    uuid.UUID
	delta int
}

func (s *stubProducts) LockForUpdateTx(tx *gorm.DB, id uuid.UUID) (*models.Product, error) {
	product, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (s *stubProducts) AdjustStockTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	product, ok := s.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	product.StockQty += delta
	s.adjusts = append(s.adjusts, stockAdjust{id: id, delta: delta})
	return nil
}

type stubShops struct {
	shop *models.Shop
}

func (s *stubShops) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Shop, error) {
	if s.shop == nil || s.shop.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.shop, nil
}

type stubReturns struct {
	created []*models.Return
}

func (s *stubReturns) CreateTx(tx *gorm.DB, ret *models.Return) error {
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	s.created = append(s.created, ret)
	return nil
}

type stubPayments struct {
	created []*models.Payment
}

func (s *stubPayments) CreateTx(tx *gorm.DB, payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	s.created = append(s.created, payment)
	return nil
}

type stubCredit struct {
	inputs []credit.ReconcileInput
	err    error
}

func (s *stubCredit) Reconcile(tx *gorm.DB, input credit.ReconcileInput) error {
	if s.err != nil {
		return s.err
	}
	s.inputs = append(s.inputs, input)
	return nil
}

type stubNotify struct {
	events []notify.Event
}

func (s *stubNotify) Publish(ctx context.Context, tx *gorm.DB, event notify.Event) error {
	s.events = append(s.events, event)
	return nil
}

type orderFixture struct {
	svc      Service
	repo     *stubOrderRepo
	products *stubProducts
	shops    *stubShops
	returns  *stubReturns
	payments *stubPayments
	credit   *stubCredit
	notify   *stubNotify
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	f := &orderFixture{
		repo:     &stubOrderRepo{},
		products: &stubProducts{byID: map[uuid.UUID]*models.Product{}},
		shops:    &stubShops{},
		returns:  &stubReturns{},
		payments: &stubPayments{},
		credit:   &stubCredit{},
		notify:   &stubNotify{},
	}
	svc, err := NewService(stubTxRunner{}, f.repo, f.products, f.shops, f.returns, f.payments, f.credit, f.notify)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *orderFixture) addProduct(t *testing.T, name string, price string, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:       uuid.New(),
		Name:     name,
		SKU:      fmt.Sprintf("SKU-%s", name),
		Price:    decimal.RequireFromString(price),
		StockQty: stock,
		IsActive: true,
	}
	f.products.byID[product.ID] = product
	return product
}

func (f *orderFixture) addShop(active bool) *models.Shop {
	shop := &models.Shop{
		ID:       uuid.New(),
		Name:     "Corner Mart",
		IsActive: active,
	}
	f.shops.shop = shop
	return shop
}

func repActor() Actor {
	return Actor{ID: uuid.New(), Email: "rep@dsdroute.io", Role: enums.RoleSalesRep}
}

func adminActor() Actor {
	return Actor{ID: uuid.New(), Email: "admin@dsdroute.io", Role: enums.RoleAdmin}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()

	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestCreateOrderHappyPath(t *testing.T) {
	f := newOrderFixture(t)
	shop := f.addShop(true)
	product := f.addProduct(t, "cola", "10.00", 20)
	actor := repActor()

	dto, err := f.svc.Create(context.Background(), actor, CreateOrderInput{
		ShopID:          shop.ID,
		NetTotal:        decimal.RequireFromString("28"),
		TaxPercentage:   decimal.RequireFromString("10"),
		InvoiceDiscount: decimal.RequireFromString("5"),
		Items:           []OrderLineInput{{ProductID: product.ID, Quantity: 3, UnitPrice: decimal.RequireFromString("10.00")}},
	})
	require.NoError(t, err)

	assert.True(t, dto.TotalAmount.Equal(decimal.RequireFromString("28")), "got %s", dto.TotalAmount)
	assert.Equal(t, enums.OrderStatusPending, dto.Status)
	assert.Equal(t, actor.ID, dto.SalesRepID)
	assert.Equal(t, 17, product.StockQty)

	require.Len(t, f.credit.inputs, 1)
	assert.True(t, f.credit.inputs[0].Payment.IsZero())
	assert.True(t, f.credit.inputs[0].TotalOwed.Equal(decimal.RequireFromString("28")))

	require.Len(t, f.notify.events, 1)
	assert.Equal(t, enums.NotifyOrderCreated, f.notify.events[0].Event)
	assert.True(t, f.notify.events[0].ToAdmins)
}

func TestCreateOrderKeepsQuotedTotalAndPrices(t *testing.T) {
	f := newOrderFixture(t)
	shop := f.addShop(true)
	product := f.addProduct(t, "cola", "10.00", 20)

	// The form quoted 9.50 a unit and a 27.55 total; the catalog price has
	// since moved. The stored order must reflect the quote, not the catalog.
	dto, err := f.svc.Create(context.Background(), repActor(), CreateOrderInput{
		ShopID:   shop.ID,
		NetTotal: decimal.RequireFromString("27.55"),
		Items:    []OrderLineInput{{ProductID: product.ID, Quantity: 3, UnitPrice: decimal.RequireFromString("9.50")}},
	})
	require.NoError(t, err)

	assert.True(t, dto.TotalAmount.Equal(decimal.RequireFromString("27.55")), "got %s", dto.TotalAmount)
	require.Len(t, f.repo.created.Items, 1)
	assert.True(t, f.repo.created.Items[0].Price.Equal(decimal.RequireFromString("9.50")),
		"got %s", f.repo.created.Items[0].Price)

	require.Len(t, f.credit.inputs, 1)
	assert.True(t, f.credit.inputs[0].TotalOwed.Equal(decimal.RequireFromString("27.55")))
}

func TestCreateOrderNumberFormat(t *testing.T) {
	f := newOrderFixture(t)
	shop := f.addShop(true)
	product := f.addProduct(t, "cola", "1.00", 10)
	f.repo.dayCount = 4

	dto, err := f.svc.Create(context.Background(), repActor(), CreateOrderInput{
		ShopID:    shop.ID,
		OrderDate: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Items:     []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD20260314005", dto.OrderNumber)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	f := newOrderFixture(t)
	shop := f.addShop(true)
	product := f.addProduct(t, "cola", "10.00", 2)

	_, err := f.svc.Create(context.Background(), repActor(), CreateOrderInput{
		ShopID: shop.ID,
		Items:  []OrderLineInput{{ProductID: product.ID, Quantity: 5}},
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
	assert.Nil(t, f.repo.created)
	assert.Empty(t, f.credit.inputs)
}

func TestCreateOrderInactiveShop(t *testing.T) {
	f := newOrderFixture(t)
	shop := f.addShop(false)
	product := f.addProduct(t, "cola", "10.00", 10)

	_, err := f.svc.Create(context.Background(), repActor(), CreateOrderInput{
		ShopID: shop.ID,
		Items:  []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCreateOrderUnknownShop(t *testing.T) {
	f := newOrderFixture(t)
	product := f.addProduct(t, "cola", "10.00", 10)

	_, err := f.svc.Create(context.Background(), repActor(), CreateOrderInput{
		ShopID: uuid.New(),
		Items:  []OrderLineInput{{ProductID: product.ID, Quantity: 1}},
	})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture(t)
	shop := f.addShop(true)

	cases := []struct {
		name  string
		input CreateOrderInput
	}{
		{"no items", CreateOrderInput{ShopID: shop.ID}},
		{"zero quantity", CreateOrderInput{
			ShopID: shop.ID,
			Items:  []OrderLineInput{{ProductID: uuid.New(), Quantity: 0}},
		}},
		{"negative unit price", CreateOrderInput{
			ShopID: shop.ID,
			Items:  []OrderLineInput{{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.RequireFromString("-2")}},
		}},
		{"negative net total", CreateOrderInput{
			ShopID:   shop.ID,
			NetTotal: decimal.RequireFromString("-10"),
			Items:    []OrderLineInput{{ProductID: uuid.New(), Quantity: 1}},
		}},
		{"negative tax", CreateOrderInput{
			ShopID:        shop.ID,
			TaxPercentage: decimal.RequireFromString("-1"),
			Items:         []OrderLineInput{{ProductID: uuid.New(), Quantity: 1}},
		}},
		{"negative payment", CreateOrderInput{
			ShopID:  shop.ID,
			Items:   []OrderLineInput{{ProductID: uuid.New(), Quantity: 1}},
			Payment: &PaymentInput{Amount: decimal.RequireFromString("-5")},
		}},
		{"bad payment type", CreateOrderInput{
			ShopID:  shop.ID,
			Items:   []OrderLineInput{{ProductID: uuid.New(), Quantity: 1}},
			Payment: &PaymentInput{Amount: decimal.RequireFromString("5"), PaymentType: "barter"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), repActor(), tc.input)
			assertCode(t, err, pkgerrors.CodeValidation)
		})
	}
}

func TestCreateOrderWithPayment(t *testing.T) {
	f := newOrderFixture(t)
	shop := f.addShop(true)
	product := f.addProduct(t, "cola", "10.00", 10)
	actor := repActor()

	_, err := f.svc.Create(context.Background(), actor, CreateOrderInput{
		ShopID:   shop.ID,
		NetTotal: decimal.RequireFromString("20"),
		Items:    []OrderLineInput{{ProductID: product.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")}},
		Payment: &PaymentInput{
			Amount:      decimal.RequireFromString("15"),
			PaymentType: enums.PaymentTypeCash,
		},
	})
	require.NoError(t, err)

	require.Len(t, f.payments.created, 1)
	payment := f.payments.created[0]
	assert.True(t, payment.IsVerified, "order-time payments are pre-verified")
	assert.Equal(t, enums.PaymentTypeCash, payment.PaymentType)
	require.NotNil(t, payment.RecordedByID)
	assert.Equal(t, actor.ID, *payment.RecordedByID)

	require.Len(t, f.credit.inputs, 1)
	assert.True(t, f.credit.inputs[0].Payment.Equal(decimal.RequireFromString("15")))
}

func TestCreateOrderInlineReturnsRestock(t *testing.T) {
	f := newOrderFixture(t)
	shop := f.addShop(true)
	sold := f.addProduct(t, "cola", "10.00", 10)
	returned := f.addProduct(t, "chips", "4.00", 3)
	actor := repActor()

	_, err := f.svc.Create(context.Background(), actor, CreateOrderInput{
		ShopID: shop.ID,
		Items:  []OrderLineInput{{ProductID: sold.ID, Quantity: 2}},
		Returns: []ReturnLineInput{
			{ProductID: returned.ID, Quantity: 4, Reason: "expired"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 8, sold.StockQty)
	assert.Equal(t, 7, returned.StockQty, "inline returns restock immediately")

	require.Len(t, f.returns.created, 1)
	ret := f.returns.created[0]
	assert.Equal(t, enums.ReturnStatusApproved, ret.Status)
	require.NotNil(t, ret.ApprovedByID)
	assert.Equal(t, actor.ID, *ret.ApprovedByID)
	require.NotNil(t, ret.OrderID)
	assert.Equal(t, f.repo.created.ID, *ret.OrderID)
}

func TestApproveOrder(t *testing.T) {
	f := newOrderFixture(t)
	rep := uuid.New()
	order := &models.Order{ID: uuid.New(), OrderNumber: "ORD20260101001", SalesRepID: rep, Status: enums.OrderStatusPending}
	f.repo.stored = map[uuid.UUID]*models.Order{order.ID: order}

	dto, err := f.svc.Approve(context.Background(), adminActor(), order.ID)
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusApproved, dto.Status)
	require.NotNil(t, dto.ApprovedAt)
	require.Len(t, f.notify.events, 1)
	assert.Equal(t, enums.NotifyOrderApproved, f.notify.events[0].Event)
	assert.Equal(t, []uuid.UUID{rep}, f.notify.events[0].UserIDs)
}

func TestApproveOrderNotFound(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.Approve(context.Background(), adminActor(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestRejectOrder(t *testing.T) {
	f := newOrderFixture(t)
	order := &models.Order{ID: uuid.New(), OrderNumber: "ORD20260101001", SalesRepID: uuid.New(), Status: enums.OrderStatusPending}
	f.repo.stored = map[uuid.UUID]*models.Order{order.ID: order}

	dto, err := f.svc.Reject(context.Background(), adminActor(), order.ID, "out of territory")
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusRejected, dto.Status)
	require.NotNil(t, dto.RejectionReason)
	assert.Equal(t, "out of territory", *dto.RejectionReason)
	require.Len(t, f.notify.events, 1)
	assert.Equal(t, enums.NotifyOrderRejected, f.notify.events[0].Event)
}

func TestMarkDeliveredRequiresApproved(t *testing.T) {
	f := newOrderFixture(t)
	actor := repActor()
	order := &models.Order{ID: uuid.New(), SalesRepID: actor.ID, Status: enums.OrderStatusPending}
	f.repo.stored = map[uuid.UUID]*models.Order{order.ID: order}

	_, err := f.svc.MarkDelivered(context.Background(), actor, order.ID)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestMarkDeliveredForeignOrderForbidden(t *testing.T) {
	f := newOrderFixture(t)
	order := &models.Order{ID: uuid.New(), SalesRepID: uuid.New(), Status: enums.OrderStatusApproved}
	f.repo.stored = map[uuid.UUID]*models.Order{order.ID: order}

	_, err := f.svc.MarkDelivered(context.Background(), repActor(), order.ID)
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestMarkDeliveredByRepNotifiesAdmins(t *testing.T) {
	f := newOrderFixture(t)
	actor := repActor()
	order := &models.Order{ID: uuid.New(), OrderNumber: "ORD20260101001", SalesRepID: actor.ID, Status: enums.OrderStatusApproved}
	f.repo.stored = map[uuid.UUID]*models.Order{order.ID: order}

	dto, err := f.svc.MarkDelivered(context.Background(), actor, order.ID)
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusDelivered, dto.Status)
	require.NotNil(t, dto.DeliveredAt)
	require.Len(t, f.notify.events, 1)
	assert.Equal(t, enums.NotifyOrderDelivered, f.notify.events[0].Event)
	assert.True(t, f.notify.events[0].ToAdmins)
}

func TestMarkDeliveredByAdminSkipsNotify(t *testing.T) {
	f := newOrderFixture(t)
	order := &models.Order{ID: uuid.New(), SalesRepID: uuid.New(), Status: enums.OrderStatusApproved}
	f.repo.stored = map[uuid.UUID]*models.Order{order.ID: order}

	_, err := f.svc.MarkDelivered(context.Background(), adminActor(), order.ID)
	require.NoError(t, err)
	assert.Empty(t, f.notify.events)
}

func TestListScopesRepToOwnOrders(t *testing.T) {
	f := newOrderFixture(t)
	actor := repActor()

	_, err := f.svc.List(context.Background(), actor, ListFilter{}, pagination.Params{})
	require.NoError(t, err)
	require.NotNil(t, f.repo.lastFilter.SalesRepID)
	assert.Equal(t, actor.ID, *f.repo.lastFilter.SalesRepID)
}

func TestListAdminSeesAll(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.List(context.Background(), adminActor(), ListFilter{}, pagination.Params{})
	require.NoError(t, err)
	assert.Nil(t, f.repo.lastFilter.SalesRepID)
}

func TestListPaginates(t *testing.T) {
	f := newOrderFixture(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		f.repo.listRows = append(f.repo.listRows, models.Order{
			ID:        uuid.New(),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	page, err := f.svc.List(context.Background(), adminActor(), ListFilter{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	require.NotNil(t, page.NextCursor)

	cursor, err := pagination.ParseCursor(*page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, f.repo.listRows[1].ID, cursor.ID)
}

func TestListRejectsBadCursor(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.List(context.Background(), adminActor(), ListFilter{}, pagination.Params{Cursor: "!!!"})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestDetailOwnership(t *testing.T) {
	f := newOrderFixture(t)
	owner := repActor()
	order := &models.Order{ID: uuid.New(), SalesRepID: owner.ID, Status: enums.OrderStatusPending}
	f.repo.stored = map[uuid.UUID]*models.Order{order.ID: order}

	dto, err := f.svc.Detail(context.Background(), owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, dto.ID)

	_, err = f.svc.Detail(context.Background(), repActor(), order.ID)
	assertCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.Detail(context.Background(), adminActor(), order.ID)
	require.NoError(t, err)
}
