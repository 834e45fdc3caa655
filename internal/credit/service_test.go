package credit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
)

type stubCreditRepo struct {
	unsettled []models.CreditBill
	saved     []*models.CreditBill
	created   []*models.CreditBill
}

func (s *stubCreditRepo) OutstandingAmount(ctx context.Context, shopID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, bill := range s.unsettled {
		total = total.Add(bill.CreditAmount)
	}
	return total, nil
}

func (s *stubCreditRepo) ListByShop(ctx context.Context, shopID uuid.UUID) ([]models.CreditBill, error) {
	return s.unsettled, nil
}

func (s *stubCreditRepo) ListUnsettledTx(tx *gorm.DB, shopID uuid.UUID) ([]models.CreditBill, error) {
	return s.unsettled, nil
}

func (s *stubCreditRepo) SaveTx(tx *gorm.DB, bill *models.CreditBill) error {
	s.saved = append(s.saved, bill)
	return nil
}

func (s *stubCreditRepo) CreateTx(tx *gorm.DB, bill *models.CreditBill) error {
	if bill.ID == uuid.Nil {
		bill.ID = uuid.New()
	}
	s.created = append(s.created, bill)
	return nil
}

func newCreditFixture(t *testing.T, unsettled ...models.CreditBill) (Service, *stubCreditRepo) {
	t.Helper()

	repo := &stubCreditRepo{unsettled: unsettled}
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func unsettledBill(amount string) models.CreditBill {
	return models.CreditBill{
		ID:           uuid.New(),
		ShopID:       uuid.New(),
		InvoiceID:    "ORD20260101001",
		SalesRepID:   uuid.New(),
		CreditAmount: decimal.RequireFromString(amount),
		IsSettled:    false,
	}
}

func TestReconcileRequiresTransaction(t *testing.T) {
	svc, _ := newCreditFixture(t)

	err := svc.Reconcile(nil, ReconcileInput{})
	assert.ErrorIs(t, err, gorm.ErrInvalidTransaction)
}

func TestReconcileFullPaymentSettlesAll(t *testing.T) {
	svc, repo := newCreditFixture(t, unsettledBill("100"), unsettledBill("50"))

	err := svc.Reconcile(&gorm.DB{}, ReconcileInput{
		ShopID:      uuid.New(),
		OrderNumber: "ORD20260102001",
		ActorEmail:  "rep@dsdroute.io",
		TotalOwed:   decimal.RequireFromString("200"),
		Payment:     decimal.RequireFromString("200"),
	})
	require.NoError(t, err)

	require.Len(t, repo.saved, 2)
	for _, bill := range repo.saved {
		assert.True(t, bill.IsSettled)
		require.NotNil(t, bill.SettledAt)
		require.NotNil(t, bill.Notes)
		assert.Contains(t, *bill.Notes, "Settled with Order #ORD20260102001")
	}
	assert.Empty(t, repo.created, "no new bill when paid in full")
}

func TestReconcileOverpaymentSettlesAll(t *testing.T) {
	svc, repo := newCreditFixture(t, unsettledBill("75"))

	err := svc.Reconcile(&gorm.DB{}, ReconcileInput{
		OrderNumber: "ORD20260102002",
		TotalOwed:   decimal.RequireFromString("100"),
		Payment:     decimal.RequireFromString("120"),
	})
	require.NoError(t, err)

	require.Len(t, repo.saved, 1)
	assert.True(t, repo.saved[0].IsSettled)
	assert.Empty(t, repo.created)
}

func TestReconcileShortPaymentRollsBalanceForward(t *testing.T) {
	svc, repo := newCreditFixture(t, unsettledBill("40"))
	shopID := uuid.New()
	repID := uuid.New()

	err := svc.Reconcile(&gorm.DB{}, ReconcileInput{
		ShopID:      shopID,
		SalesRepID:  repID,
		ActorEmail:  "rep@dsdroute.io",
		OrderNumber: "ORD20260102003",
		TotalOwed:   decimal.RequireFromString("100"),
		Payment:     decimal.RequireFromString("30"),
	})
	require.NoError(t, err)

	// The old bill is folded into a single fresh balance.
	require.Len(t, repo.saved, 1)
	assert.True(t, repo.saved[0].IsSettled)

	require.Len(t, repo.created, 1)
	bill := repo.created[0]
	assert.Equal(t, shopID, bill.ShopID)
	assert.Equal(t, repID, bill.SalesRepID)
	assert.Equal(t, "ORD20260102003", bill.InvoiceID)
	assert.True(t, bill.CreditAmount.Equal(decimal.RequireFromString("70")), "got %s", bill.CreditAmount)
	assert.False(t, bill.IsSettled)
	require.NotNil(t, bill.Notes)
	assert.Contains(t, *bill.Notes, "Total owed: Rs. 100.00, Paid: Rs. 30.00")
}

func TestReconcileNoPaymentCreatesFullBill(t *testing.T) {
	svc, repo := newCreditFixture(t)

	err := svc.Reconcile(&gorm.DB{}, ReconcileInput{
		OrderNumber: "ORD20260102004",
		TotalOwed:   decimal.RequireFromString("55.50"),
		Payment:     decimal.Zero,
	})
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	assert.True(t, repo.created[0].CreditAmount.Equal(decimal.RequireFromString("55.50")))
}

func TestReconcileZeroOwedZeroPaidIsNoop(t *testing.T) {
	svc, repo := newCreditFixture(t, unsettledBill("10"))

	err := svc.Reconcile(&gorm.DB{}, ReconcileInput{
		OrderNumber: "ORD20260102005",
		TotalOwed:   decimal.Zero,
		Payment:     decimal.Zero,
	})
	require.NoError(t, err)

	// Zero payment against zero owed counts as paid in full.
	require.Len(t, repo.saved, 1)
	assert.True(t, repo.saved[0].IsSettled)
	assert.Empty(t, repo.created)
}

func TestAppendNotePreservesHistory(t *testing.T) {
	existing := "first note"
	bill := &models.CreditBill{Notes: &existing}

	appendNote(bill, "second note")
	require.NotNil(t, bill.Notes)
	assert.Equal(t, "first note | second note", *bill.Notes)

	empty := &models.CreditBill{}
	appendNote(empty, "only note")
	require.NotNil(t, empty.Notes)
	assert.Equal(t, "only note", *empty.Notes)
}
