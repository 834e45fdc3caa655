package credit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	pkgerrors "github.com/dsdroute/dsdroute-backend/pkg/errors"
)

type creditRepository interface {
	OutstandingAmount(ctx context.Context, shopID uuid.UUID) (decimal.Decimal, error)
	ListByShop(ctx context.Context, shopID uuid.UUID) ([]models.CreditBill, error)
	ListUnsettledTx(tx *gorm.DB, shopID uuid.UUID) ([]models.CreditBill, error)
	SaveTx(tx *gorm.DB, bill *models.CreditBill) error
	CreateTx(tx *gorm.DB, bill *models.CreditBill) error
}

// Service exposes the shop credit ledger.
type Service interface {
	OutstandingAmount(ctx context.Context, shopID uuid.UUID) (decimal.Decimal, error)
	ListByShop(ctx context.Context, shopID uuid.UUID) ([]BillDTO, error)
	Reconcile(tx *gorm.DB, input ReconcileInput) error
}

type service struct {
	repo  creditRepository
	clock func() time.Time
}

// NewService builds a credit service.
func NewService(repo creditRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("credit repository required")
	}
	return &service{repo: repo, clock: time.Now}, nil
}

// ReconcileInput drives the ledger pass that runs inside every order
// creation transaction.
type ReconcileInput struct {
	ShopID      uuid.UUID
	SalesRepID  uuid.UUID
	ActorEmail  string
	OrderNumber string
	TotalOwed   decimal.Decimal
	Payment     decimal.Decimal
}

// Reconcile settles or carries forward the shop's unsettled credit.
//
// A payment covering the full amount owed settles every open bill. A short
// payment also settles every open bill but rolls the shortfall into one new
// unsettled bill, so a shop always has at most one live balance after each
// order. Must be called inside the order creation transaction.
func (s *service) Reconcile(tx *gorm.DB, input ReconcileInput) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}

	now := s.clock()

	if input.Payment.GreaterThanOrEqual(input.TotalOwed) {
		return s.settleAll(tx, input, now, fmt.Sprintf("Settled with Order #%s by %s", input.OrderNumber, input.ActorEmail))
	}

	outstanding := input.TotalOwed.Sub(input.Payment)
	if !outstanding.IsPositive() {
		return nil
	}

	if err := s.settleAll(tx, input, now, fmt.Sprintf("Balance added for Order #%s by %s", input.OrderNumber, input.ActorEmail)); err != nil {
		return err
	}

	note := fmt.Sprintf("Outstanding balance from Order #%s. Total owed: Rs. %s, Paid: Rs. %s",
		input.OrderNumber, input.TotalOwed.StringFixed(2), input.Payment.StringFixed(2))
	bill := &models.CreditBill{
		ShopID:       input.ShopID,
		InvoiceID:    input.OrderNumber,
		SalesRepID:   input.SalesRepID,
		CreditAmount: outstanding,
		IsSettled:    false,
		Notes:        &note,
	}
	if err := s.repo.CreateTx(tx, bill); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create credit bill")
	}
	return nil
}

func (s *service) settleAll(tx *gorm.DB, input ReconcileInput, now time.Time, auditNote string) error {
	bills, err := s.repo.ListUnsettledTx(tx, input.ShopID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unsettled bills")
	}
	for i := range bills {
		bill := &bills[i]
		bill.IsSettled = true
		bill.SettledAt = &now
		appendNote(bill, auditNote)
		if err := s.repo.SaveTx(tx, bill); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle credit bill")
		}
	}
	return nil
}

// appendNote keeps the bill's audit trail chronological.
func appendNote(bill *models.CreditBill, note string) {
	if bill.Notes == nil || *bill.Notes == "" {
		bill.Notes = &note
		return
	}
	joined := *bill.Notes + " | " + note
	bill.Notes = &joined
}

func (s *service) OutstandingAmount(ctx context.Context, shopID uuid.UUID) (decimal.Decimal, error) {
	total, err := s.repo.OutstandingAmount(ctx, shopID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum outstanding credit")
	}
	return total, nil
}

func (s *service) ListByShop(ctx context.Context, shopID uuid.UUID) ([]BillDTO, error) {
	bills, err := s.repo.ListByShop(ctx, shopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list credit bills")
	}
	out := make([]BillDTO, 0, len(bills))
	for _, bill := range bills {
		out = append(out, ToBillDTO(bill))
	}
	return out, nil
}
