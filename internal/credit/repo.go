package credit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
)

// Repository handles credit bill persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to credit bill operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// OutstandingAmount sums the unsettled credit for a shop.
func (r *Repository) OutstandingAmount(ctx context.Context, shopID uuid.UUID) (decimal.Decimal, error) {
	return sumUnsettled(r.db.WithContext(ctx), shopID)
}

// OutstandingAmountTx sums the unsettled credit using the transaction.
func (r *Repository) OutstandingAmountTx(tx *gorm.DB, shopID uuid.UUID) (decimal.Decimal, error) {
	if tx == nil {
		return decimal.Zero, gorm.ErrInvalidTransaction
	}
	return sumUnsettled(tx, shopID)
}

func sumUnsettled(q *gorm.DB, shopID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := q.Model(&models.CreditBill{}).
		Where("shop_id = ? AND is_settled = ?", shopID, false).
		Select("SUM(credit_amount)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// TotalOutstanding sums the unsettled credit across every shop.
func (r *Repository) TotalOutstanding(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&models.CreditBill{}).
		Where("is_settled = ?", false).
		Select("SUM(credit_amount)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// ListByShop returns all credit bills for a shop, newest first.
func (r *Repository) ListByShop(ctx context.Context, shopID uuid.UUID) ([]models.CreditBill, error) {
	var bills []models.CreditBill
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at DESC").
		Find(&bills).Error
	return bills, err
}

// ListUnsettledTx loads unsettled bills for a shop inside the transaction.
func (r *Repository) ListUnsettledTx(tx *gorm.DB, shopID uuid.UUID) ([]models.CreditBill, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var bills []models.CreditBill
	err := tx.Where("shop_id = ? AND is_settled = ?", shopID, false).
		Order("created_at ASC").
		Find(&bills).Error
	return bills, err
}

// SaveTx persists the bill using the transaction.
func (r *Repository) SaveTx(tx *gorm.DB, bill *models.CreditBill) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if bill == nil {
		return fmt.Errorf("credit bill is required")
	}
	return tx.Save(bill).Error
}

// CreateTx inserts a new bill using the transaction.
func (r *Repository) CreateTx(tx *gorm.DB, bill *models.CreditBill) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if bill == nil {
		return fmt.Errorf("credit bill is required")
	}
	return tx.Create(bill).Error
}
