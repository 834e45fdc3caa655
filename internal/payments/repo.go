package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	"github.com/dsdroute/dsdroute-backend/pkg/pagination"
)

// Repository handles payment persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to payment operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts a payment row inside the transaction.
func (r *Repository) CreateTx(tx *gorm.DB, payment *models.Payment) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if payment == nil {
		return fmt.Errorf("payment is required")
	}
	return tx.Create(payment).Error
}

// Create inserts a payment row.
func (r *Repository) Create(ctx context.Context, payment *models.Payment) error {
	if payment == nil {
		return fmt.Errorf("payment is required")
	}
	return r.db.WithContext(ctx).Create(payment).Error
}

// FindByID loads a payment with its order.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Order").
		Preload("Order.Shop").
		Where("id = ?", id).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// SumForOrder totals every payment recorded against the order.
func (r *Repository) SumForOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Select("SUM(amount)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// ListFilter narrows payment listings.
type ListFilter struct {
	SalesRepID *uuid.UUID
	OrderID    *uuid.UUID
	Unverified bool
}

// List returns a cursor page of payments, newest first. SalesRepID filters
// through the owning order.
func (r *Repository) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Payment, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Preload("Order").
		Preload("Order.Shop")
	if filter.SalesRepID != nil {
		q = q.Joins("JOIN orders ON orders.id = payments.order_id").
			Where("orders.sales_rep_id = ?", *filter.SalesRepID)
	}
	if filter.OrderID != nil {
		q = q.Where("payments.order_id = ?", *filter.OrderID)
	}
	if filter.Unverified {
		q = q.Where("payments.is_verified = ?", false)
	}
	if cursor != nil {
		q = q.Where("(payments.created_at, payments.id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Payment
	err := q.Order("payments.created_at DESC").
		Order("payments.id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Update saves the provided payment.
func (r *Repository) Update(ctx context.Context, payment *models.Payment) error {
	if payment == nil {
		return fmt.Errorf("payment is required")
	}
	return r.db.WithContext(ctx).Save(payment).Error
}

// CountUnverified returns how many payments await verification.
func (r *Repository) CountUnverified(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("is_verified = ?", false).
		Count(&count).Error
	return count, err
}
