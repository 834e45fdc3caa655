package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	"github.com/dsdroute/dsdroute-backend/pkg/enums"
	"github.com/dsdroute/dsdroute-backend/pkg/pagination"
)

// Repository handles order persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to order operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts the order and its items inside the transaction. The id is
// assigned here so callers can reference the order before commit.
func (r *Repository) CreateTx(tx *gorm.DB, order *models.Order) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if order == nil {
		return fmt.Errorf("order is required")
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return tx.Create(order).Error
}

// CountForDayTx counts orders whose order date falls on the given day. Used
// to build the daily order number sequence.
func (r *Repository) CountForDayTx(tx *gorm.DB, day time.Time) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	var count int64
	err := tx.Model(&models.Order{}).
		Where("order_date >= ? AND order_date < ?", start, end).
		Count(&count).Error
	return count, err
}

// FindByID loads an order with its shop, rep, and item details.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Shop").
		Preload("SalesRep").
		Preload("Items").
		Preload("Items.Product").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDTx loads a bare order row using the transaction.
func (r *Repository) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var order models.Order
	if err := tx.Preload("Shop").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// SaveTx persists the order using the transaction.
func (r *Repository) SaveTx(tx *gorm.DB, order *models.Order) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if order == nil {
		return fmt.Errorf("order is required")
	}
	return tx.Save(order).Error
}

// ListFilter narrows order listings.
type ListFilter struct {
	SalesRepID *uuid.UUID
	ShopID     *uuid.UUID
	Status     *enums.OrderStatus
	From       *time.Time
	To         *time.Time
}

// List returns a cursor page of orders, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Shop")
	if filter.SalesRepID != nil {
		q = q.Where("sales_rep_id = ?", *filter.SalesRepID)
	}
	if filter.ShopID != nil {
		q = q.Where("shop_id = ?", *filter.ShopID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		q = q.Where("order_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("order_date < ?", *filter.To)
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var orders []models.Order
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// CountByStatus returns how many orders sit in the given status.
func (r *Repository) CountByStatus(ctx context.Context, status enums.OrderStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
