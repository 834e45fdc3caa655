package returns

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	"github.com/dsdroute/dsdroute-backend/pkg/enums"
	"github.com/dsdroute/dsdroute-backend/pkg/pagination"
)

// Repository handles return persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to return operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts a return row inside the transaction.
func (r *Repository) CreateTx(tx *gorm.DB, ret *models.Return) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if ret == nil {
		return fmt.Errorf("return is required")
	}
	return tx.Create(ret).Error
}

// FindByID loads a return with its shop, product, and order context.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Return, error) {
	var ret models.Return
	err := r.db.WithContext(ctx).
		Preload("Shop").
		Preload("Product").
		Where("id = ?", id).
		First(&ret).Error
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// FindByIDTx loads a return using the transaction.
func (r *Repository) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Return, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var ret models.Return
	err := tx.Preload("Shop").
		Preload("Product").
		First(&ret, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// SaveTx persists the return using the transaction.
func (r *Repository) SaveTx(tx *gorm.DB, ret *models.Return) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if ret == nil {
		return fmt.Errorf("return is required")
	}
	return tx.Save(ret).Error
}

// ListFilter narrows return listings.
type ListFilter struct {
	ProcessedByID *uuid.UUID
	ShopID        *uuid.UUID
	Status        *enums.ReturnStatus
}

// List returns a cursor page of returns, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Return, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Return{}).
		Preload("Shop").
		Preload("Product")
	if filter.ProcessedByID != nil {
		q = q.Where("processed_by_id = ?", *filter.ProcessedByID)
	}
	if filter.ShopID != nil {
		q = q.Where("shop_id = ?", *filter.ShopID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Return
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// CountByStatus returns how many returns sit in the given status.
func (r *Repository) CountByStatus(ctx context.Context, status enums.ReturnStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Return{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
