package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog item with a tracked stock quantity.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string          `gorm:"type:text;not null"`
	SKU         string          `gorm:"column:sku;type:text;not null;uniqueIndex"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(18,2);not null"`
	StockQty    int             `gorm:"column:stock_qty;not null;default:0"`
	Description *string         `gorm:"type:text"`
	Category    *string         `gorm:"type:text"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
