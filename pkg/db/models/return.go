package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dsdroute/dsdroute-backend/pkg/enums"
)

// Return records product coming back from a shop, optionally linked to the
// order it was sold on. OrderID survives order deletion as null.
type Return struct {
	ID              uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID          uuid.UUID          `gorm:"column:shop_id;type:uuid;not null"`
	ProductID       uuid.UUID          `gorm:"column:product_id;type:uuid;not null"`
	OrderID         *uuid.UUID         `gorm:"column:order_id;type:uuid"`
	Quantity        int                `gorm:"column:quantity;not null"`
	Reason          string             `gorm:"column:reason;type:text;not null"`
	ReturnDate      time.Time          `gorm:"column:return_date;not null"`
	Status          enums.ReturnStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	RefundAmount    *decimal.Decimal   `gorm:"column:refund_amount;type:numeric(18,2)"`
	ProcessedByID   *uuid.UUID         `gorm:"column:processed_by_id;type:uuid"`
	ApprovedAt      *time.Time         `gorm:"column:approved_at"`
	ApprovedByID    *uuid.UUID         `gorm:"column:approved_by_id;type:uuid"`
	RejectionReason *string            `gorm:"column:rejection_reason;type:text"`
	Shop            *Shop              `gorm:"foreignKey:ShopID"`
	Product         *Product           `gorm:"foreignKey:ProductID"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
