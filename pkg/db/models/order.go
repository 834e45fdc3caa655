package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dsdroute/dsdroute-backend/pkg/enums"
)

// Order is a sales order placed for a shop by a sales rep.
type Order struct {
	ID              uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string            `gorm:"column:order_number;type:text;not null;uniqueIndex"`
	ShopID          uuid.UUID         `gorm:"column:shop_id;type:uuid;not null"`
	SalesRepID      uuid.UUID         `gorm:"column:sales_rep_id;type:uuid;not null"`
	OrderDate       time.Time         `gorm:"column:order_date;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(18,2);not null"`
	TaxPercentage   decimal.Decimal   `gorm:"column:tax_percentage;type:numeric(18,2);not null;default:0"`
	InvoiceDiscount decimal.Decimal   `gorm:"column:invoice_discount;type:numeric(18,2);not null;default:0"`
	Notes           *string           `gorm:"column:notes;type:text"`
	ApprovedAt      *time.Time        `gorm:"column:approved_at"`
	ApprovedByID    *uuid.UUID        `gorm:"column:approved_by_id;type:uuid"`
	DeliveredAt     *time.Time        `gorm:"column:delivered_at"`
	DeliveredByID   *uuid.UUID        `gorm:"column:delivered_by_id;type:uuid"`
	RejectionReason *string           `gorm:"column:rejection_reason;type:text"`
	Shop            *Shop             `gorm:"foreignKey:ShopID"`
	SalesRep        *User             `gorm:"foreignKey:SalesRepID"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments        []Payment         `gorm:"foreignKey:OrderID"`
	Returns         []Return          `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
