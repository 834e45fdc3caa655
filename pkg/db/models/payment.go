package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dsdroute/dsdroute-backend/pkg/enums"
)

// Payment is money recorded against an order. Payments start unverified
// unless captured during order creation.
type Payment struct {
	ID           uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID         `gorm:"column:order_id;type:uuid;not null"`
	Amount       decimal.Decimal   `gorm:"column:amount;type:numeric(18,2);not null"`
	PaymentType  enums.PaymentType `gorm:"column:payment_type;type:text;not null"`
	PaymentDate  time.Time         `gorm:"column:payment_date;not null"`
	ChequeNumber *string           `gorm:"column:cheque_number;type:text"`
	Notes        *string           `gorm:"column:notes;type:text"`
	RecordedByID *uuid.UUID        `gorm:"column:recorded_by_id;type:uuid"`
	IsVerified   bool              `gorm:"column:is_verified;not null;default:false"`
	VerifiedAt   *time.Time        `gorm:"column:verified_at"`
	VerifiedByID *uuid.UUID        `gorm:"column:verified_by_id;type:uuid"`
	Order        *Order            `gorm:"foreignKey:OrderID"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
