package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditBill is one entry in a shop's credit ledger. Notes accumulate the
// audit trail of how the bill was created and settled.
type CreditBill struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID       uuid.UUID       `gorm:"column:shop_id;type:uuid;not null"`
	InvoiceID    string          `gorm:"column:invoice_id;type:text;not null"`
	SalesRepID   uuid.UUID       `gorm:"column:sales_rep_id;type:uuid;not null"`
	CreditAmount decimal.Decimal `gorm:"column:credit_amount;type:numeric(18,2);not null"`
	IsSettled    bool            `gorm:"column:is_settled;not null;default:false"`
	SettledAt    *time.Time      `gorm:"column:settled_at"`
	Notes        *string         `gorm:"column:notes;type:text"`
	Shop         *Shop           `gorm:"foreignKey:ShopID"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
