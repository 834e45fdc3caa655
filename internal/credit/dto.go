package credit

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
)

// BillDTO is the public credit bill shape.
type BillDTO struct {
	ID           uuid.UUID       `json:"id"`
	ShopID       uuid.UUID       `json:"shopId"`
	InvoiceID    string          `json:"invoiceId"`
	SalesRepID   uuid.UUID       `json:"salesRepId"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
	IsSettled    bool            `json:"isSettled"`
	SettledAt    *time.Time      `json:"settledAt,omitempty"`
	Notes        *string         `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ToBillDTO maps a model onto the public shape.
func ToBillDTO(m models.CreditBill) BillDTO {
	return BillDTO{
		ID:           m.ID,
		ShopID:       m.ShopID,
		InvoiceID:    m.InvoiceID,
		SalesRepID:   m.SalesRepID,
		CreditAmount: m.CreditAmount,
		IsSettled:    m.IsSettled,
		SettledAt:    m.SettledAt,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
	}
}
