package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	"github.com/dsdroute/dsdroute-backend/pkg/enums"
)

// PaymentDTO is the public payment shape.
type PaymentDTO struct {
	ID           uuid.UUID         `json:"id"`
	OrderID      uuid.UUID         `json:"orderId"`
	OrderNumber  string            `json:"orderNumber,omitempty"`
	ShopName     string            `json:"shopName,omitempty"`
	Amount       decimal.Decimal   `json:"amount"`
	PaymentType  enums.PaymentType `json:"paymentType"`
	PaymentDate  time.Time         `json:"paymentDate"`
	ChequeNumber *string           `json:"chequeNumber,omitempty"`
	Notes        *string           `json:"notes,omitempty"`
	IsVerified   bool              `json:"isVerified"`
	VerifiedAt   *time.Time        `json:"verifiedAt,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// ToPaymentDTO maps a model onto the public shape.
func ToPaymentDTO(m models.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:           m.ID,
		OrderID:      m.OrderID,
		Amount:       m.Amount,
		PaymentType:  m.PaymentType,
		PaymentDate:  m.PaymentDate,
		ChequeNumber: m.ChequeNumber,
		Notes:        m.Notes,
		IsVerified:   m.IsVerified,
		VerifiedAt:   m.VerifiedAt,
		CreatedAt:    m.CreatedAt,
	}
	if m.Order != nil {
		dto.OrderNumber = m.Order.OrderNumber
		if m.Order.Shop != nil {
			dto.ShopName = m.Order.Shop.Name
		}
	}
	return dto
}

// PaymentPage is a cursor page of payments.
type PaymentPage struct {
	Items      []PaymentDTO `json:"items"`
	NextCursor *string      `json:"nextCursor,omitempty"`
}
