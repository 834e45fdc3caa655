package returns

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	"github.com/dsdroute/dsdroute-backend/pkg/enums"
)

// ReturnDTO is the public return shape.
type ReturnDTO struct {
	ID              uuid.UUID          `json:"id"`
	ShopID          uuid.UUID          `json:"shopId"`
	ShopName        string             `json:"shopName,omitempty"`
	ProductID       uuid.UUID          `json:"productId"`
	ProductName     string             `json:"productName,omitempty"`
	OrderID         *uuid.UUID         `json:"orderId,omitempty"`
	Quantity        int                `json:"quantity"`
	Reason          string             `json:"reason"`
	ReturnDate      time.Time          `json:"returnDate"`
	Status          enums.ReturnStatus `json:"status"`
	RefundAmount    *decimal.Decimal   `json:"refundAmount,omitempty"`
	ApprovedAt      *time.Time         `json:"approvedAt,omitempty"`
	RejectionReason *string            `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// ToReturnDTO maps a model onto the public shape.
func ToReturnDTO(m models.Return) ReturnDTO {
	dto := ReturnDTO{
		ID:              m.ID,
		ShopID:          m.ShopID,
		ProductID:       m.ProductID,
		OrderID:         m.OrderID,
		Quantity:        m.Quantity,
		Reason:          m.Reason,
		ReturnDate:      m.ReturnDate,
		Status:          m.Status,
		RefundAmount:    m.RefundAmount,
		ApprovedAt:      m.ApprovedAt,
		RejectionReason: m.RejectionReason,
		CreatedAt:       m.CreatedAt,
	}
	if m.Shop != nil {
		dto.ShopName = m.Shop.Name
	}
	if m.Product != nil {
		dto.ProductName = m.Product.Name
	}
	return dto
}

// ReturnPage is a cursor page of returns.
type ReturnPage struct {
	Items      []ReturnDTO `json:"items"`
	NextCursor *string     `json:"nextCursor,omitempty"`
}
