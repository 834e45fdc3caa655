package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	"github.com/dsdroute/dsdroute-backend/pkg/enums"
)

// OrderItemDTO is one product line on an order.
type OrderItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderDTO is the public order shape.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	OrderNumber     string            `json:"orderNumber"`
	ShopID          uuid.UUID         `json:"shopId"`
	ShopName        string            `json:"shopName,omitempty"`
	SalesRepID      uuid.UUID         `json:"salesRepId"`
	OrderDate       time.Time         `json:"orderDate"`
	Status          enums.OrderStatus `json:"status"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	TaxPercentage   decimal.Decimal   `json:"taxPercentage"`
	InvoiceDiscount decimal.Decimal   `json:"invoiceDiscount"`
	Notes           *string           `json:"notes,omitempty"`
	ApprovedAt      *time.Time        `json:"approvedAt,omitempty"`
	DeliveredAt     *time.Time        `json:"deliveredAt,omitempty"`
	RejectionReason *string           `json:"rejectionReason,omitempty"`
	Items           []OrderItemDTO    `json:"items,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// ToOrderDTO maps a model onto the public shape.
func ToOrderDTO(m models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              m.ID,
		OrderNumber:     m.OrderNumber,
		ShopID:          m.ShopID,
		SalesRepID:      m.SalesRepID,
		OrderDate:       m.OrderDate,
		Status:          m.Status,
		TotalAmount:     m.TotalAmount,
		TaxPercentage:   m.TaxPercentage,
		InvoiceDiscount: m.InvoiceDiscount,
		Notes:           m.Notes,
		ApprovedAt:      m.ApprovedAt,
		DeliveredAt:     m.DeliveredAt,
		RejectionReason: m.RejectionReason,
		CreatedAt:       m.CreatedAt,
	}
	if m.Shop != nil {
		dto.ShopName = m.Shop.Name
	}
	for _, item := range m.Items {
		line := OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
		if item.Product != nil {
			line.Name = item.Product.Name
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}

// OrderPage is a cursor page of orders.
type OrderPage struct {
	Items      []OrderDTO `json:"items"`
	NextCursor *string    `json:"nextCursor,omitempty"`
}
