package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
)

// ProductDTO is the public product shape.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Price       decimal.Decimal `json:"price"`
	StockQty    int             `json:"stockQty"`
	Description *string         `json:"description,omitempty"`
	Category    *string         `json:"category,omitempty"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ToProductDTO maps a model onto the public shape.
func ToProductDTO(m models.Product) ProductDTO {
	return ProductDTO{
		ID:          m.ID,
		Name:        m.Name,
		SKU:         m.SKU,
		Price:       m.Price,
		StockQty:    m.StockQty,
		Description: m.Description,
		Category:    m.Category,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
	}
}

// ProductPage is a cursor page of products.
type ProductPage struct {
	Items      []ProductDTO `json:"items"`
	NextCursor *string      `json:"nextCursor,omitempty"`
}
