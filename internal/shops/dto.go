package shops

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
)

// ShopDTO is the public shop shape. OutstandingCredit is populated on detail
// reads only.
type ShopDTO struct {
	ID                uuid.UUID        `json:"id"`
	Name              string           `json:"name"`
	Location          string           `json:"location"`
	Contact           string           `json:"contact"`
	Address           *string          `json:"address,omitempty"`
	Email             *string          `json:"email,omitempty"`
	IsActive          bool             `json:"isActive"`
	OutstandingCredit *decimal.Decimal `json:"outstandingCredit,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
}

// ToShopDTO maps a model onto the public shape.
func ToShopDTO(m models.Shop) ShopDTO {
	return ShopDTO{
		ID:        m.ID,
		Name:      m.Name,
		Location:  m.Location,
		Contact:   m.Contact,
		Address:   m.Address,
		Email:     m.Email,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
	}
}

// ShopPage is a cursor page of shops.
type ShopPage struct {
	Items      []ShopDTO `json:"items"`
	NextCursor *string   `json:"nextCursor,omitempty"`
}
