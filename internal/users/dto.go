package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	"github.com/dsdroute/dsdroute-backend/pkg/enums"
)

// UserDTO is the public user shape. The password hash never leaves the
// service layer.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"fullName"`
	Phone       *string    `json:"phone,omitempty"`
	Role        enums.Role `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ToUserDTO maps a model onto the public shape.
func ToUserDTO(m models.User) UserDTO {
	return UserDTO{
		ID:          m.ID,
		Email:       m.Email,
		FullName:    m.FullName,
		Phone:       m.Phone,
		Role:        m.Role,
		IsActive:    m.IsActive,
		LastLoginAt: m.LastLoginAt,
		CreatedAt:   m.CreatedAt,
	}
}
