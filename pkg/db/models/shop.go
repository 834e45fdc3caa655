package models

import (
	"time"

	"github.com/google/uuid"
)

// Shop is a retail outlet on a delivery route.
type Shop struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string     `gorm:"type:text;not null"`
	Location  string     `gorm:"type:text;not null"`
	Contact   string     `gorm:"type:text;not null"`
	Address   *string    `gorm:"type:text"`
	Email     *string    `gorm:"type:text"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	CreatedBy *uuid.UUID `gorm:"column:created_by;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
