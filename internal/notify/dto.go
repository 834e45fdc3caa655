package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	"github.com/dsdroute/dsdroute-backend/pkg/enums"
)

// NotificationDTO is the public notification shape.
type NotificationDTO struct {
	ID        uuid.UUID               `json:"id"`
	Event     enums.NotificationEvent `json:"event"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Link      *string                 `json:"link,omitempty"`
	ReadAt    *time.Time              `json:"readAt,omitempty"`
	CreatedAt time.Time               `json:"createdAt"`
}

// ToNotificationDTO maps a model onto the public shape.
func ToNotificationDTO(m models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        m.ID,
		Event:     m.Event,
		Title:     m.Title,
		Message:   m.Message,
		Link:      m.Link,
		ReadAt:    m.ReadAt,
		CreatedAt: m.CreatedAt,
	}
}

// Page is a cursor page of notifications.
type Page struct {
	Items      []NotificationDTO `json:"items"`
	NextCursor *string           `json:"nextCursor,omitempty"`
}
