package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	"github.com/dsdroute/dsdroute-backend/pkg/enums"
	pkgerrors "github.com/dsdroute/dsdroute-backend/pkg/errors"
	"github.com/dsdroute/dsdroute-backend/pkg/logger"
	"github.com/dsdroute/dsdroute-backend/pkg/outbox"
	"github.com/dsdroute/dsdroute-backend/pkg/pagination"
)

type notificationRepository interface {
	InsertTx(tx *gorm.DB, rows []models.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, cursor *pagination.Cursor, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (int64, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type adminLister interface {
	ListActiveIDsByRoleTx(tx *gorm.DB, role enums.Role) ([]uuid.UUID, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service stages notifications and exposes the inbox surface.
type Service interface {
	Publish(ctx context.Context, tx *gorm.DB, event Event) error
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params pagination.Params) (*Page, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo   notificationRepository
	users  adminLister
	outbox outboxEmitter
	logg   *logger.Logger
}

// NewService builds the notify service.
func NewService(repo notificationRepository, users adminLister, emitter outboxEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, users: users, outbox: emitter, logg: logg}, nil
}

// Event describes one notification fan-out. ToAdmins targets every active
// admin; UserIDs adds direct recipients on top.
type Event struct {
	Event       enums.NotificationEvent
	AggregateID uuid.UUID
	Actor       *outbox.ActorRef
	Title       string
	Message     string
	Link        *string
	ToAdmins    bool
	UserIDs     []uuid.UUID
	Data        any
}

// fanoutPayload is the outbox data the worker relays to pub/sub channels.
type fanoutPayload struct {
	Event      enums.NotificationEvent `json:"event"`
	Recipients []uuid.UUID             `json:"recipients"`
	ToAdmins   bool                    `json:"toAdmins"`
	Title      string                  `json:"title"`
	Message    string                  `json:"message"`
	Link       *string                 `json:"link,omitempty"`
	Data       any                     `json:"data,omitempty"`
}

// Publish stages durable notification rows and one outbox event inside the
// caller's transaction. Nothing is sent over the wire here; the worker picks
// the event up after commit, so a rollback also drops the notifications.
func (s *service) Publish(ctx context.Context, tx *gorm.DB, event Event) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if !event.Event.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown notification event")
	}

	recipients := make([]uuid.UUID, 0, len(event.UserIDs)+1)
	seen := map[uuid.UUID]struct{}{}
	addRecipient := func(id uuid.UUID) {
		if _, dup := seen[id]; dup || id == uuid.Nil {
			return
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}

	for _, id := range event.UserIDs {
		addRecipient(id)
	}
	if event.ToAdmins {
		adminIDs, err := s.users.ListActiveIDsByRoleTx(tx, enums.RoleAdmin)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list admin recipients")
		}
		for _, id := range adminIDs {
			addRecipient(id)
		}
	}

	rows := make([]models.Notification, 0, len(recipients))
	for _, userID := range recipients {
		rows = append(rows, models.Notification{
			UserID:  userID,
			Event:   event.Event,
			Title:   event.Title,
			Message: event.Message,
			Link:    event.Link,
		})
	}
	if err := s.repo.InsertTx(tx, rows); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert notifications")
	}

	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:   event.Event,
		AggregateID: event.AggregateID,
		Actor:       event.Actor,
		Version:     1,
		Data: fanoutPayload{
			Event:      event.Event,
			Recipients: recipients,
			ToAdmins:   event.ToAdmins,
			Title:      event.Title,
			Message:    event.Message,
			Link:       event.Link,
			Data:       event.Data,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit outbox event")
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListForUser(ctx, userID, unreadOnly, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	page := &Page{Items: make([]NotificationDTO, 0, len(rows))}
	for i, row := range rows {
		if i == limit {
			break
		}
		page.Items = append(page.Items, ToNotificationDTO(row))
	}
	if len(rows) > limit {
		last := rows[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
	}
	return page, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	affected, err := s.repo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	affected, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark all read")
	}
	return affected, nil
}
