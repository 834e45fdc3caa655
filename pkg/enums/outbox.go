package enums

// OutboxEventType is the type discriminator on staged outbox rows. It reuses
// the notification event names so the worker can route without a lookup.
type OutboxEventType = NotificationEvent

// OutboxStatus tracks delivery of a staged outbox event.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// String implements fmt.Stringer.
func (o OutboxStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OutboxStatus.
func (o OutboxStatus) IsValid() bool {
	switch o {
	case OutboxStatusPending, OutboxStatusPublished, OutboxStatusFailed:
		return true
	}
	return false
}
