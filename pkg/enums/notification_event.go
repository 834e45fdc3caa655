package enums

import "fmt"

// NotificationEvent names an in-app notification trigger.
type NotificationEvent string

const (
	NotifyOrderCreated    NotificationEvent = "order_created"
	NotifyOrderApproved   NotificationEvent = "order_approved"
	NotifyOrderRejected   NotificationEvent = "order_rejected"
	NotifyOrderDelivered  NotificationEvent = "order_delivered"
	NotifyPaymentRecorded NotificationEvent = "payment_recorded"
	NotifyPaymentVerified NotificationEvent = "payment_verified"
	NotifyReturnCreated   NotificationEvent = "return_created"
	NotifyReturnApproved  NotificationEvent = "return_approved"
	NotifyReturnRejected  NotificationEvent = "return_rejected"
)

var validNotificationEvents = []NotificationEvent{
	NotifyOrderCreated,
	NotifyOrderApproved,
	NotifyOrderRejected,
	NotifyOrderDelivered,
	NotifyPaymentRecorded,
	NotifyPaymentVerified,
	NotifyReturnCreated,
	NotifyReturnApproved,
	NotifyReturnRejected,
}

// String implements fmt.Stringer.
func (n NotificationEvent) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationEvent.
func (n NotificationEvent) IsValid() bool {
	for _, candidate := range validNotificationEvents {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationEvent converts raw input into a NotificationEvent.
func ParseNotificationEvent(value string) (NotificationEvent, error) {
	for _, candidate := range validNotificationEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification event %q", value)
}
