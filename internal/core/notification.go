package core

import "time"

// NotificationKind identifies what a notification is about.
type NotificationKind string

const (
	NotifyOverdue        NotificationKind = "overdue"
	NotifyDueToday       NotificationKind = "due_today"
	NotifyUpcoming       NotificationKind = "upcoming"
	NotifyPaymentSuccess NotificationKind = "payment_success"
	NotifyPaymentFailed  NotificationKind = "payment_failed"
)

// Notification is a derived reminder about one obligation.
type Notification struct {
	ObligationID string           `json:"obligation_id"`
	BillName     string           `json:"bill_name"`
	Kind         NotificationKind `json:"type"`
	Message      string           `json:"message"`
	DueDate      Timestamp        `json:"due_date"`
	At           time.Time        `json:"at"`
}

// Key identifies a notification for seen-tracking.
func (n Notification) Key() string {
	return n.ObligationID + ":" + string(n.Kind)
}
