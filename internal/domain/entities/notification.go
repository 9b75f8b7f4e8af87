package entities

import "time"

// NotificationKind represents the purpose of an outbound message
type NotificationKind string

const (
	NotificationCreated   NotificationKind = "created"
	NotificationCancelled NotificationKind = "cancelled"
	NotificationReminder  NotificationKind = "reminder"
)

// AppointmentEvent is published on the event bus whenever an appointment is
// created or cancelled. It carries the full snapshot so subscribers never
// need to re-read a row that may already be gone.
type AppointmentEvent struct {
	ID         string              `json:"id"`
	Kind       NotificationKind    `json:"kind"`
	Snapshot   AppointmentSnapshot `json:"snapshot"`
	OccurredAt time.Time           `json:"occurred_at"`
}

// ReminderReceipt records that the ahead-of-time reminder for an appointment
// has been sent. One row per appointment guarantees at-most-one reminder.
type ReminderReceipt struct {
	AppointmentID string    `json:"appointment_id" db:"appointment_id"`
	SentAt        time.Time `json:"sent_at" db:"sent_at"`
}
