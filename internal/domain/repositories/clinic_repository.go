package repositories

import (
	"context"

	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
)

// RoomRepository defines the interface for consultation rooms.
type RoomRepository interface {
	Create(ctx context.Context, room *entities.Room) error
	GetByID(ctx context.Context, id string) (*entities.Room, error)
	List(ctx context.Context) ([]*entities.Room, error)
	Delete(ctx context.Context, id string) error
}

// DoctorRepository exposes the read side of doctor records. Doctor
// administration itself lives outside this module.
type DoctorRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Doctor, error)
	GetByUsername(ctx context.Context, username string) (*entities.Doctor, error)
}

// PatientRepository exposes the read side of patient records.
type PatientRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Patient, error)
	GetByUsername(ctx context.Context, username string) (*entities.Patient, error)
}

// ReminderLedger records which appointments have already received their
// ahead-of-time reminder.
type ReminderLedger interface {
	// AlreadySent reports whether a reminder went out for the appointment.
	AlreadySent(ctx context.Context, appointmentID string) (bool, error)

	// MarkSent records that the reminder for the appointment has been sent.
	MarkSent(ctx context.Context, appointmentID string) error
}
