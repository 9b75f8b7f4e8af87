package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
)

// AppointmentRepository defines the interface for appointment data operations.
//
// Create and Update run their conflict checks and the final write inside one
// database transaction; a conflicting booking surfaces as a CONFLICT error,
// never as a partially written row.
type AppointmentRepository interface {
	// Create persists the appointment after verifying, atomically, that no
	// overlapping appointment exists for its patient, doctor, or room. An
	// appointment with an empty RoomID is assigned a random free room; if no
	// room is free the create fails with a conflict.
	Create(ctx context.Context, appointment *entities.Appointment) error

	// Update rewrites an appointment, running the same conflict checks as
	// Create with the appointment's own id excluded from every conflict set.
	Update(ctx context.Context, appointment *entities.Appointment) error

	// Delete removes an appointment by id.
	Delete(ctx context.Context, id string) error

	// GetByID retrieves an appointment by id.
	GetByID(ctx context.Context, id string) (*entities.Appointment, error)

	// List retrieves appointments matching the filter, ordered by start time.
	List(ctx context.Context, filter AppointmentFilter) ([]*entities.Appointment, error)

	// CountByDoctor returns the number of appointments of a doctor.
	CountByDoctor(ctx context.Context, doctorID string) (int64, error)

	// CountByPatient returns the number of appointments of a patient.
	CountByPatient(ctx context.Context, patientID string) (int64, error)

	// DeleteByDoctor removes every appointment of a doctor. Used when doctor
	// administration removes the doctor record.
	DeleteByDoctor(ctx context.Context, doctorID string) (int64, error)

	// DeleteByPatient removes every appointment of a patient.
	DeleteByPatient(ctx context.Context, patientID string) (int64, error)

	// SetAttendance updates the attendance outcome of one appointment.
	SetAttendance(ctx context.Context, id string, status entities.AttendanceStatus) error

	// SweepNoShows marks every still-pending appointment starting before the
	// boundary as a no-show and returns the number of rows changed. Touching
	// only pending rows makes the sweep idempotent.
	SweepNoShows(ctx context.Context, boundary time.Time) (int64, error)
}

// AppointmentFilter defines filters for listing appointments
type AppointmentFilter struct {
	DoctorID  string
	PatientID string
	// OnDate restricts to appointments whose start falls on this calendar day.
	OnDate *time.Time
	// From/To restrict to start times within [From, To).
	From *time.Time
	To   *time.Time
	// Attendance restricts to one attendance state.
	Attendance entities.AttendanceStatus
	Limit      int
	Offset     int
}
