package services

import (
	"context"

	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
	"github.com/zatekoja/clinic-scheduling/internal/domain/repositories"
)

// snapshotBuilder assembles the display details notifications need. Events
// carry the full snapshot because a cancelled appointment's row is gone by
// the time a subscriber reads the event.
type snapshotBuilder struct {
	doctors  repositories.DoctorRepository
	patients repositories.PatientRepository
	rooms    repositories.RoomRepository
}

func (b *snapshotBuilder) snapshot(ctx context.Context, appointment *entities.Appointment) (*entities.AppointmentSnapshot, error) {
	patient, err := b.patients.GetByID(ctx, appointment.PatientID)
	if err != nil {
		return nil, err
	}
	doctor, err := b.doctors.GetByID(ctx, appointment.DoctorID)
	if err != nil {
		return nil, err
	}

	snapshot := &entities.AppointmentSnapshot{
		Appointment:  *appointment,
		PatientName:  patient.FullName,
		PatientEmail: patient.Email,
		DoctorName:   doctor.FullName,
	}

	// Room description is cosmetic; a missing room never blocks a notification.
	if room, err := b.rooms.GetByID(ctx, appointment.RoomID); err == nil {
		snapshot.RoomDescription = room.Description
	}
	return snapshot, nil
}
