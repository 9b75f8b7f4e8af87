package services

import (
	"context"

	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
	"github.com/zatekoja/clinic-scheduling/internal/domain/providers"
	"github.com/zatekoja/clinic-scheduling/internal/domain/repositories"
	apperrors "github.com/zatekoja/clinic-scheduling/pkg/errors"
)

// Policy centralizes every permission decision of the scheduling engine.
// Services ask the policy instead of inspecting roles themselves, so the
// rules live in exactly one place.
type Policy struct {
	roles    providers.RoleDirectory
	doctors  repositories.DoctorRepository
	patients repositories.PatientRepository
}

// NewPolicy creates a new permission policy
func NewPolicy(
	roles providers.RoleDirectory,
	doctors repositories.DoctorRepository,
	patients repositories.PatientRepository,
) *Policy {
	return &Policy{
		roles:    roles,
		doctors:  doctors,
		patients: patients,
	}
}

// resolveRole trusts a pre-filled actor role, otherwise asks the directory.
func (p *Policy) resolveRole(ctx context.Context, actor entities.Actor) (entities.Role, error) {
	if actor.Role != "" && actor.Role != entities.RoleNone {
		return actor.Role, nil
	}
	if p.roles == nil {
		return entities.RoleNone, nil
	}
	return p.roles.RoleOf(ctx, actor.Identity)
}

// CanSchedule permits creating, rewriting and bulk-deleting appointments.
// Administrators only.
func (p *Policy) CanSchedule(ctx context.Context, actor entities.Actor) error {
	role, err := p.resolveRole(ctx, actor)
	if err != nil {
		return err
	}
	if role != entities.RoleAdministrator {
		return apperrors.NewUnauthorizedError("only administrators can manage the schedule")
	}
	return nil
}

// CanManageWorkingHours permits editing a doctor's agenda. Administrators only.
func (p *Policy) CanManageWorkingHours(ctx context.Context, actor entities.Actor) error {
	role, err := p.resolveRole(ctx, actor)
	if err != nil {
		return err
	}
	if role != entities.RoleAdministrator {
		return apperrors.NewUnauthorizedError("only administrators can manage working hours")
	}
	return nil
}

// CanCancel permits cancelling an appointment: administrators
// unconditionally, doctors and patients only when they are party to it.
func (p *Policy) CanCancel(ctx context.Context, actor entities.Actor, appointment *entities.Appointment) error {
	role, err := p.resolveRole(ctx, actor)
	if err != nil {
		return err
	}

	switch role {
	case entities.RoleAdministrator:
		return nil
	case entities.RoleDoctor:
		if p.isOwningDoctor(ctx, actor.Identity, appointment) {
			return nil
		}
		return apperrors.NewUnauthorizedError("doctors can only cancel their own appointments")
	case entities.RolePatient:
		if p.isOwningPatient(ctx, actor.Identity, appointment) {
			return nil
		}
		return apperrors.NewUnauthorizedError("patients can only cancel their own appointments")
	default:
		return apperrors.NewUnauthorizedError("caller is not permitted to cancel appointments")
	}
}

// CanMarkAttendance permits recording attendance: administrators or the
// appointment's own doctor.
func (p *Policy) CanMarkAttendance(ctx context.Context, actor entities.Actor, appointment *entities.Appointment) error {
	role, err := p.resolveRole(ctx, actor)
	if err != nil {
		return err
	}

	switch role {
	case entities.RoleAdministrator:
		return nil
	case entities.RoleDoctor:
		if p.isOwningDoctor(ctx, actor.Identity, appointment) {
			return nil
		}
		return apperrors.NewUnauthorizedError("doctors can only record attendance for their own appointments")
	default:
		return apperrors.NewUnauthorizedError("caller is not permitted to record attendance")
	}
}

func (p *Policy) isOwningDoctor(ctx context.Context, identity string, appointment *entities.Appointment) bool {
	if p.doctors == nil {
		return false
	}
	doctor, err := p.doctors.GetByUsername(ctx, identity)
	if err != nil {
		return false
	}
	return doctor.ID == appointment.DoctorID
}

func (p *Policy) isOwningPatient(ctx context.Context, identity string, appointment *entities.Appointment) bool {
	if p.patients == nil {
		return false
	}
	patient, err := p.patients.GetByUsername(ctx, identity)
	if err != nil {
		return false
	}
	return patient.ID == appointment.PatientID
}
