package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
	"github.com/zatekoja/clinic-scheduling/internal/domain/providers"
	"github.com/zatekoja/clinic-scheduling/internal/domain/repositories"
	"github.com/zatekoja/clinic-scheduling/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/clinic-scheduling/pkg/errors"
)

// AppointmentRequest carries the caller-supplied fields of a booking. An
// empty RoomID asks for automatic assignment.
type AppointmentRequest struct {
	PatientID string    `json:"patient_id"`
	DoctorID  string    `json:"doctor_id"`
	RoomID    string    `json:"room_id"`
	StartAt   time.Time `json:"start_at"`
	Reason    string    `json:"reason"`
}

// SchedulerService books, rewrites and cancels appointments. Every mutation
// runs the full validation pipeline before touching storage; the storage
// adapter then re-checks conflicts inside its transaction, so a validated
// request can still come back as a conflict when it loses a race.
type SchedulerService struct {
	repo     repositories.AppointmentRepository
	hours    repositories.WorkingHoursRepository
	doctors  repositories.DoctorRepository
	patients repositories.PatientRepository
	rooms    repositories.RoomRepository
	policy   *Policy
	bus      providers.EventBus
	metrics  *observability.Metrics
	snap     snapshotBuilder

	horizonMonths int
	// now is swappable for tests.
	now func() time.Time
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(
	repo repositories.AppointmentRepository,
	hours repositories.WorkingHoursRepository,
	doctors repositories.DoctorRepository,
	patients repositories.PatientRepository,
	rooms repositories.RoomRepository,
	policy *Policy,
	bus providers.EventBus,
	metrics *observability.Metrics,
	horizonMonths int,
) *SchedulerService {
	if horizonMonths <= 0 {
		horizonMonths = 1
	}
	return &SchedulerService{
		repo:          repo,
		hours:         hours,
		doctors:       doctors,
		patients:      patients,
		rooms:         rooms,
		policy:        policy,
		bus:           bus,
		metrics:       metrics,
		snap:          snapshotBuilder{doctors: doctors, patients: patients, rooms: rooms},
		horizonMonths: horizonMonths,
		now:           time.Now,
	}
}

// WithClock overrides the time source used for horizon checks. Tests use it
// to pin "today".
func (s *SchedulerService) WithClock(now func() time.Time) *SchedulerService {
	s.now = now
	return s
}

// Create books a new appointment and emits a "created" event on success.
func (s *SchedulerService) Create(ctx context.Context, actor entities.Actor, req AppointmentRequest) (*entities.Appointment, error) {
	if err := s.validateRequest(ctx, actor, req); err != nil {
		return nil, err
	}

	appointment := &entities.Appointment{
		ID:         uuid.New().String(),
		PatientID:  req.PatientID,
		DoctorID:   req.DoctorID,
		RoomID:     req.RoomID,
		StartAt:    req.StartAt,
		Reason:     req.Reason,
		Attendance: entities.AttendancePending,
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		s.countConflict(ctx, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AppointmentsCreated.Add(ctx, 1)
	}
	s.publish(ctx, entities.NotificationCreated, appointment)
	return appointment, nil
}

// Update rewrites an existing appointment through the same validation
// pipeline as Create; the storage conflict checks exclude the appointment's
// own slot.
func (s *SchedulerService) Update(ctx context.Context, actor entities.Actor, id string, req AppointmentRequest) (*entities.Appointment, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateRequest(ctx, actor, req); err != nil {
		return nil, err
	}

	appointment := &entities.Appointment{
		ID:         existing.ID,
		PatientID:  req.PatientID,
		DoctorID:   req.DoctorID,
		RoomID:     req.RoomID,
		StartAt:    req.StartAt,
		Reason:     req.Reason,
		Attendance: existing.Attendance,
		CreatedAt:  existing.CreatedAt,
	}

	if err := s.repo.Update(ctx, appointment); err != nil {
		s.countConflict(ctx, err)
		return nil, err
	}
	return appointment, nil
}

// Cancel deletes an appointment and emits a "cancelled" event carrying the
// pre-deletion snapshot. Administrators cancel unconditionally; doctors and
// patients only appointments they are party to.
func (s *SchedulerService) Cancel(ctx context.Context, actor entities.Actor, id string) error {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.CanCancel(ctx, actor, appointment); err != nil {
		return err
	}

	// The snapshot must exist before the row is gone.
	snapshot, snapErr := s.snap.snapshot(ctx, appointment)

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.AppointmentsCancelled.Add(ctx, 1)
	}
	if snapErr != nil {
		observability.LoggerFromContext(ctx).Warn().Err(snapErr).Str("appointment_id", id).
			Msg("cancelled appointment without notification snapshot")
		return nil
	}
	s.publishSnapshot(entities.NotificationCancelled, snapshot)
	return nil
}

// Get retrieves one appointment
func (s *SchedulerService) Get(ctx context.Context, id string) (*entities.Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves appointments matching the filter
func (s *SchedulerService) List(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	return s.repo.List(ctx, filter)
}

// ListByDoctor retrieves a doctor's appointments, optionally on one date
func (s *SchedulerService) ListByDoctor(ctx context.Context, doctorID string, onDate *time.Time) ([]*entities.Appointment, error) {
	return s.repo.List(ctx, repositories.AppointmentFilter{DoctorID: doctorID, OnDate: onDate})
}

// ListByPatient retrieves a patient's appointments, optionally on one date
func (s *SchedulerService) ListByPatient(ctx context.Context, patientID string, onDate *time.Time) ([]*entities.Appointment, error) {
	return s.repo.List(ctx, repositories.AppointmentFilter{PatientID: patientID, OnDate: onDate})
}

// ListBetween retrieves appointments with start times in [from, to)
func (s *SchedulerService) ListBetween(ctx context.Context, from, to time.Time) ([]*entities.Appointment, error) {
	return s.repo.List(ctx, repositories.AppointmentFilter{From: &from, To: &to})
}

// CountByDoctor returns the number of appointments of a doctor
func (s *SchedulerService) CountByDoctor(ctx context.Context, doctorID string) (int64, error) {
	return s.repo.CountByDoctor(ctx, doctorID)
}

// CountByPatient returns the number of appointments of a patient
func (s *SchedulerService) CountByPatient(ctx context.Context, patientID string) (int64, error) {
	return s.repo.CountByPatient(ctx, patientID)
}

// DeleteByDoctor removes every appointment of a doctor, for use when clinic
// administration retires the doctor record.
func (s *SchedulerService) DeleteByDoctor(ctx context.Context, actor entities.Actor, doctorID string) (int64, error) {
	if err := s.policy.CanSchedule(ctx, actor); err != nil {
		return 0, err
	}
	return s.repo.DeleteByDoctor(ctx, doctorID)
}

// DeleteByPatient removes every appointment of a patient
func (s *SchedulerService) DeleteByPatient(ctx context.Context, actor entities.Actor, patientID string) (int64, error) {
	if err := s.policy.CanSchedule(ctx, actor); err != nil {
		return 0, err
	}
	return s.repo.DeleteByPatient(ctx, patientID)
}

// validateRequest runs the fail-fast pipeline shared by Create and Update:
// required fields, role, booking horizon, working-hours containment, and
// referenced-record existence. Overlap checks happen later, inside the
// storage transaction.
func (s *SchedulerService) validateRequest(ctx context.Context, actor entities.Actor, req AppointmentRequest) error {
	if req.PatientID == "" {
		return apperrors.NewValidationError("patient id is required")
	}
	if req.DoctorID == "" {
		return apperrors.NewValidationError("doctor id is required")
	}
	if req.StartAt.IsZero() {
		return apperrors.NewValidationError("start time is required")
	}

	if err := s.policy.CanSchedule(ctx, actor); err != nil {
		return err
	}

	now := s.now()
	if req.StartAt.Before(now) {
		return apperrors.NewOutOfHorizonError("start time is in the past")
	}
	horizonEnd := addCalendarMonths(startOfDay(now), s.horizonMonths).AddDate(0, 0, 1)
	if !req.StartAt.Before(horizonEnd) {
		return apperrors.NewOutOfHorizonError("start time is beyond the booking horizon")
	}

	if err := s.checkWorkingHours(ctx, req.DoctorID, req.StartAt); err != nil {
		return err
	}

	if _, err := s.patients.GetByID(ctx, req.PatientID); err != nil {
		return err
	}
	if _, err := s.doctors.GetByID(ctx, req.DoctorID); err != nil {
		return err
	}
	if req.RoomID != "" {
		if _, err := s.rooms.GetByID(ctx, req.RoomID); err != nil {
			return err
		}
	}
	return nil
}

// checkWorkingHours requires the full slot interval to fit inside one window
// of the doctor on that weekday.
func (s *SchedulerService) checkWorkingHours(ctx context.Context, doctorID string, startAt time.Time) error {
	windows, err := s.hours.ByDoctorWeekday(ctx, doctorID, entities.WeekdayOf(startAt))
	if err != nil {
		return err
	}

	start := entities.MinuteOfDayFrom(startAt)
	end := start + slotMinutes
	for _, window := range windows {
		if window.Contains(start, end) {
			return nil
		}
	}
	return apperrors.NewOutOfHorizonError("slot is outside the doctor's working hours")
}

// publish builds the snapshot for a live appointment and emits the event.
func (s *SchedulerService) publish(ctx context.Context, kind entities.NotificationKind, appointment *entities.Appointment) {
	snapshot, err := s.snap.snapshot(ctx, appointment)
	if err != nil {
		log.Warn().Err(err).Str("appointment_id", appointment.ID).
			Msg("skipping event, snapshot could not be built")
		return
	}
	s.publishSnapshot(kind, snapshot)
}

// publishSnapshot emits an event without blocking the caller. Event delivery
// is best effort; scheduling work never fails because the bus is down.
func (s *SchedulerService) publishSnapshot(kind entities.NotificationKind, snapshot *entities.AppointmentSnapshot) {
	if s.bus == nil {
		return
	}

	event := &entities.AppointmentEvent{
		ID:         uuid.New().String(),
		Kind:       kind,
		Snapshot:   *snapshot,
		OccurredAt: s.now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.bus.Publish(ctx, providers.EventChannelAppointments, event); err != nil {
			log.Warn().Err(err).Str("kind", string(kind)).
				Str("appointment_id", snapshot.Appointment.ID).
				Msg("failed to publish appointment event")
		}
		doctorChannel := providers.GetDoctorChannel(snapshot.Appointment.DoctorID)
		if err := s.bus.Publish(ctx, doctorChannel, event); err != nil {
			log.Warn().Err(err).Str("channel", doctorChannel).
				Msg("failed to publish appointment event to doctor channel")
		}
	}()
}

func (s *SchedulerService) countConflict(ctx context.Context, err error) {
	if s.metrics != nil && apperrors.IsType(err, apperrors.ErrorTypeConflict) {
		s.metrics.ScheduleConflicts.Add(ctx, 1)
	}
}

// startOfDay truncates a timestamp to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// addCalendarMonths advances by whole calendar months, clamping to the last
// day of the target month (Jan 31 + 1 month = Feb 28/29).
func addCalendarMonths(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
