package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
	"github.com/zatekoja/clinic-scheduling/internal/domain/repositories"
	"github.com/zatekoja/clinic-scheduling/internal/infrastructure/observability"
)

// AttendanceService records whether patients showed up. CloseDay is the
// day-boundary sweep: anything still pending from a past day, or from today
// once the cutoff has passed, becomes a no-show.
type AttendanceService struct {
	repo    repositories.AppointmentRepository
	policy  *Policy
	metrics *observability.Metrics
	cutoff  entities.MinuteOfDay
}

// NewAttendanceService creates a new attendance service. cutoff is the
// same-day sweep time as "HH:MM".
func NewAttendanceService(
	repo repositories.AppointmentRepository,
	policy *Policy,
	metrics *observability.Metrics,
	cutoff string,
) (*AttendanceService, error) {
	cutoffMin, err := entities.ParseMinuteOfDay(cutoff)
	if err != nil {
		return nil, fmt.Errorf("invalid no-show cutoff: %w", err)
	}
	return &AttendanceService{
		repo:    repo,
		policy:  policy,
		metrics: metrics,
		cutoff:  cutoffMin,
	}, nil
}

// MarkAttendance records the outcome of an appointment. Permitted for
// administrators and the appointment's own doctor; re-marking is allowed and
// idempotent.
func (s *AttendanceService) MarkAttendance(ctx context.Context, actor entities.Actor, appointmentID string, attended bool) error {
	appointment, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if err := s.policy.CanMarkAttendance(ctx, actor, appointment); err != nil {
		return err
	}

	status := entities.AttendanceNoShow
	if attended {
		status = entities.AttendanceAttended
	}
	return s.repo.SetAttendance(ctx, appointmentID, status)
}

// CloseDay sweeps pending appointments into no-show and returns how many rows
// changed. Appointments dated strictly before now's date always get swept;
// today's join them once the cutoff time has passed. Re-running the sweep is
// a no-op because only pending rows change.
func (s *AttendanceService) CloseDay(ctx context.Context, now time.Time) (int64, error) {
	boundary := startOfDay(now)
	if entities.MinuteOfDayFrom(now) >= s.cutoff {
		boundary = boundary.AddDate(0, 0, 1)
	}

	swept, err := s.repo.SweepNoShows(ctx, boundary)
	if err != nil {
		return 0, err
	}

	if swept > 0 {
		if s.metrics != nil {
			s.metrics.NoShowsSwept.Add(ctx, swept)
		}
		log.Info().Int64("swept", swept).Time("boundary", boundary).Msg("closed day, pending appointments marked no-show")
	}
	return swept, nil
}
