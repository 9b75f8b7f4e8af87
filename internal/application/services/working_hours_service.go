package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
	"github.com/zatekoja/clinic-scheduling/internal/domain/repositories"
	apperrors "github.com/zatekoja/clinic-scheduling/pkg/errors"
)

// WorkingHoursService manages the per-doctor weekly agenda. It is the sole
// source of truth for when a doctor is bookable; it never looks at
// appointments, so shrinking a window leaves already-booked appointments
// untouched.
type WorkingHoursService struct {
	repo   repositories.WorkingHoursRepository
	policy *Policy
}

// NewWorkingHoursService creates a new working-hours service
func NewWorkingHoursService(repo repositories.WorkingHoursRepository, policy *Policy) *WorkingHoursService {
	return &WorkingHoursService{
		repo:   repo,
		policy: policy,
	}
}

// Windows returns the windows of a doctor on one weekday, ordered by start
func (s *WorkingHoursService) Windows(ctx context.Context, doctorID string, weekday entities.Weekday) ([]*entities.WorkingHoursWindow, error) {
	if !weekday.Valid() {
		return nil, apperrors.NewValidationError("weekday must be between 1 (Monday) and 7 (Sunday)")
	}
	return s.repo.ByDoctorWeekday(ctx, doctorID, weekday)
}

// AllWindows returns every window of a doctor
func (s *WorkingHoursService) AllWindows(ctx context.Context, doctorID string) ([]*entities.WorkingHoursWindow, error) {
	return s.repo.ByDoctor(ctx, doctorID)
}

// Add registers a new window for a doctor
func (s *WorkingHoursService) Add(ctx context.Context, actor entities.Actor, window *entities.WorkingHoursWindow) error {
	if err := s.policy.CanManageWorkingHours(ctx, actor); err != nil {
		return err
	}
	if err := validateWindow(window.DoctorID, window.Weekday, window.StartMin, window.EndMin); err != nil {
		return err
	}
	if window.ID == "" {
		window.ID = uuid.New().String()
	}
	return s.repo.Add(ctx, window)
}

// Remove deletes a window
func (s *WorkingHoursService) Remove(ctx context.Context, actor entities.Actor, windowID string) error {
	if err := s.policy.CanManageWorkingHours(ctx, actor); err != nil {
		return err
	}
	return s.repo.Remove(ctx, windowID)
}

// Update rewrites the weekday and time range of a window
func (s *WorkingHoursService) Update(ctx context.Context, actor entities.Actor, windowID string, weekday entities.Weekday, start, end entities.MinuteOfDay) error {
	if err := s.policy.CanManageWorkingHours(ctx, actor); err != nil {
		return err
	}
	if err := validateWindow("-", weekday, start, end); err != nil {
		return err
	}
	return s.repo.Update(ctx, windowID, weekday, start, end)
}

func validateWindow(doctorID string, weekday entities.Weekday, start, end entities.MinuteOfDay) error {
	if doctorID == "" {
		return apperrors.NewValidationError("doctor id is required")
	}
	if !weekday.Valid() {
		return apperrors.NewValidationError("weekday must be between 1 (Monday) and 7 (Sunday)")
	}
	if start >= end {
		return apperrors.NewValidationError("window start must be before window end")
	}
	return nil
}
