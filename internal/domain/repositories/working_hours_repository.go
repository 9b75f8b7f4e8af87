package repositories

import (
	"context"

	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
)

// WorkingHoursRepository defines the interface for working-hours windows.
// It is the sole source of truth consulted by slot calculation and never
// inspects appointments.
type WorkingHoursRepository interface {
	// Add inserts a new window for a doctor.
	Add(ctx context.Context, window *entities.WorkingHoursWindow) error

	// Remove deletes a window by id.
	Remove(ctx context.Context, windowID string) error

	// Update rewrites the weekday and time range of a window.
	Update(ctx context.Context, windowID string, weekday entities.Weekday, start, end entities.MinuteOfDay) error

	// ByDoctorWeekday returns the windows of a doctor on one weekday,
	// ordered by start time.
	ByDoctorWeekday(ctx context.Context, doctorID string, weekday entities.Weekday) ([]*entities.WorkingHoursWindow, error)

	// ByDoctor returns all windows of a doctor.
	ByDoctor(ctx context.Context, doctorID string) ([]*entities.WorkingHoursWindow, error)
}
