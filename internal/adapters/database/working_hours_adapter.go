package database

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
	"github.com/zatekoja/clinic-scheduling/internal/domain/repositories"
	"github.com/zatekoja/clinic-scheduling/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/clinic-scheduling/pkg/errors"
)

// WorkingHoursAdapter implements the WorkingHoursRepository interface
type WorkingHoursAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewWorkingHoursAdapter creates a new working-hours adapter
func NewWorkingHoursAdapter(client *postgres.Client) repositories.WorkingHoursRepository {
	return &WorkingHoursAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Add inserts a new window for a doctor
func (a *WorkingHoursAdapter) Add(ctx context.Context, window *entities.WorkingHoursWindow) error {
	query, args, err := a.db.Insert("working_hours").Rows(goqu.Record{
		"id":        window.ID,
		"doctor_id": window.DoctorID,
		"weekday":   int(window.Weekday),
		"start_min": int(window.StartMin),
		"end_min":   int(window.EndMin),
	}).ToSQL()
	if err != nil {
		return apperrors.NewPersistenceError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewPersistenceError("failed to add working-hours window", err)
	}
	return nil
}

// Remove deletes a window by id
func (a *WorkingHoursAdapter) Remove(ctx context.Context, windowID string) error {
	query, args, err := a.db.Delete("working_hours").Where(goqu.Ex{"id": windowID}).ToSQL()
	if err != nil {
		return apperrors.NewPersistenceError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewPersistenceError("failed to remove working-hours window", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewPersistenceError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("working-hours window with id %s not found", windowID))
	}
	return nil
}

// Update rewrites the weekday and time range of a window
func (a *WorkingHoursAdapter) Update(ctx context.Context, windowID string, weekday entities.Weekday, start, end entities.MinuteOfDay) error {
	query, args, err := a.db.Update("working_hours").Set(goqu.Record{
		"weekday":   int(weekday),
		"start_min": int(start),
		"end_min":   int(end),
	}).Where(goqu.Ex{"id": windowID}).ToSQL()
	if err != nil {
		return apperrors.NewPersistenceError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewPersistenceError("failed to update working-hours window", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewPersistenceError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("working-hours window with id %s not found", windowID))
	}
	return nil
}

// ByDoctorWeekday returns the windows of a doctor on one weekday, ordered by
// start time
func (a *WorkingHoursAdapter) ByDoctorWeekday(ctx context.Context, doctorID string, weekday entities.Weekday) ([]*entities.WorkingHoursWindow, error) {
	return a.list(ctx, goqu.Ex{"doctor_id": doctorID, "weekday": int(weekday)})
}

// ByDoctor returns all windows of a doctor
func (a *WorkingHoursAdapter) ByDoctor(ctx context.Context, doctorID string) ([]*entities.WorkingHoursWindow, error) {
	return a.list(ctx, goqu.Ex{"doctor_id": doctorID})
}

func (a *WorkingHoursAdapter) list(ctx context.Context, where goqu.Ex) ([]*entities.WorkingHoursWindow, error) {
	query, args, err := a.db.Select("id", "doctor_id", "weekday", "start_min", "end_min").
		From("working_hours").
		Where(where).
		Order(goqu.I("weekday").Asc(), goqu.I("start_min").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to list working-hours windows", err)
	}
	defer rows.Close()

	var windows []*entities.WorkingHoursWindow
	for rows.Next() {
		window := &entities.WorkingHoursWindow{}
		if err := rows.Scan(
			&window.ID,
			&window.DoctorID,
			&window.Weekday,
			&window.StartMin,
			&window.EndMin,
		); err != nil {
			return nil, apperrors.NewPersistenceError("failed to scan working-hours window", err)
		}
		windows = append(windows, window)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("failed to iterate working-hours windows", err)
	}
	return windows, nil
}
