package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
	"github.com/zatekoja/clinic-scheduling/internal/domain/repositories"
	"github.com/zatekoja/clinic-scheduling/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/clinic-scheduling/pkg/errors"
)

// uniqueViolation is the PostgreSQL error code raised when an insert hits one
// of the slot unique indexes. Two writers can both pass the in-transaction
// conflict checks; the index turns the loser's insert into a conflict error
// instead of a double booking.
const uniqueViolation = "23505"

var appointmentColumns = []any{
	"id", "patient_id", "doctor_id", "room_id",
	"start_at", "reason", "attendance", "created_at", "updated_at",
}

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	// pickRoom selects an index among the free rooms. Swappable for
	// deterministic tests.
	pickRoom func(n int) int
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *postgres.Client) repositories.AppointmentRepository {
	return &AppointmentAdapter{
		client:   client,
		db:       goqu.New("postgres", client.DB()),
		pickRoom: rand.IntN,
	}
}

// Create persists an appointment after running patient, doctor and room
// conflict checks inside one transaction. An empty RoomID gets a random free
// room assigned.
func (a *AppointmentAdapter) Create(ctx context.Context, appointment *entities.Appointment) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewPersistenceError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := a.checkPatientConflict(ctx, tx, appointment.PatientID, appointment.StartAt, ""); err != nil {
		return err
	}
	if err := a.checkDoctorConflict(ctx, tx, appointment.DoctorID, appointment.StartAt, ""); err != nil {
		return err
	}

	if appointment.RoomID == "" {
		roomID, err := a.assignFreeRoom(ctx, tx, appointment.StartAt, "")
		if err != nil {
			return err
		}
		appointment.RoomID = roomID
	} else if err := a.checkRoomConflict(ctx, tx, appointment.RoomID, appointment.StartAt, ""); err != nil {
		return err
	}

	now := time.Now()
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = now
	}
	appointment.UpdatedAt = now
	if appointment.Attendance == "" {
		appointment.Attendance = entities.AttendancePending
	}

	query, args, err := a.db.Insert("appointments").Rows(goqu.Record{
		"id":         appointment.ID,
		"patient_id": appointment.PatientID,
		"doctor_id":  appointment.DoctorID,
		"room_id":    appointment.RoomID,
		"start_at":   appointment.StartAt,
		"reason":     appointment.Reason,
		"attendance": appointment.Attendance,
		"created_at": appointment.CreatedAt,
		"updated_at": appointment.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewPersistenceError("failed to build insert query", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("slot was booked by a concurrent request")
		}
		return apperrors.NewPersistenceError("failed to create appointment", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("slot was booked by a concurrent request")
		}
		return apperrors.NewPersistenceError("failed to commit appointment", err)
	}
	return nil
}

// Update rewrites an appointment, re-running the conflict checks with the
// appointment's own id excluded.
func (a *AppointmentAdapter) Update(ctx context.Context, appointment *entities.Appointment) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewPersistenceError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := a.checkPatientConflict(ctx, tx, appointment.PatientID, appointment.StartAt, appointment.ID); err != nil {
		return err
	}
	if err := a.checkDoctorConflict(ctx, tx, appointment.DoctorID, appointment.StartAt, appointment.ID); err != nil {
		return err
	}

	if appointment.RoomID == "" {
		roomID, err := a.assignFreeRoom(ctx, tx, appointment.StartAt, appointment.ID)
		if err != nil {
			return err
		}
		appointment.RoomID = roomID
	} else if err := a.checkRoomConflict(ctx, tx, appointment.RoomID, appointment.StartAt, appointment.ID); err != nil {
		return err
	}

	appointment.UpdatedAt = time.Now()

	query, args, err := a.db.Update("appointments").Set(goqu.Record{
		"patient_id": appointment.PatientID,
		"doctor_id":  appointment.DoctorID,
		"room_id":    appointment.RoomID,
		"start_at":   appointment.StartAt,
		"reason":     appointment.Reason,
		"attendance": appointment.Attendance,
		"updated_at": appointment.UpdatedAt,
	}).Where(goqu.Ex{"id": appointment.ID}).ToSQL()
	if err != nil {
		return apperrors.NewPersistenceError("failed to build update query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("slot was booked by a concurrent request")
		}
		return apperrors.NewPersistenceError("failed to update appointment", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewPersistenceError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", appointment.ID))
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("slot was booked by a concurrent request")
		}
		return apperrors.NewPersistenceError("failed to commit appointment update", err)
	}
	return nil
}

// Delete removes an appointment by id
func (a *AppointmentAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("appointments").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewPersistenceError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewPersistenceError("failed to delete appointment", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewPersistenceError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	return nil
}

// GetByID retrieves an appointment by id
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to build query", err)
	}

	appointment := &entities.Appointment{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&appointment.ID,
		&appointment.PatientID,
		&appointment.DoctorID,
		&appointment.RoomID,
		&appointment.StartAt,
		&appointment.Reason,
		&appointment.Attendance,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to get appointment", err)
	}
	return appointment, nil
}

// List retrieves appointments matching the filter, ordered by start time
func (a *AppointmentAdapter) List(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	ds := a.db.Select(appointmentColumns...).From("appointments")

	if filter.DoctorID != "" {
		ds = ds.Where(goqu.Ex{"doctor_id": filter.DoctorID})
	}
	if filter.PatientID != "" {
		ds = ds.Where(goqu.Ex{"patient_id": filter.PatientID})
	}
	if filter.Attendance != "" {
		ds = ds.Where(goqu.Ex{"attendance": filter.Attendance})
	}
	if filter.OnDate != nil {
		dayStart := time.Date(filter.OnDate.Year(), filter.OnDate.Month(), filter.OnDate.Day(),
			0, 0, 0, 0, filter.OnDate.Location())
		ds = ds.Where(
			goqu.C("start_at").Gte(dayStart),
			goqu.C("start_at").Lt(dayStart.AddDate(0, 0, 1)),
		)
	}
	if filter.From != nil {
		ds = ds.Where(goqu.C("start_at").Gte(*filter.From))
	}
	if filter.To != nil {
		ds = ds.Where(goqu.C("start_at").Lt(*filter.To))
	}

	ds = ds.Order(goqu.I("start_at").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to list appointments", err)
	}
	defer rows.Close()

	var appointments []*entities.Appointment
	for rows.Next() {
		appointment := &entities.Appointment{}
		if err := rows.Scan(
			&appointment.ID,
			&appointment.PatientID,
			&appointment.DoctorID,
			&appointment.RoomID,
			&appointment.StartAt,
			&appointment.Reason,
			&appointment.Attendance,
			&appointment.CreatedAt,
			&appointment.UpdatedAt,
		); err != nil {
			return nil, apperrors.NewPersistenceError("failed to scan appointment", err)
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("failed to iterate appointments", err)
	}
	return appointments, nil
}

// CountByDoctor returns the number of appointments of a doctor
func (a *AppointmentAdapter) CountByDoctor(ctx context.Context, doctorID string) (int64, error) {
	return a.countBy(ctx, goqu.Ex{"doctor_id": doctorID})
}

// CountByPatient returns the number of appointments of a patient
func (a *AppointmentAdapter) CountByPatient(ctx context.Context, patientID string) (int64, error) {
	return a.countBy(ctx, goqu.Ex{"patient_id": patientID})
}

func (a *AppointmentAdapter) countBy(ctx context.Context, where goqu.Ex) (int64, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).From("appointments").Where(where).ToSQL()
	if err != nil {
		return 0, apperrors.NewPersistenceError("failed to build count query", err)
	}

	var count int64
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewPersistenceError("failed to count appointments", err)
	}
	return count, nil
}

// DeleteByDoctor removes every appointment of a doctor
func (a *AppointmentAdapter) DeleteByDoctor(ctx context.Context, doctorID string) (int64, error) {
	return a.deleteBy(ctx, goqu.Ex{"doctor_id": doctorID})
}

// DeleteByPatient removes every appointment of a patient
func (a *AppointmentAdapter) DeleteByPatient(ctx context.Context, patientID string) (int64, error) {
	return a.deleteBy(ctx, goqu.Ex{"patient_id": patientID})
}

func (a *AppointmentAdapter) deleteBy(ctx context.Context, where goqu.Ex) (int64, error) {
	query, args, err := a.db.Delete("appointments").Where(where).ToSQL()
	if err != nil {
		return 0, apperrors.NewPersistenceError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewPersistenceError("failed to delete appointments", err)
	}
	return result.RowsAffected()
}

// SetAttendance updates the attendance outcome of one appointment
func (a *AppointmentAdapter) SetAttendance(ctx context.Context, id string, status entities.AttendanceStatus) error {
	query, args, err := a.db.Update("appointments").Set(goqu.Record{
		"attendance": status,
		"updated_at": time.Now(),
	}).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewPersistenceError("failed to build attendance query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewPersistenceError("failed to update attendance", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewPersistenceError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	return nil
}

// SweepNoShows marks every still-pending appointment starting before the
// boundary as a no-show. Only pending rows change, so repeating the sweep is
// a no-op.
func (a *AppointmentAdapter) SweepNoShows(ctx context.Context, boundary time.Time) (int64, error) {
	query, args, err := a.db.Update("appointments").Set(goqu.Record{
		"attendance": entities.AttendanceNoShow,
		"updated_at": time.Now(),
	}).Where(
		goqu.Ex{"attendance": entities.AttendancePending},
		goqu.C("start_at").Lt(boundary),
	).ToSQL()
	if err != nil {
		return 0, apperrors.NewPersistenceError("failed to build sweep query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewPersistenceError("failed to sweep no-shows", err)
	}
	return result.RowsAffected()
}

// checkPatientConflict fails with a conflict error when the patient already
// has an appointment overlapping the slot at startAt. excludeID exempts the
// appointment being rewritten.
func (a *AppointmentAdapter) checkPatientConflict(ctx context.Context, tx *sql.Tx, patientID string, startAt time.Time, excludeID string) error {
	found, err := a.hasOverlap(ctx, tx, goqu.Ex{"patient_id": patientID}, startAt, excludeID)
	if err != nil {
		return err
	}
	if found {
		return apperrors.NewConflictError("patient already has an appointment overlapping this slot")
	}
	return nil
}

func (a *AppointmentAdapter) checkDoctorConflict(ctx context.Context, tx *sql.Tx, doctorID string, startAt time.Time, excludeID string) error {
	found, err := a.hasOverlap(ctx, tx, goqu.Ex{"doctor_id": doctorID}, startAt, excludeID)
	if err != nil {
		return err
	}
	if found {
		return apperrors.NewConflictError("doctor already has an appointment overlapping this slot")
	}
	return nil
}

func (a *AppointmentAdapter) checkRoomConflict(ctx context.Context, tx *sql.Tx, roomID string, startAt time.Time, excludeID string) error {
	found, err := a.hasOverlap(ctx, tx, goqu.Ex{"room_id": roomID}, startAt, excludeID)
	if err != nil {
		return err
	}
	if found {
		return apperrors.NewConflictError("room is occupied during this slot")
	}
	return nil
}

// hasOverlap reports whether any appointment matching the owner condition
// overlaps the half-open slot [startAt, startAt+30m).
func (a *AppointmentAdapter) hasOverlap(ctx context.Context, tx *sql.Tx, owner goqu.Ex, startAt time.Time, excludeID string) (bool, error) {
	ds := a.db.Select(goqu.L("1")).From("appointments").Where(
		owner,
		goqu.C("start_at").Gt(startAt.Add(-entities.SlotDuration)),
		goqu.C("start_at").Lt(startAt.Add(entities.SlotDuration)),
	)
	if excludeID != "" {
		ds = ds.Where(goqu.C("id").Neq(excludeID))
	}

	query, args, err := ds.Limit(1).ToSQL()
	if err != nil {
		return false, apperrors.NewPersistenceError("failed to build conflict query", err)
	}

	var one int
	err = tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewPersistenceError("failed to check conflicts", err)
	}
	return true, nil
}

// assignFreeRoom returns the id of a randomly chosen room with no
// appointment overlapping the slot at startAt. excludeID exempts the
// appointment being rewritten, so its current room still counts as free.
func (a *AppointmentAdapter) assignFreeRoom(ctx context.Context, tx *sql.Tx, startAt time.Time, excludeID string) (string, error) {
	occupied := a.db.Select("room_id").From("appointments").Where(
		goqu.C("start_at").Gt(startAt.Add(-entities.SlotDuration)),
		goqu.C("start_at").Lt(startAt.Add(entities.SlotDuration)),
	)
	if excludeID != "" {
		occupied = occupied.Where(goqu.C("id").Neq(excludeID))
	}

	query, args, err := a.db.Select("id").From("rooms").
		Where(goqu.C("id").NotIn(occupied)).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return "", apperrors.NewPersistenceError("failed to build free-room query", err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return "", apperrors.NewPersistenceError("failed to query free rooms", err)
	}
	defer rows.Close()

	var freeRooms []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", apperrors.NewPersistenceError("failed to scan room id", err)
		}
		freeRooms = append(freeRooms, id)
	}
	if err := rows.Err(); err != nil {
		return "", apperrors.NewPersistenceError("failed to iterate free rooms", err)
	}

	if len(freeRooms) == 0 {
		return "", apperrors.NewConflictError("no room is free during this slot")
	}
	return freeRooms[a.pickRoom(len(freeRooms))], nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
