package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/clinic-scheduling/internal/application/services"
	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
	apperrors "github.com/zatekoja/clinic-scheduling/pkg/errors"
)

var admin = entities.Actor{Identity: "admin", Role: entities.RoleAdministrator}

type schedulerFixture struct {
	repo     *MockAppointmentRepository
	hours    *MockWorkingHoursRepository
	doctors  *MockDoctorRepository
	patients *MockPatientRepository
	rooms    *MockRoomRepository
	service  *services.SchedulerService
}

// newSchedulerFixture wires a scheduler whose "today" is pinned to now.
func newSchedulerFixture(now time.Time) *schedulerFixture {
	f := &schedulerFixture{
		repo:     new(MockAppointmentRepository),
		hours:    new(MockWorkingHoursRepository),
		doctors:  new(MockDoctorRepository),
		patients: new(MockPatientRepository),
		rooms:    new(MockRoomRepository),
	}
	policy := services.NewPolicy(nil, f.doctors, f.patients)
	f.service = services.NewSchedulerService(
		f.repo, f.hours, f.doctors, f.patients, f.rooms, policy, nil, nil, 1,
	).WithClock(func() time.Time { return now })
	return f
}

// allDayWindow makes the doctor bookable the whole week.
func (f *schedulerFixture) allDayWindow(doctorID string) {
	f.hours.On("ByDoctorWeekday", mock.Anything, doctorID, mock.Anything).
		Return([]*entities.WorkingHoursWindow{
			{ID: "w-1", DoctorID: doctorID, StartMin: 0, EndMin: 24 * 60},
		}, nil)
}

func (f *schedulerFixture) knownParties() {
	f.patients.On("GetByID", mock.Anything, "pat-1").
		Return(&entities.Patient{ID: "pat-1", FullName: "Ana Lopez", Email: "ana@example.com"}, nil)
	f.doctors.On("GetByID", mock.Anything, "doc-1").
		Return(&entities.Doctor{ID: "doc-1", FullName: "Dr. Garcia"}, nil)
	// Snapshot building looks up the room; auto-assignment happens in the
	// storage adapter, so the mock never fills RoomID in.
	f.rooms.On("GetByID", mock.Anything, "").
		Return(nil, apperrors.NewNotFoundError("room not found")).Maybe()
}

func TestSchedulerService_Create(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	t.Run("books a valid slot", func(t *testing.T) {
		f := newSchedulerFixture(now)
		f.allDayWindow("doc-1")
		f.knownParties()
		f.repo.On("Create", mock.Anything, mock.MatchedBy(func(a *entities.Appointment) bool {
			return a.Attendance == entities.AttendancePending && a.ID != ""
		})).Return(nil)

		appointment, err := f.service.Create(context.Background(), admin, services.AppointmentRequest{
			PatientID: "pat-1",
			DoctorID:  "doc-1",
			StartAt:   now.AddDate(0, 0, 1),
		})

		require.NoError(t, err)
		assert.NotEmpty(t, appointment.ID)
		f.repo.AssertExpectations(t)
	})

	t.Run("rejects missing patient id", func(t *testing.T) {
		f := newSchedulerFixture(now)

		_, err := f.service.Create(context.Background(), admin, services.AppointmentRequest{
			DoctorID: "doc-1",
			StartAt:  now.AddDate(0, 0, 1),
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("rejects non-administrators", func(t *testing.T) {
		f := newSchedulerFixture(now)

		_, err := f.service.Create(context.Background(),
			entities.Actor{Identity: "drg", Role: entities.RoleDoctor},
			services.AppointmentRequest{
				PatientID: "pat-1",
				DoctorID:  "doc-1",
				StartAt:   now.AddDate(0, 0, 1),
			})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
	})

	t.Run("rejects a start time in the past", func(t *testing.T) {
		f := newSchedulerFixture(now)

		_, err := f.service.Create(context.Background(), admin, services.AppointmentRequest{
			PatientID: "pat-1",
			DoctorID:  "doc-1",
			StartAt:   now.Add(-time.Hour),
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeOutOfHorizon))
	})

	t.Run("accepts the last day of the horizon", func(t *testing.T) {
		f := newSchedulerFixture(now)
		f.allDayWindow("doc-1")
		f.knownParties()
		f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)

		_, err := f.service.Create(context.Background(), admin, services.AppointmentRequest{
			PatientID: "pat-1",
			DoctorID:  "doc-1",
			StartAt:   time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC),
		})

		assert.NoError(t, err)
	})

	t.Run("rejects one day past the horizon", func(t *testing.T) {
		f := newSchedulerFixture(now)

		_, err := f.service.Create(context.Background(), admin, services.AppointmentRequest{
			PatientID: "pat-1",
			DoctorID:  "doc-1",
			StartAt:   time.Date(2026, 10, 2, 10, 0, 0, 0, time.UTC),
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeOutOfHorizon))
	})

	t.Run("clamps the horizon at month end", func(t *testing.T) {
		// Jan 31 + 1 month clamps to Feb 28 in a non-leap year.
		f := newSchedulerFixture(time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC))
		f.allDayWindow("doc-1")
		f.knownParties()
		f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)

		_, err := f.service.Create(context.Background(), admin, services.AppointmentRequest{
			PatientID: "pat-1",
			DoctorID:  "doc-1",
			StartAt:   time.Date(2026, 2, 28, 10, 0, 0, 0, time.UTC),
		})
		assert.NoError(t, err)

		_, err = f.service.Create(context.Background(), admin, services.AppointmentRequest{
			PatientID: "pat-1",
			DoctorID:  "doc-1",
			StartAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeOutOfHorizon))
	})

	t.Run("rejects a slot outside working hours", func(t *testing.T) {
		f := newSchedulerFixture(now)
		f.hours.On("ByDoctorWeekday", mock.Anything, "doc-1", mock.Anything).
			Return([]*entities.WorkingHoursWindow{
				{ID: "w-1", DoctorID: "doc-1", StartMin: 10 * 60, EndMin: 13 * 60},
			}, nil)

		// 12:45 starts inside the window but the slot runs past its end.
		_, err := f.service.Create(context.Background(), admin, services.AppointmentRequest{
			PatientID: "pat-1",
			DoctorID:  "doc-1",
			StartAt:   time.Date(2026, 9, 8, 12, 45, 0, 0, time.UTC),
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeOutOfHorizon))
	})

	t.Run("surfaces storage conflicts", func(t *testing.T) {
		f := newSchedulerFixture(now)
		f.allDayWindow("doc-1")
		f.knownParties()
		f.repo.On("Create", mock.Anything, mock.Anything).
			Return(apperrors.NewConflictError("patient already has an appointment overlapping this slot"))

		_, err := f.service.Create(context.Background(), admin, services.AppointmentRequest{
			PatientID: "pat-1",
			DoctorID:  "doc-1",
			StartAt:   now.AddDate(0, 0, 1),
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	})
}

func TestSchedulerService_Cancel(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	appointment := &entities.Appointment{
		ID:        "apt-1",
		PatientID: "pat-1",
		DoctorID:  "doc-1",
		RoomID:    "room-1",
		StartAt:   now.AddDate(0, 0, 1),
	}

	t.Run("cancelling a nonexistent appointment is not found", func(t *testing.T) {
		f := newSchedulerFixture(now)
		f.repo.On("GetByID", mock.Anything, "missing").
			Return(nil, apperrors.NewNotFoundError("appointment with id missing not found"))

		err := f.service.Cancel(context.Background(), admin, "missing")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("administrator cancels any appointment", func(t *testing.T) {
		f := newSchedulerFixture(now)
		f.repo.On("GetByID", mock.Anything, "apt-1").Return(appointment, nil)
		f.knownParties()
		f.rooms.On("GetByID", mock.Anything, "room-1").
			Return(&entities.Room{ID: "room-1", Description: "Room 1"}, nil)
		f.repo.On("Delete", mock.Anything, "apt-1").Return(nil)

		err := f.service.Cancel(context.Background(), admin, "apt-1")
		assert.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("cancels even when the notification snapshot fails", func(t *testing.T) {
		f := newSchedulerFixture(now)
		f.repo.On("GetByID", mock.Anything, "apt-1").Return(appointment, nil)
		f.patients.On("GetByID", mock.Anything, "pat-1").
			Return(nil, apperrors.NewPersistenceError("patient lookup failed", nil))
		f.repo.On("Delete", mock.Anything, "apt-1").Return(nil)

		err := f.service.Cancel(context.Background(), admin, "apt-1")
		assert.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("owning doctor cancels, stranger doctor cannot", func(t *testing.T) {
		f := newSchedulerFixture(now)
		f.repo.On("GetByID", mock.Anything, "apt-1").Return(appointment, nil)
		f.doctors.On("GetByUsername", mock.Anything, "drg").
			Return(&entities.Doctor{ID: "doc-1", Username: "drg"}, nil)
		f.doctors.On("GetByUsername", mock.Anything, "other").
			Return(&entities.Doctor{ID: "doc-2", Username: "other"}, nil)
		f.knownParties()
		f.rooms.On("GetByID", mock.Anything, "room-1").
			Return(&entities.Room{ID: "room-1"}, nil)
		f.repo.On("Delete", mock.Anything, "apt-1").Return(nil)

		err := f.service.Cancel(context.Background(),
			entities.Actor{Identity: "drg", Role: entities.RoleDoctor}, "apt-1")
		assert.NoError(t, err)

		err = f.service.Cancel(context.Background(),
			entities.Actor{Identity: "other", Role: entities.RoleDoctor}, "apt-1")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
	})

	t.Run("owning patient cancels, stranger patient cannot", func(t *testing.T) {
		f := newSchedulerFixture(now)
		f.repo.On("GetByID", mock.Anything, "apt-1").Return(appointment, nil)
		f.patients.On("GetByUsername", mock.Anything, "ana").
			Return(&entities.Patient{ID: "pat-1", Username: "ana"}, nil)
		f.patients.On("GetByUsername", mock.Anything, "luis").
			Return(&entities.Patient{ID: "pat-2", Username: "luis"}, nil)
		f.knownParties()
		f.rooms.On("GetByID", mock.Anything, "room-1").
			Return(&entities.Room{ID: "room-1"}, nil)
		f.repo.On("Delete", mock.Anything, "apt-1").Return(nil)

		err := f.service.Cancel(context.Background(),
			entities.Actor{Identity: "ana", Role: entities.RolePatient}, "apt-1")
		assert.NoError(t, err)

		err = f.service.Cancel(context.Background(),
			entities.Actor{Identity: "luis", Role: entities.RolePatient}, "apt-1")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
	})
}

func TestSchedulerService_Update(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	t.Run("rewrites through the full pipeline", func(t *testing.T) {
		f := newSchedulerFixture(now)
		existing := &entities.Appointment{
			ID:         "apt-1",
			PatientID:  "pat-1",
			DoctorID:   "doc-1",
			StartAt:    now.AddDate(0, 0, 1),
			Attendance: entities.AttendancePending,
			CreatedAt:  now,
		}
		f.repo.On("GetByID", mock.Anything, "apt-1").Return(existing, nil)
		f.allDayWindow("doc-1")
		f.knownParties()
		f.repo.On("Update", mock.Anything, mock.MatchedBy(func(a *entities.Appointment) bool {
			return a.ID == "apt-1" && a.StartAt.Equal(now.AddDate(0, 0, 2))
		})).Return(nil)

		updated, err := f.service.Update(context.Background(), admin, "apt-1", services.AppointmentRequest{
			PatientID: "pat-1",
			DoctorID:  "doc-1",
			StartAt:   now.AddDate(0, 0, 2),
		})

		require.NoError(t, err)
		assert.Equal(t, "apt-1", updated.ID)
		f.repo.AssertExpectations(t)
	})

	t.Run("updating a nonexistent appointment is not found", func(t *testing.T) {
		f := newSchedulerFixture(now)
		f.repo.On("GetByID", mock.Anything, "missing").
			Return(nil, apperrors.NewNotFoundError("appointment with id missing not found"))

		_, err := f.service.Update(context.Background(), admin, "missing", services.AppointmentRequest{
			PatientID: "pat-1",
			DoctorID:  "doc-1",
			StartAt:   now.AddDate(0, 0, 1),
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}
