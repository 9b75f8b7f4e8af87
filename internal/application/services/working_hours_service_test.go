package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/clinic-scheduling/internal/application/services"
	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
	apperrors "github.com/zatekoja/clinic-scheduling/pkg/errors"
)

func newWorkingHoursService(repo *MockWorkingHoursRepository) *services.WorkingHoursService {
	policy := services.NewPolicy(nil, new(MockDoctorRepository), new(MockPatientRepository))
	return services.NewWorkingHoursService(repo, policy)
}

func TestWorkingHoursService_Add(t *testing.T) {
	t.Run("adds a valid window and assigns an id", func(t *testing.T) {
		repo := new(MockWorkingHoursRepository)
		repo.On("Add", mock.Anything, mock.MatchedBy(func(w *entities.WorkingHoursWindow) bool {
			return w.ID != ""
		})).Return(nil)

		service := newWorkingHoursService(repo)
		window := &entities.WorkingHoursWindow{
			DoctorID: "doc-1",
			Weekday:  entities.Tuesday,
			StartMin: 10 * 60,
			EndMin:   13 * 60,
		}

		err := service.Add(context.Background(), admin, window)
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("rejects start at or after end", func(t *testing.T) {
		service := newWorkingHoursService(new(MockWorkingHoursRepository))

		err := service.Add(context.Background(), admin, &entities.WorkingHoursWindow{
			DoctorID: "doc-1",
			Weekday:  entities.Tuesday,
			StartMin: 13 * 60,
			EndMin:   13 * 60,
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

		err = service.Add(context.Background(), admin, &entities.WorkingHoursWindow{
			DoctorID: "doc-1",
			Weekday:  entities.Tuesday,
			StartMin: 14 * 60,
			EndMin:   13 * 60,
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("rejects an invalid weekday", func(t *testing.T) {
		service := newWorkingHoursService(new(MockWorkingHoursRepository))

		err := service.Add(context.Background(), admin, &entities.WorkingHoursWindow{
			DoctorID: "doc-1",
			Weekday:  8,
			StartMin: 10 * 60,
			EndMin:   13 * 60,
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("rejects non-administrators", func(t *testing.T) {
		service := newWorkingHoursService(new(MockWorkingHoursRepository))

		err := service.Add(context.Background(),
			entities.Actor{Identity: "drg", Role: entities.RoleDoctor},
			&entities.WorkingHoursWindow{
				DoctorID: "doc-1",
				Weekday:  entities.Tuesday,
				StartMin: 10 * 60,
				EndMin:   13 * 60,
			})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
	})
}

func TestWorkingHoursService_Update(t *testing.T) {
	t.Run("rewrites a window", func(t *testing.T) {
		repo := new(MockWorkingHoursRepository)
		repo.On("Update", mock.Anything, "w-1", entities.Wednesday,
			entities.MinuteOfDay(9*60), entities.MinuteOfDay(12*60)).Return(nil)

		service := newWorkingHoursService(repo)
		err := service.Update(context.Background(), admin, "w-1",
			entities.Wednesday, 9*60, 12*60)

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("rejects an inverted range", func(t *testing.T) {
		service := newWorkingHoursService(new(MockWorkingHoursRepository))
		err := service.Update(context.Background(), admin, "w-1",
			entities.Wednesday, 12*60, 9*60)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestWorkingHoursService_Windows(t *testing.T) {
	t.Run("rejects an invalid weekday", func(t *testing.T) {
		service := newWorkingHoursService(new(MockWorkingHoursRepository))
		_, err := service.Windows(context.Background(), "doc-1", 0)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("returns the repository's windows", func(t *testing.T) {
		repo := new(MockWorkingHoursRepository)
		repo.On("ByDoctorWeekday", mock.Anything, "doc-1", entities.Monday).
			Return([]*entities.WorkingHoursWindow{{ID: "w-1"}}, nil)

		service := newWorkingHoursService(repo)
		windows, err := service.Windows(context.Background(), "doc-1", entities.Monday)

		assert.NoError(t, err)
		assert.Len(t, windows, 1)
	})
}
