package services

import (
	"context"
	"iter"
	"time"

	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
	"github.com/zatekoja/clinic-scheduling/internal/domain/repositories"
)

// SlotService derives bookable slot-start times from the working-hours agenda
// and the appointments already on the books. It never writes anything.
type SlotService struct {
	hours        repositories.WorkingHoursRepository
	appointments repositories.AppointmentRepository
}

// NewSlotService creates a new slot service
func NewSlotService(
	hours repositories.WorkingHoursRepository,
	appointments repositories.AppointmentRepository,
) *SlotService {
	return &SlotService{
		hours:        hours,
		appointments: appointments,
	}
}

// AvailableSlots returns the free slot-start times of a doctor on one date as
// an ordered sequence. The sequence is backed by data fetched up front, so it
// can be ranged over any number of times and stays finite. A doctor with no
// window on that weekday yields an empty sequence, not an error.
func (s *SlotService) AvailableSlots(ctx context.Context, doctorID string, date time.Time) (iter.Seq[time.Time], error) {
	windows, booked, err := s.dayState(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	return func(yield func(time.Time) bool) {
		for _, window := range windows {
			for start := window.StartMin; start+slotMinutes <= window.EndMin; start += slotMinutes {
				at := start.At(date)
				if _, taken := booked[at.Unix()]; taken {
					continue
				}
				if !yield(at) {
					return
				}
			}
		}
	}, nil
}

// SlotsWithStatus returns every slot of the doctor's day together with its
// occupancy, the way a front desk sees the agenda.
func (s *SlotService) SlotsWithStatus(ctx context.Context, doctorID string, date time.Time) ([]entities.SlotStatus, error) {
	windows, booked, err := s.dayState(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	var slots []entities.SlotStatus
	for _, window := range windows {
		for start := window.StartMin; start+slotMinutes <= window.EndMin; start += slotMinutes {
			at := start.At(date)
			status := entities.SlotStatus{Start: at}
			if appointment, taken := booked[at.Unix()]; taken {
				status.Occupied = true
				status.AppointmentID = appointment.ID
				status.PatientID = appointment.PatientID
			}
			slots = append(slots, status)
		}
	}
	return slots, nil
}

// slotMinutes is the slot length in minutes-of-day units.
const slotMinutes = entities.MinuteOfDay(entities.SlotDuration / time.Minute)

// dayState fetches the doctor's windows for the date's weekday and indexes
// that day's appointments by start time.
func (s *SlotService) dayState(ctx context.Context, doctorID string, date time.Time) ([]*entities.WorkingHoursWindow, map[int64]*entities.Appointment, error) {
	windows, err := s.hours.ByDoctorWeekday(ctx, doctorID, entities.WeekdayOf(date))
	if err != nil {
		return nil, nil, err
	}
	if len(windows) == 0 {
		return nil, nil, nil
	}

	onDate := date
	appointments, err := s.appointments.List(ctx, repositories.AppointmentFilter{
		DoctorID: doctorID,
		OnDate:   &onDate,
	})
	if err != nil {
		return nil, nil, err
	}

	booked := make(map[int64]*entities.Appointment, len(appointments))
	for _, appointment := range appointments {
		booked[appointment.StartAt.Unix()] = appointment
	}
	return windows, booked, nil
}
