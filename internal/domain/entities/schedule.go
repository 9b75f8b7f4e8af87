package entities

import (
	"fmt"
	"time"
)

// Weekday numbers days Monday=1 through Sunday=7.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// WeekdayOf maps a calendar date to its Weekday.
func WeekdayOf(t time.Time) Weekday {
	// time.Weekday counts Sunday=0.
	return Weekday((int(t.Weekday())+6)%7 + 1)
}

// Valid reports whether the weekday is in 1..7.
func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

// MinuteOfDay is a wall-clock time expressed as minutes since midnight.
type MinuteOfDay int

// ParseMinuteOfDay parses a "HH:MM" string.
func ParseMinuteOfDay(s string) (MinuteOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return MinuteOfDay(h*60 + m), nil
}

// String formats the minute as "HH:MM".
func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// At anchors the minute onto a calendar date.
func (m MinuteOfDay) At(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), int(m)/60, int(m)%60, 0, 0, day.Location())
}

// MinuteOfDayFrom extracts the minute-of-day component of a timestamp.
func MinuteOfDayFrom(t time.Time) MinuteOfDay {
	return MinuteOfDay(t.Hour()*60 + t.Minute())
}

// WorkingHoursWindow is one (weekday, start, end) range during which a doctor
// is bookable. A doctor may have several windows on the same weekday, such as
// a morning and an afternoon block.
type WorkingHoursWindow struct {
	ID       string      `json:"id" db:"id"`
	DoctorID string      `json:"doctor_id" db:"doctor_id"`
	Weekday  Weekday     `json:"weekday" db:"weekday"`
	StartMin MinuteOfDay `json:"start_min" db:"start_min"`
	EndMin   MinuteOfDay `json:"end_min" db:"end_min"`
}

// Contains reports whether the interval [start, end) in minutes-of-day is
// fully covered by the window.
func (w *WorkingHoursWindow) Contains(start, end MinuteOfDay) bool {
	return w.StartMin <= start && end <= w.EndMin
}

// SlotStatus is one enumerated slot of a doctor's day together with its
// occupancy, as shown by read-only availability views.
type SlotStatus struct {
	Start         time.Time `json:"start"`
	Occupied      bool      `json:"occupied"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	PatientID     string    `json:"patient_id,omitempty"`
}
