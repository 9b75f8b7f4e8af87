package entities

import (
	"time"
)

// SlotDuration is the fixed length of every appointment.
const SlotDuration = 30 * time.Minute

// AttendanceStatus represents the attendance outcome of an appointment
type AttendanceStatus string

const (
	// AttendancePending is the initial state of every appointment.
	AttendancePending AttendanceStatus = "pending"
	// AttendanceAttended is terminal: the patient showed up.
	AttendanceAttended AttendanceStatus = "attended"
	// AttendanceNoShow is terminal: the patient did not show up.
	AttendanceNoShow AttendanceStatus = "no_show"
)

// Appointment represents a booked 30-minute consultation slot
type Appointment struct {
	ID         string           `json:"id" db:"id"`
	PatientID  string           `json:"patient_id" db:"patient_id"`
	DoctorID   string           `json:"doctor_id" db:"doctor_id"`
	RoomID     string           `json:"room_id" db:"room_id"`
	StartAt    time.Time        `json:"start_at" db:"start_at"`
	Reason     string           `json:"reason" db:"reason"`
	Attendance AttendanceStatus `json:"attendance" db:"attendance"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at" db:"updated_at"`
}

// EndAt returns the exclusive end of the appointment's interval.
func (a *Appointment) EndAt() time.Time {
	return a.StartAt.Add(SlotDuration)
}

// Overlaps reports whether two slot-start times produce conflicting
// half-open intervals [s1, s1+30m) and [s2, s2+30m).
func Overlaps(s1, s2 time.Time) bool {
	return s1.Before(s2.Add(SlotDuration)) && s1.Add(SlotDuration).After(s2)
}

// AppointmentSnapshot carries an appointment together with the display
// details needed to notify its parties. Cancellation events must capture the
// snapshot before the row is deleted.
type AppointmentSnapshot struct {
	Appointment     Appointment `json:"appointment"`
	PatientName     string      `json:"patient_name"`
	PatientEmail    string      `json:"patient_email"`
	DoctorName      string      `json:"doctor_name"`
	RoomDescription string      `json:"room_description"`
}
