package entities

import "time"

// Doctor is the slice of the doctor record the scheduling engine needs.
// Doctor administration lives outside this module.
type Doctor struct {
	ID          string    `json:"id" db:"id"`
	Username    string    `json:"username" db:"username"`
	FullName    string    `json:"full_name" db:"full_name"`
	SpecialtyID string    `json:"specialty_id" db:"specialty_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Patient is the slice of the patient record the scheduling engine needs.
type Patient struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	FullName  string    `json:"full_name" db:"full_name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Room is a physical consultation space assignable to at most one
// appointment per slot.
type Room struct {
	ID          string `json:"id" db:"id"`
	Description string `json:"description" db:"description"`
}
