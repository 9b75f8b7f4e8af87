package entities

// Role is the caller's role as resolved by the external user directory.
type Role string

const (
	RoleAdministrator Role = "Administrator"
	RoleDoctor        Role = "Doctor"
	RolePatient       Role = "Patient"
	RoleNone          Role = "None"
)

// Actor identifies the caller of a permission-gated operation.
type Actor struct {
	Identity string `json:"identity"`
	Role     Role   `json:"role"`
}
