package providers

import (
	"context"

	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
)

// Notifier defines the interface for the outbound message transport. Delivery
// is best effort: callers log failures and never roll back scheduling work
// because of them.
type Notifier interface {
	// Send delivers one message of the given kind about the appointment in
	// the snapshot.
	Send(ctx context.Context, kind entities.NotificationKind, snapshot *entities.AppointmentSnapshot) error
}

// RoleDirectory resolves the role of a caller identity. Authentication and
// user management live outside this module.
type RoleDirectory interface {
	// RoleOf returns the role of the identity, or RoleNone when the identity
	// is unknown.
	RoleOf(ctx context.Context, identity string) (entities.Role, error)
}
