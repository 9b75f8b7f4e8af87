package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
	"github.com/zatekoja/clinic-scheduling/internal/domain/providers"
	"github.com/zatekoja/clinic-scheduling/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/clinic-scheduling/pkg/errors"
)

// RoleDirectoryAdapter resolves caller roles from the users table, which is
// maintained by the clinic's user administration.
type RoleDirectoryAdapter struct {
	db *sqlx.DB
}

// NewRoleDirectoryAdapter creates a new role directory adapter
func NewRoleDirectoryAdapter(client *postgres.Client) providers.RoleDirectory {
	return &RoleDirectoryAdapter{
		db: sqlx.NewDb(client.DB(), "postgres"),
	}
}

// RoleOf returns the role of the identity, or RoleNone when the identity is
// unknown
func (a *RoleDirectoryAdapter) RoleOf(ctx context.Context, identity string) (entities.Role, error) {
	var role string
	err := a.db.GetContext(ctx, &role,
		`SELECT role FROM users WHERE username = $1`, identity)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.RoleNone, nil
	}
	if err != nil {
		return entities.RoleNone, apperrors.NewPersistenceError("failed to resolve role", err)
	}

	switch entities.Role(role) {
	case entities.RoleAdministrator, entities.RoleDoctor, entities.RolePatient:
		return entities.Role(role), nil
	default:
		return entities.RoleNone, nil
	}
}
