package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/zatekoja/clinic-scheduling/internal/domain/repositories"
	"github.com/zatekoja/clinic-scheduling/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/clinic-scheduling/pkg/errors"
)

// ReminderLedgerAdapter implements the ReminderLedger interface over the
// reminder_receipts table. The primary key on appointment_id makes MarkSent
// naturally idempotent.
type ReminderLedgerAdapter struct {
	db *sqlx.DB
}

// NewReminderLedgerAdapter creates a new reminder ledger adapter
func NewReminderLedgerAdapter(client *postgres.Client) repositories.ReminderLedger {
	return &ReminderLedgerAdapter{
		db: sqlx.NewDb(client.DB(), "postgres"),
	}
}

// AlreadySent reports whether a reminder went out for the appointment
func (a *ReminderLedgerAdapter) AlreadySent(ctx context.Context, appointmentID string) (bool, error) {
	var one int
	err := a.db.GetContext(ctx, &one,
		`SELECT 1 FROM reminder_receipts WHERE appointment_id = $1`, appointmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewPersistenceError("failed to check reminder receipt", err)
	}
	return true, nil
}

// MarkSent records that the reminder for the appointment has been sent
func (a *ReminderLedgerAdapter) MarkSent(ctx context.Context, appointmentID string) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO reminder_receipts (appointment_id) VALUES ($1)
		 ON CONFLICT (appointment_id) DO NOTHING`, appointmentID)
	if err != nil {
		return apperrors.NewPersistenceError("failed to record reminder receipt", err)
	}
	return nil
}
