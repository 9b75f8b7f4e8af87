package postgres

import (
	"context"
	"fmt"
)

// schemaStatements creates the scheduling tables. The unique indexes on
// (doctor_id, start_at), (patient_id, start_at) and (room_id, start_at) are
// load-bearing: with fixed-length slots they make the database the final
// arbiter of double bookings even when two writers race past the in-
// transaction conflict checks.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS doctors (
		id          TEXT PRIMARY KEY,
		username    TEXT NOT NULL UNIQUE,
		full_name   TEXT NOT NULL,
		specialty_id TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS patients (
		id         TEXT PRIMARY KEY,
		username   TEXT NOT NULL UNIQUE,
		full_name  TEXT NOT NULL,
		email      TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id          TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		role     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS working_hours (
		id        TEXT PRIMARY KEY,
		doctor_id TEXT NOT NULL REFERENCES doctors(id) ON DELETE CASCADE,
		weekday   SMALLINT NOT NULL CHECK (weekday BETWEEN 1 AND 7),
		start_min SMALLINT NOT NULL,
		end_min   SMALLINT NOT NULL,
		CHECK (start_min < end_min)
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id         TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		doctor_id  TEXT NOT NULL REFERENCES doctors(id) ON DELETE CASCADE,
		room_id    TEXT NOT NULL REFERENCES rooms(id),
		start_at   TIMESTAMPTZ NOT NULL,
		reason     TEXT NOT NULL DEFAULT '',
		attendance TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS appointments_doctor_slot ON appointments (doctor_id, start_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS appointments_patient_slot ON appointments (patient_id, start_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS appointments_room_slot ON appointments (room_id, start_at)`,
	`CREATE TABLE IF NOT EXISTS reminder_receipts (
		appointment_id TEXT PRIMARY KEY,
		sent_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates all scheduling tables and indexes if they do not
// exist yet.
func (c *Client) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
