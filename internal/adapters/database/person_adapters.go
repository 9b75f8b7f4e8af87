package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
	"github.com/zatekoja/clinic-scheduling/internal/domain/repositories"
	"github.com/zatekoja/clinic-scheduling/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/clinic-scheduling/pkg/errors"
)

// DoctorAdapter implements the read side of DoctorRepository. Doctor records
// are managed by clinic administration outside this module.
type DoctorAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDoctorAdapter creates a new doctor adapter
func NewDoctorAdapter(client *postgres.Client) repositories.DoctorRepository {
	return &DoctorAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a doctor by id
func (a *DoctorAdapter) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	return a.get(ctx, goqu.Ex{"id": id}, fmt.Sprintf("doctor with id %s not found", id))
}

// GetByUsername retrieves a doctor by login username
func (a *DoctorAdapter) GetByUsername(ctx context.Context, username string) (*entities.Doctor, error) {
	return a.get(ctx, goqu.Ex{"username": username}, fmt.Sprintf("doctor with username %s not found", username))
}

func (a *DoctorAdapter) get(ctx context.Context, where goqu.Ex, notFoundMsg string) (*entities.Doctor, error) {
	query, args, err := a.db.Select("id", "username", "full_name", "specialty_id", "created_at").
		From("doctors").
		Where(where).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to build query", err)
	}

	doctor := &entities.Doctor{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&doctor.ID,
		&doctor.Username,
		&doctor.FullName,
		&doctor.SpecialtyID,
		&doctor.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to get doctor", err)
	}
	return doctor, nil
}

// PatientAdapter implements the read side of PatientRepository.
type PatientAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPatientAdapter creates a new patient adapter
func NewPatientAdapter(client *postgres.Client) repositories.PatientRepository {
	return &PatientAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a patient by id
func (a *PatientAdapter) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	return a.get(ctx, goqu.Ex{"id": id}, fmt.Sprintf("patient with id %s not found", id))
}

// GetByUsername retrieves a patient by login username
func (a *PatientAdapter) GetByUsername(ctx context.Context, username string) (*entities.Patient, error) {
	return a.get(ctx, goqu.Ex{"username": username}, fmt.Sprintf("patient with username %s not found", username))
}

func (a *PatientAdapter) get(ctx context.Context, where goqu.Ex, notFoundMsg string) (*entities.Patient, error) {
	query, args, err := a.db.Select("id", "username", "full_name", "email", "created_at").
		From("patients").
		Where(where).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to build query", err)
	}

	patient := &entities.Patient{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&patient.ID,
		&patient.Username,
		&patient.FullName,
		&patient.Email,
		&patient.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to get patient", err)
	}
	return patient, nil
}
