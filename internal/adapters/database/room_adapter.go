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

// RoomAdapter implements the RoomRepository interface
type RoomAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRoomAdapter creates a new room adapter
func NewRoomAdapter(client *postgres.Client) repositories.RoomRepository {
	return &RoomAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new room
func (a *RoomAdapter) Create(ctx context.Context, room *entities.Room) error {
	query, args, err := a.db.Insert("rooms").Rows(goqu.Record{
		"id":          room.ID,
		"description": room.Description,
	}).ToSQL()
	if err != nil {
		return apperrors.NewPersistenceError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewPersistenceError("failed to create room", err)
	}
	return nil
}

// GetByID retrieves a room by id
func (a *RoomAdapter) GetByID(ctx context.Context, id string) (*entities.Room, error) {
	query, args, err := a.db.Select("id", "description").
		From("rooms").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to build query", err)
	}

	room := &entities.Room{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&room.ID, &room.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("room with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to get room", err)
	}
	return room, nil
}

// List retrieves all rooms
func (a *RoomAdapter) List(ctx context.Context) ([]*entities.Room, error) {
	query, args, err := a.db.Select("id", "description").
		From("rooms").
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to list rooms", err)
	}
	defer rows.Close()

	var rooms []*entities.Room
	for rows.Next() {
		room := &entities.Room{}
		if err := rows.Scan(&room.ID, &room.Description); err != nil {
			return nil, apperrors.NewPersistenceError("failed to scan room", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("failed to iterate rooms", err)
	}
	return rooms, nil
}

// Delete removes a room by id
func (a *RoomAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("rooms").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewPersistenceError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewPersistenceError("failed to delete room", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewPersistenceError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("room with id %s not found", id))
	}
	return nil
}
