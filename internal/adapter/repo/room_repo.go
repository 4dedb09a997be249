package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// RoomRepositoryPG persists rooms in PostgreSQL.
type RoomRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewRoomRepository creates a new room repository backed by PostgreSQL.
func NewRoomRepository(pool *pgxpool.Pool) *RoomRepositoryPG {
	return &RoomRepositoryPG{pool: pool}
}

// Create inserts a new room record.
func (r *RoomRepositoryPG) Create(ctx context.Context, room *domain.Room) error {
	query := `
INSERT INTO rooms (id, project_id, name, type, original_image_url)
VALUES ($1, $2, $3, $4, $5);
`
	_, err := r.pool.Exec(ctx, query,
		room.ID,
		room.ProjectID,
		room.Name,
		room.Type,
		room.OriginalImageURL,
	)
	return err
}

// GetByID fetches a room by its identifier.
func (r *RoomRepositoryPG) GetByID(ctx context.Context, roomID string) (*domain.Room, error) {
	query := `
SELECT id, project_id, name, type, original_image_url, created_at, updated_at
FROM rooms
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, roomID)
	var room domain.Room
	if err := row.Scan(
		&room.ID,
		&room.ProjectID,
		&room.Name,
		&room.Type,
		&room.OriginalImageURL,
		&room.CreatedAt,
		&room.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

// ListByProject returns all rooms in a project, newest first.
func (r *RoomRepositoryPG) ListByProject(ctx context.Context, projectID string) ([]domain.Room, error) {
	query := `
SELECT id, project_id, name, type, original_image_url, created_at, updated_at
FROM rooms
WHERE project_id = $1
ORDER BY created_at DESC;
`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(
			&room.ID,
			&room.ProjectID,
			&room.Name,
			&room.Type,
			&room.OriginalImageURL,
			&room.CreatedAt,
			&room.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}
