package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// DesignRepositoryPG persists design records in PostgreSQL.
type DesignRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewDesignRepository creates a new design repository backed by PostgreSQL.
func NewDesignRepository(pool *pgxpool.Pool) *DesignRepositoryPG {
	return &DesignRepositoryPG{pool: pool}
}

// Create inserts a new design record, typically in PENDING state.
func (r *DesignRepositoryPG) Create(ctx context.Context, design *domain.Design) error {
	query := `
INSERT INTO designs (id, room_id, prompt, provider, status, image_url, all_image_urls, error_message, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	_, err := r.pool.Exec(ctx, query,
		design.ID,
		design.RoomID,
		design.Prompt,
		design.Provider,
		design.Status,
		design.ImageURL,
		design.AllImageURLs,
		design.ErrorMessage,
		nullableBytes(design.Metadata),
	)
	return err
}

// MarkProcessing moves a design into PROCESSING. It refuses to touch records
// that already reached a terminal state.
func (r *DesignRepositoryPG) MarkProcessing(ctx context.Context, designID string) error {
	query := `
UPDATE designs
SET status = $2, updated_at = NOW()
WHERE id = $1 AND status IN ($3, $4);
`
	tag, err := r.pool.Exec(ctx, query, designID,
		domain.DesignStatusProcessing, domain.DesignStatusPending, domain.DesignStatusProcessing)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Complete records a successful generation: durable image urls, the primary
// image, processing duration and metadata, in one terminal write.
func (r *DesignRepositoryPG) Complete(ctx context.Context, designID string, imageURLs []string, duration time.Duration, meta domain.DesignMetadata) error {
	if len(imageURLs) == 0 {
		return errors.New("repo: completed design requires at least one image")
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	query := `
UPDATE designs
SET status = $2,
    image_url = $3,
    all_image_urls = $4,
    processing_time_ms = $5,
    error_message = '',
    metadata = $6,
    updated_at = NOW()
WHERE id = $1 AND status = $7;
`
	tag, err := r.pool.Exec(ctx, query, designID,
		domain.DesignStatusCompleted, imageURLs[0], imageURLs, duration.Milliseconds(), raw,
		domain.DesignStatusProcessing)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Fail records a terminal failure with a bounded error message.
func (r *DesignRepositoryPG) Fail(ctx context.Context, designID string, errMsg string) error {
	query := `
UPDATE designs
SET status = $2, error_message = $3, updated_at = NOW()
WHERE id = $1 AND status IN ($4, $5);
`
	_, err := r.pool.Exec(ctx, query, designID,
		domain.DesignStatusFailed, domain.TruncateError(errMsg),
		domain.DesignStatusPending, domain.DesignStatusProcessing)
	return err
}

// GetByID fetches a design by its identifier.
func (r *DesignRepositoryPG) GetByID(ctx context.Context, designID string) (*domain.Design, error) {
	query := `
SELECT id, room_id, prompt, provider, status, image_url, all_image_urls, processing_time_ms, error_message, metadata, created_at, updated_at
FROM designs
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, designID)
	return scanDesign(row)
}

// ListByRoom returns the designs for a room, newest first, optionally
// filtered by status.
func (r *DesignRepositoryPG) ListByRoom(ctx context.Context, roomID string, status domain.DesignStatus) ([]domain.Design, error) {
	query := `
SELECT id, room_id, prompt, provider, status, image_url, all_image_urls, processing_time_ms, error_message, metadata, created_at, updated_at
FROM designs
WHERE room_id = $1 AND ($2 = '' OR status = $2)
ORDER BY created_at DESC;
`
	rows, err := r.pool.Query(ctx, query, roomID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var designs []domain.Design
	for rows.Next() {
		design, err := scanDesign(rows)
		if err != nil {
			return nil, err
		}
		designs = append(designs, *design)
	}
	return designs, rows.Err()
}

func scanDesign(row pgx.Row) (*domain.Design, error) {
	var design domain.Design
	var processingMS int64
	if err := row.Scan(
		&design.ID,
		&design.RoomID,
		&design.Prompt,
		&design.Provider,
		&design.Status,
		&design.ImageURL,
		&design.AllImageURLs,
		&processingMS,
		&design.ErrorMessage,
		&design.Metadata,
		&design.CreatedAt,
		&design.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	design.ProcessingTime = time.Duration(processingMS) * time.Millisecond
	return &design, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
