package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"server/internal/design"
	"server/internal/domain"
	"server/internal/infra"
	"server/internal/providers/vision"
)

// DesignStore is the design repository surface the handlers read and write.
type DesignStore interface {
	Create(ctx context.Context, d *domain.Design) error
	GetByID(ctx context.Context, designID string) (*domain.Design, error)
	ListByRoom(ctx context.Context, roomID string, status domain.DesignStatus) ([]domain.Design, error)
}

// RoomStore is the room repository surface the handlers need.
type RoomStore interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, roomID string) (*domain.Room, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Room, error)
}

// ProjectStore is the project repository surface the handlers need.
type ProjectStore interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, projectID string) (*domain.Project, error)
}

// TaskStarter launches the generation pipeline for a persisted record.
type TaskStarter interface {
	Start(ctx context.Context, task design.Task)
}

type App struct {
	Logger   *infra.Logger
	Designs  DesignStore
	Rooms    RoomStore
	Projects ProjectStore
	Runner   TaskStarter
	Analyzer vision.Analyzer
	Provider string
	// Inline controls whether submissions start the pipeline in-process.
	// When false a separate worker claims pending records from the
	// database.
	Inline     bool
	HTTPClient *http.Client
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]any{
		"error":   kind,
		"message": message,
	})
}

func (a *App) httpClient() *http.Client {
	if a.HTTPClient != nil {
		return a.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}
