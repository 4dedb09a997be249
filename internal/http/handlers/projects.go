package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"server/internal/domain"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	UserID      string `json:"user_id"`
}

func (a *App) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}
	project := &domain.Project{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if err := a.Projects.Create(r.Context(), project); err != nil {
		a.Logger.Error().Err(err).Msg("projects: create failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create project")
		return
	}
	a.json(w, http.StatusCreated, project)
}

func (a *App) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := a.Projects.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "project not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load project")
		return
	}
	a.json(w, http.StatusOK, project)
}

type createRoomRequest struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	OriginalImageURL string `json:"original_image_url"`
}

func (a *App) CreateRoom(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if _, err := a.Projects.GetByID(r.Context(), projectID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "project not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load project")
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}
	room := &domain.Room{
		ID:               uuid.NewString(),
		ProjectID:        projectID,
		Name:             strings.TrimSpace(req.Name),
		Type:             domain.RoomType(strings.ToUpper(req.Type)),
		OriginalImageURL: req.OriginalImageURL,
	}
	if err := a.Rooms.Create(r.Context(), room); err != nil {
		a.Logger.Error().Err(err).Msg("rooms: create failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create room")
		return
	}
	a.json(w, http.StatusCreated, room)
}

func (a *App) ListProjectRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := a.Rooms.ListByProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to list rooms")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (a *App) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := a.Rooms.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "room not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load room")
		return
	}
	a.json(w, http.StatusOK, room)
}
