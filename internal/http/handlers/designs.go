package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"server/internal/design"
	"server/internal/domain"
	"server/internal/providers/homedesign"
	"server/pkg/zip"
)

const maxCustomInstruction = 500

type generateRequest struct {
	RoomID            string `json:"room_id"`
	ImageURL          string `json:"image_url"`
	ImageBase64       string `json:"image_base64"`
	DesignType        string `json:"design_type"`
	DesignStyle       string `json:"design_style"`
	RoomType          string `json:"room_type"`
	HouseAngle        string `json:"house_angle"`
	GardenType        string `json:"garden_type"`
	AIIntervention    string `json:"ai_intervention"`
	NoDesign          int    `json:"no_design"`
	CustomInstruction string `json:"custom_instruction"`
	KeepStructure     *bool  `json:"keep_structure"`
}

type designResponse struct {
	ID             string          `json:"id"`
	RoomID         string          `json:"room_id,omitempty"`
	Prompt         string          `json:"prompt"`
	Provider       string          `json:"provider"`
	Status         string          `json:"status"`
	ImageURL       string          `json:"image_url,omitempty"`
	AllImageURLs   []string        `json:"all_image_urls,omitempty"`
	ProcessingTime int64           `json:"processing_time_ms,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func toDesignResponse(d *domain.Design) designResponse {
	return designResponse{
		ID:             d.ID,
		RoomID:         d.RoomID,
		Prompt:         d.Prompt,
		Provider:       d.Provider,
		Status:         string(d.Status),
		ImageURL:       d.ImageURL,
		AllImageURLs:   d.AllImageURLs,
		ProcessingTime: d.ProcessingTime.Milliseconds(),
		ErrorMessage:   d.ErrorMessage,
		Metadata:       d.Metadata,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// GenerateDesign validates the submission, persists a PENDING record and
// returns immediately. The pipeline runs out of band: in-process when the
// inline runner is enabled, otherwise through the worker claim loop.
func (a *App) GenerateDesign(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	designType := design.DesignType(req.DesignType)
	if designType == "" {
		designType = design.DesignTypeInterior
	}
	if req.DesignStyle == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "design_style is required")
		return
	}
	if !design.ValidStyle(designType, req.DesignStyle) {
		a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown design style %q", req.DesignStyle))
		return
	}
	if len(req.CustomInstruction) > maxCustomInstruction {
		a.error(w, http.StatusBadRequest, "bad_request", "custom_instruction too long")
		return
	}
	// Decode failures must surface here, before any record exists.
	if req.ImageBase64 != "" {
		if _, err := homedesign.DecodeImagePayload(req.ImageBase64); err != nil {
			switch {
			case errors.Is(err, homedesign.ErrImageTooLarge):
				a.error(w, http.StatusBadRequest, "bad_request", "image exceeds the size limit")
			default:
				a.error(w, http.StatusBadRequest, "bad_request", "image_base64 is not valid base64")
			}
			return
		}
	}

	image := design.ImageInput{URL: req.ImageURL, Base64: req.ImageBase64}
	roomType := req.RoomType
	if req.RoomID != "" {
		room, err := a.Rooms.GetByID(r.Context(), req.RoomID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				a.error(w, http.StatusNotFound, "not_found", "room not found")
				return
			}
			a.error(w, http.StatusInternalServerError, "internal", "failed to load room")
			return
		}
		if image.IsZero() {
			image = design.ImageInput{URL: room.OriginalImageURL}
		}
		if roomType == "" {
			roomType = room.Type.ProviderLabel()
		}
	}
	if image.IsZero() {
		a.error(w, http.StatusBadRequest, "bad_request", domain.ErrMissingImage.Error())
		return
	}

	intervention := design.Intervention(req.AIIntervention)
	if intervention == "" {
		intervention = design.InterventionExtreme
	}
	noDesign := req.NoDesign
	if noDesign <= 0 {
		noDesign = 1
	}
	keepStructure := true
	if req.KeepStructure != nil {
		keepStructure = *req.KeepStructure
	}

	genReq := design.Request{
		Image:             image,
		DesignType:        designType,
		DesignStyle:       req.DesignStyle,
		RoomType:          roomType,
		HouseAngle:        req.HouseAngle,
		GardenType:        req.GardenType,
		Intervention:      intervention,
		NoDesign:          noDesign,
		CustomInstruction: req.CustomInstruction,
		KeepStructure:     keepStructure,
	}
	// The full request rides along as metadata so a worker process can
	// reconstruct the task from the record alone.
	spec, err := json.Marshal(design.SpecFromRequest(genReq))
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to encode request")
		return
	}

	record := &domain.Design{
		ID:       uuid.NewString(),
		RoomID:   req.RoomID,
		Prompt:   buildRecordPrompt(req.DesignStyle, roomType, req.CustomInstruction),
		Provider: a.Provider,
		Status:   domain.DesignStatusPending,
		Metadata: spec,
	}
	if err := a.Designs.Create(r.Context(), record); err != nil {
		a.Logger.Error().Err(err).Msg("designs: create record failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create design")
		return
	}

	task := design.Task{
		DesignID: record.ID,
		Style:    req.DesignStyle,
		RoomType: roomType,
		Request:  genReq,
	}
	if a.Inline && a.Runner != nil {
		a.Runner.Start(context.WithoutCancel(r.Context()), task)
	}

	a.json(w, http.StatusAccepted, map[string]any{
		"id":     record.ID,
		"status": string(domain.DesignStatusPending),
	})
}

func (a *App) GetDesign(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "id")
	record, err := a.Designs.GetByID(r.Context(), designID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "design not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load design")
		return
	}
	a.json(w, http.StatusOK, toDesignResponse(record))
}

func (a *App) ListRoomDesigns(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	status := domain.DesignStatus(strings.ToUpper(r.URL.Query().Get("status")))
	records, err := a.Designs.ListByRoom(r.Context(), roomID, status)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to list designs")
		return
	}
	out := make([]designResponse, 0, len(records))
	for i := range records {
		out = append(out, toDesignResponse(&records[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"designs": out})
}

// DownloadDesign bundles a completed design's images into a zip archive.
func (a *App) DownloadDesign(w http.ResponseWriter, r *http.Request) {
	designID := chi.URLParam(r, "id")
	record, err := a.Designs.GetByID(r.Context(), designID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "design not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load design")
		return
	}
	if record.Status != domain.DesignStatusCompleted || len(record.AllImageURLs) == 0 {
		a.error(w, http.StatusConflict, "not_ready", "design has no completed images")
		return
	}

	assets := make([]zip.Asset, 0, len(record.AllImageURLs))
	for i, url := range record.AllImageURLs {
		data, err := a.fetchImage(r.Context(), url)
		if err != nil {
			a.Logger.Warn().Err(err).Str("design_id", designID).Str("url", url).Msg("designs: bundle image fetch failed")
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: fmt.Sprintf("design-%d.png", i+1),
			MIME:     "image/png",
			Data:     data,
		})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusBadGateway, "upstream", "could not fetch any design image")
		return
	}

	archive := zip.ArchiveAssets(assets)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=design-%s.zip", designID))
	_, _ = w.Write(archive)
}

func (a *App) fetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 25*1024*1024))
}

func buildRecordPrompt(style, roomType, instruction string) string {
	parts := []string{style}
	if roomType != "" {
		parts = append(parts, roomType)
	}
	if instruction != "" {
		parts = append(parts, instruction)
	}
	return strings.Join(parts, " - ")
}
