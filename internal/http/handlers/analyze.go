package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

type analyzeRequest struct {
	ImageURL    string `json:"image_url"`
	ImageBase64 string `json:"image_base64"`
}

// AnalyzeRoom describes a room photo with the vision model. Analysis is
// advisory and always answers, falling back to a static description when
// the model is unavailable.
func (a *App) AnalyzeRoom(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	imageURL := strings.TrimSpace(req.ImageURL)
	if imageURL == "" && req.ImageBase64 != "" {
		payload := req.ImageBase64
		if !strings.HasPrefix(payload, "data:") {
			payload = "data:image/png;base64," + payload
		}
		imageURL = payload
	}
	if imageURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "image_url or image_base64 is required")
		return
	}

	analysis, err := a.Analyzer.Analyze(r.Context(), imageURL)
	if err != nil {
		a.Logger.Error().Err(err).Msg("analyze: vision analysis failed")
		a.error(w, http.StatusBadGateway, "upstream", "room analysis failed")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    analysis,
	})
}
