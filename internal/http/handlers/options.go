package handlers

import (
	"net/http"

	"server/internal/design"
	"server/internal/middleware"
)

// DesignOptions returns every accepted form value, with labels localized
// per the request locale.
func (a *App) DesignOptions(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    design.Options(locale),
	})
}
