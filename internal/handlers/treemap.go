package handlers

import (
	"net/http"

	"stockmap/backend-go/internal/models"
)

type treemapResponse struct {
	Success bool                `json:"success"`
	Source  string              `json:"source"`
	TsISO   string              `json:"tsISO"`
	Data    *models.TreemapData `json:"data"`
}

// Treemap resolves the dataset for one index through the orchestrator. The
// response is either the full dataset or an error body, never both.
func (a *API) Treemap(w http.ResponseWriter, r *http.Request) {
	indexCode := r.PathValue("indexCode")
	if indexCode == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "missing indexCode"})
		return
	}

	ctx, cancel := timeboxed(r, a.cfg.RequestTimeout)
	defer cancel()

	data, source, err := a.treemap.GetTreemap(ctx, indexCode)
	if err != nil {
		writeUpstreamError(w, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, treemapResponse{
		Success: true,
		Source:  source,
		TsISO:   nowISO(),
		Data:    data,
	})
}

// Indices returns the fixed index catalog the dashboard tabs render.
func (a *API) Indices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tsISO":   nowISO(),
		"indices": models.MarketIndices,
	})
}
