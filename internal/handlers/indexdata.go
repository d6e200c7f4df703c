package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"stockmap/backend-go/internal/models"
	"stockmap/backend-go/internal/services"
)

// saveRequest is the body of the cache management write surface. Data can be
// either a TreemapData object or a wrapper carrying indexTreemapData, so it
// is kept raw until normalized.
type saveRequest struct {
	Action        string                   `json:"action,omitempty"`
	IndexCode     string                   `json:"indexCode,omitempty"`
	Data          json.RawMessage          `json:"data,omitempty"`
	RawStocksData []models.RawSymbolRecord `json:"rawStocksData,omitempty"`
	RawData       []models.RawSymbolRecord `json:"rawData,omitempty"`
	Timestamp     string                   `json:"timestamp,omitempty"`

	// Present when the whole body is the payload (legacy per-index POST).
	IndexTreemapData *models.TreemapData `json:"indexTreemapData,omitempty"`
}

// IndexDataGet is the raw cache read surface: the stored entry or 404. Cache
// misses, malformed files and expired entries all read as 404 so the client
// falls through to a fresh fetch.
func (a *API) IndexDataGet(w http.ResponseWriter, r *http.Request) {
	indexCode := r.PathValue("indexCode")

	entry, err := a.files.Get(r.Context(), indexCode)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCacheMiss):
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Data file not found", "type": "no_file"})
		case errors.Is(err, services.ErrCacheMalformed):
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "File content is invalid"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Cannot read file", "message": err.Error()})
		}
		return
	}

	if services.IsExpired(entry.CreatedAt, time.Now(), a.cfg.CacheMaxAge) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Cache expired"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"indexTreemapData": entry.Dataset,
		"rawStocksData":    entry.Raw,
		"savedAt":          entry.CreatedAt.UTC().Format(time.RFC3339),
		"status":           "success",
		"message":          "Data loaded from cache file: " + indexCode + ".json",
		"fromCache":        true,
	})
}

// IndexDataSave persists a dataset pushed by the client. The legacy route
// multiplexed deletes through the same endpoint via an action flag.
func (a *API) IndexDataSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid JSON body"})
		return
	}

	if req.Action == "delete" {
		if req.IndexCode == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Missing indexCode for delete action"})
			return
		}
		a.deleteEntry(w, r, req.IndexCode)
		return
	}

	if req.IndexCode == "" || len(req.Data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Missing indexCode or data"})
		return
	}
	a.saveEntry(w, req.IndexCode, req)
}

// IndexDataPost handles the per-index write route: an action=delete body
// deletes, anything else is stored as the payload for that index.
func (a *API) IndexDataPost(w http.ResponseWriter, r *http.Request) {
	indexCode := r.PathValue("indexCode")

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid JSON body"})
		return
	}
	if req.Action == "delete" {
		a.deleteEntry(w, r, indexCode)
		return
	}
	a.saveEntry(w, indexCode, req)
}

func (a *API) IndexDataDelete(w http.ResponseWriter, r *http.Request) {
	a.deleteEntry(w, r, r.PathValue("indexCode"))
}

func (a *API) saveEntry(w http.ResponseWriter, indexCode string, req saveRequest) {
	dataset := normalizeDataset(req)
	if dataset == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid TreemapData structure - missing name or children"})
		return
	}

	raw := req.RawStocksData
	if raw == nil {
		raw = req.RawData
	}
	createdAt := time.Now()
	if req.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, req.Timestamp); err == nil {
			createdAt = ts
		}
	}

	if err := a.files.Put(indexCode, dataset, raw, createdAt); err != nil {
		a.logger.Error().Err(err).Str("index", indexCode).Msg("cache save failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Failed to save cache", "message": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Data saved for " + indexCode,
		"savedAt":  createdAt.UTC().Format(time.RFC3339),
		"filePath": indexCode + ".json",
	})
}

func (a *API) deleteEntry(w http.ResponseWriter, r *http.Request, indexCode string) {
	err := a.files.Delete(indexCode)
	if err != nil {
		if errors.Is(err, services.ErrCacheMiss) {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "File not found", "indexCode": indexCode})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Failed to delete cache file", "message": err.Error(), "indexCode": indexCode})
		return
	}
	a.treemap.Invalidate(r.Context(), indexCode)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Successfully deleted cache file for index: " + indexCode,
		"indexCode": indexCode,
	})
}

// normalizeDataset resolves the two accepted payload shapes to one canonical
// dataset, or nil when neither validates.
func normalizeDataset(req saveRequest) *models.TreemapData {
	if len(req.Data) > 0 {
		var wrapper struct {
			IndexTreemapData *models.TreemapData `json:"indexTreemapData"`
		}
		if err := json.Unmarshal(req.Data, &wrapper); err == nil && wrapper.IndexTreemapData.Valid() {
			return wrapper.IndexTreemapData
		}
		var direct models.TreemapData
		if err := json.Unmarshal(req.Data, &direct); err == nil && direct.Valid() {
			return &direct
		}
		return nil
	}
	if req.IndexTreemapData.Valid() {
		return req.IndexTreemapData
	}
	return nil
}
