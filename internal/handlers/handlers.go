package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"stockmap/backend-go/internal/common"
	"stockmap/backend-go/internal/config"
	"stockmap/backend-go/internal/services"
)

type API struct {
	cfg     config.Config
	logger  *common.Logger
	files   *services.FileCache
	market  *services.MarketClient
	treemap *services.TreemapService
}

func New(cfg config.Config, logger *common.Logger, cache services.Cache, files *services.FileCache, market *services.MarketClient) *API {
	return &API{
		cfg:     cfg,
		logger:  logger,
		files:   files,
		market:  market,
		treemap: services.NewTreemapService(cfg, cache, files, market, logger),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func timeboxed(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
