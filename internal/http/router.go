package http

import (
	"net/http"

	"stockmap/backend-go/internal/common"
	"stockmap/backend-go/internal/config"
	"stockmap/backend-go/internal/handlers"
)

func NewRouter(cfg config.Config, logger *common.Logger, api *handlers.API) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", api.Health)
	mux.HandleFunc("GET /api/v1/indices", api.Indices)
	mux.HandleFunc("GET /api/v1/treemap/{indexCode}", api.Treemap)
	mux.HandleFunc("GET /api/v1/stock-change/{symbol}", api.StockChange)
	mux.HandleFunc("GET /api/v1/index-data/{indexCode}", api.IndexDataGet)
	mux.HandleFunc("POST /api/v1/index-data/save", api.IndexDataSave)
	mux.HandleFunc("POST /api/v1/index-data/{indexCode}", api.IndexDataPost)
	mux.HandleFunc("DELETE /api/v1/index-data/{indexCode}", api.IndexDataDelete)

	h := http.Handler(mux)
	h = withRecovery(logger)(h)
	h = withLogging(logger)(h)
	h = withRateLimit(cfg.RateLimitPerMin)(h)
	h = withCORS(h)
	return h
}
