package main

import (
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"stockmap/backend-go/internal/common"
	"stockmap/backend-go/internal/config"
	"stockmap/backend-go/internal/handlers"
	internalhttp "stockmap/backend-go/internal/http"
	"stockmap/backend-go/internal/services"
)

func main() {
	_ = godotenv.Load(
		".env",
		".env.local",
		"../.env",
		"../.env.local",
		"backend-go/.env",
		"backend-go/.env.local",
	)
	cfg := config.Load()
	logger := common.NewLogger(cfg.LogLevel)

	files, err := services.NewFileCache(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("file cache init failed")
	}
	cache := services.NewCache(cfg, logger)
	market := services.NewMarketClient(cfg)

	api := handlers.New(cfg, logger, cache, files, market)
	h := internalhttp.NewRouter(cfg, logger, api)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info().Str("addr", srv.Addr).Str("data_dir", files.Dir()).Msg("stockmap backend listening")
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
