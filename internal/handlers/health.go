package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"stockmap/backend-go/internal/models"
)

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := []string{}
	depsStatus := map[string]models.DepStatus{}
	if err := a.market.Health(ctx); err != nil {
		depsStatus["market_data"] = models.DepStatus{Ok: false, Error: err.Error()}
	} else {
		deps = append(deps, "market_data")
		depsStatus["market_data"] = models.DepStatus{Ok: true}
	}

	if _, err := os.Stat(a.files.Dir()); err != nil {
		depsStatus["data_dir"] = models.DepStatus{Ok: false, Error: err.Error()}
	} else {
		deps = append(deps, "data_dir")
		depsStatus["data_dir"] = models.DepStatus{Ok: true}
	}

	resp := models.HealthResponse{
		Ok:         len(deps) == len(depsStatus),
		TsISO:      nowISO(),
		Service:    "backend-go",
		Version:    os.Getenv("SERVICE_VERSION"),
		Deps:       deps,
		DepsStatus: depsStatus,
		Env: map[string]bool{
			"MARKET_BASE_URL": os.Getenv("MARKET_BASE_URL") != "",
			"REDIS_URL":       os.Getenv("REDIS_URL") != "",
			"DATA_DIR":        os.Getenv("DATA_DIR") != "",
		},
	}
	writeJSON(w, http.StatusOK, resp)
}
