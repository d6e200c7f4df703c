package handlers

import "net/http"

// StockChange proxies the per-symbol change lookup to the market-data
// backend, avoiding CORS on the browser side.
func (a *API) StockChange(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if symbol == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "missing symbol"})
		return
	}

	ctx, cancel := timeboxed(r, a.cfg.RequestTimeout)
	defer cancel()

	change, err := a.market.FetchSymbolChange(ctx, symbol)
	if err != nil {
		writeUpstreamError(w, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, change)
}
