package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"stockmap/backend-go/internal/models"
)

// fakeBackend mimics the market-data service: a constituents endpoint per
// board and a per-symbol change endpoint.
func fakeBackend(t *testing.T, constituentsCalls *atomic.Int32, fail bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/treemap/{board}", func(w http.ResponseWriter, r *http.Request) {
		constituentsCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if fail {
			_ = json.NewEncoder(w).Encode(models.ConstituentsResponse{Success: false, Message: "boom"})
			return
		}
		_ = json.NewEncoder(w).Encode(models.ConstituentsResponse{
			Success: true,
			Data: []models.RawSymbolRecord{
				{Symbol: "VCB", MarketCap: 480000, Difference: 1},
				{Symbol: "VIC", MarketCap: 210000, Difference: -1},
			},
		})
	})
	mux.HandleFunc("GET /api/v1/treemap-color/stock-change/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.SymbolChange{
			Symbol:           r.PathValue("symbol"),
			Difference:       1.5,
			PercentageChange: 2.1,
			Status:           "ok",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doTreemap(api *API, indexCode string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/treemap/"+indexCode, nil)
	r.SetPathValue("indexCode", indexCode)
	rec := httptest.NewRecorder()
	api.Treemap(rec, r)
	return rec
}

func TestTreemapHandlerResolvesAndCaches(t *testing.T) {
	var calls atomic.Int32
	backend := fakeBackend(t, &calls, false)
	api := newTestAPI(t, backend.URL)

	rec := doTreemap(api, "VNINDEX")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var first treemapResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if !first.Success || first.Source != "api" {
		t.Fatalf("expected api-sourced success, got %+v", first)
	}
	if len(first.Data.Children) != 1 || len(first.Data.Children[0].Children) != 2 {
		t.Fatalf("unexpected dataset shape: %+v", first.Data)
	}
	for _, leaf := range first.Data.Children[0].Children {
		if leaf.Value <= 0 {
			t.Fatalf("leaf %s has non-positive sizing value %f", leaf.Name, leaf.Value)
		}
	}

	rec = doTreemap(api, "VNINDEX")
	var second treemapResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if second.Source != "memory" {
		t.Fatalf("expected memory-sourced second hit, got %s", second.Source)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single constituents fetch, got %d", calls.Load())
	}
}

func TestTreemapHandlerUpstreamRejection(t *testing.T) {
	var calls atomic.Int32
	backend := fakeBackend(t, &calls, true)
	api := newTestAPI(t, backend.URL)

	rec := doTreemap(api, "VNINDEX")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "boom") {
		t.Fatalf("expected upstream message in error, got %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), `"data"`) {
		t.Fatalf("error response must not carry data: %s", rec.Body.String())
	}
}

func TestStockChangeProxy(t *testing.T) {
	var calls atomic.Int32
	backend := fakeBackend(t, &calls, false)
	api := newTestAPI(t, backend.URL)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/stock-change/VCB", nil)
	r.SetPathValue("symbol", "VCB")
	rec := httptest.NewRecorder()
	api.StockChange(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var change models.SymbolChange
	if err := json.Unmarshal(rec.Body.Bytes(), &change); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if change.Symbol != "VCB" || change.PercentageChange != 2.1 {
		t.Fatalf("unexpected change payload: %+v", change)
	}
}

func TestIndicesCatalog(t *testing.T) {
	api := newTestAPI(t, "http://127.0.0.1:0")
	r := httptest.NewRequest(http.MethodGet, "/api/v1/indices", nil)
	rec := httptest.NewRecorder()
	api.Indices(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Indices []models.IndexInfo `json:"indices"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(body.Indices) != 5 {
		t.Fatalf("expected 5 indices, got %d", len(body.Indices))
	}
	if body.Indices[0].ID != "VNINDEX" || body.Indices[0].Board != "HOSE" {
		t.Fatalf("unexpected first index: %+v", body.Indices[0])
	}
}
