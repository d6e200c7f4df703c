package models

import "time"

// RawSymbolRecord is one index constituent as returned by the market-data
// backend. Immutable once fetched.
type RawSymbolRecord struct {
	Symbol     string  `json:"symbol"`
	TotalValue float64 `json:"total_value"`
	MarketCap  float64 `json:"market_cap"`
	Difference float64 `json:"difference"`
}

// ConstituentsResponse is the envelope of GET /api/v1/treemap/{board}.
type ConstituentsResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    []RawSymbolRecord `json:"data"`
}

// SymbolChange is the per-symbol enrichment lookup result.
type SymbolChange struct {
	Symbol           string  `json:"symbol"`
	Difference       float64 `json:"difference"`
	PercentageChange float64 `json:"percentage_change"`
	Status           string  `json:"status"`
}

// StockLeaf is one cell of the rendered treemap. Value sizes the cell and is
// always strictly positive; DisplayValue carries the market cap shown inside
// the cell.
type StockLeaf struct {
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	DisplayValue float64 `json:"displayValue"`
	Change       float64 `json:"change"`
	Color        string  `json:"color"`
}

type StockGroup struct {
	Name     string      `json:"name"`
	Color    string      `json:"color"`
	Children []StockLeaf `json:"children"`
}

type TreemapData struct {
	Name     string       `json:"name"`
	Children []StockGroup `json:"children"`
}

// Valid reports whether the dataset has the hierarchical shape the renderer
// requires. A stored payload failing this check is treated as malformed.
func (t *TreemapData) Valid() bool {
	return t != nil && t.Name != "" && t.Children != nil
}

// CacheMetadata is the canonical metadata block written alongside a dataset.
type CacheMetadata struct {
	IndexCode  string `json:"indexCode"`
	StockCount int    `json:"stockCount"`
	Source     string `json:"source"`
}

// LegacyCacheMeta is the oldest on-disk metadata shape; only its timestamp is
// still read.
type LegacyCacheMeta struct {
	LastUpdated string `json:"lastUpdated"`
	IndexCode   string `json:"indexCode"`
}

// CacheFile is the on-disk layout of one cached index dataset. Three
// historical creation-time fields coexist in old files; CreatedAt resolves
// them. New files are written with SavedAt and Metadata only.
type CacheFile struct {
	IndexTreemapData *TreemapData      `json:"indexTreemapData"`
	RawStocksData    []RawSymbolRecord `json:"rawStocksData,omitempty"`
	Metadata         *CacheMetadata    `json:"metadata,omitempty"`
	CacheMeta        *LegacyCacheMeta  `json:"cacheMeta,omitempty"`
	SavedAt          string            `json:"savedAt,omitempty"`
	Timestamp        string            `json:"timestamp,omitempty"`
}

// CreatedAt resolves the entry creation time, checking the legacy shapes in
// priority order: cacheMeta.lastUpdated, then savedAt, then timestamp.
func (f *CacheFile) CreatedAt() (time.Time, bool) {
	candidates := []string{}
	if f.CacheMeta != nil {
		candidates = append(candidates, f.CacheMeta.LastUpdated)
	}
	candidates = append(candidates, f.SavedAt, f.Timestamp)
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339, c); err == nil {
			return ts, true
		}
		if ts, err := time.Parse(time.RFC3339Nano, c); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// CacheEntry is the normalized in-memory form of a stored dataset.
type CacheEntry struct {
	IndexCode string
	Dataset   *TreemapData
	Raw       []RawSymbolRecord
	CreatedAt time.Time
}

// IndexInfo describes one selectable market index and the backend board code
// it maps to.
type IndexInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Board string `json:"board"`
}

// MarketIndices is the fixed set of indices the dashboard offers.
var MarketIndices = []IndexInfo{
	{ID: "VNINDEX", Name: "VN-Index", Board: "HOSE"},
	{ID: "HNX", Name: "HNX", Board: "HNX"},
	{ID: "UPCOM", Name: "UPCOM", Board: "UPCOM"},
	{ID: "VN30", Name: "VN30", Board: "VN30"},
	{ID: "HNX30", Name: "HNX30", Board: "HNX30"},
}

// BoardFor translates an index code to its backend board code. Unrecognized
// codes fall back to the HOSE board.
func BoardFor(indexCode string) string {
	for _, idx := range MarketIndices {
		if idx.ID == indexCode {
			return idx.Board
		}
	}
	return "HOSE"
}

// IndexDisplayName returns the human name for an index code, or the code
// itself when unknown.
func IndexDisplayName(indexCode string) string {
	for _, idx := range MarketIndices {
		if idx.ID == indexCode {
			return idx.Name
		}
	}
	return indexCode
}

type DepStatus struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type HealthResponse struct {
	Ok         bool                 `json:"ok"`
	TsISO      string               `json:"tsISO"`
	Service    string               `json:"service"`
	Version    string               `json:"version,omitempty"`
	Deps       []string             `json:"deps"`
	DepsStatus map[string]DepStatus `json:"deps_status"`
	Env        map[string]bool      `json:"env"`
}
