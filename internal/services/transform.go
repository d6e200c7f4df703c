package services

import (
	"context"
	"math"
	"sort"
	"sync"

	"stockmap/backend-go/internal/models"
)

// Treemap cell colors follow the local market convention: green up, red
// down, gray unchanged.
const (
	ColorUp      = "#22C55E"
	ColorDown    = "#EF4444"
	ColorNeutral = "#B8C2CC"
	groupColor   = "#4f46e5"

	// sizingEpsilon keeps every cell strictly positive so flat symbols still
	// render; sizingScale spreads the percentage range for the layout.
	sizingEpsilon = 0.01
	sizingScale   = 10.0
)

// SymbolChangeFetcher is the slice of MarketClient the transformer needs.
type SymbolChangeFetcher interface {
	FetchSymbolChange(ctx context.Context, symbol string) (models.SymbolChange, error)
}

// enrichment is the per-symbol outcome of the fan-out: either a fetched
// change or the error that made the symbol fall back to its raw difference.
type enrichment struct {
	change models.SymbolChange
	err    error
}

// Transform turns raw constituent records into the hierarchical dataset the
// treemap renders: top-N by market cap, enriched per symbol, one group under
// a root named for the index. Every record surviving the cutoff appears
// exactly once in the output; individual enrichment failures never fail the
// whole transform.
func Transform(ctx context.Context, fetcher SymbolChangeFetcher, records []models.RawSymbolRecord, indexCode string, topN int) *models.TreemapData {
	if topN <= 0 {
		topN = 35
	}
	selected := make([]models.RawSymbolRecord, len(records))
	copy(selected, records)
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].MarketCap > selected[j].MarketCap
	})
	if len(selected) > topN {
		selected = selected[:topN]
	}

	results := make([]enrichment, len(selected))
	var wg sync.WaitGroup
	for i, rec := range selected {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			change, err := fetcher.FetchSymbolChange(ctx, symbol)
			results[i] = enrichment{change: change, err: err}
		}(i, rec.Symbol)
	}
	wg.Wait()

	leaves := make([]models.StockLeaf, 0, len(selected))
	for i, rec := range selected {
		difference := rec.Difference
		percentage := 0.0
		if results[i].err == nil {
			difference = results[i].change.Difference
			percentage = results[i].change.PercentageChange
		}
		leaves = append(leaves, models.StockLeaf{
			Name:         rec.Symbol,
			Value:        sizingValue(percentage),
			DisplayValue: rec.MarketCap,
			Change:       percentage,
			Color:        classifyColor(difference),
		})
	}

	name := models.IndexDisplayName(indexCode)
	return &models.TreemapData{
		Name: "Thị trường " + name,
		Children: []models.StockGroup{
			{
				Name:     name,
				Color:    groupColor,
				Children: leaves,
			},
		},
	}
}

func sizingValue(percentageChange float64) float64 {
	return (math.Abs(percentageChange) + sizingEpsilon) * sizingScale
}

func classifyColor(difference float64) string {
	switch {
	case difference < 0:
		return ColorDown
	case difference > 0:
		return ColorUp
	default:
		return ColorNeutral
	}
}
