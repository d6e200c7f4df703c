package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"stockmap/backend-go/internal/common"
	"stockmap/backend-go/internal/config"
	"stockmap/backend-go/internal/models"
)

// MarketAPI is the upstream surface the orchestrator depends on.
type MarketAPI interface {
	FetchConstituents(ctx context.Context, indexCode string) ([]models.RawSymbolRecord, error)
	FetchSymbolChange(ctx context.Context, symbol string) (models.SymbolChange, error)
}

// TreemapService resolves a treemap dataset for an index code through the
// layered chain: hot cache, file cache (freshness-checked), then remote
// fetch + transform + persist. At most one fetch cycle runs per key; callers
// arriving during a fetch share its result.
type TreemapService struct {
	cfg    config.Config
	hot    Cache
	files  *FileCache
	market MarketAPI
	logger *common.Logger

	mu       sync.Mutex
	inflight map[string]*inflightFetch
}

type inflightFetch struct {
	done chan struct{}
	data *models.TreemapData
	err  error
}

func NewTreemapService(cfg config.Config, hot Cache, files *FileCache, market MarketAPI, logger *common.Logger) *TreemapService {
	return &TreemapService{
		cfg:      cfg,
		hot:      hot,
		files:    files,
		market:   market,
		logger:   logger,
		inflight: make(map[string]*inflightFetch),
	}
}

// GetTreemap returns the dataset for indexCode and the tier that produced it
// ("memory", "file", "api", or "shared" when joined onto an in-flight fetch).
func (s *TreemapService) GetTreemap(ctx context.Context, indexCode string) (*models.TreemapData, string, error) {
	if data, ok := s.fromHot(ctx, indexCode); ok {
		return data, "memory", nil
	}
	if data, ok := s.fromFile(ctx, indexCode); ok {
		return data, "file", nil
	}

	s.mu.Lock()
	if f, ok := s.inflight[indexCode]; ok {
		s.mu.Unlock()
		select {
		case <-f.done:
			if f.err != nil {
				return nil, "", f.err
			}
			return f.data, "shared", nil
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}
	f := &inflightFetch{done: make(chan struct{})}
	s.inflight[indexCode] = f
	s.mu.Unlock()

	data, err := s.refresh(ctx, indexCode)
	f.data, f.err = data, err
	close(f.done)

	s.mu.Lock()
	delete(s.inflight, indexCode)
	s.mu.Unlock()

	if err != nil {
		return nil, "", err
	}
	return data, "api", nil
}

// Invalidate drops both cache tiers for a key. Used by the cache management
// surface after an explicit delete.
func (s *TreemapService) Invalidate(ctx context.Context, indexCode string) {
	s.hot.Delete(ctx, hotKey(indexCode))
}

func (s *TreemapService) refresh(ctx context.Context, indexCode string) (*models.TreemapData, error) {
	// A concurrent request may have just repopulated the file cache between
	// our miss and acquiring the in-flight slot; check once more before going
	// to the network.
	if data, ok := s.fromFile(ctx, indexCode); ok {
		return data, nil
	}

	records, err := s.market.FetchConstituents(ctx, indexCode)
	if err != nil {
		s.logger.Warn().Err(err).Str("index", indexCode).Msg("constituents fetch failed")
		return nil, err
	}
	data := Transform(ctx, s.market, records, indexCode, s.cfg.TreemapTopN)

	if err := s.files.Put(indexCode, data, records, time.Now()); err != nil {
		// The dataset is still good; a failed write only means the next
		// request pays for a refetch.
		s.logger.Warn().Err(err).Str("index", indexCode).Msg("cache write failed")
	}
	s.storeHot(ctx, indexCode, data, s.cfg.CacheMaxAge)
	return data, nil
}

func (s *TreemapService) fromHot(ctx context.Context, indexCode string) (*models.TreemapData, bool) {
	b, ok := s.hot.Get(ctx, hotKey(indexCode))
	if !ok {
		return nil, false
	}
	var data models.TreemapData
	if err := UnmarshalCache(b, &data); err != nil || !data.Valid() {
		return nil, false
	}
	return &data, true
}

func (s *TreemapService) fromFile(ctx context.Context, indexCode string) (*models.TreemapData, bool) {
	entry, err := s.files.Get(ctx, indexCode)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) && !errors.Is(err, ErrCacheMalformed) {
			s.logger.Debug().Err(err).Str("index", indexCode).Msg("file cache read failed")
		}
		return nil, false
	}

	age := time.Since(entry.CreatedAt)
	if IsExpired(entry.CreatedAt, time.Now(), s.cfg.CacheMaxAge) {
		if err := s.files.Delete(indexCode); err != nil && !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("index", indexCode).Msg("expired cache delete failed")
		}
		return nil, false
	}

	s.storeHot(ctx, indexCode, entry.Dataset, s.cfg.CacheMaxAge-age)
	return entry.Dataset, true
}

func (s *TreemapService) storeHot(ctx context.Context, indexCode string, data *models.TreemapData, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if b, err := MarshalCache(data); err == nil {
		_ = s.hot.Set(ctx, hotKey(indexCode), b, ttl)
	}
}

func hotKey(indexCode string) string {
	return "treemap:v1:" + indexCode
}
