package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stockmap/backend-go/internal/common"
	"stockmap/backend-go/internal/config"
	"stockmap/backend-go/internal/models"
)

var (
	// ErrCacheMiss signals that no entry exists for the key. Treated as an
	// ordinary miss by callers, never surfaced to clients as a failure.
	ErrCacheMiss = errors.New("cache entry not found")
	// ErrCacheMalformed signals an entry that exists but cannot be used:
	// unparsable JSON, an empty file, or a payload without the treemap shape.
	ErrCacheMalformed = errors.New("cache entry malformed")
)

// FileCache persists one JSON file per index code under a data directory.
// Writes are atomic (temp file + rename) and last-writer-wins.
type FileCache struct {
	dir         string
	readTimeout time.Duration
	logger      *common.Logger
}

func NewFileCache(cfg config.Config, logger *common.Logger) (*FileCache, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", cfg.DataDir, err)
	}
	return &FileCache{
		dir:         cfg.DataDir,
		readTimeout: cfg.CacheReadTimeout,
		logger:      logger,
	}, nil
}

func (s *FileCache) Dir() string {
	return s.dir
}

// Get reads and normalizes the stored entry for an index code. The read runs
// under the store's own short timeout, independent of the caller's remote
// deadline.
func (s *FileCache) Get(ctx context.Context, indexCode string) (*models.CacheEntry, error) {
	if s.readTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.readTimeout)
		defer cancel()
	}

	type result struct {
		entry *models.CacheEntry
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		entry, err := s.read(indexCode)
		ch <- result{entry, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.entry, r.err
	}
}

func (s *FileCache) read(indexCode string) (*models.CacheEntry, error) {
	raw, err := os.ReadFile(s.path(indexCode))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) < 10 {
		return nil, ErrCacheMalformed
	}

	var file models.CacheFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheMalformed, err)
	}
	if !file.IndexTreemapData.Valid() {
		return nil, ErrCacheMalformed
	}

	createdAt, _ := file.CreatedAt()
	return &models.CacheEntry{
		IndexCode: indexCode,
		Dataset:   file.IndexTreemapData,
		Raw:       file.RawStocksData,
		CreatedAt: createdAt,
	}, nil
}

// Put replaces the stored entry for an index code with the canonical file
// shape. Prior legacy timestamp fields are not carried forward.
func (s *FileCache) Put(indexCode string, dataset *models.TreemapData, raw []models.RawSymbolRecord, createdAt time.Time) error {
	if !dataset.Valid() {
		return fmt.Errorf("refusing to cache invalid dataset for %s", indexCode)
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	file := models.CacheFile{
		IndexTreemapData: dataset,
		RawStocksData:    raw,
		Metadata: &models.CacheMetadata{
			IndexCode:  indexCode,
			StockCount: len(raw),
			Source:     "api",
		},
		SavedAt: createdAt.UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	if err := s.writeAtomic(s.path(indexCode), data); err != nil {
		return err
	}
	s.logger.Debug().Str("index", indexCode).Int("bytes", len(data)).Msg("cache entry written")
	return nil
}

// Delete removes the stored entry. A missing key reports ErrCacheMiss rather
// than failing; repeated deletes are therefore harmless.
func (s *FileCache) Delete(indexCode string) error {
	err := os.Remove(s.path(indexCode))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrCacheMiss
		}
		return err
	}
	s.logger.Info().Str("index", indexCode).Msg("cache entry deleted")
	return nil
}

func (s *FileCache) path(indexCode string) string {
	return filepath.Join(s.dir, sanitizeKey(indexCode)+".json")
}

func (s *FileCache) writeAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}
