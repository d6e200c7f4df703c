package services

import "time"

// DefaultCacheMaxAge is the canonical freshness window for cached index
// datasets. A 24-hour variant existed on one legacy read path; the single
// 12-hour window applies everywhere now.
const DefaultCacheMaxAge = 12 * time.Hour

// IsExpired reports whether a cache entry created at createdAt has outlived
// maxAge as of now. A zero createdAt is always expired.
func IsExpired(createdAt, now time.Time, maxAge time.Duration) bool {
	if createdAt.IsZero() {
		return true
	}
	return now.Sub(createdAt) > maxAge
}
