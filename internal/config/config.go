package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port             string
	MarketBaseURL    string
	DataDir          string
	RedisURL         string
	CacheMaxAge      time.Duration
	CacheReadTimeout time.Duration
	RequestTimeout   time.Duration
	TreemapTopN      int
	RateLimitPerMin  int
	CircuitFailLimit int
	CircuitCooldown  time.Duration
	LogLevel         string
}

func Load() Config {
	return Config{
		Port:             getEnv("PORT", "8080"),
		MarketBaseURL:    getEnv("MARKET_BASE_URL", "http://localhost:8000"),
		DataDir:          getEnv("DATA_DIR", "data"),
		RedisURL:         getEnv("REDIS_URL", ""),
		CacheMaxAge:      getEnvDuration("CACHE_MAX_AGE", 12*time.Hour),
		CacheReadTimeout: getEnvDuration("CACHE_READ_TIMEOUT", 2*time.Second),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		TreemapTopN:      getEnvInt("TREEMAP_TOP_N", 35),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MIN", 120),
		CircuitFailLimit: getEnvInt("CIRCUIT_FAIL_LIMIT", 3),
		CircuitCooldown:  getEnvDuration("CIRCUIT_COOLDOWN", 20*time.Second),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
