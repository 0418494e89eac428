package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// CacheConfig defines settings for the public catalog response cache.
// Methods lists the HTTP methods to cache (e.g. GET, HEAD).  TTL defines the
// lifetime of cache entries.  KeyStrategy determines which parts of the request
// contribute to the cache key.  LocalMaxMB bounds the in-process fallback used
// when Redis is not reachable.
type CacheConfig struct {
	Enabled      bool            `env:"CACHE_ENABLED" envDefault:"true"`
	Methods      map[string]bool `env:"-"`
	RawMethods   []string        `env:"CACHE_METHODS" envDefault:"GET"`
	TTL          time.Duration   `env:"CACHE_TTL" envDefault:"30s"`
	KeyStrategy  string          `env:"CACHE_KEY_STRATEGY" envDefault:"route_query"`
	Prefix       string          `env:"CACHE_PREFIX" envDefault:"cache"`
	MaxBodyBytes int             `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`
	LocalMaxMB   int             `env:"CACHE_LOCAL_MAX_MB" envDefault:"64"`
}

// LoadCacheConfig reads CACHE_* variables.  All methods are upper-cased.
func LoadCacheConfig() CacheConfig {
	var cfg CacheConfig
	_ = env.Parse(&cfg)
	cfg.Methods = parseMethods(cfg.RawMethods)
	if cfg.TTL <= 0 {
		cfg.TTL = time.Second
	}
	return cfg
}

func parseMethods(raw []string) map[string]bool {
	m := map[string]bool{}
	for _, p := range raw {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
