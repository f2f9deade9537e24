package config

import "time"

// CacheConfig controls the Redis response cache placed in front of the
// public catalog reads (tables, menu, booking options). Reservation data is
// never cached.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    KeyStrategy  string // route, method_route, route_query or method_route_query
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables. The default TTL is short because
// dish stock shown on the menu changes with every pre-order.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      envList("CACHE_METHODS", "GET"),
        TTL:          envDur("CACHE_TTL", 10*time.Second),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStr("CACHE_PREFIX", "rtr:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}
