package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from the process environment.
func LoadConfig() *Config {
	return LoadConfigFrom(os.Getenv)
}

// LoadConfigFrom loads rate limiting configuration from getenv.
//
//	RATE_LIMIT_ENABLED           default true
//	RATE_LIMIT_DEFAULT_LIMIT     default 1000 per RATE_LIMIT_DEFAULT_WINDOW (1m)
//	RATE_LIMIT_MATCH_LIMIT       default 60 screenings per RATE_LIMIT_MATCH_WINDOW (1m)
//	RATE_LIMIT_MATCH_BURST       default 10
//	RATE_LIMIT_CLEANUP_INTERVAL  default 5m
//	RATE_LIMIT_WHITELIST, RATE_LIMIT_BLACKLIST  comma-separated client IPs
func LoadConfigFrom(getenv func(string) string) *Config {
	env := envReader(getenv)
	enabled := env.bool("RATE_LIMIT_ENABLED", true)
	if !enabled {
		return &Config{
			Enabled: false,
		}
	}

	match := EndpointConfig{
		Limit:  env.int("RATE_LIMIT_MATCH_LIMIT", 60),
		Window: env.duration("RATE_LIMIT_MATCH_WINDOW", time.Minute),
		Burst:  env.int("RATE_LIMIT_MATCH_BURST", 10),
	}

	return &Config{
		Enabled:         enabled,
		DefaultLimit:    env.int("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   env.duration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: env.duration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(env.string("RATE_LIMIT_WHITELIST", "")),
		Blacklist:       parseIPList(env.string("RATE_LIMIT_BLACKLIST", "")),
		EndpointConfigs: MatchEndpointConfigs(match),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return MatchEndpointConfigs(EndpointConfig{Limit: 60, Window: time.Minute, Burst: 10})
}

// MatchEndpointConfigs applies limits to the screening endpoint under both of its mount points.
// Screening may call an LLM, so it is the one expensive route. Health checks are unlimited and
// everything else falls back to the default limit.
func MatchEndpointConfigs(limits EndpointConfig) []EndpointConfig {
	configs := make([]EndpointConfig, 0, 2)
	for _, path := range []string{"/match", "/api/match"} {
		c := limits
		c.Path = path
		c.Method = "POST"
		configs = append(configs, c)
	}
	return configs
}

type envReader func(string) string

func (e envReader) string(key string, defaultValue string) string {
	if value := e(key); value != "" {
		return value
	}
	return defaultValue
}

func (e envReader) int(key string, defaultValue int) int {
	if value := e(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (e envReader) bool(key string, defaultValue bool) bool {
	if value := e(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func (e envReader) duration(key string, defaultValue time.Duration) time.Duration {
	if value := e(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
