package ratelimit

import (
	"net/http"
	"strings"
)

// unlimitedPaths are never throttled, on either mount point.
var unlimitedPaths = map[string]bool{"/health": true, "/api/health": true}

// MatchEndpoint returns the configuration for method and path, or nil when the default limit applies.
// An exact path wins; otherwise the longest configured path ending in "/" that prefixes path is used.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if method == http.MethodGet && unlimitedPaths[path] {
		return &EndpointConfig{Path: path, Method: method}
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method {
			continue
		}
		if c.Path == path {
			return c
		}
		if strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) &&
			(best == nil || len(c.Path) > len(best.Path)) {
			best = c
		}
	}
	return best
}
