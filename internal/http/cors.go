package http

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// createCORSMiddleware builds the CORS middleware for browser clients of the seed API.
// It returns nil when CORS is disabled or no usable origin is configured.
//
// allowOriginsStr is a comma-separated list of absolute http(s) origins, or "*" for any
// origin. Credentials are never allowed: the API authenticates with a bearer key, not
// cookies.
func createCORSMiddleware(enabled bool, allowOriginsStr string, logger *slog.Logger) gin.HandlerFunc {
	if !enabled {
		return nil
	}

	origins, allowAll := parseOrigins(allowOriginsStr, logger)
	if !allowAll && len(origins) == 0 {
		logger.Warn("CORS enabled but no valid origins configured, CORS will not be applied")
		return nil
	}

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposeHeaders: []string{"X-Request-Id", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if allowAll {
		corsConfig.AllowAllOrigins = true
		logger.Warn("CORS enabled for all origins")
	} else {
		corsConfig.AllowOrigins = origins
		logger.Info("CORS enabled", slog.Any("origins", origins))
	}

	return cors.New(corsConfig)
}

// parseOrigins splits the origin list and drops entries that are not bare http(s) origins.
// allowAll is true when the list contains "*".
func parseOrigins(originsStr string, logger *slog.Logger) (origins []string, allowAll bool) {
	for part := range strings.SplitSeq(originsStr, ",") {
		origin := strings.TrimRight(strings.TrimSpace(part), "/")
		if origin == "" {
			continue
		}
		if origin == "*" {
			return nil, true
		}
		if !isOrigin(origin) {
			logger.Warn("ignoring invalid CORS origin", slog.String("origin", origin))
			continue
		}
		origins = append(origins, origin)
	}
	return origins, false
}

// isOrigin reports whether s is scheme://host[:port] with no path, query or fragment.
func isOrigin(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != "" && u.Path == "" && u.RawQuery == "" && u.Fragment == "" && u.User == nil
}
