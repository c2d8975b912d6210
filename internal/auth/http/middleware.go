// Package http provides API key authentication and per-principal rate limiting for the HTTP API.
package http

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	authService "github.com/allisson/seedvault/internal/auth/service"
	apperrors "github.com/allisson/seedvault/internal/errors"
	"github.com/allisson/seedvault/internal/httputil"
)

const bearerPrefix = "bearer "

// apiKeyVerifier checks presented keys against the configured Argon2id hash. A key that
// verified once is remembered by its SHA-256 digest so later requests skip Argon2id.
type apiKeyVerifier struct {
	hashedKey     string
	apiKeyService authService.APIKeyService
	verified      atomic.Pointer[[sha256.Size]byte]
}

func (v *apiKeyVerifier) verify(plainKey string) bool {
	digest := sha256.Sum256([]byte(plainKey))
	if cached := v.verified.Load(); cached != nil {
		if subtle.ConstantTimeCompare(cached[:], digest[:]) == 1 {
			return true
		}
	}

	if !v.apiKeyService.CompareAPIKey(plainKey, v.hashedKey) {
		return false
	}
	v.verified.Store(&digest)
	return true
}

// APIKeyAuthenticationMiddleware requires "Authorization: Bearer <key>" where key matches
// hashedKey. The "bearer" scheme is matched case-insensitively.
//
// Error handling:
//   - Missing or malformed Authorization header → 401 Unauthorized
//   - Key does not match → 401 Unauthorized
func APIKeyAuthenticationMiddleware(
	hashedKey string,
	apiKeyService authService.APIKeyService,
	logger *slog.Logger,
) gin.HandlerFunc {
	verifier := &apiKeyVerifier{
		hashedKey:     hashedKey,
		apiKeyService: apiKeyService,
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		plainKey := strings.TrimSpace(authHeader[len(bearerPrefix):])
		if plainKey == "" {
			logger.Debug("authentication failed: empty bearer key")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if !verifier.verify(plainKey) {
			logger.Debug("authentication failed: api key mismatch")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
