package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"snapbooth/site/internal/attribution"
	"snapbooth/site/internal/domain"
	"snapbooth/site/internal/service"
	"snapbooth/site/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"
)

// Constants for context keys
const (
	ContextSessionIDKey   = "sessionID"
	ContextAttributionKey = "attribution"
	ContextAdminKey       = "admin"
)

// SessionCookie configures the visitor session cookie.
type SessionCookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// SessionMiddleware reads the session cookie, issuing a fresh id when it is missing or malformed.
func SessionMiddleware(cookie SessionCookie) gin.HandlerFunc {
	if cookie.Name == "" {
		cookie.Name = "booth_sid"
	}
	if cookie.TTL <= 0 {
		cookie.TTL = session.DefaultTTL
	}
	return func(c *gin.Context) {
		sid, err := c.Cookie(cookie.Name)
		if err != nil || !session.ValidID(sid) {
			sid = session.NewID()
		}
		// Refresh on every request so the cookie lives as long as the stored state.
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookie.Name, sid, int(cookie.TTL/time.Second), "/", "", cookie.Secure, true)
		c.Set(ContextSessionIDKey, sid)
		c.Next()
	}
}

// AttributionMiddleware resolves the attribution snapshot for this request once. Handlers read it
// with attributionFromContext and pass it explicitly into services.
func AttributionMiddleware(store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := attribution.Resolve(c.Request.Context(), store, getSessionID(c), c.Request.URL.Query())
		if err != nil {
			log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("failed to resolve attribution")
		}
		if snap == nil {
			snap = domain.AttributionSnapshot{}
		}
		c.Set(ContextAttributionKey, snap)
		c.Next()
	}
}

// RequestLogger emits one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes", c.Writer.Size()).
			Msg("request")
	}
}

// AuthMiddleware creates a Gin middleware for admin JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}
		tokenString := parts[1]

		claims := &service.AdminClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
			}
			return
		}

		if !token.Valid || claims.Role != service.AdminRole || claims.Subject != service.AdminSubject {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}

		c.Set(ContextAdminKey, true)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// abortWithDetails is abortWithError plus a machine-readable details payload.
func abortWithDetails(c *gin.Context, code int, message string, details any) {
	c.AbortWithStatusJSON(code, gin.H{"error": message, "details": details})
}

// getSessionID returns the id SessionMiddleware stored, or "" when the middleware did not run.
func getSessionID(c *gin.Context) string {
	return c.GetString(ContextSessionIDKey)
}

// attributionFromContext returns a copy of the request's snapshot.
func attributionFromContext(c *gin.Context) domain.AttributionSnapshot {
	raw, ok := c.Get(ContextAttributionKey)
	if !ok {
		return domain.AttributionSnapshot{}
	}
	snap, ok := raw.(domain.AttributionSnapshot)
	if !ok {
		return domain.AttributionSnapshot{}
	}
	return snap.Clone()
}
