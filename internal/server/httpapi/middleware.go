package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/samifathi/invoice-api/internal/common"
	"github.com/samifathi/invoice-api/internal/server/auth"
	"github.com/samifathi/invoice-api/internal/server/models"
)

const identityKey = "identity"

// identityFromContext returns the authenticated caller set by requireAuth,
// or nil when the request never passed the authentication gate.
func identityFromContext(c *gin.Context) *models.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, ok := v.(*models.Identity)
	if !ok {
		return nil
	}
	return identity
}

// requestLogger tags every request with an id and logs method, path, status
// and duration.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Header("X-Request-Id", requestID)

		c.Next()

		s.logger.With("request_id", requestID).Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// requireAuth is the authentication gate. It extracts the bearer token,
// verifies signature and expiry, re-reads the user from the store (so
// deactivation takes effect immediately, tokens carry no live status), and
// attaches the request identity.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			respondError(c, http.StatusUnauthorized, "NO_TOKEN", "Authentication token is required")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			respondError(c, http.StatusUnauthorized, "NO_TOKEN", "Authentication token is required")
			return
		}

		claims, err := auth.ParseToken(parts[1], s.jwtSecret)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				respondError(c, http.StatusForbidden, "TOKEN_EXPIRED", "Authentication token has expired")
				return
			}
			respondError(c, http.StatusForbidden, "INVALID_TOKEN", "Invalid authentication token")
			return
		}

		user, err := s.users.GetActiveUser(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorAccountInactive) {
				respondError(c, http.StatusUnauthorized, "INVALID_USER", "User no longer exists or is inactive")
				return
			}
			s.logger.Error(c.Request.Context(), "auth user lookup failed", "error", err.Error())
			respondError(c, http.StatusInternalServerError, "AUTH_ERROR", "Authentication failed")
			return
		}

		// Identity comes from the live record, not the token, so role and
		// department changes are picked up without re-login.
		c.Set(identityKey, &models.Identity{
			UserID:     user.ID,
			Email:      user.Email,
			Role:       user.Role,
			Department: user.Department,
		})

		c.Next()
	}
}

// requireRoles layers the role check on top of requireAuth. Membership is
// exact-set; there is no hierarchy.
func (s *Server) requireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := auth.Authorize(identityFromContext(c), roles, 0)
		if err == nil {
			c.Next()
			return
		}

		if errors.Is(err, common.ErrNotAuthenticated) {
			respondError(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "Please authenticate first")
			return
		}

		names := make([]string, 0, len(roles))
		for _, r := range roles {
			names = append(names, string(r))
		}
		respondError(c, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS",
			"This action requires one of these roles: "+strings.Join(names, ", "))
	}
}
