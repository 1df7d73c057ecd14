package middleware

import (
	"net/http"
	"strings"

	"launchpad-backend/internal/handlers"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminAuthMiddleware guards the phase/allowlist admin API with operator JWTs.
type AdminAuthMiddleware struct {
	logger *logrus.Logger
}

func NewAdminAuthMiddleware(logger *logrus.Logger) *AdminAuthMiddleware {
	return &AdminAuthMiddleware{logger: logger}
}

// bearerToken extracts the token from the Authorization header. The
// returned code distinguishes the three header failure modes so clients
// can tell a missing session apart from a malformed one.
func bearerToken(c *gin.Context) (token, errCode, errMsg string) {
	header := c.GetHeader("Authorization")
	switch {
	case header == "":
		return "", "MISSING_AUTH_HEADER", "Authentication required"
	case !strings.HasPrefix(header, "Bearer "):
		return "", "INVALID_AUTH_FORMAT", "Invalid authorization format, need Bearer token"
	}
	token = strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return "", "EMPTY_TOKEN", "Empty token"
	}
	return token, "", ""
}

func (a *AdminAuthMiddleware) reject(c *gin.Context, status int, code, msg, reason string) {
	a.logger.WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
		"reason": reason,
	}).Warn("Admin auth failed")

	c.JSON(status, gin.H{
		"success": false,
		"error":   msg,
		"code":    code,
	})
	c.Abort()
}

// RequireAdminAuth validates the Bearer token and the admin role claim,
// then exposes the operator identity to downstream handlers via
// admin_username/admin_role context keys.
func (a *AdminAuthMiddleware) RequireAdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, code, msg := bearerToken(c)
		if code != "" {
			a.reject(c, http.StatusUnauthorized, code, msg, code)
			return
		}

		claims, err := handlers.ValidateAdminJWTToken(token)
		if err != nil {
			a.reject(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", err.Error())
			return
		}

		if claims.Role != "admin" {
			a.reject(c, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "Insufficient permissions", "role="+claims.Role)
			return
		}

		c.Set("admin_username", claims.Username)
		c.Set("admin_role", claims.Role)

		c.Next()
	}
}
