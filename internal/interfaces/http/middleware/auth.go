package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sj-huang/rdkit-m/internal/infrastructure/auth/jwt"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
	"github.com/sj-huang/rdkit-m/pkg/types/common"
)

const claimsKey = "auth_claims"

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// SkipPaths bypass authentication, including their sub-paths.
	SkipPaths []string
}

// AuthMiddleware rejects requests without a valid bearer token.
type AuthMiddleware struct {
	validator TokenValidator
	config    AuthConfig
	logger    logging.Logger
}

func NewAuthMiddleware(validator TokenValidator, config AuthConfig, logger logging.Logger) *AuthMiddleware {
	return &AuthMiddleware{validator: validator, config: config, logger: logger}
}

// Handler verifies the Authorization header and stores the claims.
// Failures never reveal why the token was refused.
func (m *AuthMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.shouldSkip(c.Request.URL.Path) {
			c.Next()
			return
		}

		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			writeUnauthorized(c, "authentication required")
			return
		}
		claims, err := m.validator.ValidateToken(token)
		if err != nil {
			m.logger.Warn("Token validation failed",
				logging.String("path", c.Request.URL.Path),
				logging.String("request_id", RequestIDFrom(c)),
				logging.Err(err))
			msg := "invalid or expired token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token expired"
			}
			writeUnauthorized(c, msg)
			return
		}

		c.Set(claimsKey, claims)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), common.ContextKeySubject, claims.Subject))
		c.Next()
	}
}

// RequireRole rejects authenticated callers lacking role. Requests that
// skipped authentication pass.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims != nil && !claims.HasRole(role) {
			AbortWithError(c, errors.ErrCodeForbidden, "insufficient permissions", "role "+role+" required")
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) shouldSkip(path string) bool {
	for _, skip := range m.config.SkipPaths {
		if path == skip || strings.HasPrefix(path, skip+"/") {
			return true
		}
	}
	return false
}

func extractBearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="simmap"`)
	AbortWithError(c, errors.ErrCodeUnauthorized, message, "")
}

// ClaimsFrom returns the verified claims, or nil when auth was skipped.
func ClaimsFrom(c *gin.Context) *jwt.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}

// SubjectFrom returns the token subject, or "".
func SubjectFrom(c *gin.Context) string {
	if claims := ClaimsFrom(c); claims != nil {
		return claims.Subject
	}
	return ""
}

//Personal.AI order the ending
