package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/inventory-backend/internal/api/responses"
	"github.com/example/inventory-backend/internal/models"
)

const (
	currentUserKey = "currentUser"
	authRequired   = "Authentication required"
)

// TokenVerifier resolves a bearer token to a local user.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, idToken string) (*models.User, error)
}

// AuthMiddleware provides Gin middleware for bearer token authentication.
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	if verifier == nil {
		panic("AuthMiddleware requires a token verifier")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// VerifyToken rejects the request with 401 unless the Authorization header
// carries a token that verifies and maps to a local user. On success the
// user is available through CurrentUser.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			responses.FailDetail(c, http.StatusUnauthorized, authRequired, "No token provided")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			responses.FailDetail(c, http.StatusUnauthorized, authRequired, "Authorization header format must be 'Bearer {token}'")
			return
		}

		user, err := m.verifier.VerifyToken(c.Request.Context(), parts[1])
		if err != nil {
			m.logger.Warn("Token verification failed",
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
			)
			responses.FailDetail(c, http.StatusUnauthorized, authRequired, "Invalid or expired token")
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the principal attached by VerifyToken.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
