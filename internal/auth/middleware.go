package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"schoolapi/internal/user"
)

// Context keys set by Authenticate.
const (
	ContextIdentity = "identity"
	ContextUser     = "userRecord"
)

// Identity is the minimal claim set attached to every authenticated request.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserStore resolves a token's subject to a live user record. A nil user with
// a nil error means the account no longer exists.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
}

// Authenticate verifies the bearer token and loads the caller's user record.
// Checks run in a fixed order so each failure mode yields a distinct message.
func Authenticate(tokens *Tokens, users UserStore, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header is missing")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c, "Invalid authorization header format")
			return
		}

		tokenStr := authHeader[len("Bearer "):]
		if tokenStr == "" {
			unauthorized(c, "Token is missing")
			return
		}

		claims, err := tokens.Parse(tokenStr)
		if err != nil {
			// The verification error stays in the logs; callers get a
			// uniform message.
			log.Warn("invalid or expired token", zap.Error(err))
			unauthorized(c, "Invalid or expired token")
			return
		}

		if claims.ID == "" || claims.Email == "" || claims.Role == "" {
			unauthorized(c, "Invalid token payload")
			return
		}

		u, err := users.FindByID(c.Request.Context(), claims.ID)
		if err != nil {
			log.Error("user lookup failed during authentication", zap.Error(err))
			unauthorized(c, "User not found")
			return
		}
		if u == nil {
			unauthorized(c, "User not found")
			return
		}

		c.Set(ContextIdentity, Identity{ID: claims.ID, Email: claims.Email, Role: claims.Role})
		c.Set(ContextUser, u)

		log.Debug("user authenticated", zap.String("user_id", claims.ID), zap.String("email", claims.Email))
		c.Next()
	}
}

// RequireRoles passes through callers whose role is in allowedRoles. It must
// run after Authenticate.
func RequireRoles(log *zap.Logger, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			unauthorized(c, "User not authenticated")
			return
		}

		for _, role := range allowedRoles {
			if identity.Role == role {
				c.Next()
				return
			}
		}

		log.Warn("authorization denied",
			zap.String("user_id", identity.ID),
			zap.String("role", identity.Role),
			zap.Strings("required_roles", allowedRoles),
		)
		unauthorized(c, "Insufficient permissions")
	}
}

// CurrentIdentity returns the identity attached by Authenticate, if any.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	val, exists := c.Get(ContextIdentity)
	if !exists {
		return Identity{}, false
	}
	identity, ok := val.(Identity)
	return identity, ok
}

// CurrentUser returns the full user record attached by Authenticate, if any.
func CurrentUser(c *gin.Context) (*user.User, bool) {
	val, exists := c.Get(ContextUser)
	if !exists {
		return nil, false
	}
	u, ok := val.(*user.User)
	return u, ok
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
	})
}
