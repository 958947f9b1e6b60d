package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quocanhngo/gotalk-relay/pkg/auth"
	"github.com/redis/go-redis/v9"
)

// Revocations reports whether a bearer token was revoked before expiry
type Revocations interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// RedisRevocations reads the blacklist:<token> keys written by the main API on logout
type RedisRevocations struct {
	rdb *redis.Client
}

func NewRedisRevocations(rdb *redis.Client) *RedisRevocations {
	return &RedisRevocations{rdb: rdb}
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, token string) (bool, error) {
	exists, err := r.rdb.Exists(ctx, "blacklist:"+token).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// AuthMiddleware validates JWT tokens and injects user claims into context.
// revocations may be nil.
func AuthMiddleware(jwtManager *auth.JWTManager, revocations Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format. Use: Bearer <token>"})
			return
		}

		tokenString := parts[1]

		if revocations != nil {
			revoked, err := revocations.IsRevoked(c.Request.Context(), tokenString)
			if err != nil {
				// Fail closed
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Auth server error"})
				return
			}
			if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
				return
			}
		}

		claims, err := jwtManager.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Next()
	}
}
