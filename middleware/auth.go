package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	userRepo "wellbe/database/repository/user"
	"wellbe/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const (
	roleCachePrefix = "auth:role:"
	roleCacheTTL    = time.Hour
)

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Code: "unauthorized", Message: msg})
}

// bearerToken reads the token from the Authorization header, falling back
// to the token query parameter for websocket upgrades.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return c.Query("token")
}

// JWTAuthMiddleware validates the bearer token and sets userID and role on
// the context. The role always comes from the user record, cached in Redis
// for an hour; a token whose user no longer exists is rejected.
func JWTAuthMiddleware(users userRepo.UserRepository, cache *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			abortUnauthorized(c, "Missing or invalid Authorization header")
			return
		}
		claims, err := utils.ExtractClaims(tokenString)
		if err != nil {
			abortUnauthorized(c, "Invalid token")
			return
		}

		role, err := lookupRole(c.Request.Context(), users, cache, claims.UserID)
		if err != nil {
			zap.L().Warn("auth: user lookup failed", zap.String("userId", claims.UserID), zap.Error(err))
			abortUnauthorized(c, "Authentication error")
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("role", role)
		c.Next()
	}
}

func lookupRole(ctx context.Context, users userRepo.UserRepository, cache *redis.Client, userID string) (string, error) {
	key := roleCachePrefix + userID
	if cache != nil {
		role, err := cache.Get(ctx, key).Result()
		if err == nil {
			return role, nil
		}
		if err != redis.Nil {
			zap.L().Warn("auth: role cache unavailable, falling back to database", zap.Error(err))
		}
	}

	usr, err := users.GetByIDWithProjection(ctx, userID, bson.M{"id": 1, "role": 1})
	if err != nil {
		return "", err
	}
	if cache != nil {
		_ = cache.Set(ctx, key, usr.Role, roleCacheTTL).Err()
	}
	return usr.Role, nil
}

// RequireRole lets through only callers whose role is one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse{
			Code:    utils.CodeForbidden,
			Message: "This action requires one of the roles: " + strings.Join(roles, ", "),
		})
	}
}
