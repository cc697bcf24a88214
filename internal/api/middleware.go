// Package api contains the HTTP handlers and routing for the booking service.
package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/futevolei/futevolei-booking/internal/domain"
)

const userContextKey = "user"

// CORSMiddleware handles Cross-Origin Resource Sharing.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Requested-With")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware adds a unique request ID to each request.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// JWTAuthMiddleware verifies the bearer token issued by the identity service
// and places the caller's identity in the request context. Identity is owned
// elsewhere; this service only reads verified claims.
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Authorization header required",
				"code":    "UNAUTHORIZED",
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid or expired token",
				"code":    "UNAUTHORIZED",
			})
			return
		}

		user := domain.User{
			ID:    claimString(claims, "sub"),
			Name:  claimString(claims, "name"),
			Email: claimString(claims, "email"),
			Role:  claimString(claims, "role"),
		}
		if user.ID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Token missing subject",
				"code":    "UNAUTHORIZED",
			})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// AdminRequiredMiddleware rejects callers without the admin role. It must run
// after JWTAuthMiddleware.
func AdminRequiredMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Admin role required",
				"code":    "FORBIDDEN",
			})
			return
		}
		c.Next()
	}
}

// currentUser returns the authenticated caller placed by JWTAuthMiddleware.
func currentUser(c *gin.Context) domain.User {
	if value, ok := c.Get(userContextKey); ok {
		if user, ok := value.(domain.User); ok {
			return user
		}
	}
	return domain.User{}
}

func claimString(claims jwt.MapClaims, key string) string {
	if value, ok := claims[key].(string); ok {
		return value
	}
	return ""
}
