package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	userContextKey    = "userID"
	roleContextKey    = "role"
	sessionContextKey = "sessionID"
)

// Identity resolves the caller from a Bearer token (authenticated shopper or
// operator) or an X-Session-ID header (anonymous cart). Either is enough to
// proceed; protected routes layer RequireUser / Authorize on top.
func Identity(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header != "" {
			tokenString := strings.TrimPrefix(header, "Bearer ")
			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return jwtSecret, nil
			})
			if err != nil || !token.Valid {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				return
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				return
			}
			sub, _ := claims["sub"].(string)
			if _, err := uuid.Parse(sub); err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token subject"})
				return
			}
			c.Set(userContextKey, sub)
			if role, ok := claims["role"].(string); ok {
				c.Set(roleContextKey, role)
			}
		}

		if sessionID := c.GetHeader("X-Session-ID"); sessionID != "" {
			c.Set(sessionContextKey, sessionID)
		}

		c.Next()
	}
}

// RequireUser aborts unless the request carries an authenticated user.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := GetUserID(c); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user's ID from the request context.
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	if val, ok := c.Get(userContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return uuid.Parse(id)
		}
	}
	return uuid.Nil, errors.New("user ID not found in context")
}

// GetSessionID returns the anonymous session ID, "" when absent.
func GetSessionID(c *gin.Context) string {
	if val, ok := c.Get(sessionContextKey); ok {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return ""
}

// GetRole returns the caller's role, defaulting to client for any
// authenticated user without an explicit role claim.
func GetRole(c *gin.Context) Role {
	if val, ok := c.Get(roleContextKey); ok {
		if role, ok := val.(string); ok && role != "" {
			return Role(role)
		}
	}
	if _, err := GetUserID(c); err == nil {
		return RoleClient
	}
	return RoleAnonymous
}
