package middleware

import (
	"errors"                          // Sentinel error comparison
	"expense_tracker/internal/domain" // Importing domain models
	"expense_tracker/internal/utils"  // JWT utility functions
	"net/http"                        // HTTP status codes
	"strings"                         // String manipulation

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// Context keys set by JWTAuthMiddleware
const (
	UserIDKey = "userID" // uint id of the authenticated user
	UserKey   = "user"   // domain.User loaded for the request
	ClaimsKey = "claims" // *utils.Claims of the presented token
)

// unauthorized aborts with 401 and the bearer challenge header
func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// JWTAuthMiddleware validates JWT tokens and loads the user they were issued for
func JWTAuthMiddleware(issuer *utils.TokenIssuer, db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// If not, abort with unauthorized status
			unauthorized(c, "Missing or invalid Authorization header")
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string
		claims, err := issuer.ParseJWT(tokenStr)              // Parse and verify the JWT token
		if err != nil {
			// If parsing fails, abort with unauthorized status
			unauthorized(c, "Could not validate credentials")
			return
		}
		ctx := c.Request.Context()
		// Reject tokens revoked by logout
		revoked, err := utils.IsTokenRevoked(ctx, rdb, claims.ID)
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": claims.UserID, "error": err.Error()}).Error("Revocation check failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if revoked {
			unauthorized(c, "Token has been revoked")
			return
		}
		var user domain.User // The user must still exist
		if err := db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				unauthorized(c, "Could not validate credentials")
				return
			}
			logrus.WithFields(logrus.Fields{"user_id": claims.UserID, "error": err.Error()}).Error("Failed to load user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.Set(UserIDKey, user.ID) // Store userID in context
		c.Set(UserKey, user)      // Store the user itself
		c.Set(ClaimsKey, claims)  // Logout needs the token id and expiry
		c.Next()                  // Proceed to the next handler
	}
}
