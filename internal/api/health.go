package api

import (
	"context"  // Timeouts for dependency checks
	"net/http" // HTTP status codes
	"time"     // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// ErrorResponse is the body of every error answer
type ErrorResponse struct {
	Error string `json:"error" example:"Category not found"`
}

// healthTimeout bounds each dependency ping
const healthTimeout = 2 * time.Second

// RootHandler greets and points at the API document
//
//	@Summary	Welcome
//	@Tags		meta
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/ [get]
func RootHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to the Expense Tracker API",
			"docs":    "/swagger/index.html",
		})
	}
}

// HealthHandler reports whether the database and Redis answer
//
//	@Summary	Health check
//	@Tags		meta
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/health [get]
func HealthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		checks := gin.H{"database": "ok", "redis": "ok"}
		healthy := true
		if sqlDB, err := db.DB(); err != nil {
			checks["database"], healthy = err.Error(), false
		} else if err := sqlDB.PingContext(ctx); err != nil {
			checks["database"], healthy = err.Error(), false
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			checks["redis"], healthy = err.Error(), false
		}
		if !healthy {
			logrus.WithFields(logrus.Fields(checks)).Error("Health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "checks": checks})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "checks": checks})
	}
}
