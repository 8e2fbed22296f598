package api

import (
	_ "expense_tracker/docs"              // Registers the swagger document
	"expense_tracker/internal/analytics"  // Aggregation queries
	"expense_tracker/internal/middleware" // Custom package for middleware
	"expense_tracker/internal/utils"      // Token issuer

	"github.com/gin-gonic/gin"                 // Gin web framework
	"github.com/redis/go-redis/v9"             // Redis client
	swaggerFiles "github.com/swaggo/files"     // Swagger UI assets
	ginSwagger "github.com/swaggo/gin-swagger" // Swagger UI handler
	"gorm.io/gorm"                             // GORM ORM library
)

// SetupRouter wires every route of the API
func SetupRouter(db *gorm.DB, rdb *redis.Client, issuer *utils.TokenIssuer, limiter *utils.LoginLimiter) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, err
	}
	r := gin.New()                                    // Gin router instance
	r.Use(middleware.RequestLogger(), gin.Recovery()) // Request logs and panic recovery

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		return nil, err
	}

	r.GET("/", RootHandler())                                            // Welcome endpoint
	r.GET("/health", HealthHandler(db, rdb))                             // Health check endpoint
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler)) // API document

	auth := middleware.JWTAuthMiddleware(issuer, db, rdb) // Protects everything below

	// Auth routes
	authGroup := r.Group("/auth")
	authGroup.POST("/register", RegisterHandler(db))            // Registration endpoint
	authGroup.POST("/login", LoginHandler(db, issuer, limiter)) // Login endpoint
	authGroup.GET("/me", auth, MeHandler())                     // Current user endpoint
	authGroup.POST("/logout", auth, LogoutHandler(rdb))         // Logout endpoint

	// Category routes (protected by JWT)
	categories := r.Group("/categories", auth)
	categories.POST("", CreateCategoryHandler(db, rdb))       // Create category endpoint
	categories.GET("", ListCategoriesHandler(db, rdb))        // List categories endpoint
	categories.GET("/:id", GetCategoryHandler(db))            // Get category endpoint
	categories.PUT("/:id", UpdateCategoryHandler(db, rdb))    // Update category endpoint
	categories.DELETE("/:id", DeleteCategoryHandler(db, rdb)) // Delete category endpoint

	// Expense routes (protected by JWT)
	expenses := r.Group("/expenses", auth)
	expenses.POST("", CreateExpenseHandler(db))       // Create expense endpoint
	expenses.GET("", ListExpensesHandler(db))         // List expenses endpoint
	expenses.GET("/:id", GetExpenseHandler(db))       // Get expense endpoint
	expenses.PUT("/:id", UpdateExpenseHandler(db))    // Update expense endpoint
	expenses.DELETE("/:id", DeleteExpenseHandler(db)) // Delete expense endpoint

	// Analytics routes (protected by JWT)
	svc := analytics.NewService(db)
	stats := r.Group("/analytics", auth)
	stats.GET("/dashboard", DashboardHandler(svc))    // Totals endpoint
	stats.GET("/by-category", ByCategoryHandler(svc)) // Per category endpoint
	stats.GET("/monthly", MonthlyHandler(svc))        // Per month endpoint

	return r, nil
}
