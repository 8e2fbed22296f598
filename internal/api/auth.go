package api

import (
	"encoding/json"                       // Request normalization
	"expense_tracker/internal/db"         // Driver error classification
	"expense_tracker/internal/domain"     // Importing domain models
	"expense_tracker/internal/middleware" // Context keys
	"expense_tracker/internal/utils"      // Tokens and login limiter
	"net/http"                            // HTTP status codes
	"strconv"                             // String conversion
	"strings"                             // String manipulation
	"time"                                // Timestamps

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"golang.org/x/crypto/bcrypt"   // Password hashing
	"gorm.io/gorm"                 // GORM ORM library
)

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`      // Login email
	FirstName string `json:"first_name" binding:"required,min=1,max=100"` // Given name
	LastName  string `json:"last_name" binding:"required,min=1,max=100"`  // Family name
	Password  string `json:"password" binding:"required,min=8,max=72"`    // bcrypt reads at most 72 bytes
}

// UnmarshalJSON normalizes the email and trims the names so validation sees the stored values
func (r *RegisterRequest) UnmarshalJSON(b []byte) error {
	type plain RegisterRequest
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	p.Email = normalizeEmail(p.Email)
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	*r = RegisterRequest(p)
	return nil
}

// LoginRequest accepts the OAuth2 password form (username holds the email) or JSON
type LoginRequest struct {
	Username string `form:"username" json:"username"`                    // Email, OAuth2 field name
	Email    string `form:"email" json:"email"`                          // Email, for JSON clients
	Password string `form:"password" json:"password" binding:"required"` // Password must be provided
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse is returned by a successful login
type TokenResponse struct {
	AccessToken string `json:"access_token"` // Signed JWT
	TokenType   string `json:"token_type"`   // Always "bearer"
	ExpiresIn   int    `json:"expires_in"`   // Lifetime in seconds
}

func newUserResponse(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, CreatedAt: u.CreatedAt}
}

// normalizeEmail trims and lower-cases an email so lookups are case insensitive
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterHandler creates a new user account
//
//	@Summary	Register a user
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		RegisterRequest	true	"New account"
//	@Success	201		{object}	UserResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Router		/auth/register [post]
func RegisterHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			badRequest(c, err)
			return
		}
		email := req.Email // Already normalized while decoding
		ctx := c.Request.Context()
		var count int64 // Check for an existing account first
		if err := db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			serverError(c, "Failed to register user", err, nil)
			return
		}
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			// If hashing fails, return internal server error
			serverError(c, "Failed to hash password", err, nil)
			return
		}
		user := domain.User{
			Email:          email,
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			HashedPassword: string(hash),
		}
		// Attempt to create the user in the database
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			// A concurrent registration can still hit the unique index
			if isUniqueViolation(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
				return
			}
			serverError(c, "Failed to register user", err, nil)
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": user.ID}).Info("User registered")
		// Return the created user
		c.JSON(http.StatusCreated, newUserResponse(user))
	}
}

// isUniqueViolation recognises duplicate key errors of every supported driver
var isUniqueViolation = db.IsUniqueViolation

// LoginHandler authenticates a user and returns a JWT access token
//
//	@Summary	Log in
//	@Tags		auth
//	@Accept		x-www-form-urlencoded
//	@Accept		json
//	@Produce	json
//	@Param		username	formData	string	true	"Email"
//	@Param		password	formData	string	true	"Password"
//	@Success	200			{object}	TokenResponse
//	@Failure	401			{object}	ErrorResponse
//	@Failure	429			{object}	ErrorResponse
//	@Router		/auth/login [post]
func LoginHandler(db *gorm.DB, issuer *utils.TokenIssuer, limiter *utils.LoginLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind form or JSON request to struct
		if err := c.ShouldBind(&req); err != nil {
			badRequest(c, err)
			return
		}
		email := req.Email
		if email == "" {
			email = req.Username // OAuth2 password flow
		}
		email = normalizeEmail(email)
		if email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
			return
		}
		ctx := c.Request.Context()
		// Throttle guessing per account
		allowed, err := limiter.Allow(ctx, email)
		if err != nil {
			// Redis trouble must not lock everybody out
			logrus.WithFields(logrus.Fields{"error": err.Error()}).Warn("Login rate limit unavailable")
			allowed = true
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(limiter.Window().Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many login attempts, try again later"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
			if !isNotFound(err) {
				serverError(c, "Failed to log in", err, nil)
				return
			}
			// If user not found, return unauthorized
			invalidCredentials(c)
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
			invalidCredentials(c)
			return
		}
		// Generate JWT token
		token, err := issuer.GenerateJWT(user.ID)
		if err != nil {
			// If token generation fails, return internal server error
			serverError(c, "Failed to generate token", err, logrus.Fields{"user_id": user.ID})
			return
		}
		if err := limiter.Reset(ctx, email); err != nil {
			logrus.WithFields(logrus.Fields{"user_id": user.ID, "error": err.Error()}).Warn("Failed to reset login attempts")
		}
		// Return the token in the response
		c.JSON(http.StatusOK, TokenResponse{
			AccessToken: token,
			TokenType:   "bearer",
			ExpiresIn:   int(issuer.TTL().Seconds()),
		})
	}
}

func invalidCredentials(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect email or password"})
}

// MeHandler returns the authenticated user
//
//	@Summary	Current user
//	@Tags		auth
//	@Produce	json
//	@Security	OAuth2Password
//	@Success	200	{object}	UserResponse
//	@Failure	401	{object}	ErrorResponse
//	@Router		/auth/me [get]
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := c.MustGet(middleware.UserKey).(domain.User)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.JSON(http.StatusOK, newUserResponse(user))
	}
}

// LogoutHandler revokes the presented token until it expires
//
//	@Summary	Log out
//	@Tags		auth
//	@Security	OAuth2Password
//	@Success	204
//	@Failure	401	{object}	ErrorResponse
//	@Router		/auth/logout [post]
func LogoutHandler(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := c.MustGet(middleware.ClaimsKey).(*utils.Claims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if err := utils.RevokeToken(c.Request.Context(), rdb, claims.ID, claims.ExpiresAt.Time); err != nil {
			serverError(c, "Failed to log out", err, logrus.Fields{"user_id": claims.UserID})
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": claims.UserID}).Info("User logged out")
		c.Status(http.StatusNoContent)
	}
}
