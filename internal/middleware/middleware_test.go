package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"expense_tracker/internal/config"
	"expense_tracker/internal/db"
	"expense_tracker/internal/domain"
	"expense_tracker/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	db     *gorm.DB
	rdb    *redis.Client
	mr     *miniredis.Miniredis
	issuer *utils.TokenIssuer
	router *gin.Engine
	user   domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb, err := db.Open(config.DriverSQLite, "file::memory:?_pragma=foreign_keys(1)&_time_format=sqlite")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	issuer, err := utils.NewTokenIssuer("test-secret", "HS256", time.Hour)
	require.NoError(t, err)

	user := domain.User{Email: "jane@example.com", HashedPassword: "x", FirstName: "Jane", LastName: "Doe"}
	require.NoError(t, gdb.Create(&user).Error)

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/private", JWTAuthMiddleware(issuer, gdb, rdb), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.MustGet(UserIDKey)})
	})
	return &fixture{db: gdb, rdb: rdb, mr: mr, issuer: issuer, router: r, user: user}
}

func (f *fixture) get(authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddlewareAcceptsValidToken(t *testing.T) {
	f := newFixture(t)
	token, err := f.issuer.GenerateJWT(f.user.ID)
	require.NoError(t, err)

	w := f.get("Bearer " + token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id": 1}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestJWTAuthMiddlewareRejects(t *testing.T) {
	f := newFixture(t)
	other, err := utils.NewTokenIssuer("another-secret", "HS256", time.Hour)
	require.NoError(t, err)
	forged, err := other.GenerateJWT(f.user.ID)
	require.NoError(t, err)
	ghost, err := f.issuer.GenerateJWT(f.user.ID + 100)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + forged},
		{"deleted user", "Bearer " + ghost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.get(tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestJWTAuthMiddlewareRejectsRevokedToken(t *testing.T) {
	f := newFixture(t)
	token, err := f.issuer.GenerateJWT(f.user.ID)
	require.NoError(t, err)
	claims, err := f.issuer.ParseJWT(token)
	require.NoError(t, err)

	require.NoError(t, utils.RevokeToken(context.Background(), f.rdb, claims.ID, claims.ExpiresAt.Time))

	w := f.get("Bearer " + token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "revoked")
}

func TestJWTAuthMiddlewareRedisDown(t *testing.T) {
	f := newFixture(t)
	token, err := f.issuer.GenerateJWT(f.user.ID)
	require.NoError(t, err)
	f.mr.Close()

	w := f.get("Bearer " + token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
