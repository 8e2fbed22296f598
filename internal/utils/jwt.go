package utils

import (
	"errors"  // Sentinel errors
	"strconv" // Subject claim formatting
	"time"    // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
	"github.com/google/uuid"       // Token ids
)

// ErrUnsupportedAlgorithm is returned for signing algorithms other than HMAC-SHA2
var ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

// JWT Claims
type Claims struct {
	UserID               uint `json:"user_id"` // Custom claim for user ID
	jwt.RegisteredClaims      // Standard JWT claims
}

// TokenIssuer signs and verifies access tokens with one secret and algorithm
type TokenIssuer struct {
	secret []byte            // HMAC secret
	method jwt.SigningMethod // Pinned signing method
	ttl    time.Duration     // Token lifetime
	now    func() time.Time  // Clock, replaced in tests
}

// NewTokenIssuer builds an issuer for HS256, HS384 or HS512
func NewTokenIssuer(secret, algorithm string, ttl time.Duration) (*TokenIssuer, error) {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, ErrUnsupportedAlgorithm
	}
	return &TokenIssuer{secret: []byte(secret), method: method, ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of issued tokens
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// GenerateJWT creates a JWT token for a given user ID
func (i *TokenIssuer) GenerateJWT(userID uint) (string, error) {
	now := i.now()
	// Set token claims
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        uuid.NewString(),                   // Token id, used for revocation
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)), // Expiry
			IssuedAt:  jwt.NewNumericDate(now),            // Issued at current time
		},
	}
	token := jwt.NewWithClaims(i.method, claims) // Create token with claims
	return token.SignedString(i.secret)          // Sign the token with the secret
}

// ParseJWT parses and validates a JWT token string
func (i *TokenIssuer) ParseJWT(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return i.secret, nil // Return the secret key for validation
	},
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	// Check for parsing errors
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.UserID != 0 {
		return claims, nil // Return claims if valid
	}
	// Return error if token is invalid
	return nil, jwt.ErrTokenInvalidClaims
}
