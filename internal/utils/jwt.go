package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken wraps every signature, expiry or format failure
var ErrInvalidToken = errors.New("invalid or expired token")

const (
	DefaultAccessTTL  = 5 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// JWTClaims custom claims for JWT
type JWTClaims struct {
	AccountID string `json:"id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// JWTUtil issues and validates access and refresh tokens. Each kind has
// its own secret, so a refresh token never validates as an access token.
type JWTUtil struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewJWTUtil creates a new JWTUtil
func NewJWTUtil(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTUtil {
	return &JWTUtil{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// AccessTTL returns the lifetime of issued access tokens
func (ju *JWTUtil) AccessTTL() time.Duration { return ju.accessTTL }

// RefreshTTL returns the lifetime of issued refresh tokens
func (ju *JWTUtil) RefreshTTL() time.Duration { return ju.refreshTTL }

// GenerateAccessToken signs a short-lived access token
func (ju *JWTUtil) GenerateAccessToken(accountID, role string) (string, error) {
	return ju.sign(accountID, role, ju.accessSecret, ju.accessTTL)
}

// GenerateRefreshToken signs a long-lived refresh token
func (ju *JWTUtil) GenerateRefreshToken(accountID, role string) (string, error) {
	return ju.sign(accountID, role, ju.refreshSecret, ju.refreshTTL)
}

// ValidateAccessToken validates a token signed with the access secret
func (ju *JWTUtil) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	return ju.validate(tokenString, ju.accessSecret)
}

// ValidateRefreshToken validates a token signed with the refresh secret
func (ju *JWTUtil) ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	return ju.validate(tokenString, ju.refreshSecret)
}

func (ju *JWTUtil) sign(accountID, role string, secret []byte, ttl time.Duration) (string, error) {
	now := ju.now()
	claims := &JWTClaims{
		AccountID: accountID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   accountID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (ju *JWTUtil) validate(tokenString string, secret []byte) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(ju.now))

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid && claims.AccountID != "" {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
