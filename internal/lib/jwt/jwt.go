package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenInvalid   = errors.New("token invalid")
)

// AccessClaims are embedded in short-lived access tokens.
type AccessClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the user identity. Role is deliberately absent:
// it is re-derived from the credential store when the token is used.
type RefreshClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// NewAccessToken creates a signed access token with user claims. The caller
// supplies the issue instant so expiry stays aligned with its own clock.
func NewAccessToken(userID, email, role, secret string, ttl time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		AccessClaims{
			UserID: userID,
			Email:  email,
			Role:   role,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   userID,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			},
		})
	return token.SignedString([]byte(secret))
}

// NewRefreshToken creates a signed refresh token bound only to the user ID.
// The jti claim keeps tokens minted within the same second distinct.
func NewRefreshToken(userID, secret string, ttl time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		RefreshClaims{
			UserID: userID,
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   userID,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			},
		})
	return token.SignedString([]byte(secret))
}

// ParseAccessToken validates signature and expiry against the given instant
// and returns the claims. Failures map onto ErrTokenExpired,
// ErrTokenMalformed or ErrTokenInvalid.
func ParseAccessToken(tokenString, secret string, now time.Time) (*AccessClaims, error) {
	var claims AccessClaims
	if err := parse(tokenString, secret, now, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// ParseRefreshToken validates signature and expiry of a refresh token.
func ParseRefreshToken(tokenString, secret string, now time.Time) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := parse(tokenString, secret, now, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

func parse(tokenString, secret string, now time.Time, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return ErrTokenMalformed
		default:
			return ErrTokenInvalid
		}
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
