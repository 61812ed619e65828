package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind distinguishes the two token classes carried in cookies.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Token validation failure reasons. STALE_TOKEN_VERSION and REVOKED_SESSION
// are decided by the session service (they need state); everything a
// stateless parse can decide is classified here.
var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenBadSignature = errors.New("token signature invalid")
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenWrongKind    = errors.New("token kind mismatch")
)

// Claims carries the identity embedded in every issued token. Access tokens
// populate all fields; refresh tokens carry only UserID, SessionID and Kind.
type Claims struct {
	UserID       uint   `json:"uid"`
	Role         string `json:"role,omitempty"`
	Name         string `json:"name,omitempty"`
	TokenVersion uint   `json:"tkv,omitempty"`
	SessionID    string `json:"sid"`
	Kind         string `json:"kind"`
	jwt.RegisteredClaims
}

var jwtSecret []byte

// SetJWTSecret sets the HS256 signing secret. Call once at startup.
func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

// GenerateAccessToken mints a short-lived access token carrying the full
// identity claims. A new token is always issued; access tokens are never
// renewed in place.
func GenerateAccessToken(userID uint, role, name string, tokenVersion uint, sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:       userID,
		Role:         role,
		Name:         name,
		TokenVersion: tokenVersion,
		SessionID:    sessionID,
		Kind:         string(TokenAccess),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "dineatlas",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// GenerateRefreshToken mints a longer-lived refresh token. It carries only
// the user and session identifiers plus a unique token ID used by the
// rotation protocol to detect reuse after revocation.
func GenerateRefreshToken(userID uint, sessionID, tokenID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		SessionID: sessionID,
		Kind:      string(TokenRefresh),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "dineatlas",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseToken verifies a token string and returns its claims. Failures are
// classified as ErrTokenExpired, ErrTokenBadSignature, ErrTokenMalformed or
// ErrTokenWrongKind. An expired token is reported expired even when its
// signature is valid.
func ParseToken(tokenString string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenBadSignature
		}
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenBadSignature
		default:
			return nil, ErrTokenMalformed
		}
	}

	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.Kind != string(kind) {
		return nil, ErrTokenWrongKind
	}

	return claims, nil
}
