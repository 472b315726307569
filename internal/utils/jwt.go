package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type values carried in the "type" claim. An access token must never
// be accepted where a refresh token is required and vice versa; the claim is
// checked explicitly on every verification in addition to the per-type
// signing secrets.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AccessTokenTTL is fixed by design; only the refresh lifetime is
// configurable.
const AccessTokenTTL = 15 * time.Minute

var (
	// ErrInvalidToken covers bad signatures, malformed tokens and expiry.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongTokenType is returned when a structurally valid token carries
	// the wrong "type" claim for the check being performed.
	ErrWrongTokenType = errors.New("wrong token type")
)

// TokenClaims is the payload encoded into both token kinds.
type TokenClaims struct {
	UserID uint64 `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair bundles a freshly issued access/refresh token pair together with
// the expiry of each, so handlers can echo the expiries to clients.
type TokenPair struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

// IssueTokenPair signs a new access and refresh token for the given subject.
// The two tokens use distinct secrets and lifetimes; nothing is persisted.
func IssueTokenPair(accessSecret, refreshSecret string, refreshTTLDays int, userID uint64, email, role string) (TokenPair, error) {
	now := time.Now().UTC()
	accessExp := now.Add(AccessTokenTTL)
	refreshExp := now.Add(time.Duration(refreshTTLDays) * 24 * time.Hour)

	access, err := signToken(accessSecret, TokenTypeAccess, userID, email, role, now, accessExp)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := signToken(refreshSecret, TokenTypeRefresh, userID, email, role, now, refreshExp)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		AccessExp:    accessExp,
		RefreshToken: refresh,
		RefreshExp:   refreshExp,
	}, nil
}

// VerifyAccessToken parses and validates an access token.
func VerifyAccessToken(secret, raw string) (*TokenClaims, error) {
	return parseToken(secret, raw, TokenTypeAccess)
}

// VerifyRefreshToken parses and validates a refresh token.
func VerifyRefreshToken(secret, raw string) (*TokenClaims, error) {
	return parseToken(secret, raw, TokenTypeRefresh)
}

func signToken(secret, typ string, userID uint64, email, role string, iat, exp time.Time) (string, error) {
	claims := TokenClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(iat),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

func parseToken(secret, raw, wantType string) (*TokenClaims, error) {
	tok, err := jwt.ParseWithClaims(raw, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(*TokenClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if claims.Type != wantType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
