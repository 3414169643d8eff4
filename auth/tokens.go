package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/arjundev/vidtubebackend/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

var (
	// ErrInvalidToken — malformed token or bad signature.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — signature is fine but the token is past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrWrongTokenType — a valid token of the other class was presented.
	ErrWrongTokenType = errors.New("wrong token type")
)

type Claims struct {
	UserID    string `json:"uid"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies the two token classes. Access and
// refresh tokens are signed with separate secrets, so a refresh token can
// never pass as an access token even before the type claim is checked.
type TokenService struct {
	cfg config.JWTConfig
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{cfg: cfg}
}

func (t *TokenService) IssueAccess(userID string) (string, error) {
	return t.issue(userID, TokenAccess, t.cfg.AccessSecret, t.cfg.AccessTTL)
}

func (t *TokenService) IssueRefresh(userID string) (string, error) {
	return t.issue(userID, TokenRefresh, t.cfg.RefreshSecret, t.cfg.RefreshTTL)
}

func (t *TokenService) issue(userID string, kind TokenKind, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		TokenType: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti keeps two tokens issued within the same second
			// distinct, so rotation always produces a new token.
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify checks signature, expiry and token class, and returns the user id
// carried by the token. All parse failures are normalized to the sentinel
// errors above; raw jwt errors never escape this package.
func (t *TokenService) Verify(tokenStr string, kind TokenKind) (string, error) {
	secret := t.cfg.AccessSecret
	if kind == TokenRefresh {
		secret = t.cfg.RefreshSecret
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(tok *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.TokenType != string(kind) {
		return "", ErrWrongTokenType
	}
	return claims.UserID, nil
}

// HashToken maps a refresh token to the digest stored on the account.
// Storing the digest instead of the token keeps a leaked database dump
// from yielding usable refresh tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
