package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vidtube/internal/repository"
)

// TokenService issues and rotates JWT access/refresh pairs. Exactly
// one refresh token is live per user: it is stored on the user row,
// and issuing a new pair or logging out invalidates any prior one.
type TokenService struct {
	users         repository.UserRepository
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Claims struct {
	UserID    string `json:"uid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

func NewTokenService(users repository.UserRepository, accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 10 * 24 * time.Hour
	}
	return &TokenService{
		users:         users,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        "vidtube",
	}
}

// IssuePair signs a fresh access/refresh pair for the user and stores
// the refresh token on the user row, superseding any previous session.
func (s *TokenService) IssuePair(ctx context.Context, userID string) (TokenPair, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("load user for token issue: %w", err)
	}

	now := time.Now().UTC()
	access, err := s.sign(user.ID, now, s.accessTTL, "access", s.accessSecret)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(user.ID, now, s.refreshTTL, "refresh", s.refreshSecret)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.users.UpdateRefreshToken(ctx, user.ID, refresh); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate validates a presented refresh token and exchanges it for a
// fresh pair. A token that does not match the one stored on the user
// row has been superseded, which covers replay of an already-used
// token.
func (s *TokenService) Rotate(ctx context.Context, presented string) (TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return TokenPair{}, ErrTokenInvalid
	}

	claims, err := s.parse(presented, s.refreshSecret)
	if err != nil {
		return TokenPair{}, err
	}
	if claims.TokenType != "refresh" {
		return TokenPair{}, ErrTokenInvalid
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, ErrTokenInvalid
	}
	if user.RefreshToken == "" ||
		subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(presented)) != 1 {
		return TokenPair{}, ErrTokenInvalid
	}

	return s.IssuePair(ctx, user.ID)
}

// Invalidate clears the stored refresh token, ending the session.
func (s *TokenService) Invalidate(ctx context.Context, userID string) error {
	return s.users.UpdateRefreshToken(ctx, userID, "")
}

// ParseAccessToken verifies an access token and returns its claims.
func (s *TokenService) ParseAccessToken(accessToken string) (Claims, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return Claims{}, ErrTokenInvalid
	}
	claims, err := s.parse(accessToken, s.accessSecret)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != "access" {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}

func (s *TokenService) sign(userID string, now time.Time, ttl time.Duration, tokenType string, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrTokenInvalid
	}
	// A fresh jti keeps tokens unique even when two pairs are issued
	// within the same second.
	claims := Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (s *TokenService) parse(tokenString string, secret []byte) (Claims, error) {
	if len(secret) == 0 {
		return Claims{}, ErrTokenInvalid
	}
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.UserID) == "" || claims.Subject != claims.UserID {
		return Claims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Issuer) != s.issuer {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}
