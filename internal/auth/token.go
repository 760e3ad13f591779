package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lunch-voting/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// ExtractTokenFromRequest extracts a JWT token from an HTTP request's Authorization header
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}

	return parts[1], nil
}

type Claims struct {
	Admin bool   `json:"admin"`
	Type  string `json:"typ"`
	jwt.RegisteredClaims
}

// Issuer signs and checks HS256 tokens for locally registered users.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

func (i *Issuer) sign(userID string, admin bool, typ string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		Admin: admin,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *Issuer) IssuePair(userID string, admin bool) (models.TokenPair, error) {
	access, err := i.sign(userID, admin, TokenAccess, i.accessTTL)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := i.sign(userID, admin, TokenRefresh, i.refreshTTL)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *Issuer) parse(raw, typ string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, typ, claims.Type)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: subject claim not found in token", ErrInvalidToken)
	}
	return claims, nil
}

// Verify accepts only access tokens.
func (i *Issuer) Verify(_ context.Context, raw string) (Principal, error) {
	claims, err := i.parse(raw, TokenAccess)
	if err != nil {
		return Principal{}, err
	}
	return Principal{UserID: claims.Subject, Admin: claims.Admin}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (i *Issuer) Refresh(raw string) (string, error) {
	claims, err := i.parse(raw, TokenRefresh)
	if err != nil {
		return "", err
	}
	return i.sign(claims.Subject, claims.Admin, TokenAccess, i.accessTTL)
}
