// Package auth hashes credentials, issues bearer tokens and resolves them
// back to identities.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"socialconnect/internal/cache"
	"socialconnect/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	Issuer   = "socialconnect-api"
	Audience = "socialconnect-client"
)

// Claims are the JWT claims carried by an access token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Provider issues HS256 tokens and keeps a Redis deny-list of revoked ids.
type Provider struct {
	secret []byte
	ttl    time.Duration
	redis  *redis.Client
	cost   int
	now    func() time.Time
}

// Option customizes a Provider.
type Option func(*Provider)

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(p *Provider) { p.cost = cost }
}

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// NewProvider builds a provider. A nil redis client disables revocation.
func NewProvider(secret string, ttl time.Duration, rdb *redis.Client, opts ...Option) *Provider {
	if ttl <= 0 {
		ttl = time.Hour
	}
	p := &Provider{
		secret: []byte(secret),
		ttl:    ttl,
		redis:  rdb,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HashPassword returns the bcrypt hash of password.
func (p *Provider) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword reports whether password matches hash.
func (p *Provider) ComparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken signs an access token for the identity.
func (p *Provider) IssueToken(userID uint, username string) (string, error) {
	if len(p.secret) == 0 {
		return "", errors.New("JWT secret not configured")
	}

	now := p.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

func (p *Provider) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !token.Valid {
		return nil, models.NewAuthError("Invalid or expired token")
	}
	return claims, nil
}

// ResolveIdentity validates a bearer token and returns the identity it names.
func (p *Provider) ResolveIdentity(ctx context.Context, tokenString string) (uint, error) {
	claims, err := p.parse(tokenString)
	if err != nil {
		return 0, err
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return 0, models.NewAuthError("Invalid subject claim")
	}

	if claims.ID != "" && p.redis != nil {
		revoked, err := p.redis.Exists(ctx, cache.RevokedKey(claims.ID)).Result()
		if err == nil && revoked > 0 {
			return 0, models.NewAuthError("Token has been revoked")
		}
	}

	return uint(userID), nil
}

// Revoke deny-lists the token's id until the token would have expired.
func (p *Provider) Revoke(ctx context.Context, tokenString string) error {
	claims, err := p.parse(tokenString)
	if err != nil {
		return err
	}
	if p.redis == nil || claims.ID == "" {
		return nil
	}

	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if remaining := claims.ExpiresAt.Sub(p.now()); remaining > 0 {
			ttl = remaining
		}
	}
	if err := p.redis.Set(ctx, cache.RevokedKey(claims.ID), "1", ttl).Err(); err != nil {
		return models.NewStoreFailure(err)
	}
	return nil
}
