package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Spok95/gym-console/internal/apperr"
	"github.com/Spok95/gym-console/internal/clock"
)

const issuer = "gym-console"

var ErrInvalidToken = apperr.Unauthorized("invalid or expired token")

// Issuer signs and verifies HS256 tenant tokens; the subject is the tenant id.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewIssuer(secret string, ttl time.Duration, c clock.Clock) *Issuer {
	if c == nil {
		c = clock.System()
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, clock: c}
}

type Token struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func (i *Issuer) Issue(tenantID int64) (Token, error) {
	now := i.clock.Now()
	exp := now.Add(i.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(tenantID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{AccessToken: s, ExpiresAt: exp}, nil
}

// Verify returns the tenant id carried by a valid token.
func (i *Issuer) Verify(raw string) (int64, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		return 0, &apperr.Error{Kind: ErrInvalidToken.Kind, Code: ErrInvalidToken.Code, Message: ErrInvalidToken.Message, Err: err}
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, &apperr.Error{Kind: ErrInvalidToken.Kind, Code: ErrInvalidToken.Code, Message: ErrInvalidToken.Message, Err: errors.New("bad subject")}
	}
	return id, nil
}

type ctxKey struct{}

func WithTenant(ctx context.Context, tenantID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, tenantID)
}

// TenantID reads the tenant set by the auth middleware.
func TenantID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok && id > 0
}
