// Package claim signs and verifies the compact tokens that hand an
// activation code from the activation flow to the signup flow through a URL
// parameter. A token is a capability: bearer may resume signup with that
// code, for a bounded time. There is no server-side state behind it. The
// same codec, under a different purpose, signs the activation keys sent by
// email.
package claim

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidClaim covers every verification failure: bad signature, wrong
// purpose, malformed token, expiry. Deliberately one error, so callers
// cannot leak whether a token was tampered with or merely stale.
var ErrInvalidClaim = errors.New("invalid or expired claim")

// DefaultMaxAge bounds how long an issued claim token stays redeemable.
const DefaultMaxAge = 900 * time.Second

// Codec issues and redeems signed claim tokens. The purpose string scopes
// tokens to one flow, so a token signed for another use of the same secret
// can never be replayed here.
type Codec struct {
	secret  []byte
	purpose string
	maxAge  time.Duration
	now     func() time.Time
}

// Option tweaks a Codec.
type Option func(*Codec)

// WithMaxAge overrides DefaultMaxAge.
func WithMaxAge(d time.Duration) Option {
	return func(c *Codec) { c.maxAge = d }
}

// WithClock injects a clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec creates a Codec for a signing secret and purpose, e.g.
// "onboarding.claim".
func NewCodec(secret, purpose string, opts ...Option) *Codec {
	c := &Codec{
		secret:  []byte(secret),
		purpose: purpose,
		maxAge:  DefaultMaxAge,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue produces a signed, timestamped token carrying the subject, an
// activation code for the signup hand-off or a user ID for emailed
// activation keys.
func (c *Codec) Issue(subject string) (string, error) {
	now := c.now().UTC()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"purpose": c.purpose,
		"sub":     subject,
		"iat":     now.Unix(),
		"exp":     now.Add(c.maxAge).Unix(),
	})
	return tok.SignedString(c.secret)
}

// Redeem verifies signature, purpose and age, and returns the subject. Any
// failure is ErrInvalidClaim.
func (c *Codec) Redeem(token string) (string, error) {
	parsed, err := jwt.Parse(token,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return c.secret, nil
		},
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidClaim
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidClaim
	}
	if purpose, _ := claims["purpose"].(string); purpose != c.purpose {
		return "", ErrInvalidClaim
	}
	subject, _ := claims["sub"].(string)
	if subject == "" {
		return "", ErrInvalidClaim
	}
	return subject, nil
}
