package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// MinKeyLength is the minimum HMAC-SHA-256 key size in bytes. Shorter
// secrets are right-padded with zero bytes up to this length.
const MinKeyLength = 32

// DeriveKey converts a configured secret into signing key bytes. The result
// is deterministic: the same secret always yields the same key.
func DeriveKey(secret string) []byte {
	key := []byte(secret)
	if len(key) < MinKeyLength {
		padded := make([]byte, MinKeyLength)
		copy(padded, key)
		key = padded
	}
	return key
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock replaces the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// Codec signs and validates bearer tokens with a single process-wide key.
// The key and TTL are fixed at construction; a Codec is safe for
// concurrent use.
type Codec struct {
	key    []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwtlib.Parser
}

// NewCodec creates a Codec from the configured secret and token lifetime.
func NewCodec(secret string, ttl time.Duration, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidTTL, ttl)
	}

	c := &Codec{
		key: DeriveKey(secret),
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.parser = jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithStrictDecoding(),
		jwtlib.WithTimeFunc(c.now),
	)

	return c, nil
}

// Issue signs a new token for the subject. issuedAt is the current UTC
// time truncated to whole seconds and expiresAt is issuedAt plus the TTL.
func (c *Codec) Issue(s Subject) (*IssuedToken, error) {
	issuedAt := c.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(c.ttl)

	claims := Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   s.Username,
			IssuedAt:  jwtlib.NewNumericDate(issuedAt),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
		},
		UserKey:   s.UserKey,
		Email:     s.Email,
		FirstName: s.FirstName,
		LastName:  s.LastName,
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &IssuedToken{
		Token:     signed,
		TokenType: TokenType,
		ExpiresAt: expiresAt,
		UserKey:   s.UserKey,
		Username:  s.Username,
		Email:     s.Email,
		FirstName: s.FirstName,
		LastName:  s.LastName,
	}, nil
}

// Validate verifies the token's signature and expiry and returns its claims.
// Errors wrap ErrMalformedToken, ErrTamperedToken, or ErrExpiredToken.
// The signature is checked before expiry, so a forged token that is also
// expired reports ErrTamperedToken.
func (c *Codec) Validate(tokenString string) (*Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	// A signature segment that is not canonical base64url cannot be the
	// output of our signer.
	if _, err := base64.RawURLEncoding.Strict().DecodeString(parts[2]); err != nil {
		return nil, fmt.Errorf("%w: undecodable signature", ErrTamperedToken)
	}

	claims := &Claims{}
	_, err := c.parser.ParseWithClaims(tokenString, claims, func(*jwtlib.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	return claims, nil
}

// classify maps jwt library errors onto the codec's error taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid),
		errors.Is(err, jwtlib.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTamperedToken, err)
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpiredToken, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}

// IsExpired reports whether the token is unusable. Any validation failure,
// not only expiry, reports true.
func (c *Codec) IsExpired(tokenString string) bool {
	_, err := c.Validate(tokenString)
	return err != nil
}

// ExtractUsername returns the subject of a valid token, or "".
func (c *Codec) ExtractUsername(tokenString string) string {
	claims, err := c.Validate(tokenString)
	if err != nil {
		return ""
	}
	return claims.Subject
}

// ExtractUserKey returns the userKey claim of a valid token, or "".
func (c *Codec) ExtractUserKey(tokenString string) string {
	claims, err := c.Validate(tokenString)
	if err != nil {
		return ""
	}
	return claims.UserKey
}

// ExtractEmail returns the email claim of a valid token, or "".
func (c *Codec) ExtractEmail(tokenString string) string {
	claims, err := c.Validate(tokenString)
	if err != nil {
		return ""
	}
	return claims.Email
}

// Reason returns a short label for a Validate error, suitable for metric
// labels: "expired", "tampered", "malformed", or "" for nil.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrExpiredToken):
		return "expired"
	case errors.Is(err, ErrTamperedToken):
		return "tampered"
	default:
		return "malformed"
	}
}
