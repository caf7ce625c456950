package token

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-signing-secret"

var alice = Subject{
	Username:  "alice",
	UserKey:   "a1b2c3d",
	Email:     "a@x.com",
	FirstName: "Alice",
	LastName:  "Liddell",
}

// fixedClock returns a clock function whose value can be moved by the test.
func fixedClock(start time.Time) (func() time.Time, func(time.Time)) {
	now := start
	return func() time.Time { return now }, func(t time.Time) { now = t }
}

func newTestCodec(t *testing.T, ttl time.Duration, opts ...Option) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret, ttl, opts...)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestRoundTrip(t *testing.T) {
	for _, ttl := range []time.Duration{time.Second, time.Minute, time.Hour, 24 * time.Hour} {
		t.Run(ttl.String(), func(t *testing.T) {
			c := newTestCodec(t, ttl)

			issued, err := c.Issue(alice)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			if issued.TokenType != "Bearer" {
				t.Errorf("TokenType = %q, want Bearer", issued.TokenType)
			}

			claims, err := c.Validate(issued.Token)
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}

			if claims.Username() != alice.Username {
				t.Errorf("Username = %q, want %q", claims.Username(), alice.Username)
			}
			if claims.UserKey != alice.UserKey {
				t.Errorf("UserKey = %q, want %q", claims.UserKey, alice.UserKey)
			}
			if claims.Email != alice.Email {
				t.Errorf("Email = %q, want %q", claims.Email, alice.Email)
			}
			if claims.FirstName != alice.FirstName || claims.LastName != alice.LastName {
				t.Errorf("name = %q %q, want %q %q", claims.FirstName, claims.LastName, alice.FirstName, alice.LastName)
			}
			if got := claims.ExpiresAtTime().Sub(claims.IssuedAtTime()); got != ttl {
				t.Errorf("expiresAt - issuedAt = %s, want %s", got, ttl)
			}
			if !claims.ExpiresAtTime().Equal(issued.ExpiresAt) {
				t.Errorf("claims expiry %s != issued expiry %s", claims.ExpiresAtTime(), issued.ExpiresAt)
			}
		})
	}
}

func TestIssue_TokenShape(t *testing.T) {
	c := newTestCodec(t, time.Hour)

	issued, err := c.Issue(alice)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(issued.Token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d segments, want 3", len(parts))
	}
	for i, p := range parts {
		if p == "" {
			t.Errorf("segment %d is empty", i)
		}
		if strings.ContainsAny(p, "+/=") {
			t.Errorf("segment %d is not raw base64url: %q", i, p)
		}
	}
}

func TestConcreteExample(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now, set := fixedClock(issuedAt)
	c := newTestCodec(t, 3600*time.Second, WithClock(now))

	issued, err := c.Issue(Subject{Username: "alice", UserKey: "a1b2c3d", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	wantExpiry := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	if !issued.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("ExpiresAt = %s, want %s", issued.ExpiresAt, wantExpiry)
	}

	set(time.Date(2024, 1, 1, 0, 59, 59, 0, time.UTC))
	if _, err := c.Validate(issued.Token); err != nil {
		t.Errorf("Validate at 00:59:59: %v", err)
	}

	set(time.Date(2024, 1, 1, 1, 0, 1, 0, time.UTC))
	if _, err := c.Validate(issued.Token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Validate at 01:00:01: err = %v, want ErrExpiredToken", err)
	}
}

func TestExpiryBoundary(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now, set := fixedClock(start)
	c := newTestCodec(t, time.Minute, WithClock(now))

	issued, err := c.Issue(alice)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{"one second before expiry", issued.ExpiresAt.Add(-time.Second), nil},
		{"exactly at expiry", issued.ExpiresAt, ErrExpiredToken},
		{"one second after expiry", issued.ExpiresAt.Add(time.Second), ErrExpiredToken},
		{"long after expiry", issued.ExpiresAt.Add(30 * 24 * time.Hour), ErrExpiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set(tt.at)
			_, err := c.Validate(issued.Token)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Validate: unexpected error %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate: err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_SignatureTamperDetected(t *testing.T) {
	c := newTestCodec(t, time.Hour)
	issued, err := c.Issue(alice)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	sigStart := strings.LastIndex(issued.Token, ".") + 1
	for i := sigStart; i < len(issued.Token); i++ {
		tampered := flipChar(issued.Token, i)
		_, err := c.Validate(tampered)
		if !errors.Is(err, ErrTamperedToken) {
			t.Fatalf("flip at signature offset %d: err = %v, want ErrTamperedToken", i-sigStart, err)
		}
	}
}

func TestValidate_PayloadTamperNeverPasses(t *testing.T) {
	c := newTestCodec(t, time.Hour)
	issued, err := c.Issue(alice)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(issued.Token, ".")
	payloadStart := len(parts[0]) + 1
	payloadEnd := payloadStart + len(parts[1])

	for i := payloadStart; i < payloadEnd; i++ {
		tampered := flipChar(issued.Token, i)
		_, err := c.Validate(tampered)
		if err == nil {
			t.Fatalf("flip at payload offset %d passed validation", i-payloadStart)
		}
		if !errors.Is(err, ErrTamperedToken) && !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("flip at payload offset %d: err = %v, want tampered or malformed", i-payloadStart, err)
		}
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	issuer := newTestCodec(t, time.Hour)
	issued, err := issuer.Issue(alice)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other, err := NewCodec("a-completely-different-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	if _, err := other.Validate(issued.Token); !errors.Is(err, ErrTamperedToken) {
		t.Errorf("err = %v, want ErrTamperedToken", err)
	}
}

func TestValidate_TamperedBeatsExpired(t *testing.T) {
	now, set := fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c := newTestCodec(t, time.Minute, WithClock(now))
	issued, err := c.Issue(alice)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	set(issued.ExpiresAt.Add(time.Hour))
	sigStart := strings.LastIndex(issued.Token, ".") + 1
	if _, err := c.Validate(flipChar(issued.Token, sigStart)); !errors.Is(err, ErrTamperedToken) {
		t.Errorf("err = %v, want ErrTamperedToken", err)
	}
}

func TestValidate_Malformed(t *testing.T) {
	c := newTestCodec(t, time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"one segment", "abc"},
		{"two segments", "abc.def"},
		{"four segments", "a.b.c.d"},
		{"garbage header", "!!!.eyJzdWIiOiJhbGljZSJ9.c2ln"},
		{"not json payload", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.bm90LWpzb24.c2ln"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Validate(tt.token)
			if !errors.Is(err, ErrMalformedToken) {
				t.Errorf("Validate(%q) err = %v, want ErrMalformedToken", tt.token, err)
			}
		})
	}
}

func TestValidate_RejectsNoneAlgorithm(t *testing.T) {
	c := newTestCodec(t, time.Hour)
	issued, err := c.Issue(alice)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// {"alg":"none","typ":"JWT"}
	noneHeader := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0"
	parts := strings.Split(issued.Token, ".")
	forged := noneHeader + "." + parts[1] + "."

	if _, err := c.Validate(forged); !errors.Is(err, ErrTamperedToken) {
		t.Errorf("err = %v, want ErrTamperedToken", err)
	}
}

func TestDeriveKey_PaddingDeterministic(t *testing.T) {
	secret := "0123456789" // 10 bytes

	a := DeriveKey(secret)
	b := DeriveKey(secret)

	if len(a) != MinKeyLength {
		t.Fatalf("len = %d, want %d", len(a), MinKeyLength)
	}
	if !bytes.Equal(a, b) {
		t.Error("DeriveKey is not deterministic")
	}
	if !bytes.Equal(a[:10], []byte(secret)) {
		t.Error("secret prefix not preserved")
	}
	if !bytes.Equal(a[10:], make([]byte, MinKeyLength-10)) {
		t.Error("padding is not zero bytes")
	}

	long := strings.Repeat("k", 48)
	if got := DeriveKey(long); string(got) != long {
		t.Error("secrets at or above the minimum must be used unchanged")
	}
}

func TestDeriveKey_ShortSecretsInterop(t *testing.T) {
	// Two codecs built independently from the same short secret must
	// accept each other's tokens.
	first, err := NewCodec("short", time.Hour)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	second, err := NewCodec("short", time.Hour)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	issued, err := first.Issue(alice)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := second.Validate(issued.Token); err != nil {
		t.Errorf("Validate with independently built codec: %v", err)
	}
}

func TestNewCodec_InvalidConfig(t *testing.T) {
	if _, err := NewCodec("", time.Hour); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("empty secret: err = %v, want ErrEmptySecret", err)
	}
	if _, err := NewCodec("s", 0); !errors.Is(err, ErrInvalidTTL) {
		t.Errorf("zero ttl: err = %v, want ErrInvalidTTL", err)
	}
	if _, err := NewCodec("s", -time.Second); !errors.Is(err, ErrInvalidTTL) {
		t.Errorf("negative ttl: err = %v, want ErrInvalidTTL", err)
	}
}

func TestAdvisoryExtractors(t *testing.T) {
	now, set := fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c := newTestCodec(t, time.Hour, WithClock(now))

	issued, err := c.Issue(alice)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if c.IsExpired(issued.Token) {
		t.Error("IsExpired(valid) = true")
	}
	if got := c.ExtractUsername(issued.Token); got != "alice" {
		t.Errorf("ExtractUsername = %q", got)
	}
	if got := c.ExtractUserKey(issued.Token); got != "a1b2c3d" {
		t.Errorf("ExtractUserKey = %q", got)
	}
	if got := c.ExtractEmail(issued.Token); got != "a@x.com" {
		t.Errorf("ExtractEmail = %q", got)
	}

	// Failures degrade to empty values, never panic or error.
	for _, bad := range []string{"", "garbage", flipChar(issued.Token, len(issued.Token)-1)} {
		if !c.IsExpired(bad) {
			t.Errorf("IsExpired(%q) = false, want true", bad)
		}
		if c.ExtractUsername(bad) != "" || c.ExtractUserKey(bad) != "" || c.ExtractEmail(bad) != "" {
			t.Errorf("extractors returned values for %q", bad)
		}
	}

	set(issued.ExpiresAt)
	if !c.IsExpired(issued.Token) {
		t.Error("IsExpired(expired) = false")
	}
	if c.ExtractUsername(issued.Token) != "" {
		t.Error("ExtractUsername(expired) returned a value")
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrExpiredToken, "expired"},
		{ErrTamperedToken, "tampered"},
		{ErrMalformedToken, "malformed"},
		{errors.New("other"), "malformed"},
	}
	for _, tt := range tests {
		if got := Reason(tt.err); got != tt.want {
			t.Errorf("Reason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestValidate_Concurrent(t *testing.T) {
	c := newTestCodec(t, time.Hour)
	issued, err := c.Issue(alice)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	errs := make(chan error, 32)
	for i := 0; i < cap(errs); i++ {
		go func() {
			_, err := c.Validate(issued.Token)
			errs <- err
		}()
	}
	for i := 0; i < cap(errs); i++ {
		if err := <-errs; err != nil {
			t.Errorf("concurrent Validate: %v", err)
		}
	}
}

// flipChar replaces the byte at index i with a different base64url character.
func flipChar(s string, i int) string {
	b := []byte(s)
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}
