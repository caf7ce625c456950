package auth

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestLimiter(perMinute, burst int, clock *time.Time) *LoginLimiter {
	l := NewLoginLimiter(perMinute, burst)
	l.now = func() time.Time { return *clock }
	return l
}

func TestLoginLimiter_BurstThenThrottle(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newTestLimiter(6, 3, &clock) // one token per 10s

	for i := 0; i < 3; i++ {
		if err := l.Allow("alice"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if err := l.Allow("alice"); !errors.Is(err, ErrTooManyRequests) {
		t.Fatalf("4th attempt err = %v, want ErrTooManyRequests", err)
	}

	clock = clock.Add(10 * time.Second)
	if err := l.Allow("alice"); err != nil {
		t.Errorf("after refill: %v", err)
	}
}

func TestLoginLimiter_PerUsername(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newTestLimiter(1, 1, &clock)

	if err := l.Allow("alice"); err != nil {
		t.Fatal(err)
	}
	if err := l.Allow("ALICE"); !errors.Is(err, ErrTooManyRequests) {
		t.Error("usernames should be throttled case-insensitively")
	}
	if err := l.Allow("bob"); err != nil {
		t.Errorf("bob must have his own bucket: %v", err)
	}
}

func TestLoginLimiter_Reset(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newTestLimiter(1, 1, &clock)

	_ = l.Allow("alice")
	if err := l.Allow("alice"); err == nil {
		t.Fatal("expected throttling before reset")
	}
	l.Reset("alice")
	if err := l.Allow("alice"); err != nil {
		t.Errorf("after reset: %v", err)
	}
}

func TestLoginLimiter_IdleEntriesCollected(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newTestLimiter(60, 1, &clock)

	_ = l.Allow("alice")
	clock = clock.Add(idleTTL + time.Second)
	_ = l.Allow("bob")

	l.mu.Lock()
	_, aliceKept := l.limiters["alice"]
	n := len(l.limiters)
	l.mu.Unlock()

	if aliceKept || n != 1 {
		t.Errorf("limiters = %d (alice kept=%v), want only bob", n, aliceKept)
	}
}

func TestLoginLimiter_BoundedUnderUsernameSpray(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newTestLimiter(6, 1, &clock)
	l.maxKeys = 3

	for i := 0; i < 100; i++ {
		_ = l.Allow(fmt.Sprintf("user-%d", i))
		clock = clock.Add(time.Millisecond)
	}

	l.mu.Lock()
	n := len(l.limiters)
	l.mu.Unlock()
	if n > 3 {
		t.Errorf("tracked %d usernames, want at most 3", n)
	}
}

func TestLoginLimiter_EvictsRefilledBeforeThrottled(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newTestLimiter(6, 1, &clock) // one token per 10s
	l.maxKeys = 2

	_ = l.Allow("bob")
	clock = clock.Add(10 * time.Second)
	_ = l.Allow("alice")
	if err := l.Allow("alice"); !errors.Is(err, ErrTooManyRequests) {
		t.Fatalf("alice should be throttled, got %v", err)
	}

	_ = l.Allow("carol")

	l.mu.Lock()
	_, bobKept := l.limiters["bob"]
	_, aliceKept := l.limiters["alice"]
	l.mu.Unlock()
	if bobKept || !aliceKept {
		t.Errorf("bob kept=%v alice kept=%v, want only the refilled bob evicted", bobKept, aliceKept)
	}
	if err := l.Allow("alice"); !errors.Is(err, ErrTooManyRequests) {
		t.Errorf("alice must stay throttled, got %v", err)
	}
}

func TestLoginLimiter_EvictsLeastRecentlySeen(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newTestLimiter(6, 1, &clock)
	l.maxKeys = 2

	_ = l.Allow("alice")
	clock = clock.Add(time.Second)
	_ = l.Allow("bob")
	clock = clock.Add(time.Second)
	_ = l.Allow("carol")

	l.mu.Lock()
	_, aliceKept := l.limiters["alice"]
	_, bobKept := l.limiters["bob"]
	n := len(l.limiters)
	l.mu.Unlock()
	if aliceKept || !bobKept || n != 2 {
		t.Errorf("alice kept=%v bob kept=%v size=%d, want alice evicted", aliceKept, bobKept, n)
	}
}

func TestLoginLimiter_DisabledIsNil(t *testing.T) {
	l := NewLoginLimiter(0, 5)
	if l != nil {
		t.Fatal("NewLoginLimiter(0, ...) should return nil")
	}
	for i := 0; i < 100; i++ {
		if err := l.Allow("alice"); err != nil {
			t.Fatalf("nil limiter must allow: %v", err)
		}
	}
	l.Reset("alice")
}

func TestLoginLimiter_Concurrent(t *testing.T) {
	l := NewLoginLimiter(60, 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("alice") == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed < 10 || allowed > 11 {
		t.Errorf("allowed = %d, want the burst of 10 (plus at most one refill)", allowed)
	}
}
