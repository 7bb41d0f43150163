package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func authPolicy() Policy {
	return DefaultPolicy()
}

func TestPolicyRuleFor(t *testing.T) {
	p := DefaultPolicy()

	t.Run("auth endpoints strictest", func(t *testing.T) {
		rule, ok := p.RuleFor("/api/v1/auth/verify")
		if !ok || rule.Limit != 5 || rule.Window != time.Minute {
			t.Fatalf("unexpected rule: %+v ok=%v", rule, ok)
		}
	})

	t.Run("api endpoints moderate", func(t *testing.T) {
		rule, ok := p.RuleFor("/api/v1/users")
		if !ok || rule.Limit != 60 {
			t.Fatalf("unexpected rule: %+v ok=%v", rule, ok)
		}
	})

	t.Run("everything else generous", func(t *testing.T) {
		rule, ok := p.RuleFor("/metrics")
		if !ok || rule.Limit != 100 {
			t.Fatalf("unexpected rule: %+v ok=%v", rule, ok)
		}
	})

	t.Run("health and docs bypassed", func(t *testing.T) {
		for _, path := range []string{"/health", "/", "/docs", "/redoc", "/openapi.json"} {
			if _, ok := p.RuleFor(path); ok {
				t.Fatalf("expected %q to be bypassed", path)
			}
		}
	})

	t.Run("longest prefix wins", func(t *testing.T) {
		p := NewPolicy(
			[]Rule{
				{Prefix: "/api/", Limit: 60, Window: time.Minute},
				{Prefix: "/api/v1/auth", Limit: 5, Window: time.Minute},
			},
			Rule{Limit: 100, Window: time.Minute},
		)
		rule, _ := p.RuleFor("/api/v1/auth/login")
		if rule.Limit != 5 {
			t.Fatalf("expected most specific rule, got %+v", rule)
		}
	})
}

func TestMemorySlidingWindow_EnforcesLimit(t *testing.T) {
	l := NewMemorySlidingWindow(authPolicy())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d := l.Admit(ctx, "1.2.3.4", "POST", "/api/v1/auth/verify")
		if !d.Allowed {
			t.Fatalf("request %d unexpectedly rejected", i+1)
		}
		if d.Remaining != 5-(i+1) {
			t.Fatalf("request %d: expected remaining %d, got %d", i+1, 5-(i+1), d.Remaining)
		}
	}

	d := l.Admit(ctx, "1.2.3.4", "POST", "/api/v1/auth/verify")
	if d.Allowed {
		t.Fatalf("expected 6th request to be rejected")
	}
	if d.Limit != 5 || d.Window != time.Minute || d.Remaining != 0 {
		t.Fatalf("unexpected decision metadata: %+v", d)
	}
}

func TestMemorySlidingWindow_WindowSlides(t *testing.T) {
	l := NewMemorySlidingWindow(authPolicy())
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	for i := 0; i < 5; i++ {
		l.Admit(ctx, "1.2.3.4", "POST", "/api/v1/auth/verify")
	}
	if d := l.Admit(ctx, "1.2.3.4", "POST", "/api/v1/auth/verify"); d.Allowed {
		t.Fatalf("expected rejection inside window")
	}

	l.now = func() time.Time { return base.Add(61 * time.Second) }
	if d := l.Admit(ctx, "1.2.3.4", "POST", "/api/v1/auth/verify"); !d.Allowed {
		t.Fatalf("expected admission after window elapsed")
	}
}

func TestMemorySlidingWindow_KeysAreIndependent(t *testing.T) {
	l := NewMemorySlidingWindow(authPolicy())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		l.Admit(ctx, "1.2.3.4", "POST", "/api/v1/auth/verify")
	}
	if d := l.Admit(ctx, "5.6.7.8", "POST", "/api/v1/auth/verify"); !d.Allowed {
		t.Fatalf("expected other client to be unaffected")
	}
	if d := l.Admit(ctx, "1.2.3.4", "GET", "/api/v1/users"); !d.Allowed {
		t.Fatalf("expected other endpoint to be unaffected")
	}
}

func TestMemorySlidingWindow_ConcurrentBoundary(t *testing.T) {
	l := NewMemorySlidingWindow(authPolicy())
	ctx := context.Background()

	// Contador en limit-1: de N requests concurrentes entra exactamente una.
	for i := 0; i < 4; i++ {
		l.Admit(ctx, "1.2.3.4", "POST", "/api/v1/auth/verify")
	}

	const n = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Admit(ctx, "1.2.3.4", "POST", "/api/v1/auth/verify").Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 1 {
		t.Fatalf("expected exactly one admission at the boundary, got %d", admitted)
	}
}

func TestMemorySlidingWindow_Bypass(t *testing.T) {
	l := NewMemorySlidingWindow(authPolicy())
	d := l.Admit(context.Background(), "1.2.3.4", "GET", "/health")
	if !d.Allowed || !d.Bypassed {
		t.Fatalf("expected bypassed admission, got %+v", d)
	}
}
