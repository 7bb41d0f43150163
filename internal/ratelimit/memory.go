package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemorySlidingWindow es el gemelo en proceso de RedisSlidingWindow, con la
// misma semántica purga-cuenta-inserta bajo un mutex. No coordina entre
// instancias; sirve para tests y despliegues de un solo proceso.
type MemorySlidingWindow struct {
	policy Policy
	now    func() time.Time

	mu      sync.Mutex
	windows map[string][]time.Time
}

func NewMemorySlidingWindow(policy Policy) *MemorySlidingWindow {
	return &MemorySlidingWindow{
		policy:  policy,
		now:     time.Now,
		windows: make(map[string][]time.Time),
	}
}

func (l *MemorySlidingWindow) Admit(_ context.Context, clientID, method, path string) Decision {
	rule, ok := l.policy.RuleFor(path)
	if !ok {
		return Decision{Allowed: true, Bypassed: true}
	}

	now := l.now()
	decision := Decision{
		Limit:  rule.Limit,
		Window: rule.Window,
		Reset:  now.Add(rule.Window),
	}

	key := counterKey(clientID, method, path)
	cutoff := now.Add(-rule.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	stamps := l.windows[key]
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= rule.Limit {
		l.windows[key] = kept
		decision.Allowed = false
		decision.Remaining = 0
		return decision
	}

	kept = append(kept, now)
	l.windows[key] = kept
	decision.Allowed = true
	decision.Remaining = rule.Limit - len(kept)
	return decision
}
