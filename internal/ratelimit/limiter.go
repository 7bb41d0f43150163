package ratelimit

import (
	"context"
	"strings"
	"time"
)

// Decision es el resultado de evaluar una request contra su regla.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Window    time.Duration
	Reset     time.Time

	// Bypassed marca endpoints exentos; no se emiten headers de rate limit.
	Bypassed bool
	// Degraded marca una admisión fail-open porque el contador no respondió.
	Degraded bool
}

// Limiter admite o rechaza una request por (cliente, endpoint) con ventana
// deslizante. Debe ser seguro bajo invocación concurrente.
type Limiter interface {
	Admit(ctx context.Context, clientID, method, path string) Decision
}

// Rule asocia un prefijo de path con su límite por ventana.
type Rule struct {
	Prefix string
	Limit  int
	Window time.Duration
}

// Policy resuelve la regla aplicable a un path; gana el prefijo más largo.
type Policy struct {
	rules    []Rule
	bypass   map[string]struct{}
	fallback Rule
}

// DefaultPolicy replica los límites del servicio: endpoints de autenticación
// estrictos contra fuerza bruta, API moderada, resto generoso, y endpoints de
// salud/documentación exentos.
func DefaultPolicy() Policy {
	return NewPolicy(
		[]Rule{
			{Prefix: "/api/v1/auth", Limit: 5, Window: time.Minute},
			{Prefix: "/api/", Limit: 60, Window: time.Minute},
		},
		Rule{Limit: 100, Window: time.Minute},
		"/health", "/", "/docs", "/redoc", "/openapi.json",
	)
}

func NewPolicy(rules []Rule, fallback Rule, bypassPaths ...string) Policy {
	bypass := make(map[string]struct{}, len(bypassPaths))
	for _, p := range bypassPaths {
		bypass[p] = struct{}{}
	}
	return Policy{rules: rules, bypass: bypass, fallback: fallback}
}

// RuleFor devuelve la regla para el path; ok=false significa bypass total.
func (p Policy) RuleFor(path string) (Rule, bool) {
	if _, exempt := p.bypass[path]; exempt {
		return Rule{}, false
	}
	best := p.fallback
	bestLen := -1
	for _, r := range p.rules {
		if strings.HasPrefix(path, r.Prefix) && len(r.Prefix) > bestLen {
			best = r
			bestLen = len(r.Prefix)
		}
	}
	return best, true
}

// counterKey arma la clave compartida del contador por (cliente, endpoint).
func counterKey(clientID, method, path string) string {
	return "rate_limit:" + clientID + ":" + method + ":" + path
}
