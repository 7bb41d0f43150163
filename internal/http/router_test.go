package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ascend-api/internal/cache"
	"ascend-api/internal/ratelimit"
	"ascend-api/internal/service"
)

func fullRouter(repo *fakeUserRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	auth := service.NewAuthenticator(logger, testSecret, repo, cache.NewMemoryTokenCache())
	limiter := ratelimit.NewMemorySlidingWindow(ratelimit.DefaultPolicy())
	return NewRouter(
		logger,
		limiter,
		auth,
		NewAuthHandler(logger),
		NewUserHandler(logger, service.NewUserService(logger, repo)),
		NewHealthHandler(nil),
	)
}

func TestRouter_VerifyFlow(t *testing.T) {
	user := testUser()
	r := fullRouter(newFakeUserRepo(user))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, "u1", time.Hour))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-RateLimit-Limit") != "5" {
		t.Fatalf("expected auth limit headers, got %q", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRouter_RateLimitShieldsAuthenticator(t *testing.T) {
	user := testUser()
	repo := newFakeUserRepo(user)
	r := fullRouter(repo)
	token := mintToken(t, "u1", time.Hour)

	codes := make([]int, 0, 6)
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/verify", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-Forwarded-For", "1.2.3.4")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	for i := 0; i < 5; i++ {
		if codes[i] != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, codes[i])
		}
	}
	if codes[5] != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on 6th request, got %d", codes[5])
	}
}

func TestRouter_HealthBypassedAndUnauthenticated(t *testing.T) {
	r := fullRouter(newFakeUserRepo())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected health body: %+v", body)
	}
}
