package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ascend-api/internal/domain"
	"ascend-api/internal/service"
)

func userRouter(repo *fakeUserRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewUserHandler(zap.NewNop(), service.NewUserService(zap.NewNop(), repo))
	r.POST("/api/v1/users", h.CreateOrGetUser)
	return r
}

func postUsers(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrGetUser_CreatesNewUser(t *testing.T) {
	r := userRouter(newFakeUserRepo())

	rec := postUsers(t, r, `{
		"email": "new@example.com",
		"name": "New User",
		"oauth_provider": "github",
		"oauth_id": "gh-42"
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.ID == "" || got.Email != "new@example.com" || got.OAuthProvider != domain.ProviderGitHub {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreateOrGetUser_ReturnsExisting(t *testing.T) {
	existing := testUser()
	r := userRouter(newFakeUserRepo(existing))

	rec := postUsers(t, r, `{
		"email": "user@example.com",
		"oauth_provider": "google",
		"oauth_id": "google-123"
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.ID != existing.ID {
		t.Fatalf("expected existing user %q, got %q", existing.ID, got.ID)
	}
}

func TestCreateOrGetUser_BadRequests(t *testing.T) {
	r := userRouter(newFakeUserRepo())

	cases := []struct {
		name string
		body string
	}{
		{"missing email", `{"oauth_provider": "google", "oauth_id": "g-1"}`},
		{"bad email", `{"email": "nope", "oauth_provider": "google", "oauth_id": "g-1"}`},
		{"missing provider", `{"email": "a@b.com", "oauth_id": "g-1"}`},
		{"unknown provider", `{"email": "a@b.com", "oauth_provider": "gitlab", "oauth_id": "g-1"}`},
		{"not json", `email=a@b.com`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := postUsers(t, r, tc.body); rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}
