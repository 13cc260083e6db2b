package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aegis/backend/internal/model"
	"aegis/backend/internal/util"
	"aegis/backend/pkg/logger"
	"aegis/backend/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator struct{}

func (stubValidator) ValidateToken(_ context.Context, token string) (*model.User, error) {
	if token != "good" {
		return nil, util.NewAppError(http.StatusUnauthorized, util.ErrCodeTokenInvalid, "Invalid token")
	}
	return &model.User{ID: "u-1", Username: "alice", Role: model.RoleUser}, nil
}

func decodeError(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var resp util.Response
	if err := json.Unmarshal(body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body %q: %v", body.String(), err)
	}
	if resp.Success || resp.Error == nil {
		t.Fatalf("expected error envelope, got %s", body.String())
	}
	return resp.Error.Code
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(stubValidator{}), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUsername(c)+"/"+CurrentUserID(c))
	})

	tests := []struct {
		name    string
		path    string
		header  string
		upgrade bool
		status  int
		code    string
	}{
		{"missing", "/me", "", false, http.StatusUnauthorized, util.ErrCodeUnauthorized},
		{"malformed", "/me", "Token good", false, http.StatusUnauthorized, util.ErrCodeUnauthorized},
		{"invalid", "/me", "Bearer bad", false, http.StatusUnauthorized, util.ErrCodeTokenInvalid},
		{"valid", "/me", "Bearer good", false, http.StatusOK, ""},
		{"query token on upgrade", "/me?access_token=good", "", true, http.StatusOK, ""},
		{"query token without upgrade", "/me?access_token=good", "", false, http.StatusUnauthorized, util.ErrCodeUnauthorized},
		{"bad query token on upgrade", "/me?access_token=bad", "", true, http.StatusUnauthorized, util.ErrCodeTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.upgrade {
				req.Header.Set("Upgrade", "websocket")
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.code != "" {
				if code := decodeError(t, w.Body); code != tt.code {
					t.Errorf("code = %s, want %s", code, tt.code)
				}
				return
			}
			if w.Body.String() != "alice/u-1" {
				t.Errorf("body = %q", w.Body.String())
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	defer rc.Close()

	limiter := NewRateLimiter(rc, 2, time.Minute, "login", logger.Nop())
	r := gin.New()
	r.POST("/login", limiter.Limit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := hit(); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, w.Code)
		}
	}
	w := hit()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", w.Code)
	}
	if code := decodeError(t, w.Body); code != util.ErrCodeRateLimit {
		t.Errorf("code = %s", code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if !mr.Exists(redis.RateLimitKey("10.0.0.1", "login")) {
		t.Error("counter stored under unexpected key")
	}

	mr.FastForward(2 * time.Minute)
	if w := hit(); w.Code != http.StatusOK {
		t.Errorf("after window status = %d, want 200", w.Code)
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	defer rc.Close()
	mr.Close()

	r := gin.New()
	r.GET("/", NewRateLimiter(rc, 1, time.Minute, "any", logger.Nop()).Limit(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d with redis down, want 200", w.Code)
		}
	}
}

func TestRecoveryAndLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "info", "json")

	r := gin.New()
	r.Use(RequestID(), Logger(log), Recovery(log))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if code := decodeError(t, w.Body); code != util.ErrCodeInternal {
		t.Errorf("code = %s", code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set")
	}
	out := buf.String()
	if !strings.Contains(out, "Panic recovered") || !strings.Contains(out, "kaboom") {
		t.Errorf("panic not logged: %s", out)
	}
	if !strings.Contains(out, `"status":500`) {
		t.Errorf("request not logged with status: %s", out)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != "abc-123" || w.Header().Get("X-Request-ID") != "abc-123" {
		t.Errorf("request id not propagated: body %q header %q", w.Body.String(), w.Header().Get("X-Request-ID"))
	}
}

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		allowed []string
		origin  string
		want    bool
	}{
		{nil, "https://any.example.com", true},
		{[]string{"*"}, "https://any.example.com", true},
		{[]string{"https://dash.example.com"}, "https://DASH.example.com", true},
		{[]string{"https://dash.example.com"}, "https://evil.example.com", false},
	}
	for _, tt := range tests {
		if got := OriginAllowed(tt.allowed, tt.origin); got != tt.want {
			t.Errorf("OriginAllowed(%v, %q) = %v, want %v", tt.allowed, tt.origin, got, tt.want)
		}
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://dash.example.com"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://dash.example.com" {
		t.Errorf("allow origin = %q", w.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("disallowed origin got status %d headers %v", w.Code, w.Header())
	}
}
