package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shannu2342/wholexale-backend/internal/realtime"
	pkgAuth "github.com/shannu2342/wholexale-backend/pkg/auth"
	"github.com/shannu2342/wholexale-backend/pkg/config"
	"github.com/shannu2342/wholexale-backend/pkg/enums"
	"github.com/shannu2342/wholexale-backend/pkg/logger"
)

type fakeHandshakeLimiter struct {
	allowed bool
	scope   string
	limit   int64
	window  time.Duration
	calls   int
}

func (f *fakeHandshakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	f.calls++
	f.scope = scope
	f.limit = limit
	f.window = window
	return f.allowed, 1, nil
}

type allowAllSessions struct{}

func (allowAllSessions) HasSession(context.Context, string) (bool, error) { return true, nil }

func wsTestConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60},
		Realtime: config.RealtimeConfig{
			HandshakeTimeout:    time.Second,
			HandshakeRateLimit:  5,
			HandshakeRateWindow: time.Minute,
		},
	}
}

func mintWSToken(t *testing.T, cfg *config.Config, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleBuyer,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestWebSocketHandshakeRateLimited(t *testing.T) {
	cfg := wsTestConfig()
	logg := logger.New(logger.Options{ServiceName: "test"})
	limiter := &fakeHandshakeLimiter{allowed: false}
	user := uuid.New()

	handler := WebSocket(cfg, allowAllSessions{}, limiter, realtime.NewHub(logg), nil, logg)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer "+mintWSToken(t, cfg, user))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", rec.Code, rec.Body.String())
	}
	if limiter.calls != 1 {
		t.Fatalf("expected one limiter call, got %d", limiter.calls)
	}
	if !strings.Contains(limiter.scope, user.String()) {
		t.Fatalf("limit window must be scoped per user, got %q", limiter.scope)
	}
	if limiter.limit != 5 || limiter.window != time.Minute {
		t.Fatalf("configured limit not applied: %d/%s", limiter.limit, limiter.window)
	}
}

func TestWebSocketHandshakeAllowedReachesUpgrade(t *testing.T) {
	cfg := wsTestConfig()
	logg := logger.New(logger.Options{ServiceName: "test"})
	limiter := &fakeHandshakeLimiter{allowed: true}

	handler := WebSocket(cfg, allowAllSessions{}, limiter, realtime.NewHub(logg), nil, logg)

	// A plain GET passes the limiter and fails the websocket upgrade.
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer "+mintWSToken(t, cfg, uuid.New()))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if limiter.calls != 1 {
		t.Fatalf("expected limiter consulted before upgrade, got %d calls", limiter.calls)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected upgrade rejection for plain request, got %d", rec.Code)
	}
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	cfg := wsTestConfig()
	logg := logger.New(logger.Options{ServiceName: "test"})
	limiter := &fakeHandshakeLimiter{allowed: true}

	handler := WebSocket(cfg, allowAllSessions{}, limiter, realtime.NewHub(logg), nil, logg)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if limiter.calls != 0 {
		t.Fatalf("anonymous requests must not consume the rate window")
	}
}
