package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shannu2342/wholexale-backend/api/responses"
	"github.com/shannu2342/wholexale-backend/internal/realtime"
	pkgAuth "github.com/shannu2342/wholexale-backend/pkg/auth"
	"github.com/shannu2342/wholexale-backend/pkg/auth/session"
	"github.com/shannu2342/wholexale-backend/pkg/config"
	pkgerrors "github.com/shannu2342/wholexale-backend/pkg/errors"
	"github.com/shannu2342/wholexale-backend/pkg/logger"
)

// HandshakeLimiter is the slice of the redis client the upgrade rate limit needs.
type HandshakeLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// WebSocket upgrades the connection and hands it to the realtime hub. The
// token rides in the Authorization header or, for browser clients that
// cannot set headers on the upgrade request, a `token` query parameter.
func WebSocket(cfg *config.Config, verifier session.AccessSessionChecker, limiter HandshakeLimiter, hub *realtime.Hub, handler *realtime.Handler, logg *logger.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		HandshakeTimeout: cfg.Realtime.HandshakeTimeout,
		CheckOrigin:      originChecker(cfg.Realtime.AllowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		claims, err := pkgAuth.ParseAccessToken(cfg.JWT, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
			return
		}
		if claims.ID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
			return
		}
		if verifier != nil {
			ok, err := verifier.HasSession(r.Context(), claims.ID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
				return
			}
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
				return
			}
		}

		if limiter != nil && cfg.Realtime.HandshakeRateLimit > 0 {
			scope := fmt.Sprintf("ws-handshake:%s", claims.UserID)
			allowed, _, err := limiter.FixedWindowAllow(r.Context(), scope, cfg.Realtime.HandshakeRateLimit, cfg.Realtime.HandshakeRateWindow)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "handshake rate limit"))
				return
			}
			if !allowed {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many connection attempts, retry shortly"))
				return
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the handshake failure.
			logg.Error(r.Context(), "websocket upgrade failed", err)
			return
		}

		ctx := logg.WithFields(r.Context(), map[string]any{
			"user_id":   claims.UserID.String(),
			"transport": "websocket",
		})
		logg.Info(ctx, "websocket connected")

		// Serve blocks until the connection closes; the request context
		// stays alive for the lifetime of the pumps.
		client := realtime.NewClient(hub, handler, conn, claims.UserID, cfg.Realtime)
		client.Serve(ctx)
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw != "" {
		return raw
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, candidate := range allowed {
			if strings.EqualFold(strings.TrimSpace(candidate), origin) {
				return true
			}
		}
		return false
	}
}
