package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shannu2342/wholexale-backend/internal/notifications"
	"github.com/shannu2342/wholexale-backend/internal/offers"
	"github.com/shannu2342/wholexale-backend/internal/realtime"
	pkgAuth "github.com/shannu2342/wholexale-backend/pkg/auth"
	"github.com/shannu2342/wholexale-backend/pkg/auth/session"
	"github.com/shannu2342/wholexale-backend/pkg/config"
	"github.com/shannu2342/wholexale-backend/pkg/db/models"
	"github.com/shannu2342/wholexale-backend/pkg/enums"
	pkgerrors "github.com/shannu2342/wholexale-backend/pkg/errors"
	"github.com/shannu2342/wholexale-backend/pkg/logger"
	"github.com/shannu2342/wholexale-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubOffers struct {
	offer *models.Offer
	err   error
}

func (s *stubOffers) Create(context.Context, offers.CreateInput) (*models.Offer, error) {
	return s.offer, s.err
}

func (s *stubOffers) Get(context.Context, string, uuid.UUID) (*models.Offer, error) {
	return s.offer, s.err
}

func (s *stubOffers) List(context.Context, uuid.UUID, pagination.Params, offers.ListFilters) (*offers.OfferList, error) {
	if s.err != nil {
		return nil, s.err
	}
	list := &offers.OfferList{}
	if s.offer != nil {
		list.Offers = []models.Offer{*s.offer}
	}
	return list, nil
}

func (s *stubOffers) OpenOffers(context.Context, uuid.UUID) ([]models.Offer, error) {
	return nil, s.err
}

func (s *stubOffers) Respond(context.Context, offers.RespondInput) (*models.Offer, error) {
	return s.offer, s.err
}

func (s *stubOffers) Withdraw(context.Context, offers.WithdrawInput) (*models.Offer, error) {
	return s.offer, s.err
}

func (s *stubOffers) MarkSent(context.Context, string) error { return s.err }

func (s *stubOffers) Expire(context.Context, string) error { return s.err }

func (s *stubOffers) ExpireDue(context.Context, time.Time, int) (int, error) { return 0, s.err }

func (s *stubOffers) AnalyticsSummary(context.Context, uuid.UUID) (*offers.AnalyticsSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &offers.AnalyticsSummary{WindowDays: 30}, nil
}

type stubNotifications struct {
	err error
}

func (s *stubNotifications) List(context.Context, notifications.ListParams) (*notifications.ListResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &notifications.ListResult{}, nil
}

func (s *stubNotifications) MarkRead(context.Context, uuid.UUID, uuid.UUID) error { return s.err }

func (s *stubNotifications) MarkAllRead(context.Context, uuid.UUID) (int64, error) {
	return 0, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60},
	}
}

func newTestRouter(t *testing.T, offersSvc offers.Service, notificationsSvc notifications.Service) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "router-test"})
	hub := realtime.NewHub(logg)
	return NewRouter(RouterParams{
		Config:          testConfig(),
		Logger:          logg,
		DB:              stubPinger{},
		Cache:           stubPinger{},
		Sessions:        stubSessions{},
		Offers:          offersSvc,
		Notifications:   notificationsSvc,
		Hub:             hub,
		RealtimeHandler: realtime.NewHandler(offersSvc, logg),
	})
}

func mintToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleBuyer,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterHealthAndPublicRoutes(t *testing.T) {
	router := newTestRouter(t, &stubOffers{}, &stubNotifications{})

	for _, path := range []string{"/health/live", "/health/ready", "/api/public/ping"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestRouterRequiresAuthOnOffers(t *testing.T) {
	router := newTestRouter(t, &stubOffers{}, &stubNotifications{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/offers", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRouterListsOffersForAuthenticatedUser(t *testing.T) {
	offer := &models.Offer{OfferID: "OFF-1", Status: enums.OfferStatusPending}
	router := newTestRouter(t, &stubOffers{offer: offer}, &stubNotifications{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/offers?type=sent", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, uuid.New()))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Data struct {
			Offers []models.Offer `json:"offers"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(payload.Data.Offers) != 1 || payload.Data.Offers[0].OfferID != "OFF-1" {
		t.Fatalf("unexpected offers payload: %s", resp.Body.String())
	}
}

func TestRouterTranslatesOfferNotFound(t *testing.T) {
	svc := &stubOffers{err: pkgerrors.New(pkgerrors.CodeOfferNotFound, "offer not found")}
	router := newTestRouter(t, svc, &stubNotifications{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/offers/OFF-missing", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, uuid.New()))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeOfferNotFound) {
		t.Fatalf("expected code %s got %s", pkgerrors.CodeOfferNotFound, payload.Error.Code)
	}
}

func TestRouterNotificationRoutes(t *testing.T) {
	router := newTestRouter(t, &stubOffers{}, &stubNotifications{})
	token := mintToken(t, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=5", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("list: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	markReq := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/notifications/%s/read", uuid.New()), nil)
	markReq.Header.Set("Authorization", "Bearer "+token)
	markReq.Header.Set("Idempotency-Key", uuid.NewString())
	markResp := httptest.NewRecorder()
	router.ServeHTTP(markResp, markReq)
	if markResp.Code != http.StatusOK {
		t.Fatalf("mark read: expected 200 got %d: %s", markResp.Code, markResp.Body.String())
	}
}
