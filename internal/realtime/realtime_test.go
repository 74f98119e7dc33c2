package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shannu2342/wholexale-backend/internal/offers"
	"github.com/shannu2342/wholexale-backend/pkg/config"
	"github.com/shannu2342/wholexale-backend/pkg/db/models"
	"github.com/shannu2342/wholexale-backend/pkg/enums"
	pkgerrors "github.com/shannu2342/wholexale-backend/pkg/errors"
	"github.com/shannu2342/wholexale-backend/pkg/logger"
	"github.com/shannu2342/wholexale-backend/pkg/pagination"
)

type stubOffersService struct {
	createInput  *offers.CreateInput
	respondInput *offers.RespondInput
	offer        *models.Offer
	openOffers   []models.Offer
	err          error
}

func (s *stubOffersService) Create(_ context.Context, input offers.CreateInput) (*models.Offer, error) {
	s.createInput = &input
	if s.err != nil {
		return nil, s.err
	}
	return s.offer, nil
}

func (s *stubOffersService) Get(context.Context, string, uuid.UUID) (*models.Offer, error) {
	return s.offer, s.err
}

func (s *stubOffersService) List(context.Context, uuid.UUID, pagination.Params, offers.ListFilters) (*offers.OfferList, error) {
	return &offers.OfferList{Offers: s.openOffers}, s.err
}

func (s *stubOffersService) OpenOffers(context.Context, uuid.UUID) ([]models.Offer, error) {
	return s.openOffers, s.err
}

func (s *stubOffersService) Respond(_ context.Context, input offers.RespondInput) (*models.Offer, error) {
	s.respondInput = &input
	if s.err != nil {
		return nil, s.err
	}
	return s.offer, nil
}

func (s *stubOffersService) Withdraw(_ context.Context, input offers.WithdrawInput) (*models.Offer, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.offer, nil
}

func (s *stubOffersService) MarkSent(context.Context, string) error { return s.err }

func (s *stubOffersService) Expire(context.Context, string) error { return s.err }

func (s *stubOffersService) ExpireDue(context.Context, time.Time, int) (int, error) {
	return 0, s.err
}

func (s *stubOffersService) AnalyticsSummary(context.Context, uuid.UUID) (*offers.AnalyticsSummary, error) {
	return nil, s.err
}

func testRealtimeConfig() config.RealtimeConfig {
	return config.RealtimeConfig{
		WriteTimeout:     2 * time.Second,
		PongTimeout:      5 * time.Second,
		PingInterval:     4 * time.Second,
		SendBufferSize:   8,
		MaxMessageBytes:  32768,
		HandshakeTimeout: 2 * time.Second,
	}
}

// dialTestClient spins a websocket endpoint around the hub and handler and
// returns the caller side of a live connection.
func dialTestClient(t *testing.T, hub *Hub, handler *Handler, userID uuid.UUID) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, handler, conn, userID, testRealtimeConfig())
		client.Serve(r.Context())
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame Frame
	require.NoError(t, json.Unmarshal(payload, &frame))
	return frame
}

func writeFrame(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	frame, err := NewFrame(event, data)
	require.NoError(t, err)
	encoded, err := frame.Encode()
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, encoded))
}

func TestSubscribeReturnsInitialData(t *testing.T) {
	userID := uuid.New()
	svc := &stubOffersService{openOffers: []models.Offer{
		{OfferID: "OFF-1", Status: enums.OfferStatusPending},
		{OfferID: "OFF-2", Status: enums.OfferStatusCountered},
	}}
	logg := logger.New(logger.Options{ServiceName: "realtime-test"})
	hub := NewHub(logg)
	handler := NewHandler(svc, logg)

	conn := dialTestClient(t, hub, handler, userID)
	writeFrame(t, conn, EventOffersSubscribe, nil)

	frame := readFrame(t, conn)
	assert.Equal(t, EventOffersInitialData, frame.Event)

	var payload struct {
		Offers []models.Offer `json:"offers"`
	}
	require.NoError(t, json.Unmarshal(frame.Data, &payload))
	assert.Len(t, payload.Offers, 2)
}

func TestRespondFrameReachesService(t *testing.T) {
	userID := uuid.New()
	svc := &stubOffersService{offer: &models.Offer{
		OfferID: "OFF-42",
		Status:  enums.OfferStatusAccepted,
	}}
	logg := logger.New(logger.Options{ServiceName: "realtime-test"})
	hub := NewHub(logg)
	handler := NewHandler(svc, logg)

	conn := dialTestClient(t, hub, handler, userID)
	writeFrame(t, conn, EventOfferRespond, map[string]any{
		"offer_id": "OFF-42",
		"action":   "accept",
	})

	frame := readFrame(t, conn)
	assert.Equal(t, EventOfferResponded, frame.Event)

	require.NotNil(t, svc.respondInput)
	assert.Equal(t, "OFF-42", svc.respondInput.OfferID)
	assert.Equal(t, userID, svc.respondInput.ActorID)
	assert.Equal(t, enums.OfferActionAccept, svc.respondInput.Action)
}

func TestRespondFrameTranslatesCodedErrors(t *testing.T) {
	svc := &stubOffersService{
		err: pkgerrors.New(pkgerrors.CodeOfferClosed, "offer is no longer open"),
	}
	logg := logger.New(logger.Options{ServiceName: "realtime-test"})
	hub := NewHub(logg)
	handler := NewHandler(svc, logg)

	conn := dialTestClient(t, hub, handler, uuid.New())
	writeFrame(t, conn, EventOfferRespond, map[string]any{
		"offer_id": "OFF-9",
		"action":   "counter",
	})

	frame := readFrame(t, conn)
	assert.Equal(t, EventError, frame.Event)

	var errData ErrorData
	require.NoError(t, json.Unmarshal(frame.Data, &errData))
	assert.Equal(t, string(pkgerrors.CodeOfferClosed), errData.Code)
	assert.Equal(t, "offer is no longer open", errData.Message)
}

func TestUnknownActionRejectedBeforeService(t *testing.T) {
	svc := &stubOffersService{}
	logg := logger.New(logger.Options{ServiceName: "realtime-test"})
	hub := NewHub(logg)
	handler := NewHandler(svc, logg)

	conn := dialTestClient(t, hub, handler, uuid.New())
	writeFrame(t, conn, EventOfferRespond, map[string]any{
		"offer_id": "OFF-9",
		"action":   "approve",
	})

	frame := readFrame(t, conn)
	assert.Equal(t, EventError, frame.Event)

	var errData ErrorData
	require.NoError(t, json.Unmarshal(frame.Data, &errData))
	assert.Equal(t, string(pkgerrors.CodeInvalidAction), errData.Code)
	assert.Nil(t, svc.respondInput)
}

func TestUnknownEventReturnsError(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "realtime-test"})
	hub := NewHub(logg)
	handler := NewHandler(&stubOffersService{}, logg)

	conn := dialTestClient(t, hub, handler, uuid.New())
	writeFrame(t, conn, "offer:teleport", nil)

	frame := readFrame(t, conn)
	assert.Equal(t, EventError, frame.Event)
}

func TestMalformedFrameReportsValidationError(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "realtime-test"})
	hub := NewHub(logg)
	handler := NewHandler(&stubOffersService{}, logg)

	conn := dialTestClient(t, hub, handler, uuid.New())
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	frame := readFrame(t, conn)
	assert.Equal(t, EventError, frame.Event)

	var errData ErrorData
	require.NoError(t, json.Unmarshal(frame.Data, &errData))
	assert.Equal(t, string(pkgerrors.CodeValidation), errData.Code)
}

func TestHubFansOutToAllUserConnections(t *testing.T) {
	userID := uuid.New()
	otherID := uuid.New()
	logg := logger.New(logger.Options{ServiceName: "realtime-test"})
	hub := NewHub(logg)
	handler := NewHandler(&stubOffersService{}, logg)

	first := dialTestClient(t, hub, handler, userID)
	second := dialTestClient(t, hub, handler, userID)
	stranger := dialTestClient(t, hub, handler, otherID)

	require.Eventually(t, func() bool {
		return hub.Connected(userID) && hub.Connected(otherID)
	}, 2*time.Second, 10*time.Millisecond)

	frame, err := NewFrame(EventOfferReceived, map[string]string{"offer_id": "OFF-7"})
	require.NoError(t, err)
	hub.SendToUser(context.Background(), userID, frame)

	for _, conn := range []*websocket.Conn{first, second} {
		got := readFrame(t, conn)
		assert.Equal(t, EventOfferReceived, got.Event)
	}

	require.NoError(t, stranger.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = stranger.ReadMessage()
	assert.Error(t, err, "stranger connection must not receive the frame")
}

func TestHubDropsSlowConnectionSafely(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "realtime-test"})
	hub := NewHub(logg)
	userID := uuid.New()

	client := &Client{hub: hub, userID: userID, send: make(chan []byte)}
	hub.register(client)
	require.True(t, hub.Connected(userID))

	// Nothing drains the channel, so the delivery drops the connection.
	hub.SendRawToUser(context.Background(), userID, []byte(`{"event":"offer:update"}`))
	require.False(t, hub.Connected(userID))

	_, open := <-client.send
	require.False(t, open, "dropped client channel must be closed")

	// The read pump unregisters on exit; after the drop that must be a no-op.
	require.NotPanics(t, func() { hub.unregister(client) })
}

func TestHubSendUnregisterConcurrency(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "realtime-test"})
	hub := NewHub(logg)
	userID := uuid.New()
	payload := []byte(`{"event":"offer:update"}`)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		client := &Client{hub: hub, userID: userID, send: make(chan []byte, 1)}
		hub.register(client)
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.unregister(client)
		}()
		go func() {
			defer wg.Done()
			hub.SendRawToUser(context.Background(), userID, payload)
		}()
	}
	wg.Wait()
}

func TestUserIDFromChannel(t *testing.T) {
	userID := uuid.New()

	got, ok := userIDFromChannel("wx:realtime:user:" + userID.String())
	assert.True(t, ok)
	assert.Equal(t, userID, got)

	_, ok = userIDFromChannel("wx:realtime:user:not-a-uuid")
	assert.False(t, ok)

	_, ok = userIDFromChannel("wx:realtime:user:")
	assert.False(t, ok)
}
