package realtime

import "encoding/json"

// Events a connected client may send.
const (
	EventOfferCreate     = "offer:create"
	EventOfferRespond    = "offer:respond"
	EventOffersSubscribe = "offers:subscribe"
)

// Events the server emits to clients.
const (
	EventOfferCreated      = "offer:created"
	EventOfferReceived     = "offer:received"
	EventOfferResponded    = "offer:responded"
	EventOfferResponse     = "offer:response"
	EventOfferWithdrawn    = "offer:withdrawn"
	EventOfferExpired      = "offer:expired"
	EventOffersInitialData = "offers:initial_data"
	EventError             = "error"
)

// Frame is the wire format for every websocket message and every payload
// relayed through the per-user Redis channels.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewFrame marshals data into a Frame for the given event.
func NewFrame(event string, data any) (Frame, error) {
	if data == nil {
		return Frame{Event: event}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: event, Data: raw}, nil
}

// Encode renders a frame to its wire bytes.
func (f Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

// ErrorData is the payload of an error frame; it mirrors the coded errors
// the REST layer returns.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
