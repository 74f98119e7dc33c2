package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shannu2342/wholexale-backend/internal/offers"
	"github.com/shannu2342/wholexale-backend/pkg/enums"
	pkgerrors "github.com/shannu2342/wholexale-backend/pkg/errors"
	"github.com/shannu2342/wholexale-backend/pkg/logger"
	"github.com/shannu2342/wholexale-backend/pkg/types"
)

// Handler dispatches inbound websocket frames onto the offers service. It
// is the same service the REST controllers call, so both transports share
// one rule set.
type Handler struct {
	offers offers.Service
	logg   *logger.Logger
}

// NewHandler wires the frame dispatcher.
func NewHandler(offersSvc offers.Service, logg *logger.Logger) *Handler {
	return &Handler{offers: offersSvc, logg: logg}
}

type createOfferData struct {
	SellerID      uuid.UUID             `json:"seller_id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Product       types.ProductSnapshot `json:"product"`
	OriginalPrice decimal.Decimal       `json:"original_price"`
	OfferPrice    decimal.Decimal       `json:"offer_price"`
	Quantity      int                   `json:"quantity"`
	Unit          string                `json:"unit"`
	Currency      string                `json:"currency"`
	EndDate       *time.Time            `json:"end_date,omitempty"`
	Message       string                `json:"message,omitempty"`
}

type respondOfferData struct {
	OfferID string                    `json:"offer_id"`
	Action  string                    `json:"action"`
	Changes *types.NegotiationChanges `json:"changes,omitempty"`
	Message string                    `json:"message,omitempty"`
}

// HandleFrame routes one inbound frame. Unknown events and guard failures
// come back as error frames carrying the same codes the REST layer uses.
func (h *Handler) HandleFrame(ctx context.Context, client *Client, frame Frame) {
	switch frame.Event {
	case EventOfferCreate:
		h.handleCreate(ctx, client, frame.Data)
	case EventOfferRespond:
		h.handleRespond(ctx, client, frame.Data)
	case EventOffersSubscribe:
		h.handleSubscribe(ctx, client)
	default:
		client.sendError(string(pkgerrors.CodeInvalidAction), "unknown event")
	}
}

func (h *Handler) handleCreate(ctx context.Context, client *Client, data json.RawMessage) {
	var req createOfferData
	if err := json.Unmarshal(data, &req); err != nil {
		client.sendError(string(pkgerrors.CodeValidation), "malformed offer payload")
		return
	}

	offer, err := h.offers.Create(ctx, offers.CreateInput{
		BuyerID:           client.userID,
		SellerID:          req.SellerID,
		Title:             req.Title,
		Description:       req.Description,
		Product:           req.Product,
		OriginalPrice:     req.OriginalPrice,
		OfferPrice:        req.OfferPrice,
		Currency:          enums.Currency(req.Currency),
		QuantityRequested: req.Quantity,
		QuantityUnit:      enums.QuantityUnit(req.Unit),
		EndDate:           req.EndDate,
		Message:           req.Message,
	})
	if err != nil {
		h.replyError(ctx, client, err)
		return
	}

	h.reply(ctx, client, EventOfferCreated, offer)
}

func (h *Handler) handleRespond(ctx context.Context, client *Client, data json.RawMessage) {
	var req respondOfferData
	if err := json.Unmarshal(data, &req); err != nil {
		client.sendError(string(pkgerrors.CodeValidation), "malformed respond payload")
		return
	}

	action, err := enums.ParseOfferAction(req.Action)
	if err != nil {
		client.sendError(string(pkgerrors.CodeInvalidAction), "unknown negotiation action")
		return
	}

	input := offers.RespondInput{
		OfferID: req.OfferID,
		ActorID: client.userID,
		Action:  action,
		Message: req.Message,
	}
	if req.Changes != nil {
		input.Changes = *req.Changes
	}

	offer, err := h.offers.Respond(ctx, input)
	if err != nil {
		h.replyError(ctx, client, err)
		return
	}

	h.reply(ctx, client, EventOfferResponded, offer)
}

func (h *Handler) handleSubscribe(ctx context.Context, client *Client) {
	open, err := h.offers.OpenOffers(ctx, client.userID)
	if err != nil {
		h.replyError(ctx, client, err)
		return
	}
	h.reply(ctx, client, EventOffersInitialData, map[string]any{"offers": open})
}

func (h *Handler) reply(ctx context.Context, client *Client, event string, data any) {
	frame, err := NewFrame(event, data)
	if err != nil {
		h.logg.Error(ctx, "encode reply frame", err)
		return
	}
	client.reply(frame)
}

func (h *Handler) replyError(ctx context.Context, client *Client, err error) {
	if typed := pkgerrors.As(err); typed != nil {
		client.sendError(string(typed.Code()), typed.Message())
		return
	}
	h.logg.Error(ctx, "websocket handler failed", err)
	client.sendError(string(pkgerrors.CodeInternal), "internal server error")
}
