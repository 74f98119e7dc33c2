package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shannu2342/wholexale-backend/api/responses"
	"github.com/shannu2342/wholexale-backend/api/validators"
	"github.com/shannu2342/wholexale-backend/internal/offers"
	"github.com/shannu2342/wholexale-backend/pkg/enums"
	pkgerrors "github.com/shannu2342/wholexale-backend/pkg/errors"
	"github.com/shannu2342/wholexale-backend/pkg/logger"
	"github.com/shannu2342/wholexale-backend/pkg/pagination"
	"github.com/shannu2342/wholexale-backend/pkg/types"
)

// CreateOfferBody is the payload for opening a negotiation.
type CreateOfferBody struct {
	SellerID      uuid.UUID             `json:"seller_id" validate:"required"`
	Title         string                `json:"title" validate:"required,max=200"`
	Description   string                `json:"description" validate:"required,max=2000"`
	Product       types.ProductSnapshot `json:"product"`
	OriginalPrice decimal.Decimal       `json:"original_price"`
	OfferPrice    decimal.Decimal       `json:"offer_price"`
	Quantity      int                   `json:"quantity" validate:"required,min=1"`
	Unit          string                `json:"unit" validate:"omitempty,max=32"`
	Currency      string                `json:"currency" validate:"omitempty,len=3"`
	EndDate       *time.Time            `json:"end_date"`
	Message       string                `json:"message" validate:"omitempty,max=1000"`
}

// RespondOfferBody carries an accept/reject/counter decision.
type RespondOfferBody struct {
	Action  string                    `json:"action" validate:"required"`
	Message string                    `json:"message" validate:"omitempty,max=1000"`
	Changes *types.NegotiationChanges `json:"changes"`
}

// WithdrawOfferBody carries the optional withdrawal reason.
type WithdrawOfferBody struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

// CreateOffer opens a new offer from the caller toward a seller.
func CreateOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body CreateOfferBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Create(r.Context(), offers.CreateInput{
			BuyerID:           userID,
			SellerID:          body.SellerID,
			Title:             body.Title,
			Description:       body.Description,
			Product:           body.Product,
			OriginalPrice:     body.OriginalPrice,
			OfferPrice:        body.OfferPrice,
			Currency:          enums.Currency(body.Currency),
			QuantityRequested: body.Quantity,
			QuantityUnit:      enums.QuantityUnit(body.Unit),
			EndDate:           body.EndDate,
			Message:           body.Message,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, offer)
	}
}

// ListOffers returns the caller's offers, newest first.
func ListOffers(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
			value, err := strconv.Atoi(limitStr)
			if err != nil || value <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			params.Limit = value
		}

		filters := offers.ListFilters{}
		switch direction := strings.TrimSpace(r.URL.Query().Get("type")); direction {
		case "":
		case string(offers.DirectionSent):
			filters.Direction = offers.DirectionSent
		case string(offers.DirectionReceived):
			filters.Direction = offers.DirectionReceived
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "type must be sent or received"))
			return
		}

		if statusStr := strings.TrimSpace(r.URL.Query().Get("status")); statusStr != "" {
			status := enums.OfferStatus(statusStr)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown offer status"))
				return
			}
			filters.Status = &status
		}

		list, err := svc.List(r.Context(), userID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetOffer returns a single offer when the caller is a party to it.
func GetOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offerID := strings.TrimSpace(chi.URLParam(r, "offerId"))
		if offerID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "offer id required"))
			return
		}

		offer, err := svc.Get(r.Context(), offerID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

// RespondOffer applies accept, reject, or counter to an open offer.
func RespondOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offerID := strings.TrimSpace(chi.URLParam(r, "offerId"))
		if offerID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "offer id required"))
			return
		}

		var body RespondOfferBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action, err := enums.ParseOfferAction(body.Action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInvalidAction, "unknown negotiation action"))
			return
		}

		input := offers.RespondInput{
			OfferID: offerID,
			ActorID: userID,
			Action:  action,
			Message: body.Message,
		}
		if body.Changes != nil {
			input.Changes = *body.Changes
		}

		offer, err := svc.Respond(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

// WithdrawOffer lets the buyer retract an open offer.
func WithdrawOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offerID := strings.TrimSpace(chi.URLParam(r, "offerId"))
		if offerID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "offer id required"))
			return
		}

		var body WithdrawOfferBody
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		offer, err := svc.Withdraw(r.Context(), offers.WithdrawInput{
			OfferID: offerID,
			ActorID: userID,
			Reason:  body.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

// OfferAnalyticsSummary reports the caller's negotiation activity.
func OfferAnalyticsSummary(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.AnalyticsSummary(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
