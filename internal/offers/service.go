package offers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shannu2342/wholexale-backend/pkg/config"
	"github.com/shannu2342/wholexale-backend/pkg/db/models"
	"github.com/shannu2342/wholexale-backend/pkg/enums"
	pkgerrors "github.com/shannu2342/wholexale-backend/pkg/errors"
	"github.com/shannu2342/wholexale-backend/pkg/outbox"
	"github.com/shannu2342/wholexale-backend/pkg/outbox/payloads"
	"github.com/shannu2342/wholexale-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// errVersionConflict signals a lost optimistic-concurrency race; the caller
// reloads and re-runs the guards against fresh state.
var errVersionConflict = errors.New("offer version conflict")

// Service defines the negotiation operations shared by every transport.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Offer, error)
	Get(ctx context.Context, offerID string, actorID uuid.UUID) (*models.Offer, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OfferList, error)
	OpenOffers(ctx context.Context, userID uuid.UUID) ([]models.Offer, error)
	Respond(ctx context.Context, input RespondInput) (*models.Offer, error)
	Withdraw(ctx context.Context, input WithdrawInput) (*models.Offer, error)
	MarkSent(ctx context.Context, offerID string) error
	Expire(ctx context.Context, offerID string) error
	ExpireDue(ctx context.Context, now time.Time, batchSize int) (int, error)
	AnalyticsSummary(ctx context.Context, userID uuid.UUID) (*AnalyticsSummary, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	cfg    config.NegotiationConfig
	clock  func() time.Time
}

// NewService wires the negotiation service with its persistence and
// eventing collaborators.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, cfg config.NegotiationConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("offers: repository is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("offers: tx runner is required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("offers: outbox publisher is required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: outboxSvc,
		cfg:    cfg,
		clock:  time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Offer, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.SellerID == uuid.Nil || input.SellerID == input.BuyerID {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidSeller, "offer seller must be a different user")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if input.OfferPrice.IsNegative() || input.OriginalPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
	}
	if input.QuantityRequested < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	now := s.clock()
	endDate := now.Add(s.cfg.OfferTTL)
	if input.EndDate != nil {
		if !input.EndDate.After(now) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must be in the future")
		}
		endDate = *input.EndDate
	}

	currency := input.Currency
	if currency == "" {
		currency = enums.DefaultCurrency
	}
	unit := input.QuantityUnit
	if unit == "" {
		unit = enums.DefaultQuantityUnit
	}

	discount := ComputeDiscount(input.OriginalPrice, input.OfferPrice)
	offer := &models.Offer{
		OfferID:           NewOfferID(now),
		Title:             input.Title,
		Description:       input.Description,
		BuyerID:           input.BuyerID,
		SellerID:          input.SellerID,
		Product:           input.Product,
		OriginalPrice:     input.OriginalPrice,
		OfferPrice:        input.OfferPrice,
		Currency:          currency,
		DiscountAmount:    discount.Amount,
		DiscountPercent:   discount.Percent,
		QuantityRequested: input.QuantityRequested,
		QuantityUnit:      unit,
		Status:            enums.OfferStatusPending,
		MaxVendorCounters: s.cfg.MaxVendorCounters,
		StartDate:         now,
		EndDate:           endDate,
	}
	appendEntry(offer, input.BuyerID, enums.ActionSent, nil, input.Message, now)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		created, err := repo.CreateOffer(ctx, offer)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist offer")
		}
		offer = created

		event := outbox.DomainEvent{
			EventType:     enums.EventOfferCreated,
			AggregateType: enums.AggregateOffer,
			AggregateID:   offer.ID,
			Version:       1,
			Actor:         buildActor(input.BuyerID, string(enums.UserRoleBuyer)),
			Data: payloads.OfferCreatedEvent{
				OfferID:       offer.OfferID,
				Title:         offer.Title,
				ProductID:     offer.Product.ProductID,
				BuyerID:       offer.BuyerID,
				SellerID:      offer.SellerID,
				OriginalPrice: offer.OriginalPrice,
				OfferPrice:    offer.OfferPrice,
				Quantity:      offer.QuantityRequested,
				Currency:      offer.Currency,
				EndDate:       offer.EndDate,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *service) Get(ctx context.Context, offerID string, actorID uuid.UUID) (*models.Offer, error) {
	offer, err := s.loadOffer(ctx, s.repo, offerID)
	if err != nil {
		return nil, err
	}
	role := RoleOf(offer, actorID)
	if role == ActorRoleStranger {
		// A stranger learns nothing, not even that the offer exists.
		return nil, pkgerrors.New(pkgerrors.CodeOfferNotFound, "offer not found")
	}

	if role == ActorRoleSeller && (offer.Status == enums.OfferStatusPending || offer.Status == enums.OfferStatusSent) {
		updated, err := s.repo.UpdateVersioned(ctx, offer.ID, offer.Version, map[string]any{
			"status": enums.OfferStatusViewed,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark offer viewed")
		}
		if updated {
			offer.Status = enums.OfferStatusViewed
			offer.Version++
		}
	}
	return offer, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OfferList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListOffers(ctx, userID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	return list, nil
}

func (s *service) OpenOffers(ctx context.Context, userID uuid.UUID) ([]models.Offer, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListOpenOffers(ctx, userID, s.cfg.InitialOffersLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open offers")
	}
	return rows, nil
}

func (s *service) Respond(ctx context.Context, input RespondInput) (*models.Offer, error) {
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	for attempt := 0; attempt < s.cfg.TransitionRetries; attempt++ {
		fresh, err := s.loadOffer(ctx, s.repo, input.OfferID)
		if err != nil {
			return nil, err
		}
		if err := CanRespond(fresh, input.ActorID, input.Action); err != nil {
			return nil, err
		}

		now := s.clock()
		expectedVersion := fresh.Version
		switch input.Action {
		case enums.OfferActionAccept:
			err = Accept(fresh, input.ActorID, input.Message, now)
		case enums.OfferActionReject:
			err = Reject(fresh, input.ActorID, input.Message, now)
		case enums.OfferActionCounter:
			err = Counter(fresh, input.ActorID, input.Changes, input.Message, now)
		case enums.OfferActionWithdraw:
			err = Withdraw(fresh, input.ActorID, input.Message, now)
		}
		if err != nil {
			return nil, err
		}

		err = s.commitTransition(ctx, fresh, expectedVersion, transitionUpdates(fresh), s.respondedEvent(fresh, input))
		if errors.Is(err, errVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return fresh, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "offer was modified concurrently, retry the action")
}

func (s *service) Withdraw(ctx context.Context, input WithdrawInput) (*models.Offer, error) {
	return s.Respond(ctx, RespondInput{
		OfferID: input.OfferID,
		ActorID: input.ActorID,
		Action:  enums.OfferActionWithdraw,
		Message: input.Reason,
	})
}

// MarkSent flips a freshly created offer to sent once the seller has been
// notified. Losing the version race means the seller already acted, which
// supersedes delivery bookkeeping.
func (s *service) MarkSent(ctx context.Context, offerID string) error {
	offer, err := s.loadOffer(ctx, s.repo, offerID)
	if err != nil {
		return err
	}
	if offer.Status != enums.OfferStatusPending {
		return nil
	}
	_, err = s.repo.UpdateVersioned(ctx, offer.ID, offer.Version, map[string]any{
		"status": enums.OfferStatusSent,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark offer sent")
	}
	return nil
}

func (s *service) Expire(ctx context.Context, offerID string) error {
	offer, err := s.loadOffer(ctx, s.repo, offerID)
	if err != nil {
		return err
	}
	return s.expireOffer(ctx, offer)
}

// ExpireDue sweeps open offers whose validity window has passed. Each offer
// expires in its own transaction; a conflict on one row never blocks the
// rest of the batch.
func (s *service) ExpireDue(ctx context.Context, now time.Time, batchSize int) (int, error) {
	due, err := s.repo.FindExpiredDue(ctx, now, batchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find expired offers")
	}

	expired := 0
	for i := range due {
		if err := s.expireOffer(ctx, &due[i]); err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

func (s *service) AnalyticsSummary(ctx context.Context, userID uuid.UUID) (*AnalyticsSummary, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	since := s.clock().AddDate(0, 0, -s.cfg.AnalyticsWindowDays)
	sent, err := s.repo.CountByStatus(ctx, userID, DirectionSent, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count sent offers")
	}
	received, err := s.repo.CountByStatus(ctx, userID, DirectionReceived, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count received offers")
	}

	summary := &AnalyticsSummary{
		WindowDays:       s.cfg.AnalyticsWindowDays,
		SentAccepted:     sent[string(enums.OfferStatusAccepted)],
		ReceivedAccepted: received[string(enums.OfferStatusAccepted)],
	}
	var sentResponded, receivedResponded int64
	for status, total := range sent {
		summary.SentTotal += total
		if isRespondedStatus(status) {
			sentResponded += total
		}
	}
	for status, total := range received {
		summary.ReceivedTotal += total
		if isRespondedStatus(status) {
			receivedResponded += total
		}
	}
	if summary.SentTotal > 0 {
		summary.SentResponseRate = float64(sentResponded) / float64(summary.SentTotal)
	}
	if summary.ReceivedTotal > 0 {
		summary.ReceivedResponseRate = float64(receivedResponded) / float64(summary.ReceivedTotal)
	}
	return summary, nil
}

func (s *service) expireOffer(ctx context.Context, offer *models.Offer) error {
	if !offer.Status.IsOpen() {
		return nil
	}

	now := s.clock()
	expectedVersion := offer.Version
	Expire(offer)

	event := outbox.DomainEvent{
		EventType:     enums.EventOfferExpired,
		AggregateType: enums.AggregateOffer,
		AggregateID:   offer.ID,
		Version:       1,
		Data: payloads.OfferExpiredEvent{
			OfferID:   offer.OfferID,
			Title:     offer.Title,
			BuyerID:   offer.BuyerID,
			SellerID:  offer.SellerID,
			EndDate:   offer.EndDate,
			ExpiredAt: now,
		},
	}
	err := s.commitTransition(ctx, offer, expectedVersion, map[string]any{
		"status": offer.Status,
	}, event)
	if errors.Is(err, errVersionConflict) {
		return pkgerrors.New(pkgerrors.CodeConflict, "offer was modified concurrently")
	}
	return err
}

// commitTransition writes the post-transition row state and the outbox
// event in one transaction, conditional on the version the transition was
// computed against.
func (s *service) commitTransition(ctx context.Context, offer *models.Offer, expectedVersion int, updates map[string]any, event outbox.DomainEvent) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		updated, err := repo.UpdateVersioned(ctx, offer.ID, expectedVersion, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer")
		}
		if !updated {
			return errVersionConflict
		}
		offer.Version = expectedVersion + 1
		return s.outbox.Emit(ctx, tx, event)
	})
}

func (s *service) respondedEvent(offer *models.Offer, input RespondInput) outbox.DomainEvent {
	eventType := enums.EventOfferResponded
	var data any = payloads.OfferRespondedEvent{
		OfferID:    offer.OfferID,
		Title:      offer.Title,
		BuyerID:    offer.BuyerID,
		SellerID:   offer.SellerID,
		ActorID:    input.ActorID,
		Action:     input.Action,
		Status:     offer.Status,
		OfferPrice: offer.OfferPrice,
		Quantity:   offer.QuantityRequested,
	}
	if input.Action == enums.OfferActionWithdraw {
		eventType = enums.EventOfferWithdrawn
		data = payloads.OfferWithdrawnEvent{
			OfferID:     offer.OfferID,
			Title:       offer.Title,
			BuyerID:     offer.BuyerID,
			SellerID:    offer.SellerID,
			WithdrawnAt: s.clock(),
		}
	}
	return outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOffer,
		AggregateID:   offer.ID,
		Version:       1,
		Actor:         buildActor(input.ActorID, string(RoleOf(offer, input.ActorID))),
		Data:          data,
	}
}

func (s *service) loadOffer(ctx context.Context, repo Repository, offerID string) (*models.Offer, error) {
	if strings.TrimSpace(offerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	offer, err := repo.FindByOfferID(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeOfferNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	return offer, nil
}

// transitionUpdates lists every column a party-driven transition may touch.
// The full set is written each time so the row always matches the in-memory
// offer the guards ran against.
func transitionUpdates(offer *models.Offer) map[string]any {
	return map[string]any{
		"status":               offer.Status,
		"negotiations":         offer.Negotiations,
		"offer_price":          offer.OfferPrice,
		"discount_amount":      offer.DiscountAmount,
		"discount_percent":     offer.DiscountPercent,
		"quantity_requested":   offer.QuantityRequested,
		"description":          offer.Description,
		"vendor_counter_count": offer.VendorCounterCount,
	}
}

func isRespondedStatus(status string) bool {
	switch enums.OfferStatus(status) {
	case enums.OfferStatusCountered, enums.OfferStatusAccepted, enums.OfferStatusRejected, enums.OfferStatusCompleted:
		return true
	default:
		return false
	}
}

func buildActor(userID uuid.UUID, role string) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: userID, Role: role}
}
