package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shannu2342/wholexale-backend/pkg/db/models"
	"github.com/shannu2342/wholexale-backend/pkg/enums"
	"github.com/shannu2342/wholexale-backend/pkg/logger"
	"github.com/shannu2342/wholexale-backend/pkg/outbox"
	"github.com/shannu2342/wholexale-backend/pkg/outbox/idempotency"
	"github.com/shannu2342/wholexale-backend/pkg/outbox/payloads"
)

const offerNotificationConsumer = "offer-notifications"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Consumer watches offer events and fans each one out into counterpart
// notifications, queueing a delivery event for every row it writes.
type Consumer struct {
	repo         Repository
	tx           txRunner
	outbox       outboxPublisher
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds an offer notification consumer.
func NewConsumer(repo Repository, tx txRunner, outboxSvc outboxPublisher, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("offer subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		tx:           tx,
		outbox:       outboxSvc,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	switch eventType {
	case enums.EventOfferCreated, enums.EventOfferResponded, enums.EventOfferWithdrawn, enums.EventOfferExpired:
	default:
		c.logg.Info(logCtx, "skipping non-offer event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, offerNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	targets, err := notificationsFor(eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, offerNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	if len(targets) == 0 {
		return processResult{ack: true}
	}

	if err := c.persist(ctx, targets); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, offerNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "offer notifications written")
	return processResult{ack: true}
}

// persist writes every notification row and its delivery event atomically,
// so a crash can never deliver a notification that was not stored.
func (c *Consumer) persist(ctx context.Context, targets []models.Notification) error {
	return c.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := c.repo.WithTx(tx)
		for i := range targets {
			notification := &targets[i]
			if err := repo.Create(ctx, notification); err != nil {
				return err
			}

			offerID := ""
			if notification.OfferID != nil {
				offerID = *notification.OfferID
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventNotificationRequested,
				AggregateType: enums.AggregateNotification,
				AggregateID:   notification.ID,
				Version:       1,
				Data: payloads.NotificationRequestedEvent{
					NotificationID: notification.ID,
					UserID:         notification.UserID,
					OfferID:        offerID,
					Type:           notification.Type,
					Title:          notification.Title,
					Message:        notification.Message,
				},
			}
			if err := c.outbox.Emit(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
}

// notificationsFor maps one offer event to the rows it produces.
func notificationsFor(eventType enums.OutboxEventType, data json.RawMessage) ([]models.Notification, error) {
	switch eventType {
	case enums.EventOfferCreated:
		var payload payloads.OfferCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return []models.Notification{{
			UserID:  payload.SellerID,
			Type:    enums.NotificationTypeOfferReceived,
			Title:   "New offer received",
			Message: fmt.Sprintf("You received an offer of %s %s for %q.", payload.Currency, payload.OfferPrice, payload.Title),
			OfferID: &payload.OfferID,
		}}, nil

	case enums.EventOfferResponded:
		var payload payloads.OfferRespondedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		counterpart := payload.SellerID
		if payload.ActorID == payload.SellerID {
			counterpart = payload.BuyerID
		}
		title, message := respondedCopy(payload)
		return []models.Notification{{
			UserID:  counterpart,
			Type:    enums.NotificationTypeOfferResponse,
			Title:   title,
			Message: message,
			OfferID: &payload.OfferID,
		}}, nil

	case enums.EventOfferWithdrawn:
		var payload payloads.OfferWithdrawnEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return []models.Notification{{
			UserID:  payload.SellerID,
			Type:    enums.NotificationTypeOfferWithdrawn,
			Title:   "Offer withdrawn",
			Message: fmt.Sprintf("The buyer withdrew the offer on %q.", payload.Title),
			OfferID: &payload.OfferID,
		}}, nil

	case enums.EventOfferExpired:
		var payload payloads.OfferExpiredEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("The offer on %q expired without a deal.", payload.Title)
		return []models.Notification{
			{
				UserID:  payload.BuyerID,
				Type:    enums.NotificationTypeOfferExpired,
				Title:   "Offer expired",
				Message: message,
				OfferID: &payload.OfferID,
			},
			{
				UserID:  payload.SellerID,
				Type:    enums.NotificationTypeOfferExpired,
				Title:   "Offer expired",
				Message: message,
				OfferID: &payload.OfferID,
			},
		}, nil
	}
	return nil, nil
}

func respondedCopy(payload payloads.OfferRespondedEvent) (string, string) {
	switch payload.Action {
	case enums.OfferActionAccept:
		return "Offer accepted", fmt.Sprintf("Your offer on %q was accepted at %s.", payload.Title, payload.OfferPrice)
	case enums.OfferActionReject:
		return "Offer rejected", fmt.Sprintf("Your offer on %q was rejected.", payload.Title)
	case enums.OfferActionCounter:
		return "New counter offer", fmt.Sprintf("You received a counter of %s on %q.", payload.OfferPrice, payload.Title)
	default:
		return "Offer updated", fmt.Sprintf("The offer on %q was updated.", payload.Title)
	}
}
