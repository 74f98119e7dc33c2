package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/shannu2342/wholexale-backend/internal/realtime"
	"github.com/shannu2342/wholexale-backend/pkg/enums"
	"github.com/shannu2342/wholexale-backend/pkg/logger"
	"github.com/shannu2342/wholexale-backend/pkg/outbox"
	"github.com/shannu2342/wholexale-backend/pkg/outbox/idempotency"
	"github.com/shannu2342/wholexale-backend/pkg/outbox/payloads"
)

const notificationDeliveryConsumer = "notification-delivery"

type realtimePublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
	RealtimeUserChannel(userID string) string
}

type offerMarker interface {
	MarkSent(ctx context.Context, offerID string) error
}

// DeliveryConsumer pushes stored notifications to the user's live
// connections and acknowledges first delivery on the offer itself.
type DeliveryConsumer struct {
	subscription *pubsub.Subscriber
	publisher    realtimePublisher
	offers       offerMarker
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewDeliveryConsumer builds the realtime delivery consumer.
func NewDeliveryConsumer(subscription *pubsub.Subscriber, publisher realtimePublisher, offers offerMarker, manager *idempotency.Manager, logg *logger.Logger) (*DeliveryConsumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("realtime publisher required")
	}
	if offers == nil {
		return nil, fmt.Errorf("offers service required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &DeliveryConsumer{
		subscription: subscription,
		publisher:    publisher,
		offers:       offers,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *DeliveryConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (c *DeliveryConsumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventNotificationRequested) {
		c.logg.Info(logCtx, "skipping non-notification event")
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

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, notificationDeliveryConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload payloads.NotificationRequestedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, notificationDeliveryConsumer, eventID)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"user_id": payload.UserID.String(),
		"type":    payload.Type,
	})

	if err := c.deliver(ctx, payload); err != nil {
		c.logg.Error(logCtx, "realtime delivery failed", err)
		_ = c.idempotency.Delete(ctx, notificationDeliveryConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "notification delivered")
	return processResult{ack: true}
}

func (c *DeliveryConsumer) deliver(ctx context.Context, payload payloads.NotificationRequestedEvent) error {
	frame, err := realtime.NewFrame(frameEventFor(payload.Type), payload)
	if err != nil {
		return err
	}
	encoded, err := frame.Encode()
	if err != nil {
		return err
	}

	channel := c.publisher.RealtimeUserChannel(payload.UserID.String())
	if err := c.publisher.Publish(ctx, channel, encoded); err != nil {
		return err
	}

	// First delivery of a fresh offer moves it from pending to sent.
	if payload.Type == enums.NotificationTypeOfferReceived && payload.OfferID != "" {
		return c.offers.MarkSent(ctx, payload.OfferID)
	}
	return nil
}

func frameEventFor(notificationType enums.NotificationType) string {
	switch notificationType {
	case enums.NotificationTypeOfferReceived:
		return realtime.EventOfferReceived
	case enums.NotificationTypeOfferResponse:
		return realtime.EventOfferResponse
	case enums.NotificationTypeOfferWithdrawn:
		return realtime.EventOfferWithdrawn
	case enums.NotificationTypeOfferExpired:
		return realtime.EventOfferExpired
	default:
		return realtime.EventOfferResponse
	}
}
