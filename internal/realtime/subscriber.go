package realtime

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/shannu2342/wholexale-backend/pkg/logger"
	wxredis "github.com/shannu2342/wholexale-backend/pkg/redis"
)

// Subscriber bridges the per-user redis channels onto the local hub. Each
// api instance runs one subscriber; frames published for users connected
// elsewhere are simply dropped here.
type Subscriber struct {
	redis *wxredis.Client
	hub   *Hub
	logg  *logger.Logger
}

func NewSubscriber(redisClient *wxredis.Client, hub *Hub, logg *logger.Logger) *Subscriber {
	return &Subscriber{redis: redisClient, hub: hub, logg: logg}
}

// Run pattern-subscribes to the realtime user channels and forwards payloads
// to locally connected clients until the context is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	sub, err := s.redis.PSubscribe(ctx, s.redis.RealtimeUserPattern())
	if err != nil {
		return err
	}
	defer sub.Close()

	ch := sub.Channel()
	s.logg.Info(ctx, "realtime subscriber started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			userID, ok := userIDFromChannel(msg.Channel)
			if !ok {
				lctx := s.logg.WithFields(ctx, map[string]any{"channel": msg.Channel})
				s.logg.Warn(lctx, "realtime message on unparseable channel")
				continue
			}
			if !s.hub.Connected(userID) {
				continue
			}
			s.hub.SendRawToUser(ctx, userID, []byte(msg.Payload))
		}
	}
}

// userIDFromChannel extracts the trailing uuid from a per-user channel name.
func userIDFromChannel(channel string) (uuid.UUID, bool) {
	idx := strings.LastIndex(channel, ":")
	if idx < 0 || idx == len(channel)-1 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(channel[idx+1:])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
