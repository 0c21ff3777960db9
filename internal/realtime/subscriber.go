package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/comandapos/comanda-backend/pkg/logger"
	"github.com/comandapos/comanda-backend/pkg/outbox"
)

// MessageSource is the subset of redis.PubSub the subscriber consumes.
type MessageSource interface {
	Channel(opts ...redis.ChannelOption) <-chan *redis.Message
	Close() error
}

// Subscriber bridges the Redis event channel into the hub.
type Subscriber struct {
	source MessageSource
	hub    *Hub
	logg   *logger.Logger
}

// NewSubscriber builds a subscriber over an open pub/sub subscription.
func NewSubscriber(source MessageSource, hub *Hub, logg *logger.Logger) (*Subscriber, error) {
	if source == nil {
		return nil, fmt.Errorf("message source required")
	}
	if hub == nil {
		return nil, fmt.Errorf("hub required")
	}
	return &Subscriber{source: source, hub: hub, logg: logg}, nil
}

// Run consumes messages until the context is cancelled or the source closes.
func (s *Subscriber) Run(ctx context.Context) error {
	defer func() {
		_ = s.source.Close()
	}()

	messages := s.source.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("event channel closed")
			}
			s.handle(ctx, []byte(msg.Payload))
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, raw []byte) {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "discarding malformed event payload", err)
		}
		return
	}
	s.hub.Dispatch(ctx, &envelope, raw)
}
