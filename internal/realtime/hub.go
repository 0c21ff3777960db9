package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/comandapos/comanda-backend/pkg/logger"
	"github.com/comandapos/comanda-backend/pkg/metrics"
	"github.com/comandapos/comanda-backend/pkg/outbox"
)

// Connection is one SSE client attached to the hub.
type Connection struct {
	ID        uuid.UUID
	Principal Principal

	ch        chan []byte
	closeOnce sync.Once
}

// Events exposes the delivery channel the HTTP handler drains.
func (c *Connection) Events() <-chan []byte {
	return c.ch
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.ch)
	})
}

// Hub fans committed events out to connected clients. Delivery is
// fire-and-forget: a client whose buffer is full is skipped, never waited on.
type Hub struct {
	registry Registry
	buffer   int
	metrics  *metrics.RealtimeMetrics
	logg     *logger.Logger

	mu     sync.Mutex
	closed bool
}

// NewHub builds a hub around the injected presence registry.
func NewHub(registry Registry, buffer int, m *metrics.RealtimeMetrics, logg *logger.Logger) (*Hub, error) {
	if registry == nil {
		return nil, fmt.Errorf("presence registry required")
	}
	if buffer <= 0 {
		buffer = 32
	}
	return &Hub{registry: registry, buffer: buffer, metrics: m, logg: logg}, nil
}

// Register attaches an authenticated principal and returns its connection.
func (h *Hub) Register(principal Principal) (*Connection, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, fmt.Errorf("hub is shut down")
	}
	conn := &Connection{
		ID:        uuid.New(),
		Principal: principal,
		ch:        make(chan []byte, h.buffer),
	}
	h.registry.Add(conn)
	h.metrics.IncConnections()
	return conn, nil
}

// Unregister detaches and closes a connection.
func (h *Hub) Unregister(id uuid.UUID) {
	if conn := h.registry.Remove(id); conn != nil {
		conn.close()
		h.metrics.DecConnections()
	}
}

// Dispatch delivers a decoded envelope to every eligible connection.
func (h *Hub) Dispatch(ctx context.Context, envelope *outbox.PayloadEnvelope, raw []byte) {
	if envelope == nil {
		return
	}
	h.registry.Each(func(conn *Connection) {
		if !CanReceive(envelope, conn.Principal) {
			return
		}
		select {
		case conn.ch <- raw:
			h.metrics.IncDelivered(envelope.EventType)
		default:
			h.metrics.IncDropped(envelope.EventType)
			if h.logg != nil {
				logCtx := h.logg.WithFields(ctx, map[string]any{
					"connection_id": conn.ID.String(),
					"event_type":    envelope.EventType,
				})
				h.logg.Warn(logCtx, "dropping event for slow client")
			}
		}
	})
}

// Shutdown drains every connection and refuses further registrations.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	var errs error
	h.registry.Each(func(conn *Connection) {
		if removed := h.registry.Remove(conn.ID); removed != nil {
			removed.close()
			h.metrics.DecConnections()
		}
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("draining connection %s: %w", conn.ID, err))
		}
	})
	return errs
}
