package metrics

import "github.com/prometheus/client_golang/prometheus"

// RealtimeMetrics records SSE gateway behaviour.
type RealtimeMetrics struct {
	connections prometheus.Gauge
	delivered   *prometheus.CounterVec
	dropped     *prometheus.CounterVec
}

// NewRealtimeMetrics registers the gateway metrics on the provided registerer.
func NewRealtimeMetrics(reg prometheus.Registerer) *RealtimeMetrics {
	if reg == nil {
		return &RealtimeMetrics{}
	}
	connections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_connections",
		Help: "Currently connected SSE clients.",
	})
	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_delivered_total",
		Help: "Events delivered to connected clients.",
	}, []string{"event_type"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_dropped_total",
		Help: "Events dropped because a client buffer was full.",
	}, []string{"event_type"})
	reg.MustRegister(connections, delivered, dropped)
	return &RealtimeMetrics{
		connections: connections,
		delivered:   delivered,
		dropped:     dropped,
	}
}

// IncConnections bumps the connection gauge.
func (m *RealtimeMetrics) IncConnections() {
	if m == nil || m.connections == nil {
		return
	}
	m.connections.Inc()
}

// DecConnections lowers the connection gauge.
func (m *RealtimeMetrics) DecConnections() {
	if m == nil || m.connections == nil {
		return
	}
	m.connections.Dec()
}

// IncDelivered increments the delivery counter for the event type.
func (m *RealtimeMetrics) IncDelivered(eventType string) {
	if m == nil || m.delivered == nil {
		return
	}
	m.delivered.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncDropped increments the dropped counter for the event type.
func (m *RealtimeMetrics) IncDropped(eventType string) {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.WithLabelValues(normalizeLabel(eventType)).Inc()
}
