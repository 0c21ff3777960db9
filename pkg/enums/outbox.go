package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateOrder       OutboxAggregateType = "order"
	AggregateTable       OutboxAggregateType = "table"
	AggregateBillRequest OutboxAggregateType = "bill_request"
	AggregateProduct     OutboxAggregateType = "product"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateTable,
	AggregateBillRequest,
	AggregateProduct,
}

func (a OutboxAggregateType) String() string {
	return string(a)
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType carries the wire name clients subscribe to. The values are
// the event names pushed over the realtime channel, verbatim.
type OutboxEventType string

const (
	EventOrderNew           OutboxEventType = "order:new"
	EventOrderStatusUpdated OutboxEventType = "order:statusUpdated"
	EventOrderCancelled     OutboxEventType = "order:cancelled"
	EventTableStatusUpdated OutboxEventType = "table:statusUpdated"
	EventBillRequestNew     OutboxEventType = "billRequest:new"
	EventBillRequestUpdated OutboxEventType = "billRequest:updated"
	EventLowStock           OutboxEventType = "lowStock"
	EventStockStatusUpdated OutboxEventType = "stock:statusUpdated"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderNew,
	EventOrderStatusUpdated,
	EventOrderCancelled,
	EventTableStatusUpdated,
	EventBillRequestNew,
	EventBillRequestUpdated,
	EventLowStock,
	EventStockStatusUpdated,
}

func (e OutboxEventType) String() string {
	return string(e)
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
