package amqpx

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	HeaderEventID   = "event_id"
	HeaderEventType = "event_type"
	HeaderAttempt   = "x-attempt"
	HeaderReason    = "x-dead-reason"
	HeaderOriginKey = "x-origin-routing-key"
)

// EventMeta is the canonical metadata carried on broker messages across services.
type EventMeta struct {
	EventID   string
	EventType string
	Attempt   int
}

func ExtractEventMeta(d amqp.Delivery) EventMeta {
	eventID := HeaderString(d.Headers, HeaderEventID)
	eventType := HeaderString(d.Headers, HeaderEventType)
	if eventID == "" {
		eventID = d.MessageId
	}
	if eventType == "" {
		eventType = d.RoutingKey
	}
	return EventMeta{
		EventID:   eventID,
		EventType: eventType,
		Attempt:   HeaderInt(d.Headers, HeaderAttempt),
	}
}

func HeaderString(headers amqp.Table, key string) string {
	if headers == nil {
		return ""
	}
	switch v := headers[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// HeaderInt reads an integer header. AMQP tables round-trip numbers through
// several integer widths depending on the client that wrote them.
func HeaderInt(headers amqp.Table, key string) int {
	if headers == nil {
		return 0
	}
	switch v := headers[key].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}
