package amqpx

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// BasicPublisher is the slice of *amqp.Channel the publish path needs.
type BasicPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type PublishOptions struct {
	Exchange   string
	RoutingKey string
	Headers    amqp.Table
	// Expiration is a per-message TTL in milliseconds, as the broker
	// expects it. Empty means no TTL.
	Expiration string
}

// PublishJSON publishes a persistent JSON message. The caller bounds the
// publish with the context deadline.
func PublishJSON(ctx context.Context, ch BasicPublisher, opts PublishOptions, body []byte) error {
	return ch.PublishWithContext(ctx,
		opts.Exchange,
		opts.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Headers:      opts.Headers,
			Expiration:   opts.Expiration,
			Body:         body,
		},
	)
}
