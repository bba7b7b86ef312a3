package amqpx

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueBinding is one durable work queue bound to the topic exchange by an
// exact-match routing key. Each work queue gets a companion retry queue that
// dead-letters expired messages back onto the exchange under the same key.
type QueueBinding struct {
	Queue      string
	RoutingKey string
}

type Topology struct {
	Exchange           string
	DeadLetterExchange string
	DeadLetterQueue    string
	DeadLetterKey      string
	Bindings           []QueueBinding
}

// RetryQueue returns the name of the holding queue paired with a work queue.
func RetryQueue(workQueue string) string {
	return workQueue + ".retry"
}

// Declare sets up the exchange/queue topology idempotently. Both the
// publisher and the consumers call it at startup, so neither cares which
// side wins the race to create a resource.
func Declare(ch *amqp.Channel, t Topology) error {
	if err := ch.ExchangeDeclare(t.Exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(t.DeadLetterExchange, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(t.DeadLetterQueue, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(t.DeadLetterQueue, t.DeadLetterKey, t.DeadLetterExchange, false, nil); err != nil {
		return err
	}

	for _, b := range t.Bindings {
		if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, nil); err != nil {
			return err
		}
		if err := ch.QueueBind(b.Queue, b.RoutingKey, t.Exchange, false, nil); err != nil {
			return err
		}
		if _, err := ch.QueueDeclare(RetryQueue(b.Queue), true, false, false, false, amqp.Table{
			"x-dead-letter-exchange":    t.Exchange,
			"x-dead-letter-routing-key": b.RoutingKey,
		}); err != nil {
			return err
		}
	}
	return nil
}
