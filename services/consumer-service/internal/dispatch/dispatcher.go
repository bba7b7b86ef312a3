// Package dispatch consumes creation events from the broker and applies
// them through the domain services. Cross-queue ordering is not guaranteed
// by the transport, so a dependent event can arrive before its parent; the
// dispatcher compensates with a bounded, backoff-spaced retry loop through
// the broker's TTL retry queues, and dead-letters what cannot be applied.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/optica/paymentflow/libs/amqpx"
	"github.com/optica/paymentflow/libs/metrics"
)

// EventLog is the dedup store for applied event ids.
type EventLog interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, eventID string, eventType string) (bool, error)
}

type Config struct {
	Queue              string
	Workers            int
	Prefetch           int
	MaxAttempts        int
	RetryBackoff       time.Duration
	DeadLetterExchange string
	DeadLetterKey      string
}

type Dispatcher struct {
	conn   *amqpx.Connection
	inbox  EventLog
	handle HandleFunc
	logger *slog.Logger
	cfg    Config
}

func New(conn *amqpx.Connection, inboxLog EventLog, logger *slog.Logger, cfg Config, handle HandleFunc) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = cfg.Workers * 2
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 5 * time.Second
	}
	return &Dispatcher{
		conn:   conn,
		inbox:  inboxLog,
		handle: handle,
		logger: logger,
		cfg:    cfg,
	}
}

// Run consumes the queue until ctx is cancelled. Each worker owns a publish
// channel for retry/dead-letter traffic; AMQP channels must not be shared
// between publishing goroutines.
func (d *Dispatcher) Run(ctx context.Context) error {
	ch, err := d.conn.Channel()
	if err != nil {
		return err
	}
	if err := ch.Qos(d.cfg.Prefetch, 0, false); err != nil {
		_ = ch.Close()
		return err
	}
	deliveries, err := ch.Consume(d.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return err
	}
	d.logger.Info("dispatcher started", "queue", d.cfg.Queue, "workers", d.cfg.Workers)

	go func() {
		<-ctx.Done()
		_ = ch.Close()
	}()

	var wg sync.WaitGroup
	started := 0
	for i := 0; i < d.cfg.Workers; i++ {
		pubCh, err := d.conn.Channel()
		if err != nil {
			d.logger.Error("worker publish channel failed", "err", err, "queue", d.cfg.Queue)
			continue
		}
		started++
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { _ = pubCh.Close() }()
			for msg := range deliveries {
				d.process(ctx, pubCh, msg)
			}
		}()
	}
	if err := d.startupErr(started); err != nil {
		_ = ch.Close()
		return err
	}
	wg.Wait()
	return d.shutdownErr(ctx)
}

// startupErr refuses to leave the queue consumed by nobody when no worker
// could open its publish channel.
func (d *Dispatcher) startupErr(started int) error {
	if started > 0 {
		return nil
	}
	return fmt.Errorf("queue %s: no workers started", d.cfg.Queue)
}

// shutdownErr distinguishes a requested shutdown from the broker closing
// the delivery channel underneath the workers; the latter must surface so
// the caller can stop reporting ready or exit.
func (d *Dispatcher) shutdownErr(ctx context.Context) error {
	if ctx.Err() != nil {
		d.logger.Info("dispatcher stopped", "queue", d.cfg.Queue)
		return nil
	}
	return fmt.Errorf("queue %s: delivery channel closed by broker", d.cfg.Queue)
}

func (d *Dispatcher) process(ctx context.Context, pub amqpx.BasicPublisher, msg amqp.Delivery) {
	start := time.Now()
	meta := amqpx.ExtractEventMeta(msg)
	msgCtx := amqpx.ExtractTraceContext(ctx, msg)
	msgCtx, span := otel.Tracer("amqp").Start(msgCtx, "amqp.consume",
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination", d.cfg.Queue),
		),
	)
	defer span.End()

	outcome := d.attempt(msgCtx, meta, msg.Body)
	metrics.EventsConsumed.WithLabelValues(d.cfg.Queue, string(outcome.Status)).Inc()
	metrics.DispatchDuration.WithLabelValues(d.cfg.Queue).Observe(time.Since(start).Seconds())

	switch outcome.Status {
	case StatusApplied, StatusDuplicate:
		if meta.EventID != "" {
			if _, err := d.inbox.Record(msgCtx, meta.EventID, meta.EventType); err != nil {
				d.logger.Warn("inbox record failed", "err", err, "event_id", meta.EventID)
			}
		}
		if outcome.Status == StatusDuplicate {
			d.logger.Info("duplicate event ignored", "event_id", meta.EventID, "queue", d.cfg.Queue)
		}
		d.ack(msg)

	case StatusRetry:
		attempt := meta.Attempt + 1
		if attempt >= d.cfg.MaxAttempts {
			d.deadLetter(msgCtx, pub, msg, meta, attempt, outcome.Reason, "max_attempts")
			return
		}
		if err := d.sendToRetry(msgCtx, pub, msg, meta, attempt); err != nil {
			d.logger.Error("retry publish failed", "err", err, "event_id", meta.EventID, "queue", d.cfg.Queue)
			d.requeue(msg)
			return
		}
		metrics.EventsRetried.WithLabelValues(d.cfg.Queue).Inc()
		d.logger.Warn("event scheduled for retry",
			"event_id", meta.EventID,
			"queue", d.cfg.Queue,
			"attempt", attempt,
			"max_attempts", d.cfg.MaxAttempts,
			"reason", outcome.Reason,
		)
		d.ack(msg)

	case StatusDead:
		d.deadLetter(msgCtx, pub, msg, meta, meta.Attempt, outcome.Reason, "permanent")
	}
}

// attempt checks the dedup log, then applies the event. An unavailable
// dedup store is retryable: guessing would risk a double apply.
func (d *Dispatcher) attempt(ctx context.Context, meta amqpx.EventMeta, body []byte) Outcome {
	if meta.EventID != "" {
		seen, err := d.inbox.Seen(ctx, meta.EventID)
		if err != nil {
			return Retry("inbox unavailable: " + err.Error())
		}
		if seen {
			return Duplicate()
		}
	}
	return d.handle(ctx, body)
}

func (d *Dispatcher) sendToRetry(ctx context.Context, pub amqpx.BasicPublisher, msg amqp.Delivery, meta amqpx.EventMeta, attempt int) error {
	headers := amqp.Table{
		amqpx.HeaderEventID:   meta.EventID,
		amqpx.HeaderEventType: meta.EventType,
		amqpx.HeaderAttempt:   int32(attempt),
	}
	headers = amqpx.InjectTraceHeaders(ctx, headers)

	delay := d.cfg.RetryBackoff << (attempt - 1)
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Publishing to the default exchange with the queue name as routing key
	// targets the retry queue directly; its dead-letter config routes the
	// expired message back onto the work queue.
	return amqpx.PublishJSON(pubCtx, pub, amqpx.PublishOptions{
		Exchange:   "",
		RoutingKey: amqpx.RetryQueue(d.cfg.Queue),
		Headers:    headers,
		Expiration: strconv.FormatInt(delay.Milliseconds(), 10),
	}, msg.Body)
}

func (d *Dispatcher) deadLetter(ctx context.Context, pub amqpx.BasicPublisher, msg amqp.Delivery, meta amqpx.EventMeta, attempt int, reason string, kind string) {
	headers := amqp.Table{
		amqpx.HeaderEventID:   meta.EventID,
		amqpx.HeaderEventType: meta.EventType,
		amqpx.HeaderAttempt:   int32(attempt),
		amqpx.HeaderReason:    reason,
		amqpx.HeaderOriginKey: msg.RoutingKey,
	}
	headers = amqpx.InjectTraceHeaders(ctx, headers)

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := amqpx.PublishJSON(pubCtx, pub, amqpx.PublishOptions{
		Exchange:   d.cfg.DeadLetterExchange,
		RoutingKey: d.cfg.DeadLetterKey,
		Headers:    headers,
	}, msg.Body); err != nil {
		d.logger.Error("dead-letter publish failed", "err", err, "event_id", meta.EventID, "queue", d.cfg.Queue)
		d.requeue(msg)
		return
	}

	metrics.EventsDeadLettered.WithLabelValues(d.cfg.Queue, kind).Inc()
	d.logger.Error("event dead-lettered",
		"event_id", meta.EventID,
		"queue", d.cfg.Queue,
		"attempts", attempt,
		"reason", reason,
	)
	d.ack(msg)
}

func (d *Dispatcher) ack(msg amqp.Delivery) {
	if err := msg.Ack(false); err != nil {
		d.logger.Error("ack failed", "err", err, "queue", d.cfg.Queue)
	}
}

func (d *Dispatcher) requeue(msg amqp.Delivery) {
	if err := msg.Nack(false, true); err != nil {
		d.logger.Error("nack failed", "err", err, "queue", d.cfg.Queue)
	}
}
