package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/optica/paymentflow/libs/amqpx"
	"github.com/optica/paymentflow/services/consumer-service/internal/domain"
)

type fakeInbox struct {
	seen     map[string]bool
	recorded []string
	seenErr  error
}

func (f *fakeInbox) Seen(_ context.Context, eventID string) (bool, error) {
	if f.seenErr != nil {
		return false, f.seenErr
	}
	return f.seen[eventID], nil
}

func (f *fakeInbox) Record(_ context.Context, eventID string, _ string) (bool, error) {
	f.recorded = append(f.recorded, eventID)
	return true, nil
}

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

type fakeAck struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (f *fakeAck) Ack(_ uint64, _ bool) error {
	f.acked = true
	return nil
}

func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func (f *fakeAck) Reject(_ uint64, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func newTestDispatcher(inboxLog EventLog, handle HandleFunc) *Dispatcher {
	return New(nil, inboxLog, slog.New(slog.DiscardHandler), Config{
		Queue:              "company.queue",
		MaxAttempts:        3,
		RetryBackoff:       time.Second,
		DeadLetterExchange: "payment.dlx",
		DeadLetterKey:      "dead-letter",
	}, handle)
}

func delivery(ack *fakeAck, eventID string, attempt int) amqp.Delivery {
	headers := amqp.Table{
		amqpx.HeaderEventID:   eventID,
		amqpx.HeaderEventType: "company.created",
	}
	if attempt > 0 {
		headers[amqpx.HeaderAttempt] = int32(attempt)
	}
	return amqp.Delivery{
		Acknowledger: ack,
		Headers:      headers,
		RoutingKey:   "company.created",
		Body:         []byte(`{}`),
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Status
	}{
		{"nil", nil, StatusApplied},
		{"duplicate", domain.ErrDuplicate, StatusDuplicate},
		{"missing company", domain.ErrCompanyNotFound, StatusRetry},
		{"missing account", domain.ErrAccountNotFound, StatusRetry},
		{"timeout", context.DeadlineExceeded, StatusRetry},
		{"integrity violation", &pgconn.PgError{Code: "23514"}, StatusDead},
		{"store down", errors.New("connection refused"), StatusRetry},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got.Status != tc.want {
				t.Fatalf("Classify(%v) = %q, want %q", tc.err, got.Status, tc.want)
			}
		})
	}
}

func TestProcessAppliedAcksAndRecords(t *testing.T) {
	inboxLog := &fakeInbox{seen: map[string]bool{}}
	d := newTestDispatcher(inboxLog, func(context.Context, []byte) Outcome {
		return Applied()
	})
	pub := &fakePublisher{}
	ack := &fakeAck{}

	d.process(context.Background(), pub, delivery(ack, "evt-1", 0))

	if !ack.acked {
		t.Fatal("expected message to be acked")
	}
	if len(pub.sent) != 0 {
		t.Fatalf("expected no publishes, got %d", len(pub.sent))
	}
	if len(inboxLog.recorded) != 1 || inboxLog.recorded[0] != "evt-1" {
		t.Fatalf("expected evt-1 recorded, got %v", inboxLog.recorded)
	}
}

func TestProcessSeenEventSkipsHandler(t *testing.T) {
	inboxLog := &fakeInbox{seen: map[string]bool{"evt-1": true}}
	handled := false
	d := newTestDispatcher(inboxLog, func(context.Context, []byte) Outcome {
		handled = true
		return Applied()
	})
	ack := &fakeAck{}

	d.process(context.Background(), &fakePublisher{}, delivery(ack, "evt-1", 0))

	if handled {
		t.Fatal("handler should not run for an already-applied event")
	}
	if !ack.acked {
		t.Fatal("expected duplicate to be acked")
	}
}

func TestProcessRetrySchedulesBackoff(t *testing.T) {
	inboxLog := &fakeInbox{seen: map[string]bool{}}
	d := newTestDispatcher(inboxLog, func(context.Context, []byte) Outcome {
		return Retry("company not found")
	})
	pub := &fakePublisher{}
	ack := &fakeAck{}

	d.process(context.Background(), pub, delivery(ack, "evt-1", 1))

	if len(pub.sent) != 1 {
		t.Fatalf("expected one retry publish, got %d", len(pub.sent))
	}
	sent := pub.sent[0]
	if sent.exchange != "" || sent.key != "company.queue.retry" {
		t.Fatalf("retry routed to %q/%q", sent.exchange, sent.key)
	}
	// attempt 2 with a 1s base backoff doubles to 2000ms
	if sent.msg.Expiration != "2000" {
		t.Fatalf("expiration = %q, want 2000", sent.msg.Expiration)
	}
	if got := sent.msg.Headers[amqpx.HeaderAttempt]; got != int32(2) {
		t.Fatalf("attempt header = %v, want 2", got)
	}
	if !ack.acked {
		t.Fatal("expected original delivery to be acked after republish")
	}
	if len(inboxLog.recorded) != 0 {
		t.Fatalf("retried event must not be recorded, got %v", inboxLog.recorded)
	}
}

func TestProcessRetryExhaustionDeadLetters(t *testing.T) {
	d := newTestDispatcher(&fakeInbox{seen: map[string]bool{}}, func(context.Context, []byte) Outcome {
		return Retry("company not found")
	})
	pub := &fakePublisher{}
	ack := &fakeAck{}

	d.process(context.Background(), pub, delivery(ack, "evt-1", 2))

	if len(pub.sent) != 1 {
		t.Fatalf("expected one dead-letter publish, got %d", len(pub.sent))
	}
	sent := pub.sent[0]
	if sent.exchange != "payment.dlx" || sent.key != "dead-letter" {
		t.Fatalf("dead letter routed to %q/%q", sent.exchange, sent.key)
	}
	if got := sent.msg.Headers[amqpx.HeaderReason]; got != "company not found" {
		t.Fatalf("reason header = %v", got)
	}
	if got := sent.msg.Headers[amqpx.HeaderOriginKey]; got != "company.created" {
		t.Fatalf("origin key header = %v", got)
	}
	if !ack.acked {
		t.Fatal("expected delivery to be acked after dead-lettering")
	}
}

func TestProcessPoisonDeadLettersImmediately(t *testing.T) {
	d := newTestDispatcher(&fakeInbox{seen: map[string]bool{}}, func(context.Context, []byte) Outcome {
		return Dead("poison: missing field name")
	})
	pub := &fakePublisher{}
	ack := &fakeAck{}

	d.process(context.Background(), pub, delivery(ack, "evt-1", 0))

	if len(pub.sent) != 1 {
		t.Fatalf("expected one dead-letter publish, got %d", len(pub.sent))
	}
	if pub.sent[0].exchange != "payment.dlx" {
		t.Fatalf("dead letter routed to %q", pub.sent[0].exchange)
	}
	if !ack.acked {
		t.Fatal("expected poison message to be acked after dead-lettering")
	}
}

func TestProcessRetryPublishFailureRequeues(t *testing.T) {
	d := newTestDispatcher(&fakeInbox{seen: map[string]bool{}}, func(context.Context, []byte) Outcome {
		return Retry("store error")
	})
	pub := &fakePublisher{err: errors.New("channel closed")}
	ack := &fakeAck{}

	d.process(context.Background(), pub, delivery(ack, "evt-1", 0))

	if ack.acked {
		t.Fatal("delivery must not be acked when the retry republish fails")
	}
	if !ack.nacked || !ack.requeued {
		t.Fatal("expected delivery to be nacked with requeue")
	}
}

func TestShutdownErrDistinguishesCancelFromConnectionLoss(t *testing.T) {
	d := newTestDispatcher(&fakeInbox{seen: map[string]bool{}}, nil)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.shutdownErr(cancelled); err != nil {
		t.Fatalf("requested shutdown must not be an error, got %v", err)
	}

	if err := d.shutdownErr(context.Background()); err == nil {
		t.Fatal("a delivery channel closed by the broker must surface as an error")
	}
}

func TestStartupErrWithoutWorkers(t *testing.T) {
	d := newTestDispatcher(&fakeInbox{seen: map[string]bool{}}, nil)

	if err := d.startupErr(0); err == nil {
		t.Fatal("zero started workers must surface as an error")
	}
	if err := d.startupErr(1); err != nil {
		t.Fatalf("unexpected error with workers running: %v", err)
	}
}

func TestProcessInboxErrorIsRetryable(t *testing.T) {
	inboxLog := &fakeInbox{seenErr: errors.New("connection refused")}
	handled := false
	d := newTestDispatcher(inboxLog, func(context.Context, []byte) Outcome {
		handled = true
		return Applied()
	})
	pub := &fakePublisher{}
	ack := &fakeAck{}

	d.process(context.Background(), pub, delivery(ack, "evt-1", 0))

	if handled {
		t.Fatal("handler should not run when the dedup check fails")
	}
	if len(pub.sent) != 1 || pub.sent[0].key != "company.queue.retry" {
		t.Fatalf("expected a retry publish, got %v", pub.sent)
	}
}
