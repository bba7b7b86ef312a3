package amqpx

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

type scriptedChannel struct {
	publishErr error
	published  int
	closed     bool
}

func (c *scriptedChannel) PublishWithContext(context.Context, string, string, bool, bool, amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published++
	return nil
}

func (c *scriptedChannel) IsClosed() bool {
	return c.closed
}

func (c *scriptedChannel) Close() error {
	c.closed = true
	return nil
}

func TestChannelPublisherReusesHealthyChannel(t *testing.T) {
	opened := 0
	ch := &scriptedChannel{}
	p := &ChannelPublisher{open: func() (publishChannel, error) {
		opened++
		return ch, nil
	}}

	for i := 0; i < 3; i++ {
		if err := p.PublishWithContext(context.Background(), "x", "k", false, false, amqp.Publishing{}); err != nil {
			t.Fatalf("publish %d failed: %v", i, err)
		}
	}
	if opened != 1 {
		t.Fatalf("opened %d channels, want 1", opened)
	}
	if ch.published != 3 {
		t.Fatalf("published %d messages, want 3", ch.published)
	}
}

func TestChannelPublisherReopensAfterError(t *testing.T) {
	bad := &scriptedChannel{publishErr: errors.New("channel/connection is not open")}
	good := &scriptedChannel{}
	channels := []*scriptedChannel{bad, good}
	opened := 0
	p := &ChannelPublisher{open: func() (publishChannel, error) {
		ch := channels[opened]
		opened++
		return ch, nil
	}}

	if err := p.PublishWithContext(context.Background(), "x", "k", false, false, amqp.Publishing{}); err == nil {
		t.Fatal("expected the channel error to surface")
	}
	if !bad.closed {
		t.Fatal("failed channel must be closed")
	}

	if err := p.PublishWithContext(context.Background(), "x", "k", false, false, amqp.Publishing{}); err != nil {
		t.Fatalf("publish after reopen failed: %v", err)
	}
	if opened != 2 {
		t.Fatalf("opened %d channels, want 2", opened)
	}
	if good.published != 1 {
		t.Fatalf("replacement channel published %d, want 1", good.published)
	}
}

func TestChannelPublisherOpenFailureSurfaces(t *testing.T) {
	p := &ChannelPublisher{open: func() (publishChannel, error) {
		return nil, errors.New("connection closed")
	}}

	if err := p.PublishWithContext(context.Background(), "x", "k", false, false, amqp.Publishing{}); err == nil {
		t.Fatal("expected open failure to surface")
	}
}
