package amqpx

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// publishChannel is the slice of *amqp.Channel the managed publisher needs.
type publishChannel interface {
	BasicPublisher
	IsClosed() bool
	Close() error
}

// ChannelPublisher serializes publishes from concurrent callers onto one
// channel and reopens it after a channel-level error, since a protocol
// error leaves an AMQP channel permanently unusable.
type ChannelPublisher struct {
	open func() (publishChannel, error)

	mu sync.Mutex
	ch publishChannel
}

func NewChannelPublisher(conn *Connection) *ChannelPublisher {
	return &ChannelPublisher{
		open: func() (publishChannel, error) { return conn.Channel() },
	}
}

func (p *ChannelPublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		ch, err := p.open()
		if err != nil {
			return err
		}
		p.ch = ch
	}

	err := p.ch.PublishWithContext(ctx, exchange, key, mandatory, immediate, msg)
	if err != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	return err
}

func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	return err
}
