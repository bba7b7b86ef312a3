package amqpx

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Config struct {
	URL          string
	DialAttempts int
	DialDelay    time.Duration
}

// Connection wraps an AMQP connection plus one channel. The broker client
// is not safe for concurrent publishes on a single channel, so callers that
// publish from multiple goroutines open their own channel per worker.
type Connection struct {
	conn *amqp.Connection
}

func Dial(cfg Config) (*Connection, error) {
	if cfg.DialAttempts <= 0 {
		cfg.DialAttempts = 5
	}
	if cfg.DialDelay <= 0 {
		cfg.DialDelay = 5 * time.Second
	}

	var conn *amqp.Connection
	var err error
	for i := 0; i < cfg.DialAttempts; i++ {
		conn, err = amqp.Dial(cfg.URL)
		if err == nil {
			break
		}
		time.Sleep(cfg.DialDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("amqp dial failed after %d attempts: %w", cfg.DialAttempts, err)
	}
	return &Connection{conn: conn}, nil
}

func (c *Connection) Channel() (*amqp.Channel, error) {
	return c.conn.Channel()
}

func (c *Connection) IsClosed() bool {
	return c.conn.IsClosed()
}

func (c *Connection) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
