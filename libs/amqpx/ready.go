package amqpx

import (
	"context"
	"errors"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

func ReadyCheck(url string) func(context.Context) error {
	return func(ctx context.Context) error {
		if url == "" {
			return errors.New("amqp url not configured")
		}
		conn, err := amqp.DialConfig(url, amqp.Config{
			Dial: func(network, addr string) (net.Conn, error) {
				d := net.Dialer{Timeout: 2 * time.Second}
				return d.DialContext(ctx, network, addr)
			},
		})
		if err != nil {
			return err
		}
		_ = conn.Close()
		return nil
	}
}
