// Package publish converts validated creation requests into events and hands
// them to the broker. The REST call returns once the broker accepts the
// publish; persistence happens later on the consumer side.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/optica/paymentflow/libs/amqpx"
	"github.com/optica/paymentflow/libs/events"
	"github.com/optica/paymentflow/libs/metrics"
	"github.com/optica/paymentflow/libs/money"
)

type CompanyRequest struct {
	Name              string `json:"name" validate:"required"`
	TaxID             string `json:"tax_id" validate:"required"`
	ExternalCompanyID string `json:"external_company_id" validate:"required"`
}

type AccountRequest struct {
	Balance           money.Money `json:"balance" validate:"gte=0"`
	ExternalAccountID string      `json:"external_account_id" validate:"required"`
	CompanyID         int64       `json:"company_id" validate:"required,gt=0"`
}

type RegisterRequest struct {
	Type      string      `json:"type" validate:"required,oneof=DEPOSIT WITHDRAWAL PAYMENT REFUND"`
	Amount    money.Money `json:"amount" validate:"gte=0"`
	AccountID int64       `json:"account_id" validate:"required,gt=0"`
	UserID    string      `json:"user_id" validate:"required"`
}

type Publisher struct {
	ch      amqpx.BasicPublisher
	logger  *slog.Logger
	timeout time.Duration
}

func New(ch amqpx.BasicPublisher, logger *slog.Logger, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{ch: ch, logger: logger, timeout: timeout}
}

// PublishCompanyCreated stamps the event timestamp and emits the event under
// company.created. Returns the event id the consumer will dedup on.
func (p *Publisher) PublishCompanyCreated(ctx context.Context, req CompanyRequest) (string, error) {
	evt := events.CompanyCreated{
		Name:              req.Name,
		TaxID:             req.TaxID,
		ExternalCompanyID: req.ExternalCompanyID,
		Timestamp:         time.Now().UTC(),
	}
	return p.publish(ctx, events.KeyCompanyCreated, evt)
}

func (p *Publisher) PublishAccountCreated(ctx context.Context, req AccountRequest) (string, error) {
	evt := events.AccountCreated{
		Balance:           req.Balance,
		ExternalAccountID: req.ExternalAccountID,
		CompanyID:         req.CompanyID,
		Timestamp:         time.Now().UTC(),
	}
	return p.publish(ctx, events.KeyAccountCreated, evt)
}

func (p *Publisher) PublishRegisterCreated(ctx context.Context, req RegisterRequest) (string, error) {
	evt := events.RegisterCreated{
		Type:      req.Type,
		Amount:    req.Amount,
		AccountID: req.AccountID,
		UserID:    req.UserID,
		Timestamp: time.Now().UTC(),
	}
	return p.publish(ctx, events.KeyRegisterCreated, evt)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, evt any) (string, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", routingKey, err)
	}

	eventID := uuid.NewString()
	headers := amqp.Table{
		amqpx.HeaderEventID:   eventID,
		amqpx.HeaderEventType: routingKey,
	}
	headers = amqpx.InjectTraceHeaders(ctx, headers)

	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := amqpx.PublishJSON(pubCtx, p.ch, amqpx.PublishOptions{
		Exchange:   events.Exchange,
		RoutingKey: routingKey,
		Headers:    headers,
	}, body); err != nil {
		metrics.PublishFailures.WithLabelValues(routingKey).Inc()
		return "", fmt.Errorf("publish %s: %w", routingKey, err)
	}

	metrics.EventsPublished.WithLabelValues(routingKey).Inc()
	p.logger.Info("event published", "routing_key", routingKey, "event_id", eventID)
	return eventID, nil
}
