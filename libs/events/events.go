// Package events defines the wire schemas for the creation pipeline.
//
// Field names are wire-stable snake_case and decoupled from store column
// names. There is no version tag: schema evolution is additive-only, or it
// moves to a new routing key.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/optica/paymentflow/libs/amqpx"
	"github.com/optica/paymentflow/libs/money"
)

const (
	Exchange           = "payment.exchange"
	DeadLetterExchange = "payment.dlx"
	DeadLetterQueue    = "payment.dlq"
	DeadLetterKey      = "dead-letter"

	CompanyQueue  = "company.queue"
	AccountQueue  = "account.queue"
	RegisterQueue = "register.queue"

	KeyCompanyCreated  = "company.created"
	KeyAccountCreated  = "account.created"
	KeyRegisterCreated = "register.created"
)

// Topology is the broker layout shared by the gateway and the consumer.
func Topology() amqpx.Topology {
	return amqpx.Topology{
		Exchange:           Exchange,
		DeadLetterExchange: DeadLetterExchange,
		DeadLetterQueue:    DeadLetterQueue,
		DeadLetterKey:      DeadLetterKey,
		Bindings: []amqpx.QueueBinding{
			{Queue: CompanyQueue, RoutingKey: KeyCompanyCreated},
			{Queue: AccountQueue, RoutingKey: KeyAccountCreated},
			{Queue: RegisterQueue, RoutingKey: KeyRegisterCreated},
		},
	}
}

type CompanyCreated struct {
	Name              string    `json:"name"`
	TaxID             string    `json:"tax_id"`
	ExternalCompanyID string    `json:"external_company_id"`
	Timestamp         time.Time `json:"timestamp"`
}

type AccountCreated struct {
	Balance           money.Money `json:"balance"`
	ExternalAccountID string      `json:"external_account_id"`
	CompanyID         int64       `json:"company_id"`
	Timestamp         time.Time   `json:"timestamp"`
}

type RegisterCreated struct {
	Type      string      `json:"type"`
	Amount    money.Money `json:"amount"`
	AccountID int64       `json:"account_id"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
}

// RegisterTypes is the fixed set of ledger-entry kinds.
var RegisterTypes = []string{"DEPOSIT", "WITHDRAWAL", "PAYMENT", "REFUND"}

func ValidRegisterType(t string) bool {
	for _, known := range RegisterTypes {
		if t == known {
			return true
		}
	}
	return false
}

func DecodeCompanyCreated(body []byte) (CompanyCreated, error) {
	var evt CompanyCreated
	if err := json.Unmarshal(body, &evt); err != nil {
		return CompanyCreated{}, fmt.Errorf("decode company.created: %w", err)
	}
	if evt.Name == "" || evt.ExternalCompanyID == "" {
		return CompanyCreated{}, errors.New("company.created: name and external_company_id are required")
	}
	return evt, nil
}

func DecodeAccountCreated(body []byte) (AccountCreated, error) {
	var evt AccountCreated
	if err := json.Unmarshal(body, &evt); err != nil {
		return AccountCreated{}, fmt.Errorf("decode account.created: %w", err)
	}
	if evt.ExternalAccountID == "" || evt.CompanyID <= 0 {
		return AccountCreated{}, errors.New("account.created: external_account_id and company_id are required")
	}
	if evt.Balance.IsNegative() {
		return AccountCreated{}, errors.New("account.created: balance must be non-negative")
	}
	return evt, nil
}

func DecodeRegisterCreated(body []byte) (RegisterCreated, error) {
	var evt RegisterCreated
	if err := json.Unmarshal(body, &evt); err != nil {
		return RegisterCreated{}, fmt.Errorf("decode register.created: %w", err)
	}
	if evt.AccountID <= 0 || evt.UserID == "" {
		return RegisterCreated{}, errors.New("register.created: account_id and user_id are required")
	}
	if !ValidRegisterType(evt.Type) {
		return RegisterCreated{}, fmt.Errorf("register.created: unknown type %q", evt.Type)
	}
	return evt, nil
}
