package domain

import (
	"errors"
	"time"

	"github.com/optica/paymentflow/libs/money"
)

var (
	// ErrCompanyNotFound / ErrAccountNotFound mean the parent an event
	// references is absent right now. The dispatcher treats that as
	// retryable: with out-of-order delivery the parent may simply not
	// have arrived yet.
	ErrCompanyNotFound = errors.New("company not found")
	ErrAccountNotFound = errors.New("account not found")

	// ErrRegisterNotFound only surfaces on the query side; nothing in
	// the pipeline depends on a register existing.
	ErrRegisterNotFound = errors.New("register not found")

	// ErrDuplicate means the natural key already exists; a redelivered
	// event lands here and must not produce a second row.
	ErrDuplicate = errors.New("entity already exists")
)

type Company struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	TaxID             string    `json:"tax_id"`
	ExternalCompanyID string    `json:"external_company_id"`
	CreatedAt         time.Time `json:"created_at"`
}

type Account struct {
	ID                int64       `json:"id"`
	Balance           money.Money `json:"balance"`
	ExternalAccountID string      `json:"external_account_id"`
	CompanyID         int64       `json:"company_id"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

type Register struct {
	ID        int64       `json:"id"`
	Type      string      `json:"type"`
	Amount    money.Money `json:"amount"`
	AccountID int64       `json:"account_id"`
	UserID    string      `json:"user_id"`
	CreatedAt time.Time   `json:"created_at"`
}

type NewCompany struct {
	Name              string
	TaxID             string
	ExternalCompanyID string
}

type NewAccount struct {
	Balance           money.Money
	ExternalAccountID string
	CompanyID         int64
}

type NewRegister struct {
	Type      string
	Amount    money.Money
	AccountID int64
	UserID    string
}
