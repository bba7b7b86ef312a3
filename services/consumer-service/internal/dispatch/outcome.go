package dispatch

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/optica/paymentflow/services/consumer-service/internal/domain"
)

// Status is the result of one consumption attempt. The ack/nack decision is
// driven by this value, never by a blanket error catch.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusDuplicate Status = "duplicate"
	StatusRetry     Status = "retry"
	StatusDead      Status = "dead"
)

type Outcome struct {
	Status Status
	Reason string
}

func Applied() Outcome {
	return Outcome{Status: StatusApplied}
}

func Duplicate() Outcome {
	return Outcome{Status: StatusDuplicate}
}

func Retry(reason string) Outcome {
	return Outcome{Status: StatusRetry, Reason: reason}
}

func Dead(reason string) Outcome {
	return Outcome{Status: StatusDead, Reason: reason}
}

// Classify maps a domain-service error to an outcome.
//
//   - missing parent: retryable — with out-of-order delivery the parent
//     event may simply not have been applied yet
//   - duplicate natural key: the event was already applied once
//   - timeout / store unavailable: retryable
//   - integrity violations other than the dedup key: permanent
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Applied()
	case errors.Is(err, domain.ErrDuplicate):
		return Duplicate()
	case errors.Is(err, domain.ErrCompanyNotFound):
		return Retry("company not found")
	case errors.Is(err, domain.ErrAccountNotFound):
		return Retry("account not found")
	case errors.Is(err, context.DeadlineExceeded):
		return Retry("store timeout")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return Dead("constraint violation: " + pgErr.Code)
	}

	return Retry("store error: " + err.Error())
}
