package dispatch

import (
	"context"

	"github.com/optica/paymentflow/libs/events"
	"github.com/optica/paymentflow/services/consumer-service/internal/domain"
)

// HandleFunc applies one decoded event. Decode failures are poison: the
// payload will never become valid, so they go straight to the dead-letter
// path instead of the retry queue.
type HandleFunc func(ctx context.Context, body []byte) Outcome

func CompanyHandler(svc *domain.CompanyService) HandleFunc {
	return func(ctx context.Context, body []byte) Outcome {
		evt, err := events.DecodeCompanyCreated(body)
		if err != nil {
			return Dead("poison: " + err.Error())
		}
		_, err = svc.Create(ctx, domain.NewCompany{
			Name:              evt.Name,
			TaxID:             evt.TaxID,
			ExternalCompanyID: evt.ExternalCompanyID,
		})
		return Classify(err)
	}
}

func AccountHandler(svc *domain.AccountService) HandleFunc {
	return func(ctx context.Context, body []byte) Outcome {
		evt, err := events.DecodeAccountCreated(body)
		if err != nil {
			return Dead("poison: " + err.Error())
		}
		_, err = svc.Create(ctx, domain.NewAccount{
			Balance:           evt.Balance,
			ExternalAccountID: evt.ExternalAccountID,
			CompanyID:         evt.CompanyID,
		})
		return Classify(err)
	}
}

func RegisterHandler(svc *domain.RegisterService) HandleFunc {
	return func(ctx context.Context, body []byte) Outcome {
		evt, err := events.DecodeRegisterCreated(body)
		if err != nil {
			return Dead("poison: " + err.Error())
		}
		_, err = svc.Create(ctx, domain.NewRegister{
			Type:      evt.Type,
			Amount:    evt.Amount,
			AccountID: evt.AccountID,
			UserID:    evt.UserID,
		})
		return Classify(err)
	}
}
