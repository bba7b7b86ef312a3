package domain

import (
	"context"
	"log/slog"
	"time"
)

type AccountStore interface {
	Insert(ctx context.Context, a NewAccount) (Account, error)
	GetByID(ctx context.Context, id int64) (Account, error)
}

// AccountService owns Account persistence. An account must reference an
// existing company at creation time. The lookup and the insert are two
// statements with no isolation between them; a company deleted in that
// window would still be caught by the foreign key.
type AccountService struct {
	store     AccountStore
	companies *CompanyService
	logger    *slog.Logger
	timeout   time.Duration
}

func NewAccountService(store AccountStore, companies *CompanyService, logger *slog.Logger, timeout time.Duration) *AccountService {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &AccountService{store: store, companies: companies, logger: logger, timeout: timeout}
}

func (s *AccountService) Create(ctx context.Context, a NewAccount) (Account, error) {
	company, err := s.companies.GetByID(ctx, a.CompanyID)
	if err != nil {
		return Account{}, err
	}

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	created, err := s.store.Insert(opCtx, a)
	if err != nil {
		return Account{}, err
	}
	s.logger.Info("account created",
		"account_id", created.ID,
		"external_account_id", created.ExternalAccountID,
		"company_id", company.ID,
	)
	return created, nil
}

func (s *AccountService) GetByID(ctx context.Context, id int64) (Account, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.GetByID(opCtx, id)
}
