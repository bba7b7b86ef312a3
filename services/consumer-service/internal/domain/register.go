package domain

import (
	"context"
	"log/slog"
	"time"
)

type RegisterStore interface {
	Insert(ctx context.Context, r NewRegister) (Register, error)
	GetByID(ctx context.Context, id int64) (Register, error)
}

// RegisterService owns Register persistence. A register must reference an
// existing account at creation time.
type RegisterService struct {
	store    RegisterStore
	accounts *AccountService
	logger   *slog.Logger
	timeout  time.Duration
}

func NewRegisterService(store RegisterStore, accounts *AccountService, logger *slog.Logger, timeout time.Duration) *RegisterService {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &RegisterService{store: store, accounts: accounts, logger: logger, timeout: timeout}
}

func (s *RegisterService) Create(ctx context.Context, r NewRegister) (Register, error) {
	account, err := s.accounts.GetByID(ctx, r.AccountID)
	if err != nil {
		return Register{}, err
	}

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	created, err := s.store.Insert(opCtx, r)
	if err != nil {
		return Register{}, err
	}
	s.logger.Info("register created",
		"register_id", created.ID,
		"type", created.Type,
		"account_id", account.ID,
	)
	return created, nil
}

func (s *RegisterService) GetByID(ctx context.Context, id int64) (Register, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.GetByID(opCtx, id)
}
