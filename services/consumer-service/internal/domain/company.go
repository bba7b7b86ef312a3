package domain

import (
	"context"
	"log/slog"
	"time"
)

type CompanyStore interface {
	Insert(ctx context.Context, c NewCompany) (Company, error)
	GetByID(ctx context.Context, id int64) (Company, error)
	ListAll(ctx context.Context) ([]Company, error)
}

// CompanyService owns Company persistence. Companies are roots: creation
// has no parent to resolve.
type CompanyService struct {
	store   CompanyStore
	logger  *slog.Logger
	timeout time.Duration
}

func NewCompanyService(store CompanyStore, logger *slog.Logger, timeout time.Duration) *CompanyService {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &CompanyService{store: store, logger: logger, timeout: timeout}
}

func (s *CompanyService) Create(ctx context.Context, c NewCompany) (Company, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	created, err := s.store.Insert(opCtx, c)
	if err != nil {
		return Company{}, err
	}
	s.logger.Info("company created",
		"company_id", created.ID,
		"external_company_id", created.ExternalCompanyID,
	)
	return created, nil
}

func (s *CompanyService) GetByID(ctx context.Context, id int64) (Company, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.GetByID(opCtx, id)
}

func (s *CompanyService) ListAll(ctx context.Context) ([]Company, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.ListAll(opCtx)
}
