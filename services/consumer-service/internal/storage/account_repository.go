package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/optica/paymentflow/libs/db"
	"github.com/optica/paymentflow/services/consumer-service/internal/domain"
)

const pgForeignKeyViolation = "23503"

type AccountRepository struct {
	pool *db.Pool
}

func NewAccountRepository(pool *db.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Insert creates an account row. The service layer checks the parent
// company first, but the foreign key still closes the race against a
// concurrent company delete.
func (r *AccountRepository) Insert(ctx context.Context, a domain.NewAccount) (domain.Account, error) {
	created := domain.Account{
		Balance:           a.Balance,
		ExternalAccountID: a.ExternalAccountID,
		CompanyID:         a.CompanyID,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO account (balance_cents, external_account_id, company_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (external_account_id) DO NOTHING
		RETURNING id, created_at, updated_at
	`, a.Balance, a.ExternalAccountID, a.CompanyID).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, domain.ErrDuplicate
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return domain.Account{}, domain.ErrCompanyNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}
	return created, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (domain.Account, error) {
	var a domain.Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, balance_cents, external_account_id, company_id, created_at, updated_at
		FROM account
		WHERE id = $1
	`, id).Scan(&a.ID, &a.Balance, &a.ExternalAccountID, &a.CompanyID, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}
	return a, nil
}
