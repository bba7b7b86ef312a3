package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/optica/paymentflow/libs/db"
	"github.com/optica/paymentflow/services/consumer-service/internal/domain"
)

type RegisterRepository struct {
	pool *db.Pool
}

func NewRegisterRepository(pool *db.Pool) *RegisterRepository {
	return &RegisterRepository{pool: pool}
}

// Insert creates a register row. created_at is stamped by the store.
func (r *RegisterRepository) Insert(ctx context.Context, reg domain.NewRegister) (domain.Register, error) {
	created := domain.Register{
		Type:      reg.Type,
		Amount:    reg.Amount,
		AccountID: reg.AccountID,
		UserID:    reg.UserID,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO register (type, amount_cents, account_id, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, reg.Type, reg.Amount, reg.AccountID, reg.UserID).Scan(&created.ID, &created.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return domain.Register{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Register{}, err
	}
	return created, nil
}

func (r *RegisterRepository) GetByID(ctx context.Context, id int64) (domain.Register, error) {
	var reg domain.Register
	err := r.pool.QueryRow(ctx, `
		SELECT id, type, amount_cents, account_id, user_id, created_at
		FROM register
		WHERE id = $1
	`, id).Scan(&reg.ID, &reg.Type, &reg.Amount, &reg.AccountID, &reg.UserID, &reg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Register{}, domain.ErrRegisterNotFound
	}
	if err != nil {
		return domain.Register{}, err
	}
	return reg, nil
}
