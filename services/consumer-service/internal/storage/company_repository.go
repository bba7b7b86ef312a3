package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/optica/paymentflow/libs/db"
	"github.com/optica/paymentflow/services/consumer-service/internal/domain"
)

type CompanyRepository struct {
	pool *db.Pool
}

func NewCompanyRepository(pool *db.Pool) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

// Insert creates a company row unless the external id is already taken.
// The ON CONFLICT clause is the idempotency guard for redelivered events.
func (r *CompanyRepository) Insert(ctx context.Context, c domain.NewCompany) (domain.Company, error) {
	created := domain.Company{
		Name:              c.Name,
		TaxID:             c.TaxID,
		ExternalCompanyID: c.ExternalCompanyID,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO company (name, tax_id, external_company_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (external_company_id) DO NOTHING
		RETURNING id, created_at
	`, c.Name, c.TaxID, c.ExternalCompanyID).Scan(&created.ID, &created.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Company{}, domain.ErrDuplicate
	}
	if err != nil {
		return domain.Company{}, err
	}
	return created, nil
}

func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (domain.Company, error) {
	var c domain.Company
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, tax_id, external_company_id, created_at
		FROM company
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.TaxID, &c.ExternalCompanyID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Company{}, domain.ErrCompanyNotFound
	}
	if err != nil {
		return domain.Company{}, err
	}
	return c, nil
}

func (r *CompanyRepository) ListAll(ctx context.Context) ([]domain.Company, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, tax_id, external_company_id, created_at
		FROM company
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Company
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.TaxID, &c.ExternalCompanyID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
