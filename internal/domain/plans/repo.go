package plans

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/gym-console/internal/infra/db"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) List(ctx context.Context, tenantID int64) ([]Plan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tenant_id, name, duration_months, price, active, updated_at
		FROM plans
		WHERE tenant_id = $1
		ORDER BY duration_months, name
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.TenantID, &p.Name, &p.DurationMonths, &p.Price, &p.Active, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get returns nil, nil when the tenant has no plan with that name.
func (r *Repo) Get(ctx context.Context, tenantID int64, name string) (*Plan, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT tenant_id, name, duration_months, price, active, updated_at
		FROM plans
		WHERE tenant_id = $1 AND name = $2
	`, tenantID, name)
	var p Plan
	if err := row.Scan(&p.TenantID, &p.Name, &p.DurationMonths, &p.Price, &p.Active, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Upsert(ctx context.Context, p Plan) (*Plan, error) {
	return upsert(ctx, r.pool, p)
}

// Seed writes the default plan set; called inside tenant registration.
func Seed(ctx context.Context, q db.Querier, tenantID int64) error {
	for _, p := range Defaults(tenantID) {
		if _, err := upsert(ctx, q, p); err != nil {
			return err
		}
	}
	return nil
}

func upsert(ctx context.Context, q db.Querier, p Plan) (*Plan, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO plans (tenant_id, name, duration_months, price, active)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (tenant_id, name)
		DO UPDATE SET duration_months = EXCLUDED.duration_months,
		              price           = EXCLUDED.price,
		              active          = EXCLUDED.active,
		              updated_at      = NOW()
		RETURNING tenant_id, name, duration_months, price, active, updated_at
	`, p.TenantID, p.Name, p.DurationMonths, p.Price, p.Active)
	var out Plan
	if err := row.Scan(&out.TenantID, &out.Name, &out.DurationMonths, &out.Price, &out.Active, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}
