package tenants

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/gym-console/internal/apperr"
	"github.com/Spok95/gym-console/internal/domain/plans"
	"github.com/Spok95/gym-console/internal/infra/db"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const selectTenant = `SELECT id, name, email, password_hash, gym_name, gym_code, created_at, updated_at FROM tenants`

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	if err := row.Scan(&t.ID, &t.Name, &t.Email, &t.PasswordHash, &t.GymName, &t.GymCode, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// Create inserts the tenant and its default plans in one transaction.
func (r *Repo) Create(ctx context.Context, t *Tenant) error {
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO tenants (name, email, password_hash, gym_name, gym_code)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING id, created_at, updated_at
		`, t.Name, t.Email, t.PasswordHash, t.GymName, t.GymCode)
		if err := row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return err
		}
		return plans.Seed(ctx, tx, t.ID)
	})
	if apperr.IsUniqueViolation(err, "") {
		return ErrExists
	}
	return err
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Tenant, error) {
	return scanTenant(r.pool.QueryRow(ctx, selectTenant+` WHERE id = $1`, id))
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*Tenant, error) {
	return scanTenant(r.pool.QueryRow(ctx, selectTenant+` WHERE lower(email) = lower($1)`, email))
}

func (r *Repo) GetByCode(ctx context.Context, code string) (*Tenant, error) {
	return scanTenant(r.pool.QueryRow(ctx, selectTenant+` WHERE gym_code = upper($1)`, code))
}

func (r *Repo) UpdateProfile(ctx context.Context, id int64, name, gymName string) (*Tenant, error) {
	return scanTenant(r.pool.QueryRow(ctx, `
		UPDATE tenants SET name = $2, gym_name = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, email, password_hash, gym_name, gym_code, created_at, updated_at
	`, id, name, gymName))
}

func (r *Repo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tenants SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("tenant")
	}
	return nil
}
