package payments

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/gym-console/internal/infra/db"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Insert is the only write path into the ledger. q may be a transaction.
func Insert(ctx context.Context, q db.Querier, p *Payment) error {
	row := q.QueryRow(ctx, `
		INSERT INTO payments (tenant_id, member_id, amount, paid_at, method, plan)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at
	`, p.TenantID, p.MemberID, p.Amount, p.Date, string(p.Method), p.Plan)
	return row.Scan(&p.ID, &p.CreatedAt)
}

func (r *Repo) Insert(ctx context.Context, p *Payment) error { return Insert(ctx, r.pool, p) }

const selectPayment = `SELECT id, tenant_id, member_id, amount, paid_at, method, plan, created_at FROM payments`

func collect(rows pgx.Rows) ([]Payment, error) {
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		var p Payment
		var method string
		if err := rows.Scan(&p.ID, &p.TenantID, &p.MemberID, &p.Amount, &p.Date, &method, &p.Plan, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Method = Method(method)
		out = append(out, p)
	}
	return out, rows.Err()
}

// History lists a member's payments, most recent first.
func (r *Repo) History(ctx context.Context, tenantID, memberID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, selectPayment+`
		WHERE tenant_id = $1 AND member_id = $2
		ORDER BY paid_at DESC, id DESC
	`, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// List returns the tenant's payments with paid_at in [from, to), oldest first.
// Zero bounds are open.
func (r *Repo) List(ctx context.Context, tenantID int64, from, to time.Time) ([]Payment, error) {
	q := selectPayment + ` WHERE tenant_id = $1`
	args := []any{tenantID}
	if !from.IsZero() {
		args = append(args, from)
		q += ` AND paid_at >= $2`
	}
	if !to.IsZero() {
		args = append(args, to)
		if len(args) == 2 {
			q += ` AND paid_at < $2`
		} else {
			q += ` AND paid_at < $3`
		}
	}
	q += ` ORDER BY paid_at, id`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}
