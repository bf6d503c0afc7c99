package members

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/gym-console/internal/apperr"
	"github.com/Spok95/gym-console/internal/domain/payments"
	"github.com/Spok95/gym-console/internal/infra/db"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const memberColumns = `id, tenant_id, name, email, phone, gender, date_of_birth, address, plan,
	join_date, renewal_date, expiry_date, status, created_at, updated_at`

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	var gender, status string
	if err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.Name,
		&m.Email,
		&m.Phone,
		&gender,
		&m.DateOfBirth,
		&m.Address,
		&m.Plan,
		&m.JoinDate,
		&m.RenewalDate,
		&m.ExpiryDate,
		&status,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	m.Gender = Gender(gender)
	m.Status = Status(status)
	return &m, nil
}

func collect(rows pgx.Rows) ([]Member, error) {
	defer rows.Close()
	var out []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func conflict(err error) error {
	switch {
	case apperr.IsUniqueViolation(err, "members_tenant_phone_key"):
		return &apperr.Error{Kind: ErrExists.Kind, Code: ErrExists.Code, Message: "a member with this phone already exists", Fields: map[string]string{"phone": "unique"}}
	case apperr.IsUniqueViolation(err, "members_tenant_email_key"):
		return &apperr.Error{Kind: ErrExists.Kind, Code: ErrExists.Code, Message: "a member with this email already exists", Fields: map[string]string{"email": "unique"}}
	}
	return err
}

// CreateWithPayment inserts the member and its first payment atomically.
func (r *Repo) CreateWithPayment(ctx context.Context, m *Member, p *payments.Payment) error {
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO members (tenant_id, name, email, phone, gender, date_of_birth, address, plan,
			                     join_date, renewal_date, expiry_date, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			RETURNING id, created_at, updated_at
		`, m.TenantID, m.Name, m.Email, m.Phone, string(m.Gender), m.DateOfBirth, m.Address, m.Plan,
			m.JoinDate, m.RenewalDate, m.ExpiryDate, string(m.Status))
		if err := row.Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return err
		}
		p.MemberID = m.ID
		if err := payments.Insert(ctx, tx, p); err != nil {
			return fmt.Errorf("insert initial payment: %w", err)
		}
		return nil
	})
	return conflict(err)
}

// RenewWithPayment advances the membership and appends the payment atomically.
func (r *Repo) RenewWithPayment(ctx context.Context, m *Member, p *payments.Payment) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE members
			SET plan = $3, renewal_date = $4, expiry_date = $5, status = $6, updated_at = NOW()
			WHERE id = $1 AND tenant_id = $2
			RETURNING updated_at
		`, m.ID, m.TenantID, m.Plan, m.RenewalDate, m.ExpiryDate, string(m.Status))
		if err := row.Scan(&m.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("member")
			}
			return err
		}
		if err := payments.Insert(ctx, tx, p); err != nil {
			return fmt.Errorf("insert renewal payment: %w", err)
		}
		return nil
	})
}

// Get returns nil, nil when the member is missing or belongs to another tenant.
func (r *Repo) Get(ctx context.Context, tenantID, id int64) (*Member, error) {
	m, err := scanMember(r.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *Repo) GetByPhone(ctx context.Context, tenantID int64, phone string) (*Member, error) {
	m, err := scanMember(r.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE tenant_id = $1 AND phone = $2`, tenantID, phone))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

var sortColumns = map[SortKey]string{
	SortName:      "lower(name)",
	SortJoinDate:  "join_date",
	SortExpiry:    "expiry_date",
	SortCreatedAt: "created_at",
}

func (r *Repo) List(ctx context.Context, tenantID int64, f Filter) ([]Member, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + memberColumns + ` FROM members WHERE tenant_id = $1`)
	args := []any{tenantID}

	if f.Status != "" {
		args = append(args, string(f.Status))
		fmt.Fprintf(&sb, " AND status = $%d", len(args))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+strings.ToLower(s)+"%")
		fmt.Fprintf(&sb, " AND (lower(name) LIKE $%d OR phone LIKE $%d)", len(args), len(args))
	}

	col, ok := sortColumns[f.Sort]
	if !ok {
		col = sortColumns[SortCreatedAt]
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, id %s", col, dir, dir)

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *Repo) Update(ctx context.Context, m *Member) error {
	row := r.pool.QueryRow(ctx, `
		UPDATE members
		SET name = $3, email = $4, phone = $5, gender = $6, date_of_birth = $7, address = $8,
		    expiry_date = $9, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2
		RETURNING updated_at
	`, m.ID, m.TenantID, m.Name, m.Email, m.Phone, string(m.Gender), m.DateOfBirth, m.Address, m.ExpiryDate)
	if err := row.Scan(&m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("member")
		}
		return conflict(err)
	}
	return nil
}

func (r *Repo) Exists(ctx context.Context, tenantID, memberID int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM members WHERE tenant_id = $1 AND id = $2)`, tenantID, memberID).Scan(&ok)
	return ok, err
}

func (r *Repo) Names(ctx context.Context, tenantID int64) (map[int64]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM members WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]string{}
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

// Mismatched lists members of every tenant whose stored status disagrees
// with their expiry date as of today.
func (r *Repo) Mismatched(ctx context.Context, today time.Time) ([]Transition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, expiry_date, status
		FROM members
		WHERE (status = 'Active' AND expiry_date < $1)
		   OR (status = 'Inactive' AND expiry_date >= $1)
		ORDER BY tenant_id, id
	`, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var t Transition
		var status string
		if err := rows.Scan(&t.ID, &t.TenantID, &t.ExpiryDate, &status); err != nil {
			return nil, err
		}
		t.From = Status(status)
		t.To = StatusFor(t.ExpiryDate, today)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ApplyTransition flips one member's status. The expiry guard is evaluated
// again inside the UPDATE, so a renewal that landed after Mismatched read the
// row is never overwritten. Returns false when nothing changed.
func (r *Repo) ApplyTransition(ctx context.Context, t Transition, today time.Time) (bool, error) {
	q := `UPDATE members SET status = $3, updated_at = NOW()
	      WHERE id = $1 AND status = $2 AND expiry_date < $4`
	if t.To == StatusActive {
		q = `UPDATE members SET status = $3, updated_at = NOW()
		     WHERE id = $1 AND status = $2 AND expiry_date >= $4`
	}
	tag, err := r.pool.Exec(ctx, q, t.ID, string(t.From), string(t.To), today)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ExpiringBetween lists Active members of every tenant expiring in [from, to].
func (r *Repo) ExpiringBetween(ctx context.Context, from, to time.Time) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+memberColumns+` FROM members
		WHERE status = 'Active' AND expiry_date BETWEEN $1 AND $2
		ORDER BY tenant_id, expiry_date, id`, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}
