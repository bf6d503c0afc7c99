package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Insert relies on the (tenant_id, member_id, day) unique constraint. A
// conflicting insert writes nothing and returns ErrAlreadyMarked, so two
// concurrent callers can never both succeed.
func (r *Repo) Insert(ctx context.Context, a *Attendance) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO attendance (tenant_id, member_id, day, check_in_time, marked_by)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT ON CONSTRAINT attendance_member_day_key DO NOTHING
		RETURNING id, check_in_time
	`, a.TenantID, a.MemberID, a.Day, a.CheckInTime, string(a.MarkedBy))
	if err := row.Scan(&a.ID, &a.CheckInTime); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAlreadyMarked
		}
		return err
	}
	return nil
}

const selectAttendance = `SELECT id, tenant_id, member_id, day, check_in_time, marked_by FROM attendance`

func collect(rows pgx.Rows) ([]Attendance, error) {
	defer rows.Close()
	var out []Attendance
	for rows.Next() {
		var a Attendance
		var by string
		if err := rows.Scan(&a.ID, &a.TenantID, &a.MemberID, &a.Day, &a.CheckInTime, &by); err != nil {
			return nil, err
		}
		a.MarkedBy = MarkedBy(by)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListRange returns the tenant's records for days in [from, to].
func (r *Repo) ListRange(ctx context.Context, tenantID int64, from, to time.Time) ([]Attendance, error) {
	rows, err := r.pool.Query(ctx, selectAttendance+`
		WHERE tenant_id = $1 AND day BETWEEN $2 AND $3
		ORDER BY day, check_in_time
	`, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *Repo) ListForMember(ctx context.Context, tenantID, memberID int64, from, to time.Time) ([]Attendance, error) {
	rows, err := r.pool.Query(ctx, selectAttendance+`
		WHERE tenant_id = $1 AND member_id = $2 AND day BETWEEN $3 AND $4
		ORDER BY day
	`, tenantID, memberID, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// History lists a member's records, most recent first.
func (r *Repo) History(ctx context.Context, tenantID, memberID int64) ([]Attendance, error) {
	rows, err := r.pool.Query(ctx, selectAttendance+`
		WHERE tenant_id = $1 AND member_id = $2
		ORDER BY day DESC
	`, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}
