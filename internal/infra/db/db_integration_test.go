package db_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/gym-console/internal/clock"
	"github.com/Spok95/gym-console/internal/domain/attendance"
	"github.com/Spok95/gym-console/internal/domain/members"
	"github.com/Spok95/gym-console/internal/domain/payments"
	"github.com/Spok95/gym-console/internal/domain/tenants"
	"github.com/Spok95/gym-console/internal/infra/db"
)

// These tests need a disposable database: TEST_POSTGRES_DSN=postgres://...
func connect(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	require.NoError(t, db.Migrate(dsn))

	pool, err := db.Connect(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func seedTenant(t *testing.T, ctx context.Context, pool *pgxpool.Pool) *tenants.Tenant {
	t.Helper()
	suffix := time.Now().UnixNano()
	tn := &tenants.Tenant{
		Name:         "Owner",
		Email:        fmt.Sprintf("owner-%d@example.com", suffix),
		PasswordHash: "x",
		GymName:      "Iron Den",
		GymCode:      fmt.Sprintf("IT%d", suffix%1_000_000_000),
	}
	require.NoError(t, tenants.NewRepo(pool).Create(ctx, tn))
	return tn
}

func seedMember(t *testing.T, ctx context.Context, pool *pgxpool.Pool, tenantID int64, phone string, expiry time.Time, status members.Status) *members.Member {
	t.Helper()
	join := clock.AddMonths(expiry, -1)
	m := &members.Member{
		TenantID: tenantID, Name: "Asha", Phone: phone, Gender: members.GenderFemale,
		Plan: "Monthly", JoinDate: join, RenewalDate: join, ExpiryDate: expiry, Status: status,
	}
	p := &payments.Payment{
		TenantID: tenantID, Amount: 500, Date: join, Method: payments.MethodCash, Plan: "Monthly",
	}
	require.NoError(t, members.NewRepo(pool).CreateWithPayment(ctx, m, p))
	return m
}

func TestAttendance_ConcurrentMarksStoreOneRow(t *testing.T) {
	pool := connect(t)
	ctx := context.Background()
	tn := seedTenant(t, ctx, pool)
	m := seedMember(t, ctx, pool, tn.ID, "9000000001", clock.Date(2099, time.January, 1), members.StatusActive)

	repo := attendance.NewRepo(pool)
	day := clock.Date(2024, time.March, 1)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Insert(ctx, &attendance.Attendance{
				TenantID: tn.ID, MemberID: m.ID, Day: day, CheckInTime: time.Now(), MarkedBy: attendance.MarkedManual,
			})
		}(i)
	}
	wg.Wait()

	ok, dup := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, attendance.ErrAlreadyMarked):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, dup)

	recs, err := repo.ListForMember(ctx, tn.ID, m.ID, day, day)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestMembers_CreateRollsBackWithoutPayment(t *testing.T) {
	pool := connect(t)
	ctx := context.Background()
	tn := seedTenant(t, ctx, pool)
	seedMember(t, ctx, pool, tn.ID, "9000000002", clock.Date(2099, time.January, 1), members.StatusActive)

	// Same phone violates the unique key after nothing else was written.
	dup := &members.Member{
		TenantID: tn.ID, Name: "Dup", Phone: "9000000002", Gender: members.GenderMale, Plan: "Monthly",
		JoinDate: clock.Date(2024, 1, 1), RenewalDate: clock.Date(2024, 1, 1), ExpiryDate: clock.Date(2024, 2, 1),
		Status: members.StatusActive,
	}
	p := &payments.Payment{TenantID: tn.ID, Amount: 500, Date: dup.JoinDate, Method: payments.MethodUPI, Plan: "Monthly"}
	err := members.NewRepo(pool).CreateWithPayment(ctx, dup, p)
	assert.ErrorIs(t, err, members.ErrExists)

	list, err := payments.NewRepo(pool).List(ctx, tn.ID, clock.Date(2000, 1, 1), clock.Date(2100, 1, 1))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMembers_ApplyTransitionGuardsExpiry(t *testing.T) {
	pool := connect(t)
	ctx := context.Background()
	tn := seedTenant(t, ctx, pool)
	repo := members.NewRepo(pool)
	today := clock.Date(2024, time.March, 15)

	expired := seedMember(t, ctx, pool, tn.ID, "9000000003", clock.Date(2024, time.March, 14), members.StatusActive)
	renewed := seedMember(t, ctx, pool, tn.ID, "9000000004", clock.Date(2024, time.March, 14), members.StatusActive)

	// A renewal commits after the sweep saw the stale row.
	renewed.ExpiryDate = clock.Date(2024, time.April, 14)
	renewed.RenewalDate = today
	require.NoError(t, repo.RenewWithPayment(ctx, renewed, &payments.Payment{
		TenantID: tn.ID, MemberID: renewed.ID, Amount: 500, Date: today, Method: payments.MethodCard, Plan: "Monthly",
	}))

	changed, err := repo.ApplyTransition(ctx, members.Transition{ID: expired.ID, From: members.StatusActive, To: members.StatusInactive}, today)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.ApplyTransition(ctx, members.Transition{ID: renewed.ID, From: members.StatusActive, To: members.StatusInactive}, today)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := repo.Get(ctx, tn.ID, renewed.ID)
	require.NoError(t, err)
	assert.Equal(t, members.StatusActive, got.Status)
}
