package payments_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/gym-console/internal/apperr"
	"github.com/Spok95/gym-console/internal/clock"
	"github.com/Spok95/gym-console/internal/domain/members"
	"github.com/Spok95/gym-console/internal/domain/payments"
	"github.com/Spok95/gym-console/internal/domain/plans"
	"github.com/Spok95/gym-console/internal/domain/tenants"
	"github.com/Spok95/gym-console/internal/infra/logger"
	"github.com/Spok95/gym-console/internal/testutil"
)

type sums struct {
	count  map[string]int
	amount float64
}

func (s *sums) PaymentRecorded(method string, amount float64) {
	if s.count == nil {
		s.count = map[string]int{}
	}
	s.count[method]++
	s.amount += amount
}

func setup(t *testing.T) (*testutil.DB, *payments.Service, clock.Calendar, int64, *sums) {
	t.Helper()
	db := testutil.NewDB()
	tn := &tenants.Tenant{Email: "owner@example.com", GymCode: "IRON01"}
	require.NoError(t, db.Tenants().Create(context.Background(), tn))
	cal := testutil.Kolkata(clock.Fixed(testutil.At(2024, time.March, 15)))
	rec := &sums{}
	svc := payments.NewService(db.Payments(), db.Members(), plans.NewService(db.Plans()), cal, logger.Discard(), rec)
	return db, svc, cal, tn.ID, rec
}

func TestRecord(t *testing.T) {
	db, svc, cal, tenant, rec := setup(t)
	m := db.PutMember(members.Member{TenantID: tenant, Name: "Asha", Phone: "9876543210"})

	p, err := svc.Record(context.Background(), tenant, payments.RecordInput{MemberID: m.ID, Amount: 500, Method: payments.MethodUPI, Plan: "Monthly"})
	require.NoError(t, err)

	assert.NotZero(t, p.ID)
	assert.Equal(t, cal.Now(), p.Date)
	assert.Equal(t, map[string]int{"UPI": 1}, rec.count)
	assert.Equal(t, 500.0, rec.amount)
	assert.Len(t, db.PaymentsOf(tenant, m.ID), 1)
}

func TestRecord_Rejects(t *testing.T) {
	db, svc, _, tenant, _ := setup(t)
	m := db.PutMember(members.Member{TenantID: tenant, Name: "Asha", Phone: "9876543210"})
	ctx := context.Background()

	_, err := svc.Record(ctx, tenant, payments.RecordInput{MemberID: m.ID, Amount: 0, Method: payments.MethodUPI, Plan: "Monthly"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Record(ctx, tenant, payments.RecordInput{MemberID: m.ID, Amount: 10, Method: "Cheque", Plan: "Monthly"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Record(ctx, tenant, payments.RecordInput{MemberID: 404, Amount: 10, Method: payments.MethodCash, Plan: "Monthly"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.Record(ctx, tenant+1, payments.RecordInput{MemberID: m.ID, Amount: 10, Method: payments.MethodCash, Plan: "Monthly"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.Record(ctx, tenant, payments.RecordInput{MemberID: m.ID, Amount: 10, Method: payments.MethodCash, Plan: "Weekly"})
	assert.ErrorIs(t, err, plans.ErrUnknown)
}

func TestRecord_AmountMustFitLedgerColumn(t *testing.T) {
	db, svc, _, tenant, _ := setup(t)
	m := db.PutMember(members.Member{TenantID: tenant, Name: "Asha", Phone: "9876543210"})
	ctx := context.Background()

	for _, amt := range []float64{0.004, 12.345, 1e13, 10000000000} {
		_, err := svc.Record(ctx, tenant, payments.RecordInput{MemberID: m.ID, Amount: amt, Method: payments.MethodCash, Plan: "Monthly"})
		var e *apperr.Error
		require.ErrorAs(t, err, &e, "amount %v", amt)
		assert.Equal(t, apperr.KindValidation, e.Kind)
		assert.Equal(t, "money", e.Fields["amount"])
	}
	assert.Empty(t, db.PaymentsOf(tenant, m.ID))

	for _, amt := range []float64{0.01, 499.5, 9999999999.99} {
		_, err := svc.Record(ctx, tenant, payments.RecordInput{MemberID: m.ID, Amount: amt, Method: payments.MethodCash, Plan: "Monthly"})
		assert.NoError(t, err, "amount %v", amt)
	}
}

func TestHistory_NewestFirst(t *testing.T) {
	db, svc, _, tenant, _ := setup(t)
	m := db.PutMember(members.Member{TenantID: tenant, Name: "Asha", Phone: "9876543210"})
	db.AddPayment(payments.Payment{TenantID: tenant, MemberID: m.ID, Amount: 1, Date: testutil.At(2024, 1, 1)})
	db.AddPayment(payments.Payment{TenantID: tenant, MemberID: m.ID, Amount: 2, Date: testutil.At(2024, 3, 1)})

	list, err := svc.History(context.Background(), tenant, m.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2.0, list[0].Amount)
}

func TestExport_RangeAndOrphans(t *testing.T) {
	db, svc, _, tenant, _ := setup(t)
	m := db.PutMember(members.Member{TenantID: tenant, Name: "Asha", Phone: "9876543210"})
	db.AddPayment(payments.Payment{TenantID: tenant, MemberID: m.ID, Amount: 100, Plan: "Monthly", Method: payments.MethodCash, Date: testutil.At(2024, 2, 29)})
	db.AddPayment(payments.Payment{TenantID: tenant, MemberID: m.ID, Amount: 200, Plan: "Monthly", Method: payments.MethodCash, Date: testutil.At(2024, 3, 1)})
	// 23:50 IST on Mar 31 still belongs to March.
	db.AddPayment(payments.Payment{TenantID: tenant, MemberID: m.ID, Amount: 300, Plan: "Monthly", Method: payments.MethodCash, Date: time.Date(2024, 3, 31, 18, 20, 0, 0, time.UTC)})
	db.AddPayment(payments.Payment{TenantID: tenant, MemberID: 999, Amount: 400, Plan: "Monthly", Method: payments.MethodCash, Date: testutil.At(2024, 3, 2)})

	rows, err := svc.Export(context.Background(), tenant, clock.Date(2024, 3, 1), clock.Date(2024, 3, 31))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Asha", rows[0].MemberName)
	assert.Equal(t, 200.0, rows[0].Amount)
	assert.Equal(t, 300.0, rows[1].Amount)

	all, err := svc.Export(context.Background(), tenant, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = svc.Export(context.Background(), tenant, clock.Date(2024, 4, 1), clock.Date(2024, 3, 1))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
