package attendance_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/gym-console/internal/apperr"
	"github.com/Spok95/gym-console/internal/clock"
	"github.com/Spok95/gym-console/internal/domain/attendance"
	"github.com/Spok95/gym-console/internal/domain/members"
	"github.com/Spok95/gym-console/internal/domain/tenants"
	"github.com/Spok95/gym-console/internal/infra/logger"
	"github.com/Spok95/gym-console/internal/testutil"
)

type recorder struct {
	mu         sync.Mutex
	marked     map[string]int
	duplicates int
}

func (r *recorder) AttendanceMarked(by string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.marked == nil {
		r.marked = map[string]int{}
	}
	r.marked[by]++
}

func (r *recorder) AttendanceDuplicate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.duplicates++
}

type fixture struct {
	db     *testutil.DB
	clk    *testutil.Clock
	svc    *attendance.Service
	rec    *recorder
	tenant *tenants.Tenant
}

func setup(t *testing.T, now time.Time) *fixture {
	t.Helper()
	db := testutil.NewDB()
	tn := &tenants.Tenant{Name: "Owner", Email: "owner@example.com", GymName: "Iron Temple", GymCode: "IRON01"}
	require.NoError(t, db.Tenants().Create(context.Background(), tn))

	clk := testutil.NewClock(now)
	cal := testutil.Kolkata(clk)
	rec := &recorder{}
	ms := members.NewService(db.Members(), nil, cal, logger.Discard())
	ts := tenants.NewService(db.Tenants())
	return &fixture{
		db:     db,
		clk:    clk,
		svc:    attendance.NewService(db.Attendance(), ms, ts, cal, logger.Discard(), rec),
		rec:    rec,
		tenant: tn,
	}
}

func (f *fixture) member(name, phone string, expiry time.Time) members.Member {
	return f.db.PutMember(members.Member{
		TenantID:   f.tenant.ID,
		Name:       name,
		Phone:      phone,
		Plan:       "Monthly",
		ExpiryDate: expiry,
		Status:     members.StatusActive,
	})
}

func TestMark_TwiceSameDay(t *testing.T) {
	f := setup(t, testutil.At(2024, time.March, 1))
	m := f.member("Asha", "9876543210", clock.Date(2024, 4, 1))
	ctx := context.Background()

	first, err := f.svc.Mark(ctx, f.tenant.ID, m.ID, attendance.MarkedManual)
	require.NoError(t, err)
	assert.False(t, first.CheckInTime.IsZero())
	assert.Equal(t, "Asha", first.Name)

	f.clk.Advance(3 * time.Hour)
	_, err = f.svc.Mark(ctx, f.tenant.ID, m.ID, attendance.MarkedQRAdmin)
	assert.ErrorIs(t, err, attendance.ErrAlreadyMarked)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	assert.Equal(t, 1, f.db.AttendanceCount(f.tenant.ID, m.ID, clock.Date(2024, 3, 1)))
	assert.Equal(t, map[string]int{"manual": 1}, f.rec.marked)
	assert.Equal(t, 1, f.rec.duplicates)
}

func TestMark_ConcurrentCallsYieldOneRecord(t *testing.T) {
	f := setup(t, testutil.At(2024, time.March, 1))
	m := f.member("Asha", "9876543210", clock.Date(2024, 4, 1))

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, conflicts := 0, 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Mark(context.Background(), f.tenant.ID, m.ID, attendance.MarkedManual)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if apperr.IsKind(err, apperr.KindConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, conflicts)
	assert.Equal(t, 1, f.db.AttendanceCount(f.tenant.ID, m.ID, clock.Date(2024, 3, 1)))
}

func TestMark_NextDayIsAllowed(t *testing.T) {
	// 23:30 IST on Mar 1 and 00:30 IST on Mar 2 are different calendar days.
	f := setup(t, time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC))
	m := f.member("Asha", "9876543210", clock.Date(2024, 4, 1))
	ctx := context.Background()

	_, err := f.svc.Mark(ctx, f.tenant.ID, m.ID, attendance.MarkedManual)
	require.NoError(t, err)

	f.clk.Advance(time.Hour)
	_, err = f.svc.Mark(ctx, f.tenant.ID, m.ID, attendance.MarkedManual)
	require.NoError(t, err)

	assert.Equal(t, 1, f.db.AttendanceCount(f.tenant.ID, m.ID, clock.Date(2024, 3, 2)))
}

func TestMark_UnknownMemberAndBadSource(t *testing.T) {
	f := setup(t, testutil.At(2024, time.March, 1))
	ctx := context.Background()

	_, err := f.svc.Mark(ctx, f.tenant.ID, 404, attendance.MarkedManual)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	m := f.member("Asha", "9876543210", clock.Date(2024, 4, 1))
	_, err = f.svc.Mark(ctx, f.tenant.ID, m.ID, "kiosk")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCheckIn_ByGymCodeAndPhone(t *testing.T) {
	f := setup(t, testutil.At(2024, time.March, 1))
	f.member("Asha", "9876543210", clock.Date(2024, 3, 1))
	f.member("Ravi", "9123456780", clock.Date(2024, 2, 29))
	ctx := context.Background()

	res, err := f.svc.CheckIn(ctx, "iron01", "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "Asha", res.Name)
	assert.Equal(t, 1, f.rec.marked["qr_self"])

	_, err = f.svc.CheckIn(ctx, "IRON01", "9123456780")
	assert.ErrorIs(t, err, attendance.ErrMembershipExpired)

	_, err = f.svc.CheckIn(ctx, "NOPE", "9876543210")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListForDay_SkipsOrphans(t *testing.T) {
	f := setup(t, testutil.At(2024, time.March, 1))
	m := f.member("Asha", "9876543210", clock.Date(2024, 4, 1))
	ctx := context.Background()
	_, err := f.svc.Mark(ctx, f.tenant.ID, m.ID, attendance.MarkedManual)
	require.NoError(t, err)
	f.db.AddAttendance(attendance.Attendance{TenantID: f.tenant.ID, MemberID: 777, Day: clock.Date(2024, 3, 1), MarkedBy: attendance.MarkedManual})

	list, err := f.svc.ListForDay(ctx, f.tenant.ID, clock.Date(2024, 3, 1))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Asha", list[0].Name)
}

func TestBuildSheet(t *testing.T) {
	list := []members.Member{{ID: 1, Name: "Asha"}, {ID: 2, Name: "Ravi"}}
	recs := []attendance.Attendance{
		{MemberID: 1, Day: clock.Date(2024, 2, 1)},
		{MemberID: 1, Day: clock.Date(2024, 2, 29)},
		{MemberID: 2, Day: clock.Date(2024, 2, 14)},
		{MemberID: 9, Day: clock.Date(2024, 2, 14)},
	}

	sheet := attendance.BuildSheet(recs, list, 2024, time.February)

	assert.Len(t, sheet.Days, 29)
	require.Len(t, sheet.PerMember, 2)
	assert.Equal(t, 1, sheet.PerMember[0].Presence[0])
	assert.Equal(t, 1, sheet.PerMember[0].Presence[28])
	assert.Equal(t, 0, sheet.PerMember[0].Presence[13])
	assert.Equal(t, 1, sheet.PerMember[1].Presence[13])

	raw, err := json.Marshal(sheet.PerMember[1])
	require.NoError(t, err)
	var row map[string]any
	require.NoError(t, json.Unmarshal(raw, &row))
	assert.Equal(t, "Ravi", row["name"])
	assert.Equal(t, float64(1), row["day14"])
	assert.Equal(t, float64(0), row["day29"])
	assert.NotContains(t, row, "day30")
}

func TestBuildCalendar_Percentage(t *testing.T) {
	from, _ := clock.MonthRange(2024, time.March)
	_, to := clock.MonthRange(2024, time.March)
	recs := []attendance.Attendance{
		{MemberID: 1, Day: clock.Date(2024, 3, 1)},
		{MemberID: 1, Day: clock.Date(2024, 3, 5)},
		{MemberID: 1, Day: clock.Date(2024, 3, 31)},
	}

	cal := attendance.BuildCalendar(recs, from, to)

	assert.Equal(t, 31, cal.TotalDays)
	assert.Equal(t, 3, cal.PresentDays)
	assert.Equal(t, 9.68, cal.Percentage)
	assert.True(t, cal.Days[4].Present)
	assert.False(t, cal.Days[5].Present)
}

func TestMemberCalendar_RangeLimits(t *testing.T) {
	f := setup(t, testutil.At(2024, time.March, 1))
	m := f.member("Asha", "9876543210", clock.Date(2024, 4, 1))
	ctx := context.Background()

	_, err := f.svc.MemberCalendar(ctx, f.tenant.ID, m.ID, 2024, time.March, 2024, time.January)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.MemberCalendar(ctx, f.tenant.ID, m.ID, 2023, time.January, 2024, time.March)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	cal, err := f.svc.MemberCalendar(ctx, f.tenant.ID, m.ID, 2024, time.January, 2024, time.February)
	require.NoError(t, err)
	assert.Equal(t, 60, cal.TotalDays)
	assert.Equal(t, "Asha", cal.Name)
}
