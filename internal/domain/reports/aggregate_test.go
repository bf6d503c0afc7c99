package reports

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/gym-console/internal/clock"
	"github.com/Spok95/gym-console/internal/domain/attendance"
	"github.com/Spok95/gym-console/internal/domain/members"
	"github.com/Spok95/gym-console/internal/domain/payments"
)

func kolkata(t *testing.T, now time.Time) clock.Calendar {
	t.Helper()
	cal, err := clock.NewCalendar(clock.Fixed(now), "Asia/Kolkata")
	require.NoError(t, err)
	return cal
}

func pay(amount float64, at time.Time) payments.Payment {
	return payments.Payment{MemberID: 1, Amount: amount, Date: at, Method: payments.MethodCash, Plan: "Monthly"}
}

func mark(memberID int64, day time.Time) attendance.Attendance {
	return attendance.Attendance{MemberID: memberID, Day: day, CheckInTime: day.Add(7 * time.Hour), MarkedBy: attendance.MarkedManual}
}

// assertBucket compares a month bucket with the total given as a decimal string.
func assertBucket(t *testing.T, year, month int, total string, count int, got MonthBucket) {
	t.Helper()
	assert.Equal(t, year, got.Year)
	assert.Equal(t, month, got.Month)
	assert.Equal(t, total, got.Total.String())
	assert.Equal(t, count, got.Count)
}

func TestRevenueRollup_MarchPayments(t *testing.T) {
	cal := kolkata(t, time.Date(2024, 3, 20, 6, 0, 0, 0, time.UTC))
	list := []payments.Payment{
		pay(500, time.Date(2024, 3, 2, 6, 0, 0, 0, time.UTC)),
		pay(700, time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)),
		pay(300, time.Date(2024, 3, 28, 6, 0, 0, 0, time.UTC)),
	}
	rev := RevenueRollup(list, cal)

	require.Len(t, rev.MonthlyRevenue, 1)
	assertBucket(t, 2024, 3, "1500", 3, rev.MonthlyRevenue[0])
	assert.Equal(t, "1500", rev.TotalRevenue.Total.String())
	assert.Equal(t, 3, rev.TotalRevenue.Count)
	require.Len(t, rev.AnnualRevenue, 1)
	assert.Equal(t, 2024, rev.AnnualRevenue[0].Year)
	assert.Equal(t, "1500", rev.AnnualRevenue[0].Total.String())
	assertBucket(t, 2024, 3, "1500", 3, rev.CurrentMonthRevenue)
}

func TestRevenueRollup_BucketsInReferenceZone(t *testing.T) {
	// 20:00 UTC on Mar 31 is already April 1 in Kolkata.
	cal := kolkata(t, time.Date(2024, 4, 2, 6, 0, 0, 0, time.UTC))
	rev := RevenueRollup([]payments.Payment{pay(100, time.Date(2024, 3, 31, 20, 0, 0, 0, time.UTC))}, cal)

	require.Len(t, rev.MonthlyRevenue, 1)
	assert.Equal(t, 4, rev.MonthlyRevenue[0].Month)
	assert.Equal(t, "100", rev.CurrentMonthRevenue.Total.String())
}

func TestRevenueRollup_PartitionsTotal(t *testing.T) {
	cal := kolkata(t, time.Date(2025, 1, 5, 6, 0, 0, 0, time.UTC))
	list := []payments.Payment{
		pay(0.1, time.Date(2023, 12, 30, 6, 0, 0, 0, time.UTC)),
		pay(0.2, time.Date(2024, 1, 3, 6, 0, 0, 0, time.UTC)),
		pay(0.1, time.Date(2024, 2, 3, 6, 0, 0, 0, time.UTC)),
		pay(1000, time.Date(2024, 6, 3, 6, 0, 0, 0, time.UTC)),
		pay(2700.05, time.Date(2024, 6, 9, 6, 0, 0, 0, time.UTC)),
		pay(9000, time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)),
	}

	rev := RevenueRollup(list, cal)

	sum := decimal.Zero
	var count int
	for _, b := range rev.MonthlyRevenue {
		sum = sum.Add(b.Total.Decimal)
		count += b.Count
	}
	assert.True(t, sum.Equal(rev.TotalRevenue.Total.Decimal), "months %s, total %s", sum, rev.TotalRevenue.Total)
	assert.Equal(t, rev.TotalRevenue.Count, count)
	assert.Equal(t, "12700.45", rev.TotalRevenue.Total.String())

	require.Len(t, rev.AnnualRevenue, 3)
	assert.Equal(t, 2023, rev.AnnualRevenue[0].Year)
	assert.Equal(t, "3700.35", rev.AnnualRevenue[1].Total.String())
	assertBucket(t, 2025, 1, "9000", 1, rev.CurrentMonthRevenue)
}

func TestRevenueRollup_Empty(t *testing.T) {
	cal := kolkata(t, time.Date(2024, 3, 20, 6, 0, 0, 0, time.UTC))
	rev := RevenueRollup(nil, cal)

	assert.Empty(t, rev.MonthlyRevenue)
	assert.True(t, rev.TotalRevenue.Total.IsZero())
	assert.Zero(t, rev.TotalRevenue.Count)
	assertBucket(t, 2024, 3, "0", 0, rev.CurrentMonthRevenue)
}

func TestMoney_EncodesAsNumber(t *testing.T) {
	b, err := json.Marshal(Total{Total: Money{decimal.RequireFromString("0.3")}, Count: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":0.30,"count":2}`, string(b))

	b, err = json.Marshal(MonthBucket{Year: 2024, Month: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"year":2024,"month":1,"total":0,"count":0}`, string(b))
}

func TestAttendanceTrend_DenseAndSkipsOrphans(t *testing.T) {
	known := map[int64]members.Member{1: {ID: 1}, 2: {ID: 2}}
	recs := []attendance.Attendance{
		mark(1, clock.Date(2024, 2, 1)),
		mark(2, clock.Date(2024, 2, 1)),
		mark(1, clock.Date(2024, 2, 29)),
		mark(99, clock.Date(2024, 2, 10)),
		mark(1, clock.Date(2024, 3, 1)),
	}

	trend, kept, skipped := AttendanceTrend(recs, known, 2024, time.February)

	require.Len(t, trend, 29)
	assert.Equal(t, DayCount{Day: 1, Present: 2}, trend[0])
	assert.Equal(t, DayCount{Day: 10, Present: 0}, trend[9])
	assert.Equal(t, DayCount{Day: 29, Present: 1}, trend[28])
	assert.Equal(t, 3, kept)
	assert.Equal(t, 1, skipped)
}

func TestDaysElapsed(t *testing.T) {
	today := clock.Date(2024, 3, 15)
	assert.Equal(t, 29, DaysElapsed(2024, time.February, today))
	assert.Equal(t, 15, DaysElapsed(2024, time.March, today))
	assert.Equal(t, 0, DaysElapsed(2024, time.April, today))
	assert.Equal(t, 31, DaysElapsed(2023, time.December, today))
}

func TestAttendanceRate_Bounds(t *testing.T) {
	assert.Equal(t, 0, AttendanceRate(10, 0, 5))
	assert.Equal(t, 0, AttendanceRate(10, 5, 0))
	assert.Equal(t, 0, AttendanceRate(0, 5, 5))
	assert.Equal(t, 50, AttendanceRate(25, 10, 5))
	assert.Equal(t, 33, AttendanceRate(1, 3, 1))
	// More records than active members can attend, e.g. inactive members came in.
	assert.Equal(t, 100, AttendanceRate(40, 2, 3))
}

func TestBuildAttendanceStats_ExcludesOrphan(t *testing.T) {
	list := []members.Member{
		{ID: 1, Name: "Asha", Status: members.StatusActive},
		{ID: 2, Name: "Ravi", Status: members.StatusInactive},
	}
	recs := []attendance.Attendance{
		mark(1, clock.Date(2024, 3, 1)),
		mark(1, clock.Date(2024, 3, 2)),
		mark(42, clock.Date(2024, 3, 2)),
	}

	st := BuildAttendanceStats(recs, list, 2024, time.March, clock.Date(2024, 3, 4))

	assert.Equal(t, 2, st.PresentRecords)
	assert.Equal(t, 1, st.Skipped)
	assert.Equal(t, 1, st.ActiveMembers)
	assert.Equal(t, 4, st.DaysElapsed)
	assert.Equal(t, 50, st.Rate)
	assert.Len(t, st.Trend, 31)
}

func TestExpiringSoon(t *testing.T) {
	today := clock.Date(2024, 3, 10)
	list := []members.Member{
		{ID: 1, Status: members.StatusActive, ExpiryDate: clock.Date(2024, 3, 17)},
		{ID: 2, Status: members.StatusActive, ExpiryDate: clock.Date(2024, 3, 18)},
		{ID: 3, Status: members.StatusActive, ExpiryDate: clock.Date(2024, 3, 10)},
		{ID: 4, Status: members.StatusInactive, ExpiryDate: clock.Date(2024, 3, 12)},
		{ID: 5, Status: members.StatusActive, ExpiryDate: clock.Date(2024, 3, 9)},
	}

	got := ExpiringSoon(list, today, DefaultExpiringDays)

	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, int64(1), got[1].ID)
}

func TestBuildMemberAttendance(t *testing.T) {
	list := []members.Member{{ID: 1, Name: "Asha"}, {ID: 2, Name: "Ravi"}}
	recs := []attendance.Attendance{
		mark(1, clock.Date(2024, 4, 1)),
		mark(1, clock.Date(2024, 4, 2)),
		mark(1, clock.Date(2024, 4, 3)),
		mark(7, clock.Date(2024, 4, 3)),
	}

	rep := BuildMemberAttendance(recs, list, 2024, time.April)

	require.Len(t, rep.Members, 2)
	assert.Equal(t, MemberAttendance{MemberID: 1, Name: "Asha", PresentCount: 3, TotalDays: 30, Percentage: 10}, rep.Members[0])
	assert.Equal(t, MemberAttendance{MemberID: 2, Name: "Ravi", PresentCount: 0, TotalDays: 30, Percentage: 0}, rep.Members[1])
	assert.Equal(t, 1, rep.Skipped)
}

func TestBuildMemberAttendance_RoundsToOneDecimal(t *testing.T) {
	list := []members.Member{{ID: 1, Name: "Asha"}}
	recs := []attendance.Attendance{mark(1, clock.Date(2024, 3, 1))}

	rep := BuildMemberAttendance(recs, list, 2024, time.March)

	assert.Equal(t, 3.2, rep.Members[0].Percentage)
}
