package reports

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/gym-console/internal/clock"
	"github.com/Spok95/gym-console/internal/domain/attendance"
	"github.com/Spok95/gym-console/internal/domain/members"
	"github.com/Spok95/gym-console/internal/domain/payments"
)

const DefaultExpiringDays = 7

type monthKey struct {
	year  int
	month time.Month
}

// RevenueRollup buckets payments by (year, month) and by year in the
// calendar's timezone. Every payment lands in exactly one month bucket, so the
// month totals always add up to the grand total.
func RevenueRollup(list []payments.Payment, cal clock.Calendar) Revenue {
	type acc struct {
		sum   decimal.Decimal
		count int
	}
	months := map[monthKey]*acc{}
	years := map[int]*acc{}
	var total acc

	for _, p := range list {
		amt := decimal.NewFromFloat(p.Amount)
		y, m, _ := cal.In(p.Date).Date()

		k := monthKey{y, m}
		if months[k] == nil {
			months[k] = &acc{}
		}
		months[k].sum = months[k].sum.Add(amt)
		months[k].count++

		if years[y] == nil {
			years[y] = &acc{}
		}
		years[y].sum = years[y].sum.Add(amt)
		years[y].count++

		total.sum = total.sum.Add(amt)
		total.count++
	}

	out := Revenue{
		MonthlyRevenue: make([]MonthBucket, 0, len(months)),
		AnnualRevenue:  make([]YearBucket, 0, len(years)),
		TotalRevenue:   Total{Total: Money{total.sum}, Count: total.count},
	}
	for k, a := range months {
		out.MonthlyRevenue = append(out.MonthlyRevenue, MonthBucket{Year: k.year, Month: int(k.month), Total: Money{a.sum}, Count: a.count})
	}
	sort.Slice(out.MonthlyRevenue, func(i, j int) bool {
		a, b := out.MonthlyRevenue[i], out.MonthlyRevenue[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	for y, a := range years {
		out.AnnualRevenue = append(out.AnnualRevenue, YearBucket{Year: y, Total: Money{a.sum}, Count: a.count})
	}
	sort.Slice(out.AnnualRevenue, func(i, j int) bool { return out.AnnualRevenue[i].Year < out.AnnualRevenue[j].Year })

	ty, tm, _ := cal.Today().Date()
	out.CurrentMonthRevenue = MonthBucket{Year: ty, Month: int(tm)}
	if a, ok := months[monthKey{ty, tm}]; ok {
		out.CurrentMonthRevenue.Total = Money{a.sum}
		out.CurrentMonthRevenue.Count = a.count
	}
	return out
}

// index maps member id to member; records outside it are orphans.
func index(list []members.Member) map[int64]members.Member {
	out := make(map[int64]members.Member, len(list))
	for _, m := range list {
		out[m.ID] = m
	}
	return out
}

// AttendanceTrend counts distinct members present on each day of the month.
// The series is dense: one entry per day, zero days included. It also returns
// the number of in-month records that were kept and how many were orphans.
func AttendanceTrend(recs []attendance.Attendance, known map[int64]members.Member, year int, month time.Month) ([]DayCount, int, int) {
	n := clock.DaysIn(year, month)
	seen := make([]map[int64]struct{}, n)
	kept, skipped := 0, 0
	for _, a := range recs {
		y, m, d := a.Day.Date()
		if y != year || m != month {
			continue
		}
		if _, ok := known[a.MemberID]; !ok {
			skipped++
			continue
		}
		if seen[d-1] == nil {
			seen[d-1] = map[int64]struct{}{}
		}
		if _, dup := seen[d-1][a.MemberID]; dup {
			continue
		}
		seen[d-1][a.MemberID] = struct{}{}
		kept++
	}
	trend := make([]DayCount, n)
	for i := range trend {
		trend[i] = DayCount{Day: i + 1, Present: len(seen[i])}
	}
	return trend, kept, skipped
}

// DaysElapsed is the number of days of the month that have happened:
// the full month in the past, today's day-of-month for the current month,
// zero for a future month.
func DaysElapsed(year int, month time.Month, today time.Time) int {
	ty, tm, td := today.Date()
	switch {
	case year < ty || (year == ty && month < tm):
		return clock.DaysIn(year, month)
	case year == ty && month == tm:
		return td
	default:
		return 0
	}
}

// AttendanceRate is round(100 × present / (days × active)), clamped to
// [0, 100], and 0 whenever the denominator is 0.
func AttendanceRate(present, daysElapsed, active int) int {
	if present <= 0 || daysElapsed <= 0 || active <= 0 {
		return 0
	}
	r := math.Round(100 * float64(present) / float64(daysElapsed*active))
	if r > 100 {
		return 100
	}
	return int(r)
}

func countActive(list []members.Member) int {
	n := 0
	for _, m := range list {
		if m.Status == members.StatusActive {
			n++
		}
	}
	return n
}

func BuildAttendanceStats(recs []attendance.Attendance, list []members.Member, year int, month time.Month, today time.Time) AttendanceStats {
	trend, kept, skipped := AttendanceTrend(recs, index(list), year, month)
	active := countActive(list)
	elapsed := DaysElapsed(year, month, today)
	return AttendanceStats{
		Year:           year,
		Month:          int(month),
		Trend:          trend,
		Rate:           AttendanceRate(kept, elapsed, active),
		PresentRecords: kept,
		ActiveMembers:  active,
		DaysElapsed:    elapsed,
		Skipped:        skipped,
	}
}

// ExpiringSoon returns Active members expiring within [today, today+days],
// soonest first.
func ExpiringSoon(list []members.Member, today time.Time, days int) []members.Member {
	until := clock.AddDays(today, days)
	out := make([]members.Member, 0)
	for _, m := range list {
		if m.Status != members.StatusActive {
			continue
		}
		if m.ExpiryDate.Before(today) || m.ExpiryDate.After(until) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiryDate.Before(out[j].ExpiryDate) })
	return out
}

// BuildMemberAttendance reports presentCount / daysInMonth × 100 (one
// decimal) for every member, including members who never showed up.
func BuildMemberAttendance(recs []attendance.Attendance, list []members.Member, year int, month time.Month) MemberAttendanceReport {
	total := clock.DaysIn(year, month)
	known := index(list)
	days := map[int64]map[int]struct{}{}
	skipped := 0
	for _, a := range recs {
		y, m, d := a.Day.Date()
		if y != year || m != month {
			continue
		}
		if _, ok := known[a.MemberID]; !ok {
			skipped++
			continue
		}
		if days[a.MemberID] == nil {
			days[a.MemberID] = map[int]struct{}{}
		}
		days[a.MemberID][d] = struct{}{}
	}

	rep := MemberAttendanceReport{Year: year, Month: int(month), Members: make([]MemberAttendance, 0, len(list)), Skipped: skipped}
	for _, m := range list {
		present := len(days[m.ID])
		rep.Members = append(rep.Members, MemberAttendance{
			MemberID:     m.ID,
			Name:         m.Name,
			PresentCount: present,
			TotalDays:    total,
			Percentage: decimal.NewFromInt(int64(present)).
				Mul(decimal.NewFromInt(100)).
				Div(decimal.NewFromInt(int64(total))).
				Round(1).
				InexactFloat64(),
		})
	}
	return rep
}
