package reports

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Spok95/gym-console/internal/apperr"
	"github.com/Spok95/gym-console/internal/clock"
	"github.com/Spok95/gym-console/internal/domain/attendance"
	"github.com/Spok95/gym-console/internal/domain/members"
	"github.com/Spok95/gym-console/internal/domain/payments"
)

type Members interface {
	List(ctx context.Context, tenantID int64, f members.Filter) ([]members.Member, error)
}

type Attendance interface {
	ListRange(ctx context.Context, tenantID int64, from, to time.Time) ([]attendance.Attendance, error)
}

type Payments interface {
	List(ctx context.Context, tenantID int64, from, to time.Time) ([]payments.Payment, error)
}

// Service reads the ledgers and hands them to the pure aggregation functions.
type Service struct {
	members    Members
	attendance Attendance
	payments   Payments
	cal        clock.Calendar
	log        *slog.Logger
}

func NewService(m Members, a Attendance, p Payments, cal clock.Calendar, log *slog.Logger) *Service {
	return &Service{members: m, attendance: a, payments: p, cal: cal, log: log}
}

func (s *Service) Revenue(ctx context.Context, tenantID int64) (*Revenue, error) {
	list, err := s.payments.List(ctx, tenantID, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	rev := RevenueRollup(list, s.cal)
	return &rev, nil
}

func (s *Service) monthInputs(ctx context.Context, tenantID int64, year int, month time.Month) ([]attendance.Attendance, []members.Member, error) {
	if month < time.January || month > time.December {
		return nil, nil, apperr.Validation("INVALID_INPUT", "month must be 1..12", map[string]string{"month": "min=1,max=12"})
	}
	from, to := clock.MonthRange(year, month)
	recs, err := s.attendance.ListRange(ctx, tenantID, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("list attendance: %w", err)
	}
	list, err := s.members.List(ctx, tenantID, members.Filter{Sort: members.SortName})
	if err != nil {
		return nil, nil, fmt.Errorf("list members: %w", err)
	}
	return recs, list, nil
}

func (s *Service) warnSkipped(tenantID int64, report string, skipped int) {
	if skipped > 0 {
		s.log.Warn("orphan attendance records skipped", "tenant_id", tenantID, "report", report, "skipped", skipped)
	}
}

func (s *Service) AttendanceStats(ctx context.Context, tenantID int64, year int, month time.Month) (*AttendanceStats, error) {
	recs, list, err := s.monthInputs(ctx, tenantID, year, month)
	if err != nil {
		return nil, err
	}
	st := BuildAttendanceStats(recs, list, year, month, s.cal.Today())
	s.warnSkipped(tenantID, "attendance_stats", st.Skipped)
	return &st, nil
}

func (s *Service) MemberAttendance(ctx context.Context, tenantID int64, year int, month time.Month) (*MemberAttendanceReport, error) {
	recs, list, err := s.monthInputs(ctx, tenantID, year, month)
	if err != nil {
		return nil, err
	}
	rep := BuildMemberAttendance(recs, list, year, month)
	s.warnSkipped(tenantID, "member_attendance", rep.Skipped)
	return &rep, nil
}

func (s *Service) Expiring(ctx context.Context, tenantID int64, days int) (*Expiring, error) {
	if days < 0 || days > 365 {
		return nil, apperr.Validation("INVALID_INPUT", "days must be between 0 and 365", map[string]string{"days": "min=0,max=365"})
	}
	list, err := s.members.List(ctx, tenantID, members.Filter{Status: members.StatusActive})
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	today := s.cal.Today()
	return &Expiring{
		Days:    days,
		From:    today,
		To:      clock.AddDays(today, days),
		Members: ExpiringSoon(list, today, days),
	}, nil
}

func (s *Service) Dashboard(ctx context.Context, tenantID int64) (*Dashboard, error) {
	today := s.cal.Today()
	year, month, _ := today.Date()

	recs, list, err := s.monthInputs(ctx, tenantID, year, month)
	if err != nil {
		return nil, err
	}
	pays, err := s.payments.List(ctx, tenantID, s.cal.StartOf(clock.Date(year, month, 1)), s.cal.StartOf(clock.Date(year, month+1, 1)))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	st := BuildAttendanceStats(recs, list, year, month, today)
	s.warnSkipped(tenantID, "dashboard", st.Skipped)

	d := &Dashboard{
		TotalMembers:        len(list),
		ActiveMembers:       st.ActiveMembers,
		InactiveMembers:     len(list) - st.ActiveMembers,
		PresentToday:        st.Trend[today.Day()-1].Present,
		ExpiringSoon:        len(ExpiringSoon(list, today, DefaultExpiringDays)),
		CurrentMonthRevenue: RevenueRollup(pays, s.cal).CurrentMonthRevenue,
		AttendanceRate:      st.Rate,
	}
	return d, nil
}
