package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/gym-console/internal/apperr"
	"github.com/Spok95/gym-console/internal/clock"
	"github.com/Spok95/gym-console/internal/domain/members"
	"github.com/Spok95/gym-console/internal/domain/tenants"
)

type Store interface {
	Insert(ctx context.Context, a *Attendance) error
	ListRange(ctx context.Context, tenantID int64, from, to time.Time) ([]Attendance, error)
	ListForMember(ctx context.Context, tenantID, memberID int64, from, to time.Time) ([]Attendance, error)
	History(ctx context.Context, tenantID, memberID int64) ([]Attendance, error)
}

type Members interface {
	Get(ctx context.Context, tenantID, id int64) (*members.Member, error)
	GetByPhone(ctx context.Context, tenantID int64, phone string) (*members.Member, error)
	List(ctx context.Context, tenantID int64, f members.Filter) ([]members.Member, error)
}

type Tenants interface {
	GetByCode(ctx context.Context, code string) (*tenants.Tenant, error)
}

type Recorder interface {
	AttendanceMarked(markedBy string)
	AttendanceDuplicate()
}

var (
	ErrAlreadyMarked     = apperr.Conflict("ALREADY_MARKED", "attendance already marked for today")
	ErrMembershipExpired = apperr.Validation("MEMBERSHIP_EXPIRED", "membership has expired, please renew", nil)
)

type Service struct {
	store   Store
	members Members
	tenants Tenants
	cal     clock.Calendar
	log     *slog.Logger
	metrics Recorder
}

func NewService(store Store, m Members, t Tenants, cal clock.Calendar, log *slog.Logger, rec Recorder) *Service {
	return &Service{store: store, members: m, tenants: t, cal: cal, log: log, metrics: rec}
}

// Mark records today's presence for a member. A second call on the same
// calendar day fails with ErrAlreadyMarked.
func (s *Service) Mark(ctx context.Context, tenantID, memberID int64, by MarkedBy) (*Marked, error) {
	if by == "" {
		by = MarkedManual
	}
	if !by.Valid() {
		return nil, apperr.Validation("INVALID_INPUT", "unknown markedBy", map[string]string{"markedBy": "oneof=manual qr_self qr_admin"})
	}
	m, err := s.members.Get(ctx, tenantID, memberID)
	if err != nil {
		return nil, err
	}

	today := s.cal.Today()
	if by == MarkedQRSelf && m.ExpiryDate.Before(today) {
		return nil, ErrMembershipExpired
	}

	a := &Attendance{
		TenantID:    tenantID,
		MemberID:    m.ID,
		Day:         today,
		CheckInTime: s.cal.Now(),
		MarkedBy:    by,
	}
	if err := s.store.Insert(ctx, a); err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			if s.metrics != nil {
				s.metrics.AttendanceDuplicate()
			}
			return nil, err
		}
		return nil, fmt.Errorf("insert attendance: %w", err)
	}
	if s.metrics != nil {
		s.metrics.AttendanceMarked(string(by))
	}
	s.log.Debug("attendance marked", "tenant_id", tenantID, "member_id", m.ID, "marked_by", by)
	return &Marked{MemberID: m.ID, Name: m.Name, CheckInTime: s.cal.In(a.CheckInTime)}, nil
}

// CheckIn is the QR self check-in: the gym code identifies the tenant and
// the phone number identifies the member.
func (s *Service) CheckIn(ctx context.Context, gymCode, phone string) (*Marked, error) {
	t, err := s.tenants.GetByCode(ctx, gymCode)
	if err != nil {
		return nil, err
	}
	m, err := s.members.GetByPhone(ctx, t.ID, phone)
	if err != nil {
		return nil, err
	}
	return s.Mark(ctx, t.ID, m.ID, MarkedQRSelf)
}

func (s *Service) memberNames(ctx context.Context, tenantID int64) ([]members.Member, map[int64]string, error) {
	list, err := s.members.List(ctx, tenantID, members.Filter{Sort: members.SortName})
	if err != nil {
		return nil, nil, fmt.Errorf("list members: %w", err)
	}
	names := make(map[int64]string, len(list))
	for _, m := range list {
		names[m.ID] = m.Name
	}
	return list, names, nil
}

// ListForDay lists members present on day. Records whose member no longer
// resolves are dropped.
func (s *Service) ListForDay(ctx context.Context, tenantID int64, day time.Time) ([]Present, error) {
	recs, err := s.store.ListRange(ctx, tenantID, day, day)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	_, names, err := s.memberNames(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]Present, 0, len(recs))
	for _, a := range recs {
		name, ok := names[a.MemberID]
		if !ok {
			s.log.Warn("attendance skipped", "err", apperr.Orphan("attendance", a.ID, a.MemberID))
			continue
		}
		out = append(out, Present{MemberID: a.MemberID, Name: name, CheckInTime: s.cal.In(a.CheckInTime), MarkedBy: a.MarkedBy})
	}
	return out, nil
}

// ListForMonth builds the month grid for every member of the tenant.
func (s *Service) ListForMonth(ctx context.Context, tenantID int64, year int, month time.Month) (*Sheet, error) {
	from, to := clock.MonthRange(year, month)
	recs, err := s.store.ListRange(ctx, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	list, _, err := s.memberNames(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return BuildSheet(recs, list, year, month), nil
}

// BuildSheet is the pure part of ListForMonth. Records of unknown members
// have no row to land in and are ignored.
func BuildSheet(recs []Attendance, list []members.Member, year int, month time.Month) *Sheet {
	n := clock.DaysIn(year, month)
	sheet := &Sheet{Year: year, Month: int(month), Days: make([]int, n), PerMember: make([]SheetRow, 0, len(list))}
	for i := range sheet.Days {
		sheet.Days[i] = i + 1
	}
	index := make(map[int64]int, len(list))
	for i, m := range list {
		index[m.ID] = i
		sheet.PerMember = append(sheet.PerMember, SheetRow{MemberID: m.ID, Name: m.Name, Presence: make([]int, n)})
	}
	for _, a := range recs {
		i, ok := index[a.MemberID]
		if !ok {
			continue
		}
		y, mo, d := a.Day.Date()
		if y != year || mo != month {
			continue
		}
		sheet.PerMember[i].Presence[d-1] = 1
	}
	return sheet
}

// MemberCalendar lists every day from the first day of fromMonth through the
// last day of toMonth, with the member's attendance percentage.
func (s *Service) MemberCalendar(ctx context.Context, tenantID, memberID int64, fromYear int, fromMonth time.Month, toYear int, toMonth time.Month) (*Calendar, error) {
	from, _ := clock.MonthRange(fromYear, fromMonth)
	_, to := clock.MonthRange(toYear, toMonth)
	if to.Before(from) {
		return nil, apperr.Validation("INVALID_RANGE", "from month is after to month", nil)
	}
	if to.Sub(from) > 366*24*time.Hour {
		return nil, apperr.Validation("INVALID_RANGE", "range is limited to twelve months", nil)
	}
	m, err := s.members.Get(ctx, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	recs, err := s.store.ListForMember(ctx, tenantID, memberID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	cal := BuildCalendar(recs, from, to)
	cal.MemberID = m.ID
	cal.Name = m.Name
	return cal, nil
}

// BuildCalendar marks each day in [from, to] present or absent and computes
// present/total × 100 rounded to two decimals.
func BuildCalendar(recs []Attendance, from, to time.Time) *Calendar {
	present := make(map[string]bool, len(recs))
	for _, a := range recs {
		present[a.Day.Format(time.DateOnly)] = true
	}
	cal := &Calendar{From: from, To: to}
	for d := from; !d.After(to); d = clock.AddDays(d, 1) {
		p := present[d.Format(time.DateOnly)]
		cal.Days = append(cal.Days, DayMark{Date: d, Present: p})
		if p {
			cal.PresentDays++
		}
	}
	cal.TotalDays = len(cal.Days)
	if cal.TotalDays > 0 {
		cal.Percentage = decimal.NewFromInt(int64(cal.PresentDays)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(cal.TotalDays))).
			Round(2).
			InexactFloat64()
	}
	return cal
}

func (s *Service) History(ctx context.Context, tenantID, memberID int64) ([]Attendance, error) {
	if _, err := s.members.Get(ctx, tenantID, memberID); err != nil {
		return nil, err
	}
	return s.store.History(ctx, tenantID, memberID)
}
