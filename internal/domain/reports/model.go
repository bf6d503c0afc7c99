package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/gym-console/internal/domain/members"
)

// Money is an exact amount; it encodes as a bare JSON number with two decimals.
type Money struct{ decimal.Decimal }

func (m Money) MarshalJSON() ([]byte, error) { return []byte(m.StringFixed(2)), nil }

type MonthBucket struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Total Money `json:"total"`
	Count int   `json:"count"`
}

type YearBucket struct {
	Year  int   `json:"year"`
	Total Money `json:"total"`
	Count int   `json:"count"`
}

type Total struct {
	Total Money `json:"total"`
	Count int   `json:"count"`
}

type Revenue struct {
	MonthlyRevenue      []MonthBucket `json:"monthlyRevenue"`
	AnnualRevenue       []YearBucket  `json:"annualRevenue"`
	TotalRevenue        Total         `json:"totalRevenue"`
	CurrentMonthRevenue MonthBucket   `json:"currentMonthRevenue"`
}

type DayCount struct {
	Day     int `json:"day"`
	Present int `json:"present"`
}

type AttendanceStats struct {
	Year           int        `json:"year"`
	Month          int        `json:"month"`
	Trend          []DayCount `json:"trend"`
	Rate           int        `json:"rate"`
	PresentRecords int        `json:"presentRecords"`
	ActiveMembers  int        `json:"activeMembers"`
	DaysElapsed    int        `json:"daysElapsed"`
	Skipped        int        `json:"skipped"`
}

type MemberAttendance struct {
	MemberID     int64   `json:"memberId"`
	Name         string  `json:"name"`
	PresentCount int     `json:"presentCount"`
	TotalDays    int     `json:"totalDays"`
	Percentage   float64 `json:"percentage"`
}

type MemberAttendanceReport struct {
	Year    int                `json:"year"`
	Month   int                `json:"month"`
	Members []MemberAttendance `json:"members"`
	Skipped int                `json:"skipped"`
}

type Expiring struct {
	Days    int              `json:"days"`
	From    time.Time        `json:"from"`
	To      time.Time        `json:"to"`
	Members []members.Member `json:"members"`
}

type Dashboard struct {
	TotalMembers        int         `json:"totalMembers"`
	ActiveMembers       int         `json:"activeMembers"`
	InactiveMembers     int         `json:"inactiveMembers"`
	PresentToday        int         `json:"presentToday"`
	ExpiringSoon        int         `json:"expiringSoon"`
	CurrentMonthRevenue MonthBucket `json:"currentMonthRevenue"`
	AttendanceRate      int         `json:"attendanceRate"`
}
