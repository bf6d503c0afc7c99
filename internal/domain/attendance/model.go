package attendance

import (
	"encoding/json"
	"fmt"
	"time"
)

type MarkedBy string

const (
	MarkedManual  MarkedBy = "manual"
	MarkedQRSelf  MarkedBy = "qr_self"
	MarkedQRAdmin MarkedBy = "qr_admin"
)

func (m MarkedBy) Valid() bool {
	switch m {
	case MarkedManual, MarkedQRSelf, MarkedQRAdmin:
		return true
	}
	return false
}

// Attendance is one presence record. At most one exists per
// (tenant, member, day); the database enforces it.
type Attendance struct {
	ID          int64     `json:"id"`
	TenantID    int64     `json:"-"`
	MemberID    int64     `json:"memberId"`
	Day         time.Time `json:"date"`
	CheckInTime time.Time `json:"checkInTime"`
	MarkedBy    MarkedBy  `json:"markedBy"`
}

type Marked struct {
	MemberID    int64     `json:"memberId"`
	Name        string    `json:"name"`
	CheckInTime time.Time `json:"checkInTime"`
}

type Present struct {
	MemberID    int64     `json:"memberId"`
	Name        string    `json:"name"`
	CheckInTime time.Time `json:"checkInTime"`
	MarkedBy    MarkedBy  `json:"markedBy"`
}

// Sheet is the month grid: one row per member, one column per day.
type Sheet struct {
	Year      int        `json:"year"`
	Month     int        `json:"month"`
	Days      []int      `json:"days"`
	PerMember []SheetRow `json:"perMember"`
}

type SheetRow struct {
	MemberID int64
	Name     string
	// Presence[i] is 1 if the member attended on day i+1.
	Presence []int
}

// MarshalJSON flattens presence into day1..dayN keys.
func (r SheetRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Presence)+2)
	out["memberId"] = r.MemberID
	out["name"] = r.Name
	for i, v := range r.Presence {
		out[fmt.Sprintf("day%d", i+1)] = v
	}
	return json.Marshal(out)
}

type DayMark struct {
	Date    time.Time `json:"date"`
	Present bool      `json:"present"`
}

type Calendar struct {
	MemberID    int64     `json:"memberId"`
	Name        string    `json:"name"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Days        []DayMark `json:"days"`
	PresentDays int       `json:"presentDays"`
	TotalDays   int       `json:"totalDays"`
	Percentage  float64   `json:"percentage"`
}
