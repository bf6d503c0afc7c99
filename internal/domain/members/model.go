package members

import "time"

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Member dates (JoinDate, RenewalDate, ExpiryDate, DateOfBirth) are calendar
// dates: 00:00 UTC carrying the reference-timezone day.
type Member struct {
	ID          int64      `json:"id"`
	TenantID    int64      `json:"-"`
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone"`
	Gender      Gender     `json:"gender"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Address     string     `json:"address,omitempty"`
	Plan        string     `json:"plan"`
	JoinDate    time.Time  `json:"joinDate"`
	RenewalDate time.Time  `json:"renewalDate"`
	ExpiryDate  time.Time  `json:"expiryDate"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// StatusFor is the single rule behind every status decision:
// Active iff the expiry date has not passed.
func StatusFor(expiry, today time.Time) Status {
	if expiry.Before(today) {
		return StatusInactive
	}
	return StatusActive
}

type SortKey string

const (
	SortName      SortKey = "name"
	SortJoinDate  SortKey = "joinDate"
	SortExpiry    SortKey = "expiryDate"
	SortCreatedAt SortKey = "createdAt"
)

type Filter struct {
	Status Status
	Search string
	Sort   SortKey
	Desc   bool
}

// Transition is a member whose stored status disagrees with its expiry date.
type Transition struct {
	ID         int64
	TenantID   int64
	ExpiryDate time.Time
	From       Status
	To         Status
}
