package plans

import "time"

type Plan struct {
	TenantID       int64     `json:"-"`
	Name           string    `json:"name"`
	DurationMonths int       `json:"durationMonths"`
	Price          float64   `json:"price"`
	Active         bool      `json:"isActive"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Defaults is the plan set every new tenant starts with.
func Defaults(tenantID int64) []Plan {
	return []Plan{
		{TenantID: tenantID, Name: "Monthly", DurationMonths: 1, Price: 1000, Active: true},
		{TenantID: tenantID, Name: "Quarterly", DurationMonths: 3, Price: 2700, Active: true},
		{TenantID: tenantID, Name: "Half-Yearly", DurationMonths: 6, Price: 5000, Active: true},
		{TenantID: tenantID, Name: "Yearly", DurationMonths: 12, Price: 9000, Active: true},
	}
}
