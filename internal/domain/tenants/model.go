package tenants

import "time"

// Tenant is one gym admin account and the isolation boundary for all data.
type Tenant struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GymName      string    `json:"gymName"`
	GymCode      string    `json:"gymCode"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
