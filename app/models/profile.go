package models

import "time"

// Profile is the per-user application row. PlanName and MonthlyLimit mirror the
// user's latest active subscription so quota checks do not need a join.
type Profile struct {
	ID               string    `json:"id"`
	FullName         string    `json:"fullName,omitempty"`
	DisplayName      string    `json:"displayName,omitempty"`
	PlanName         Plan      `json:"planName"`
	MonthlyLimit     int       `json:"monthlyLimit"`
	StripeCustomerID string    `json:"stripeCustomerId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
