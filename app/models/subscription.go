package models

import "time"

// Subscription statuses mirrored from the billing platform. The list is not
// exhaustive; Status holds whatever string the platform reports.
const (
	StatusActive   = "active"
	StatusTrialing = "trialing"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
)

// PlanGrantingStatuses are the statuses under which a subscription's plan
// applies to its owner. past_due keeps the plan through the dunning window.
var PlanGrantingStatuses = []string{StatusActive, StatusTrialing, StatusPastDue}

// GrantsPlan reports whether a subscription in status counts as active.
func GrantsPlan(status string) bool {
	for _, s := range PlanGrantingStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// SubscriptionRecord mirrors one billing-platform subscription.
type SubscriptionRecord struct {
	ID                   int64      `json:"id"`
	UserID               string     `json:"userId"`
	StripeSubscriptionID string     `json:"stripeSubscriptionId"`
	StripeCustomerID     string     `json:"stripeCustomerId"`
	PlanName             Plan       `json:"planName"`
	Status               string     `json:"status"`
	CurrentPeriodStart   *time.Time `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd     *time.Time `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd    bool       `json:"cancelAtPeriodEnd"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}
