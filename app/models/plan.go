// Package models defines plans, profiles, subscriptions, usage and products.
package models

type Plan string

const (
	PlanFree         Plan = "free"
	PlanStarter      Plan = "starter"
	PlanProfessional Plan = "professional"
	PlanEnterprise   Plan = "enterprise"
)

// FreeMonthlyLimit is the generation allowance of a user without a paid plan.
const FreeMonthlyLimit = 2

var monthlyLimits = map[Plan]int{
	PlanFree:         FreeMonthlyLimit,
	PlanStarter:      20,
	PlanProfessional: 100,
	PlanEnterprise:   1000,
}

// MonthlyLimit returns the number of generations a plan allows per calendar month.
// Unknown plans get the free allowance.
func (p Plan) MonthlyLimit() int {
	if limit, ok := monthlyLimits[p]; ok {
		return limit
	}
	return FreeMonthlyLimit
}

// Valid reports whether p is one of the known plans.
func (p Plan) Valid() bool {
	_, ok := monthlyLimits[p]
	return ok
}

// Purchasable reports whether p can be bought through checkout.
func (p Plan) Purchasable() bool {
	return p == PlanStarter || p == PlanProfessional || p == PlanEnterprise
}
