package billing

import "github.com/eliasJakobi123/sellable-sub001/app/models"

// ProductCatalog maps Stripe product ids to plan names.
type ProductCatalog struct {
	byProduct map[string]models.Plan
}

func NewProductCatalog(starter, professional, enterprise string) ProductCatalog {
	return ProductCatalog{byProduct: map[string]models.Plan{
		starter:      models.PlanStarter,
		professional: models.PlanProfessional,
		enterprise:   models.PlanEnterprise,
	}}
}

// PlanFor resolves a product id. Unknown or empty ids map to the free plan.
func (c ProductCatalog) PlanFor(productID string) models.Plan {
	if productID == "" {
		return models.PlanFree
	}
	if plan, ok := c.byProduct[productID]; ok {
		return plan
	}
	return models.PlanFree
}
