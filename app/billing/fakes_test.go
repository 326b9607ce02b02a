package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eliasJakobi123/sellable-sub001/app/models"
	"github.com/eliasJakobi123/sellable-sub001/app/store"

	"github.com/stripe/stripe-go/v79"
)

type fakeGateway struct {
	mu            sync.Mutex
	customers     map[string]*stripe.Customer
	subscriptions map[string]*stripe.Subscription
	checkouts     []CheckoutRequest
	portals       []string
	calls         int
	nextCustomer  int
	err           error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		customers:     map[string]*stripe.Customer{},
		subscriptions: map[string]*stripe.Subscription{},
	}
}

func (g *fakeGateway) CreateCustomer(_ context.Context, userID, email, name string) (*stripe.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	g.nextCustomer++
	cus := &stripe.Customer{
		ID:       fmt.Sprintf("cus_%d", g.nextCustomer),
		Email:    email,
		Name:     name,
		Metadata: map[string]string{metadataUserID: userID},
	}
	g.customers[cus.ID] = cus
	return cus, nil
}

func (g *fakeGateway) DeleteCustomer(_ context.Context, customerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return g.err
	}
	if _, ok := g.customers[customerID]; !ok {
		return errors.New("no such customer")
	}
	delete(g.customers, customerID)
	return nil
}

func (g *fakeGateway) GetCustomer(_ context.Context, customerID string) (*stripe.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	cus, ok := g.customers[customerID]
	if !ok {
		return nil, errors.New("no such customer")
	}
	return cus, nil
}

func (g *fakeGateway) GetSubscription(_ context.Context, subscriptionID string) (*stripe.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	sub, ok := g.subscriptions[subscriptionID]
	if !ok {
		return nil, errors.New("no such subscription")
	}
	return sub, nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*stripe.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	g.checkouts = append(g.checkouts, req)
	id := fmt.Sprintf("cs_test_%d", len(g.checkouts))
	return &stripe.CheckoutSession{ID: id, URL: "https://checkout.stripe.test/" + id}, nil
}

func (g *fakeGateway) CreatePortalSession(_ context.Context, customerID, returnURL string) (*stripe.BillingPortalSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	g.portals = append(g.portals, customerID)
	return &stripe.BillingPortalSession{URL: "https://billing.stripe.test/p/" + customerID, ReturnURL: returnURL}, nil
}

type fakeStore struct {
	mu            sync.Mutex
	profiles      map[string]models.Profile
	subscriptions map[string]models.SubscriptionRecord
	upserts       int
	failProfile   bool
	failUpsert    bool
}

func newFakeStore(userIDs ...string) *fakeStore {
	s := &fakeStore{
		profiles:      map[string]models.Profile{},
		subscriptions: map[string]models.SubscriptionRecord{},
	}
	for _, id := range userIDs {
		s.profiles[id] = models.Profile{ID: id, PlanName: models.PlanFree, MonthlyLimit: models.FreeMonthlyLimit}
	}
	return s
}

func (s *fakeStore) UpsertSubscription(_ context.Context, rec models.SubscriptionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpsert {
		return errors.New("database unavailable")
	}
	s.upserts++
	s.subscriptions[rec.StripeSubscriptionID] = rec
	return nil
}

func (s *fakeStore) CancelSubscription(_ context.Context, stripeSubscriptionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.subscriptions[stripeSubscriptionID]
	if !ok {
		return "", store.ErrNotFound
	}
	rec.Status = models.StatusCanceled
	s.subscriptions[stripeSubscriptionID] = rec
	return rec.UserID, nil
}

func (s *fakeStore) UpdateProfilePlan(_ context.Context, userID string, plan models.Plan, monthlyLimit int, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failProfile {
		return errors.New("profiles table locked")
	}
	p, ok := s.profiles[userID]
	if !ok {
		return store.ErrNotFound
	}
	p.PlanName = plan
	p.MonthlyLimit = monthlyLimit
	if customerID != "" {
		p.StripeCustomerID = customerID
	}
	s.profiles[userID] = p
	return nil
}

func (s *fakeStore) GetProfile(_ context.Context, userID string) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return models.Profile{}, store.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) LinkStripeCustomer(_ context.Context, userID, customerID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return "", store.ErrNotFound
	}
	if p.StripeCustomerID == "" {
		p.StripeCustomerID = customerID
		s.profiles[userID] = p
	}
	return p.StripeCustomerID, nil
}

func (s *fakeStore) profile(userID string) models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[userID]
}

func (s *fakeStore) subscription(id string) (models.SubscriptionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.subscriptions[id]
	return rec, ok
}

// testSubscription builds a subscription whose customer id is known to the
// gateway but not expanded, as webhook payloads deliver it.
func testSubscription(id, customerID, productID string, status stripe.SubscriptionStatus) *stripe.Subscription {
	return &stripe.Subscription{
		ID:                 id,
		Customer:           &stripe.Customer{ID: customerID},
		Status:             status,
		CurrentPeriodStart: 1760000000,
		CurrentPeriodEnd:   1762678400,
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{ID: "si_" + id, Price: &stripe.Price{ID: "price_" + productID, Product: &stripe.Product{ID: productID}}},
			},
		},
	}
}
