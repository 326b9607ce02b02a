package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/eliasJakobi123/sellable-sub001/app/billing"
	"github.com/eliasJakobi123/sellable-sub001/app/generation"
	"github.com/eliasJakobi123/sellable-sub001/app/metrics"
	"github.com/eliasJakobi123/sellable-sub001/app/models"
	"github.com/eliasJakobi123/sellable-sub001/app/store"
	"github.com/eliasJakobi123/sellable-sub001/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"
)

const (
	aliceID    = "0b6f4c9e-2a1d-4d55-8f0e-6f7d1b2c3a41"
	aliceToken = "token-alice"
	webhookKey = "whsec_app_test"
)

var fixedNow = time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type memStore struct {
	mu            sync.Mutex
	profiles      map[string]models.Profile
	subscriptions map[string]models.SubscriptionRecord
	usage         map[string]int
	products      map[string]models.Product
	failUsage     bool
}

func newMemStore() *memStore {
	return &memStore{
		profiles:      map[string]models.Profile{},
		subscriptions: map[string]models.SubscriptionRecord{},
		usage:         map[string]int{},
		products:      map[string]models.Product{},
	}
}

func usageKey(userID string, start time.Time) string {
	return userID + "/" + start.Format(dateLayout)
}

func (m *memStore) EnsureProfile(_ context.Context, userID, fullName, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[userID]; ok {
		return nil
	}
	m.profiles[userID] = models.Profile{
		ID:           userID,
		FullName:     fullName,
		DisplayName:  displayName,
		PlanName:     models.PlanFree,
		MonthlyLimit: models.FreeMonthlyLimit,
		CreatedAt:    fixedNow,
		UpdatedAt:    fixedNow,
	}
	return nil
}

func (m *memStore) GetProfile(_ context.Context, userID string) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return models.Profile{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memStore) LinkStripeCustomer(_ context.Context, userID, customerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return "", store.ErrNotFound
	}
	if p.StripeCustomerID == "" {
		p.StripeCustomerID = customerID
		m.profiles[userID] = p
	}
	return p.StripeCustomerID, nil
}

func (m *memStore) UpdateProfilePlan(_ context.Context, userID string, plan models.Plan, limit int, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return store.ErrNotFound
	}
	p.PlanName = plan
	p.MonthlyLimit = limit
	if customerID != "" {
		p.StripeCustomerID = customerID
	}
	m.profiles[userID] = p
	return nil
}

func (m *memStore) UpsertSubscription(_ context.Context, rec models.SubscriptionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[rec.StripeSubscriptionID] = rec
	return nil
}

func (m *memStore) CancelSubscription(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.subscriptions[id]
	if !ok {
		return "", store.ErrNotFound
	}
	rec.Status = models.StatusCanceled
	m.subscriptions[id] = rec
	return rec.UserID, nil
}

func (m *memStore) ActiveSubscription(_ context.Context, userID string) (*models.SubscriptionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.subscriptions {
		if rec.UserID == userID && models.GrantsPlan(rec.Status) {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetUsage(_ context.Context, userID string, start, end time.Time) (models.UsageCounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.UsageCounter{
		UserID:           userID,
		PeriodStart:      start,
		PeriodEnd:        end,
		GenerationsCount: m.usage[usageKey(userID, start)],
	}, nil
}

func (m *memStore) IncrementUsage(_ context.Context, userID string, start, _ time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUsage {
		return 0, errors.New("usage table unavailable")
	}
	m.usage[usageKey(userID, start)]++
	return m.usage[usageKey(userID, start)], nil
}

func (m *memStore) CreateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.CreatedAt = fixedNow
	p.UpdatedAt = fixedNow
	if p.Assets == nil {
		p.Assets = []models.Asset{}
	}
	m.products[p.ID] = *p
	return nil
}

func (m *memStore) ListProducts(_ context.Context, userID string, limit int) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, p := range m.products {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) GetProduct(_ context.Context, userID, productID string) (models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok || p.UserID != userID {
		return models.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memStore) DeleteProduct(_ context.Context, userID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok || p.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.products, productID)
	return nil
}

type tokenTable map[string]*auth.Claims

func (t tokenTable) Verify(_ context.Context, token string) (*auth.Claims, error) {
	claims, ok := t[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

type stubGateway struct {
	mu            sync.Mutex
	customers     map[string]*stripe.Customer
	subscriptions map[string]*stripe.Subscription
	created       int
	calls         int
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		customers:     map[string]*stripe.Customer{},
		subscriptions: map[string]*stripe.Subscription{},
	}
}

func (g *stubGateway) CreateCustomer(_ context.Context, userID, email, _ string) (*stripe.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.created++
	cus := &stripe.Customer{
		ID:       fmt.Sprintf("cus_app_%d", g.created),
		Email:    email,
		Metadata: map[string]string{"user_id": userID},
	}
	g.customers[cus.ID] = cus
	return cus, nil
}

func (g *stubGateway) GetCustomer(_ context.Context, id string) (*stripe.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	cus, ok := g.customers[id]
	if !ok {
		return nil, errors.New("no such customer")
	}
	return cus, nil
}

func (g *stubGateway) DeleteCustomer(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	delete(g.customers, id)
	return nil
}

func (g *stubGateway) GetSubscription(_ context.Context, id string) (*stripe.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	sub, ok := g.subscriptions[id]
	if !ok {
		return nil, errors.New("no such subscription")
	}
	return sub, nil
}

func (g *stubGateway) CreateCheckoutSession(_ context.Context, req billing.CheckoutRequest) (*stripe.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return &stripe.CheckoutSession{ID: "cs_test_app", URL: "https://checkout.stripe.test/cs_test_app?customer=" + req.CustomerID}, nil
}

func (g *stubGateway) CreatePortalSession(_ context.Context, customerID, _ string) (*stripe.BillingPortalSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return &stripe.BillingPortalSession{URL: "https://billing.stripe.test/p/" + customerID}, nil
}

type stubDispatcher struct {
	transport string
	result    *generation.Result
	err       error
	requests  []generation.Request
}

func (d *stubDispatcher) Transport() string { return d.transport }

func (d *stubDispatcher) Dispatch(_ context.Context, req generation.Request) (*generation.Result, error) {
	d.requests = append(d.requests, req)
	if d.err != nil {
		return nil, d.err
	}
	return d.result, nil
}

type testEnv struct {
	router     *gin.Engine
	store      *memStore
	gateway    *stubGateway
	dispatcher *stubDispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := newMemStore()
	gw := newStubGateway()
	disp := &stubDispatcher{
		transport: generation.TransportHTTP,
		result: &generation.Result{
			Title:      "Habit Tracker Template",
			Content:    "Week 1",
			PriceCents: 900,
			Currency:   "usd",
		},
	}
	m := metrics.NewNop()
	logger := zap.NewNop()
	catalog := billing.NewProductCatalog("prod_sellable_starter", "prod_sellable_professional", "prod_sellable_enterprise")
	reconciler := billing.NewReconciler(gw, st, catalog, logger, m)

	srv := NewServer(Options{
		Store: st,
		Verifier: tokenTable{
			aliceToken: {Subject: aliceID, Email: "alice@example.com", Name: "Alice Liddell"},
		},
		Receiver:   billing.NewReceiver(webhookKey, reconciler, logger, m),
		Sessions:   billing.NewSessions(gw, st, "https://sellable.example", logger, m),
		Dispatcher: disp,
		Logger:     logger,
		Metrics:    m,
		Now:        func() time.Time { return fixedNow },
	})
	return &testEnv{router: NewRouter(srv), store: st, gateway: gw, dispatcher: disp}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
