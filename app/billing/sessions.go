package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/eliasJakobi123/sellable-sub001/app/metrics"
	"github.com/eliasJakobi123/sellable-sub001/app/models"

	"go.uber.org/zap"
)

// ErrNoCustomer is returned when a portal session is requested for a user
// that has never been linked to a billing customer.
var ErrNoCustomer = errors.New("no billing customer for user")

// ProfileStore is the profile persistence the session issuers need.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	LinkStripeCustomer(ctx context.Context, userID, customerID string) (string, error)
}

// Customer identifies the authenticated user a session is issued for.
type Customer struct {
	UserID string
	Email  string
	Name   string
}

type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// Sessions issues hosted checkout and customer-portal sessions.
type Sessions struct {
	gateway  Gateway
	profiles ProfileStore
	appURL   string
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewSessions(gateway Gateway, profiles ProfileStore, appURL string, logger *zap.Logger, m *metrics.Metrics) *Sessions {
	return &Sessions{
		gateway:  gateway,
		profiles: profiles,
		appURL:   appURL,
		logger:   logger.Named("sessions"),
		metrics:  m,
	}
}

// EnsureCustomer returns the user's billing customer id, creating and
// linking a customer the first time. When two requests race, the customer
// linked first wins and the losing request deletes the one it created.
func (s *Sessions) EnsureCustomer(ctx context.Context, cus Customer) (string, error) {
	profile, err := s.profiles.GetProfile(ctx, cus.UserID)
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}
	if profile.StripeCustomerID != "" {
		return profile.StripeCustomerID, nil
	}

	created, err := s.gateway.CreateCustomer(ctx, cus.UserID, cus.Email, cus.Name)
	if err != nil {
		return "", err
	}
	linked, err := s.profiles.LinkStripeCustomer(ctx, cus.UserID, created.ID)
	if err != nil {
		return "", err
	}
	if linked != created.ID {
		fields := []zap.Field{
			zap.String("user_id", cus.UserID),
			zap.String("kept", linked),
			zap.String("duplicate", created.ID),
		}
		if err := s.gateway.DeleteCustomer(ctx, created.ID); err != nil {
			s.logger.Error("customer linked concurrently, duplicate left in place", append(fields, zap.Error(err))...)
		} else {
			s.logger.Info("customer linked concurrently, removed duplicate customer", fields...)
		}
	}
	return linked, nil
}

// Checkout creates a subscription checkout for priceID.
func (s *Sessions) Checkout(ctx context.Context, cus Customer, priceID string, plan models.Plan) (*CheckoutSession, error) {
	customerID, err := s.EnsureCustomer(ctx, cus)
	if err != nil {
		s.metrics.BillingSessionsTotal.WithLabelValues("checkout", "error").Inc()
		return nil, err
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		CustomerID: customerID,
		PriceID:    priceID,
		UserID:     cus.UserID,
		PlanName:   string(plan),
		SuccessURL: s.appURL + "/dashboard?checkout=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.appURL + "/pricing?checkout=canceled",
	})
	if err != nil {
		s.metrics.BillingSessionsTotal.WithLabelValues("checkout", "error").Inc()
		return nil, err
	}
	s.metrics.BillingSessionsTotal.WithLabelValues("checkout", "ok").Inc()
	return &CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

// Portal creates a customer-portal session and returns its URL. Users without
// a linked customer get ErrNoCustomer and no platform call is made.
func (s *Sessions) Portal(ctx context.Context, userID string) (string, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}
	if profile.StripeCustomerID == "" {
		return "", ErrNoCustomer
	}

	sess, err := s.gateway.CreatePortalSession(ctx, profile.StripeCustomerID, s.appURL+"/dashboard/settings")
	if err != nil {
		s.metrics.BillingSessionsTotal.WithLabelValues("portal", "error").Inc()
		return "", err
	}
	s.metrics.BillingSessionsTotal.WithLabelValues("portal", "ok").Inc()
	return sess.URL, nil
}
