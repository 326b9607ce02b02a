package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eliasJakobi123/sellable-sub001/app/metrics"
	"github.com/eliasJakobi123/sellable-sub001/app/models"
	"github.com/eliasJakobi123/sellable-sub001/app/store"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"
)

const (
	metadataUserID   = "user_id"
	metadataPlanName = "plan_name"
)

// SubscriptionStore is the persistence the Reconciler writes to.
type SubscriptionStore interface {
	UpsertSubscription(ctx context.Context, rec models.SubscriptionRecord) error
	CancelSubscription(ctx context.Context, stripeSubscriptionID string) (string, error)
	UpdateProfilePlan(ctx context.Context, userID string, plan models.Plan, monthlyLimit int, customerID string) error
}

// Reconciler applies billing-platform subscription state to the local tables.
type Reconciler struct {
	gateway Gateway
	store   SubscriptionStore
	catalog ProductCatalog
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewReconciler(gateway Gateway, st SubscriptionStore, catalog ProductCatalog, logger *zap.Logger, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		gateway: gateway,
		store:   st,
		catalog: catalog,
		logger:  logger.Named("reconciler"),
		metrics: m,
	}
}

// Reconcile mirrors sub into the subscriptions table and updates the owner's
// plan. Subscriptions whose customer carries no user id are skipped.
func (r *Reconciler) Reconcile(ctx context.Context, sub *stripe.Subscription) error {
	customerID := customerIDOf(sub)
	userID, err := r.resolveUserID(ctx, sub.Customer)
	if err != nil {
		return err
	}
	if userID == "" {
		r.logger.Warn("subscription customer has no user id, skipping",
			zap.String("subscription_id", sub.ID),
			zap.String("customer_id", customerID),
		)
		r.metrics.ReconcileFailuresTotal.WithLabelValues("resolve_user").Inc()
		return nil
	}

	plan := r.catalog.PlanFor(productIDOf(sub))
	rec := models.SubscriptionRecord{
		UserID:               userID,
		StripeSubscriptionID: sub.ID,
		StripeCustomerID:     customerID,
		PlanName:             plan,
		Status:               string(sub.Status),
		CurrentPeriodStart:   unixTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:     unixTime(sub.CurrentPeriodEnd),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
	if err := r.store.UpsertSubscription(ctx, rec); err != nil {
		return err
	}

	profilePlan := plan
	if !models.GrantsPlan(rec.Status) {
		profilePlan = models.PlanFree
	}
	r.updateProfile(ctx, userID, profilePlan, customerID)

	r.logger.Info("subscription reconciled",
		zap.String("subscription_id", sub.ID),
		zap.String("user_id", userID),
		zap.String("plan", string(plan)),
		zap.String("status", rec.Status),
	)
	return nil
}

// Cancel marks the subscription canceled and drops its owner to the free plan.
func (r *Reconciler) Cancel(ctx context.Context, sub *stripe.Subscription) error {
	userID, err := r.store.CancelSubscription(ctx, sub.ID)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		userID, err = r.resolveUserID(ctx, sub.Customer)
		if err != nil {
			return err
		}
		if userID == "" {
			r.logger.Warn("deleted subscription has no local record or user id",
				zap.String("subscription_id", sub.ID),
			)
			r.metrics.ReconcileFailuresTotal.WithLabelValues("resolve_user").Inc()
			return nil
		}
		rec := models.SubscriptionRecord{
			UserID:               userID,
			StripeSubscriptionID: sub.ID,
			StripeCustomerID:     customerIDOf(sub),
			PlanName:             r.catalog.PlanFor(productIDOf(sub)),
			Status:               models.StatusCanceled,
			CurrentPeriodStart:   unixTime(sub.CurrentPeriodStart),
			CurrentPeriodEnd:     unixTime(sub.CurrentPeriodEnd),
			CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
		}
		if err := r.store.UpsertSubscription(ctx, rec); err != nil {
			return err
		}
	default:
		return err
	}

	r.updateProfile(ctx, userID, models.PlanFree, "")
	r.logger.Info("subscription canceled",
		zap.String("subscription_id", sub.ID),
		zap.String("user_id", userID),
	)
	return nil
}

// CheckoutCompleted reconciles the subscription created by a finished
// checkout. Sessions in other modes are ignored.
func (r *Reconciler) CheckoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	if sess.Mode != stripe.CheckoutSessionModeSubscription {
		r.logger.Info("ignoring non-subscription checkout", zap.String("session_id", sess.ID))
		return nil
	}
	if sess.Subscription == nil || sess.Subscription.ID == "" {
		r.logger.Warn("subscription checkout without subscription id", zap.String("session_id", sess.ID))
		return nil
	}
	sub, err := r.gateway.GetSubscription(ctx, sess.Subscription.ID)
	if err != nil {
		return err
	}
	return r.Reconcile(ctx, sub)
}

// InvoicePayment refreshes the subscription an invoice belongs to. The
// mirrored status carries the payment outcome.
func (r *Reconciler) InvoicePayment(ctx context.Context, inv *stripe.Invoice) error {
	if inv.Subscription == nil || inv.Subscription.ID == "" {
		r.logger.Debug("invoice without subscription", zap.String("invoice_id", inv.ID))
		return nil
	}
	sub, err := r.gateway.GetSubscription(ctx, inv.Subscription.ID)
	if err != nil {
		return err
	}
	return r.Reconcile(ctx, sub)
}

func (r *Reconciler) updateProfile(ctx context.Context, userID string, plan models.Plan, customerID string) {
	err := r.store.UpdateProfilePlan(ctx, userID, plan, plan.MonthlyLimit(), customerID)
	if err == nil {
		return
	}
	r.metrics.ReconcileFailuresTotal.WithLabelValues("profile_update").Inc()
	r.logger.Error("profile plan update failed",
		zap.String("user_id", userID),
		zap.String("plan", string(plan)),
		zap.Error(err),
	)
}

// resolveUserID reads the user id from customer metadata, fetching the
// customer when only its id is present. An empty result with a nil error
// means the customer is not linked to a user.
func (r *Reconciler) resolveUserID(ctx context.Context, cus *stripe.Customer) (string, error) {
	if cus == nil || cus.ID == "" {
		return "", nil
	}
	if cus.Metadata != nil {
		return cus.Metadata[metadataUserID], nil
	}
	full, err := r.gateway.GetCustomer(ctx, cus.ID)
	if err != nil {
		return "", fmt.Errorf("resolve user for customer %s: %w", cus.ID, err)
	}
	if full.Deleted || full.Metadata == nil {
		return "", nil
	}
	return full.Metadata[metadataUserID], nil
}

func customerIDOf(sub *stripe.Subscription) string {
	if sub.Customer == nil {
		return ""
	}
	return sub.Customer.ID
}

// productIDOf returns the product of the first subscription item.
func productIDOf(sub *stripe.Subscription) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	item := sub.Items.Data[0]
	if item == nil || item.Price == nil || item.Price.Product == nil {
		return ""
	}
	return item.Price.Product.ID
}

func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
