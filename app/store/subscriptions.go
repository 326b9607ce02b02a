package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eliasJakobi123/sellable-sub001/app/models"

	"github.com/lib/pq"
)

// UpsertSubscription inserts the record or overwrites every mirrored field of
// the row with the same stripe_subscription_id.
func (s *Store) UpsertSubscription(ctx context.Context, rec models.SubscriptionRecord) error {
	const q = `
		INSERT INTO subscriptions (
			user_id, stripe_subscription_id, stripe_customer_id, plan_name, status,
			current_period_start, current_period_end, cancel_at_period_end
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (stripe_subscription_id) DO UPDATE SET
			user_id              = EXCLUDED.user_id,
			stripe_customer_id   = EXCLUDED.stripe_customer_id,
			plan_name            = EXCLUDED.plan_name,
			status               = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end   = EXCLUDED.current_period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			updated_at           = now();
	`
	_, err := s.db.ExecContext(ctx, q,
		rec.UserID,
		rec.StripeSubscriptionID,
		rec.StripeCustomerID,
		rec.PlanName,
		rec.Status,
		rec.CurrentPeriodStart,
		rec.CurrentPeriodEnd,
		rec.CancelAtPeriodEnd,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription %s: %w", rec.StripeSubscriptionID, err)
	}
	return nil
}

// CancelSubscription marks the record canceled and returns its owner.
func (s *Store) CancelSubscription(ctx context.Context, stripeSubscriptionID string) (string, error) {
	const q = `
		UPDATE subscriptions
		SET status = $1, updated_at = now()
		WHERE stripe_subscription_id = $2
		RETURNING user_id;
	`
	var userID string
	err := s.db.QueryRowContext(ctx, q, models.StatusCanceled, stripeSubscriptionID).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("cancel subscription %s: %w", stripeSubscriptionID, err)
	}
	return userID, nil
}

// ActiveSubscription returns the user's most recent subscription in a
// plan-granting status, or nil when there is none.
func (s *Store) ActiveSubscription(ctx context.Context, userID string) (*models.SubscriptionRecord, error) {
	const q = `
		SELECT id, user_id, stripe_subscription_id, stripe_customer_id, plan_name, status,
		       current_period_start, current_period_end, cancel_at_period_end,
		       created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1 AND status = ANY($2)
		ORDER BY current_period_end DESC NULLS LAST, updated_at DESC
		LIMIT 1;
	`
	var (
		rec        models.SubscriptionRecord
		start, end sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, q, userID, pq.Array(models.PlanGrantingStatuses)).Scan(
		&rec.ID, &rec.UserID, &rec.StripeSubscriptionID, &rec.StripeCustomerID,
		&rec.PlanName, &rec.Status, &start, &end, &rec.CancelAtPeriodEnd,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active subscription: %w", err)
	}
	rec.CurrentPeriodStart = timePtr(start)
	rec.CurrentPeriodEnd = timePtr(end)
	return &rec, nil
}
