package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eliasJakobi123/sellable-sub001/app/models"
)

// EnsureProfile creates a free profile for userID if none exists.
func (s *Store) EnsureProfile(ctx context.Context, userID, fullName, displayName string) error {
	const q = `
		INSERT INTO profiles (id, full_name, display_name, plan_name, monthly_limit)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING;
	`
	_, err := s.db.ExecContext(ctx, q,
		userID,
		nullIfEmpty(fullName),
		nullIfEmpty(displayName),
		models.PlanFree,
		models.FreeMonthlyLimit,
	)
	if err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	const q = `
		SELECT id, full_name, display_name, plan_name, monthly_limit,
		       stripe_customer_id, created_at, updated_at
		FROM profiles
		WHERE id = $1;
	`
	var (
		p                          models.Profile
		fullName, displayName, cus sql.NullString
	)
	err := s.db.QueryRowContext(ctx, q, userID).Scan(
		&p.ID, &fullName, &displayName, &p.PlanName, &p.MonthlyLimit,
		&cus, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	p.FullName = fullName.String
	p.DisplayName = displayName.String
	p.StripeCustomerID = cus.String
	return p, nil
}

// LinkStripeCustomer stores customerID on the profile unless one is already
// linked. It returns the customer id the profile ends up with, which differs
// from customerID when a concurrent request linked first.
func (s *Store) LinkStripeCustomer(ctx context.Context, userID, customerID string) (string, error) {
	const q = `
		UPDATE profiles
		SET stripe_customer_id = $1, updated_at = now()
		WHERE id = $2 AND stripe_customer_id IS NULL
		RETURNING stripe_customer_id;
	`
	var linked string
	err := s.db.QueryRowContext(ctx, q, customerID, userID).Scan(&linked)
	if err == nil {
		return linked, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("link stripe customer: %w", err)
	}

	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	if p.StripeCustomerID == "" {
		return "", fmt.Errorf("link stripe customer: profile %s not updated", userID)
	}
	return p.StripeCustomerID, nil
}

// UpdateProfilePlan writes the denormalized plan fields. An empty customerID
// leaves the stored customer id untouched.
func (s *Store) UpdateProfilePlan(ctx context.Context, userID string, plan models.Plan, monthlyLimit int, customerID string) error {
	const q = `
		UPDATE profiles
		SET plan_name = $1,
		    monthly_limit = $2,
		    stripe_customer_id = COALESCE($3, stripe_customer_id),
		    updated_at = now()
		WHERE id = $4;
	`
	res, err := s.db.ExecContext(ctx, q, plan, monthlyLimit, nullIfEmpty(customerID), userID)
	if isUniqueViolation(err) {
		return fmt.Errorf("update profile plan: customer %s: %w", customerID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("update profile plan: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}
