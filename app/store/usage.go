package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eliasJakobi123/sellable-sub001/app/models"
)

// GetUsage returns the counter for the period starting at periodStart. A
// missing row reads as zero usage.
func (s *Store) GetUsage(ctx context.Context, userID string, periodStart, periodEnd time.Time) (models.UsageCounter, error) {
	counter := models.UsageCounter{
		UserID:      userID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}
	err := s.db.QueryRowContext(ctx, `
		SELECT generations_count
		FROM usage_counters
		WHERE user_id = $1 AND period_start = $2;
	`, userID, periodStart).Scan(&counter.GenerationsCount)
	if errors.Is(err, sql.ErrNoRows) {
		return counter, nil
	}
	if err != nil {
		return models.UsageCounter{}, fmt.Errorf("get usage: %w", err)
	}
	return counter, nil
}

// IncrementUsage adds one generation to the period counter and returns the new count.
func (s *Store) IncrementUsage(ctx context.Context, userID string, periodStart, periodEnd time.Time) (int, error) {
	const q = `
		INSERT INTO usage_counters (user_id, period_start, period_end, generations_count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (user_id, period_start)
		DO UPDATE SET generations_count = usage_counters.generations_count + 1
		RETURNING generations_count;
	`
	var count int
	if err := s.db.QueryRowContext(ctx, q, userID, periodStart, periodEnd).Scan(&count); err != nil {
		return 0, fmt.Errorf("increment usage: %w", err)
	}
	return count, nil
}
