package app

import (
	"context"
	"fmt"

	"github.com/eliasJakobi123/sellable-sub001/app/models"
)

type quotaError struct {
	Limit int
	Used  int
}

func (e quotaError) Error() string {
	return "monthly generation limit reached"
}

// quota is the caller's allowance for the current calendar month.
type quota struct {
	Profile models.Profile
	Usage   models.UsageCounter
}

func (q quota) Remaining() int {
	remaining := q.Profile.MonthlyLimit - q.Usage.GenerationsCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *Server) loadQuota(ctx context.Context, userID string) (quota, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return quota{}, fmt.Errorf("load profile: %w", err)
	}
	start, end := models.MonthPeriod(s.now())
	usage, err := s.store.GetUsage(ctx, userID, start, end)
	if err != nil {
		return quota{}, err
	}
	return quota{Profile: profile, Usage: usage}, nil
}

// enforceMonthlyQuota returns a quotaError when the user has no generations
// left this month.
func (s *Server) enforceMonthlyQuota(ctx context.Context, userID string) (quota, error) {
	q, err := s.loadQuota(ctx, userID)
	if err != nil {
		return quota{}, err
	}
	if q.Usage.GenerationsCount >= q.Profile.MonthlyLimit {
		return q, quotaError{Limit: q.Profile.MonthlyLimit, Used: q.Usage.GenerationsCount}
	}
	return q, nil
}

func (s *Server) chargeGeneration(ctx context.Context, userID string) (int, error) {
	start, end := models.MonthPeriod(s.now())
	return s.store.IncrementUsage(ctx, userID, start, end)
}
