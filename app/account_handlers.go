package app

import (
	"errors"
	"net/http"

	"github.com/eliasJakobi123/sellable-sub001/app/models"
	"github.com/eliasJakobi123/sellable-sub001/app/store"
	"github.com/eliasJakobi123/sellable-sub001/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GetSubscription returns the user's plan and most recent active subscription.
func (s *Server) GetSubscription(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	var (
		profile models.Profile
		sub     *models.SubscriptionRecord
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		profile, err = s.store.GetProfile(ctx, claims.Subject)
		return err
	})
	g.Go(func() error {
		var err error
		sub, err = s.store.ActiveSubscription(ctx, claims.Subject)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		s.logger.Error("load subscription failed", zap.String("user_id", claims.Subject), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"planName":     profile.PlanName,
		"monthlyLimit": profile.MonthlyLimit,
		"subscription": sub,
	})
}

// GetUsage returns generation usage for the current calendar month.
func (s *Server) GetUsage(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	q, err := s.loadQuota(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		s.logger.Error("load usage failed", zap.String("user_id", claims.Subject), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load usage"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"periodStart": q.Usage.PeriodStart.Format(dateLayout),
		"periodEnd":   q.Usage.PeriodEnd.Format(dateLayout),
		"used":        q.Usage.GenerationsCount,
		"limit":       q.Profile.MonthlyLimit,
		"remaining":   q.Remaining(),
		"planName":    q.Profile.PlanName,
	})
}

const dateLayout = "2006-01-02"
