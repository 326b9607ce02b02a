package app

import (
	"errors"
	"io"
	"net/http"

	"github.com/eliasJakobi123/sellable-sub001/app/billing"
	"github.com/eliasJakobi123/sellable-sub001/app/models"
	"github.com/eliasJakobi123/sellable-sub001/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBodyBytes = int64(65536)

// StripeWebhook verifies and applies one billing-platform event. Any non-2xx
// response makes the platform redeliver it.
func (s *Server) StripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.logger.Error("webhook body exceeds limit", zap.Int64("limit_bytes", tooLarge.Limit))
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}
		s.logger.Warn("webhook read failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	kind, err := s.receiver.Receive(c.Request.Context(), body, c.GetHeader("Stripe-Signature"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true})
	case errors.Is(err, billing.ErrMissingSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing stripe-signature header"})
	case errors.Is(err, billing.ErrInvalidSignature):
		s.logger.Warn("webhook signature rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process " + kind.String() + " event"})
	}
}

type checkoutRequest struct {
	PriceID  string      `json:"priceId" binding:"required"`
	PlanName models.Plan `json:"planName" binding:"required"`
}

// CreateCheckoutSession starts a hosted subscription checkout for the
// authenticated user.
func (s *Server) CreateCheckoutSession(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priceId and planName are required"})
		return
	}
	if !req.PlanName.Purchasable() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan"})
		return
	}

	userID, email, name := claimsCustomer(claims)
	sess, err := s.sessions.Checkout(c.Request.Context(), billing.Customer{
		UserID: userID,
		Email:  email,
		Name:   name,
	}, req.PriceID, req.PlanName)
	if err != nil {
		s.logger.Error("checkout session failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, sess)
}

// CreatePortalSession creates a customer-portal session for the
// authenticated user.
func (s *Server) CreatePortalSession(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	url, err := s.sessions.Portal(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, billing.ErrNoCustomer) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no billing account for user"})
			return
		}
		s.logger.Error("portal session failed", zap.String("user_id", claims.Subject), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create portal session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
