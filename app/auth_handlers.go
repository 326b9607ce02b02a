package app

import (
	"errors"
	"net/http"

	"github.com/eliasJakobi123/sellable-sub001/app/store"
	"github.com/eliasJakobi123/sellable-sub001/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Health is a public health check endpoint.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Me returns the authenticated user's profile.
func (s *Server) Me(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	profile, err := s.store.GetProfile(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		s.logger.Error("load profile failed", zap.String("user_id", claims.Subject), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           profile.ID,
		"email":        claims.Email,
		"fullName":     profile.FullName,
		"displayName":  profile.DisplayName,
		"planName":     profile.PlanName,
		"monthlyLimit": profile.MonthlyLimit,
		"hasBilling":   profile.StripeCustomerID != "",
		"createdAt":    profile.CreatedAt,
	})
}
