package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/eliasJakobi123/sellable-sub001/app/generation"
	"github.com/eliasJakobi123/sellable-sub001/app/models"
	"github.com/eliasJakobi123/sellable-sub001/app/store"
	"github.com/eliasJakobi123/sellable-sub001/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minPromptLength  = 10
	maxPromptLength  = 4000
	productListLimit = 50
)

type generateRequest struct {
	Prompt      string             `json:"prompt" binding:"required"`
	ProductType models.ProductType `json:"productType" binding:"required"`
}

// Generate checks the caller's monthly quota, hands the prompt to the
// generation function and charges one generation once the hand-off succeeds.
func (s *Server) Generate(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt and productType are required"})
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if n := utf8.RuneCountInString(req.Prompt); n < minPromptLength || n > maxPromptLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt must be between 10 and 4000 characters"})
		return
	}
	if !req.ProductType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productType must be ebook, template or course"})
		return
	}

	ctx := c.Request.Context()
	userID := claims.Subject

	if _, err := s.enforceMonthlyQuota(ctx, userID); err != nil {
		var qErr quotaError
		if errors.As(err, &qErr) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": qErr.Error(),
				"limit": qErr.Limit,
				"used":  qErr.Used,
			})
			return
		}
		s.logger.Error("quota check failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check usage"})
		return
	}

	product := &models.Product{
		ID:          uuid.NewString(),
		UserID:      userID,
		Prompt:      req.Prompt,
		ProductType: req.ProductType,
		Status:      models.ProductPending,
	}
	status, err := s.dispatchGeneration(ctx, product)
	if err != nil {
		transport := s.dispatcher.Transport()
		s.metrics.GenerationRequestsTotal.WithLabelValues(transport, "error").Inc()
		if errors.Is(err, generation.ErrUpstream) {
			s.logger.Warn("generation upstream failed", zap.String("user_id", userID), zap.String("transport", transport), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "generation service unavailable, please try again"})
			return
		}
		s.logger.Error("generation failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate product"})
		return
	}
	s.metrics.GenerationRequestsTotal.WithLabelValues(s.dispatcher.Transport(), "ok").Inc()

	if _, err := s.chargeGeneration(ctx, userID); err != nil {
		s.logger.Error("usage increment failed",
			zap.String("user_id", userID),
			zap.String("product_id", product.ID),
			zap.Error(err),
		)
	}

	c.JSON(status, product)
}

// dispatchGeneration runs the configured transport and persists the product.
// Queued work is stored as pending before the job is sent so the worker can
// find its row; synchronous results are stored as completed.
func (s *Server) dispatchGeneration(ctx context.Context, product *models.Product) (int, error) {
	req := generation.Request{
		ProductID:   product.ID,
		UserID:      product.UserID,
		Prompt:      product.Prompt,
		ProductType: product.ProductType,
	}

	if s.dispatcher.Transport() == generation.TransportSQS {
		if err := s.store.CreateProduct(ctx, product); err != nil {
			return 0, err
		}
		if _, err := s.dispatcher.Dispatch(ctx, req); err != nil {
			if delErr := s.store.DeleteProduct(ctx, product.UserID, product.ID); delErr != nil {
				s.logger.Error("pending product cleanup failed", zap.String("product_id", product.ID), zap.Error(delErr))
			}
			return 0, err
		}
		return http.StatusAccepted, nil
	}

	started := time.Now()
	res, err := s.dispatcher.Dispatch(ctx, req)
	s.metrics.GenerationDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return 0, err
	}
	if res == nil {
		return 0, errors.New("generation returned no result")
	}

	product.Status = models.ProductCompleted
	product.Title = res.Title
	product.Description = res.Description
	product.Content = res.Content
	product.PriceCents = res.PriceCents
	product.Currency = res.Currency
	product.MarketingCopy = res.MarketingCopy
	product.Assets = res.Assets
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return 0, err
	}
	return http.StatusCreated, nil
}

// ListProducts returns the caller's newest products.
func (s *Server) ListProducts(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	products, err := s.store.ListProducts(c.Request.Context(), claims.Subject, productListLimit)
	if err != nil {
		s.logger.Error("list products failed", zap.String("user_id", claims.Subject), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load products"})
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(products),
		"products": products,
	})
}

func (s *Server) GetProduct(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	product, err := s.store.GetProduct(c.Request.Context(), claims.Subject, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		s.logger.Error("get product failed", zap.String("product_id", productID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load product"})
		return
	}

	c.JSON(http.StatusOK, product)
}

func (s *Server) DeleteProduct(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	if err := s.store.DeleteProduct(c.Request.Context(), claims.Subject, productID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		s.logger.Error("delete product failed", zap.String("product_id", productID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete product"})
		return
	}

	c.Status(http.StatusNoContent)
}

func productIDParam(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return "", false
	}
	return id.String(), true
}
