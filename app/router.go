// Package app wires shared HTTP routes for both local and Lambda execution.
package app

import (
	"net/http"
	"time"

	"github.com/eliasJakobi123/sellable-sub001/app/logging"
	"github.com/eliasJakobi123/sellable-sub001/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the shared HTTP router for both local and Lambda execution.
func NewRouter(s *Server) *gin.Engine {
	router := gin.New()
	router.Use(logging.Recovery(s.logger), logging.RequestLogger(s.logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins: s.origins,
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/health", s.Health)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	router.POST("/api/stripe/webhook", s.StripeWebhook)

	protected := router.Group("/api")
	protected.Use(auth.Middleware(s.verifier, auth.MiddlewareConfig{
		Logger: s.logger,
		OnAuthenticated: func(c *gin.Context, claims *auth.Claims) error {
			return s.ensureProfile(c.Request.Context(), claims)
		},
	}))
	protected.GET("/me", s.Me)
	protected.GET("/subscription", s.GetSubscription)
	protected.GET("/usage", s.GetUsage)
	protected.POST("/stripe/create-checkout-session", s.CreateCheckoutSession)
	protected.POST("/stripe/create-portal-session", s.CreatePortalSession)
	protected.POST("/generate", s.Generate)
	protected.GET("/products", s.ListProducts)
	protected.GET("/products/:id", s.GetProduct)
	protected.DELETE("/products/:id", s.DeleteProduct)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
