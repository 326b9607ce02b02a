package app

import (
	"context"
	"time"

	"github.com/eliasJakobi123/sellable-sub001/app/billing"
	"github.com/eliasJakobi123/sellable-sub001/app/generation"
	"github.com/eliasJakobi123/sellable-sub001/app/metrics"
	"github.com/eliasJakobi123/sellable-sub001/app/models"
	"github.com/eliasJakobi123/sellable-sub001/auth"

	"go.uber.org/zap"
)

// Store is the persistence the HTTP handlers read and write.
type Store interface {
	EnsureProfile(ctx context.Context, userID, fullName, displayName string) error
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	ActiveSubscription(ctx context.Context, userID string) (*models.SubscriptionRecord, error)
	GetUsage(ctx context.Context, userID string, periodStart, periodEnd time.Time) (models.UsageCounter, error)
	IncrementUsage(ctx context.Context, userID string, periodStart, periodEnd time.Time) (int, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	ListProducts(ctx context.Context, userID string, limit int) ([]models.Product, error)
	GetProduct(ctx context.Context, userID, productID string) (models.Product, error)
	DeleteProduct(ctx context.Context, userID, productID string) error
}

// Options carries the dependencies of a Server. Every field except Now and
// Origins is required.
type Options struct {
	Store      Store
	Verifier   auth.TokenVerifier
	Receiver   *billing.Receiver
	Sessions   *billing.Sessions
	Dispatcher generation.Dispatcher
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Origins    []string
	Now        func() time.Time
}

// Server holds the dependencies shared by all handlers.
type Server struct {
	store      Store
	verifier   auth.TokenVerifier
	receiver   *billing.Receiver
	sessions   *billing.Sessions
	dispatcher generation.Dispatcher
	logger     *zap.Logger
	metrics    *metrics.Metrics
	origins    []string
	now        func() time.Time
}

func NewServer(opts Options) *Server {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	origins := opts.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		store:      opts.Store,
		verifier:   opts.Verifier,
		receiver:   opts.Receiver,
		sessions:   opts.Sessions,
		dispatcher: opts.Dispatcher,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		origins:    origins,
		now:        now,
	}
}
