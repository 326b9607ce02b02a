package app

import (
	"context"
	"fmt"

	"github.com/eliasJakobi123/sellable-sub001/app/billing"
	"github.com/eliasJakobi123/sellable-sub001/app/config"
	"github.com/eliasJakobi123/sellable-sub001/app/generation"
	"github.com/eliasJakobi123/sellable-sub001/app/logging"
	"github.com/eliasJakobi123/sellable-sub001/app/metrics"
	"github.com/eliasJakobi123/sellable-sub001/app/store"
	"github.com/eliasJakobi123/sellable-sub001/auth"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Built is a fully wired application ready to serve.
type Built struct {
	Router *gin.Engine
	Logger *zap.Logger
	store  *store.Store
}

// Close releases the database pool and flushes the logger.
func (b *Built) Close() error {
	_ = b.Logger.Sync()
	return b.store.Close()
}

// Build constructs every dependency from cfg. It connects to Postgres and
// applies the schema, so ctx should carry a startup deadline.
func Build(ctx context.Context, cfg *config.Config) (*Built, error) {
	logger, err := logging.New(cfg.Logs)
	if err != nil {
		return nil, err
	}
	gin.SetMode(gin.ReleaseMode)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	st, err := store.Open(ctx, cfg.DB.URL, cfg.DB.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return nil, err
	}

	verifier, err := newTokenVerifier(cfg.Identity)
	if err != nil {
		st.Close()
		return nil, err
	}

	dispatcher, err := newDispatcher(ctx, cfg.Generation)
	if err != nil {
		st.Close()
		return nil, err
	}

	gateway := billing.NewStripeGateway(cfg.Stripe.SecretKey)
	catalog := billing.NewProductCatalog(cfg.Stripe.ProductStarter, cfg.Stripe.ProductProfessional, cfg.Stripe.ProductEnterprise)
	reconciler := billing.NewReconciler(gateway, st, catalog, logger, m)

	srv := NewServer(Options{
		Store:      st,
		Verifier:   verifier,
		Receiver:   billing.NewReceiver(cfg.Stripe.WebhookSecret, reconciler, logger, m),
		Sessions:   billing.NewSessions(gateway, st, cfg.AppURL, logger, m),
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    m,
		Origins:    cfg.Origins,
	})

	logger.Info("server initialized",
		zap.String("identity_mode", cfg.Identity.VerifyMode),
		zap.String("generation_transport", dispatcher.Transport()),
	)
	return &Built{Router: NewRouter(srv), Logger: logger, store: st}, nil
}

func newTokenVerifier(cfg config.IdentityConfig) (auth.TokenVerifier, error) {
	switch cfg.VerifyMode {
	case "remote":
		return auth.NewRemoteVerifier(cfg.URL, cfg.PublicKey, nil), nil
	case "jwks":
		return auth.NewVerifier(cfg.URL+"/auth/v1", cfg.Audience, cfg.JWKSURL)
	default:
		return nil, fmt.Errorf("unknown identity verify mode %q", cfg.VerifyMode)
	}
}

// newDispatcher prefers the queue when one is configured.
func newDispatcher(ctx context.Context, cfg config.GenerationConfig) (generation.Dispatcher, error) {
	if cfg.QueueURL != "" {
		return generation.NewSQSDispatcher(ctx, cfg.QueueURL)
	}
	return generation.NewHTTPDispatcher(cfg.FunctionURL, cfg.FunctionKey, nil), nil
}
