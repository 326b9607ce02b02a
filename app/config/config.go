package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

// ErrMissingConfig is returned when a variable the server cannot run without is unset.
var ErrMissingConfig = errors.New("server configuration error")

type Config struct {
	Port    string   `env:"PORT" envDefault:"8080"`
	AppURL  string   `env:"APP_URL" envDefault:"http://localhost:3000"`
	Origins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	Logs       LogConfig
	DB         PostgresConfig
	Identity   IdentityConfig
	Stripe     StripeConfig
	Generation GenerationConfig
}

type LogConfig struct {
	Style string `env:"LOG_STYLE" envDefault:"json"`
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

type PostgresConfig struct {
	URL          string `env:"DATABASE_URL,required,notEmpty"`
	MaxOpenConns int    `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
}

type IdentityConfig struct {
	URL       string `env:"IDENTITY_URL,required,notEmpty"`
	PublicKey string `env:"IDENTITY_PUBLIC_KEY,required,notEmpty"`
	Audience  string `env:"IDENTITY_AUDIENCE" envDefault:"authenticated"`
	// VerifyMode is "jwks" (verify token signatures locally) or "remote"
	// (ask the identity provider to resolve the session).
	VerifyMode string `env:"IDENTITY_VERIFY_MODE" envDefault:"jwks"`
	JWKSURL    string `env:"IDENTITY_JWKS_URL"`
}

type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY,required,notEmpty"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required,notEmpty"`

	ProductStarter      string `env:"STRIPE_PRODUCT_STARTER" envDefault:"prod_sellable_starter"`
	ProductProfessional string `env:"STRIPE_PRODUCT_PROFESSIONAL" envDefault:"prod_sellable_professional"`
	ProductEnterprise   string `env:"STRIPE_PRODUCT_ENTERPRISE" envDefault:"prod_sellable_enterprise"`
}

type GenerationConfig struct {
	FunctionURL string `env:"GENERATION_FUNCTION_URL"`
	FunctionKey string `env:"GENERATION_FUNCTION_KEY"`
	QueueURL    string `env:"GENERATION_QUEUE_URL"`
}

// LoadConfig parses the process environment. Missing required variables are
// reported together, wrapped in ErrMissingConfig.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Join(ErrMissingConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	cfg.Identity.URL = strings.TrimRight(cfg.Identity.URL, "/")
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Identity.VerifyMode {
	case "jwks", "remote":
	default:
		return fmt.Errorf("%w: IDENTITY_VERIFY_MODE must be jwks or remote, got %q", ErrMissingConfig, c.Identity.VerifyMode)
	}
	switch c.Logs.Style {
	case "json", "console":
	default:
		return fmt.Errorf("%w: LOG_STYLE must be json or console, got %q", ErrMissingConfig, c.Logs.Style)
	}
	if c.Generation.FunctionURL == "" && c.Generation.QueueURL == "" {
		return fmt.Errorf("%w: one of GENERATION_FUNCTION_URL or GENERATION_QUEUE_URL must be set", ErrMissingConfig)
	}
	return nil
}
