package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	"github.com/Temutjin2k/ride-dispatch/pkg/configparser"
)

// Flags
var (
	modeFlag = flag.String("mode", "", "application mode (api | dispatch-worker | notify-worker)")
)

// Errors
var (
	ErrModeNotProvided = errors.New("mode flag not provided")
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Mode     types.ServiceMode
		LogLevel string `env:"LOG_LEVEL" default:"DEBUG"`

		Database DatabaseConfig
		RabbitMQ RabbitMQConfig
		Services ServicesConfig
		Identity IdentityConfig
		Dispatch DispatchConfig
		Pricing  PricingConfig
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"dispatch_user"`
		Password string `env:"DATABASE_PASSWORD" default:"dispatch_pass"`
		Database string `env:"DATABASE_DATABASE" default:"dispatch_db"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"20"`
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"2"`
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"`
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" default:"5m"`
	}

	RabbitMQConfig struct {
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
	}

	ServicesConfig struct {
		// Port of the ride lifecycle API.
		APIPort string `env:"SERVICES_API_PORT" default:"8000"`
		// Port of the notify worker's websocket endpoint.
		NotifyWSPort string `env:"SERVICES_NOTIFY_WS_PORT" default:"8090"`
		// Base URL the dispatch worker uses to reach the internal ride API.
		// Must only be resolvable inside the trusted network boundary.
		InternalAPIBase string `env:"SERVICES_INTERNAL_API_BASE" default:"http://localhost:8000"`
	}

	IdentityConfig struct {
		// Token verification endpoint of the external identity service.
		VerifyURL string        `env:"IDENTITY_VERIFY_URL" default:"http://localhost:8005/accounts/api/verify/"`
		Timeout   time.Duration `env:"IDENTITY_TIMEOUT" default:"5s"`

		// When set, tokens are verified locally (HS256) instead of calling
		// the identity service on every request.
		JWTSecret string `env:"IDENTITY_JWT_SECRET"`
	}

	DispatchConfig struct {
		// Drivers known to the default matcher.
		DriverPool []int64 `env:"DISPATCH_DRIVER_POOL" default:"101,102,103,104,105"`

		// Retry policy for ride.requested handling.
		MaxAttempts int           `env:"DISPATCH_MAX_ATTEMPTS" default:"5"`
		BaseBackoff time.Duration `env:"DISPATCH_BASE_BACKOFF" default:"2s"`
		MaxBackoff  time.Duration `env:"DISPATCH_MAX_BACKOFF" default:"30s"`

		// Timeout on outbound calls to the ride store / internal API.
		StoreTimeout time.Duration `env:"DISPATCH_STORE_TIMEOUT" default:"5s"`
	}

	PricingConfig struct {
		// Fare used by the constant-fare pricing strategy.
		FixedFare float64 `env:"PRICING_FIXED_FARE" default:"10.00"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	// Loading environment variables and parsing into the config struct.
	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	return cfg, nil
}

func parseFlags(cfg *Config) error {
	if modeFlag == nil || *modeFlag == "" {
		return ErrModeNotProvided
	}

	cfg.Mode = types.ServiceMode(*modeFlag)

	return nil
}
