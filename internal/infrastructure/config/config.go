package config

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
)

const (
	NetworkTestnet = "testnet"
	NetworkMainnet = "mainnet"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

var mirrorURLs = map[string]string{
	NetworkTestnet: "https://testnet.mirrornode.hedera.com/api/v1",
	NetworkMainnet: "https://mainnet-public.mirrornode.hedera.com/api/v1",
}

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`
	DemoMode  bool   `env:"DEMO_MODE,  default=false"`
	Network   string `env:"HEDERA_NETWORK, default=testnet"`

	SupportContact string `env:"SUPPORT_CONTACT, default=support@hederavault.io"`

	Endpoints  EndpointsConfig
	Identity   IdentityConfig
	Session    SessionConfig
	Onboarding OnboardingConfig
	Redis      RedisConfig
	Mongo      MongoConfig
}

type EndpointsConfig struct {
	ProvisioningBaseURL string        `env:"PROVISIONING_BASE_URL"`
	BalanceBaseURL      string        `env:"BALANCE_BASE_URL"`
	MirrorBaseURL       string        `env:"MIRROR_BASE_URL"`
	HTTPTimeout         time.Duration `env:"HTTP_TIMEOUT,          default=15s"`
	RetryOnUnauthorized bool          `env:"RETRY_ON_UNAUTHORIZED, default=true"`
	HBARUSDRate         float64       `env:"HBAR_USD_RATE,         default=0.05"`
}

type IdentityConfig struct {
	Region     string `env:"COGNITO_REGION, default=us-east-1"`
	UserPoolID string `env:"COGNITO_USER_POOL_ID"`
	ClientID   string `env:"COGNITO_CLIENT_ID"`
	// Endpoint overrides the regional identity provider endpoint.
	Endpoint string `env:"COGNITO_ENDPOINT"`
}

type SessionConfig struct {
	Store                string        `env:"SESSION_STORE,                default=memory"`
	Secret               string        `env:"SESSION_SECRET"`
	RefreshCheckInterval time.Duration `env:"TOKEN_REFRESH_CHECK_INTERVAL, default=1m"`
}

type OnboardingConfig struct {
	StepDelay       time.Duration `env:"ONBOARDING_STEP_DELAY,       default=800ms"`
	CompletionDelay time.Duration `env:"ONBOARDING_COMPLETION_DELAY, default=2s"`
	PollMaxAttempts int           `env:"POLL_MAX_ATTEMPTS,           default=30"`
	PollInterval    time.Duration `env:"POLL_INTERVAL,               default=2s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type MongoConfig struct {
	// URI is optional; the onboarding audit trail is disabled without it.
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=walletd"`
}

// Load reads configuration from environment variables using go-envconfig.
// Entries in overrides, keyed by variable name, win over the environment.
func Load(ctx context.Context, log zerolog.Logger, overrides map[string]string) (*Config, error) {
	lookuper := envconfig.OsLookuper()
	if len(overrides) > 0 {
		lookuper = envconfig.MultiLookuper(envconfig.MapLookuper(overrides), lookuper)
	}
	return load(ctx, lookuper, log)
}

func load(ctx context.Context, lookuper envconfig.Lookuper, log zerolog.Logger) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints and fills derived defaults.
func (c *Config) Validate() error {
	mirror, ok := mirrorURLs[c.Network]
	if !ok {
		return fmt.Errorf("config: HEDERA_NETWORK must be %q or %q, got %q", NetworkTestnet, NetworkMainnet, c.Network)
	}
	if c.Endpoints.MirrorBaseURL == "" {
		c.Endpoints.MirrorBaseURL = mirror
	}

	switch c.Session.Store {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.Session.Secret == "" {
			return fmt.Errorf("config: SESSION_SECRET is required with SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("config: unknown SESSION_STORE %q", c.Session.Store)
	}

	if c.DemoMode {
		return nil
	}
	if c.Endpoints.ProvisioningBaseURL == "" {
		return fmt.Errorf("config: PROVISIONING_BASE_URL is required outside demo mode")
	}
	if c.Endpoints.BalanceBaseURL == "" {
		c.Endpoints.BalanceBaseURL = c.Endpoints.ProvisioningBaseURL
	}
	if c.Identity.ClientID == "" {
		return fmt.Errorf("config: COGNITO_CLIENT_ID is required outside demo mode")
	}
	return nil
}

// Address returns the listen address in the format echo expects.
func (c *Config) Address() string {
	return ":" + c.Port
}
