package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App         AppConfig
	DB          DBConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Checkout    CheckoutConfig
	Cart        CartConfig
	MelhorEnvio MelhorEnvioConfig
	Pagarme     PagarmeConfig
	Webhook     WebhookConfig
	Features    FeatureFlags
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ATACADO_APP_ENV" required:"true"`
	Port         string `envconfig:"ATACADO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ATACADO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ATACADO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ATACADO_DB_DSN"`
	Driver string `envconfig:"ATACADO_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"ATACADO_DB_HOST"`
	Port     int    `envconfig:"ATACADO_DB_PORT" default:"5432"`
	User     string `envconfig:"ATACADO_DB_USER"`
	Password string `envconfig:"ATACADO_DB_PASSWORD"`
	Name     string `envconfig:"ATACADO_DB_NAME"`
	SSLMode  string `envconfig:"ATACADO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ATACADO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ATACADO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ATACADO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ATACADO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either ATACADO_DB_DSN or host/user/name settings are required")
	}
	d.DSN = fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"ATACADO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ATACADO_REDIS_ADDR"`
	Password     string        `envconfig:"ATACADO_REDIS_PASSWORD"`
	DB           int           `envconfig:"ATACADO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ATACADO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ATACADO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ATACADO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ATACADO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ATACADO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ATACADO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ATACADO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ATACADO_JWT_EXPIRATION_MINUTES" default:"60"`
}

// CheckoutConfig tunes the confirm gate and the quote fan-out.
type CheckoutConfig struct {
	MinimumPhysicalUnits int           `envconfig:"ATACADO_CHECKOUT_MIN_PHYSICAL_UNITS" default:"6"`
	QuoteDebounce        time.Duration `envconfig:"ATACADO_CHECKOUT_QUOTE_DEBOUNCE" default:"300ms"`
	QuoteTimeout         time.Duration `envconfig:"ATACADO_CHECKOUT_QUOTE_TIMEOUT" default:"10s"`
}

type CartConfig struct {
	SessionTTL time.Duration `envconfig:"ATACADO_CART_SESSION_TTL" default:"72h"`
}

type MelhorEnvioConfig struct {
	Token       string `envconfig:"ATACADO_MELHOR_ENVIO_TOKEN" required:"true"`
	Env         string `envconfig:"ATACADO_MELHOR_ENVIO_ENV" default:"sandbox"`
	BaseURLOver string `envconfig:"ATACADO_MELHOR_ENVIO_BASE_URL"`
}

func (m MelhorEnvioConfig) Environment() string {
	return strings.ToLower(strings.TrimSpace(m.Env))
}

type PagarmeConfig struct {
	APIKey              string `envconfig:"ATACADO_PAGARME_API_KEY" required:"true"`
	Env                 string `envconfig:"ATACADO_PAGARME_ENV" default:"sandbox"`
	BaseURLOver         string `envconfig:"ATACADO_PAGARME_BASE_URL"`
	PlatformRecipientID string `envconfig:"ATACADO_PAGARME_PLATFORM_RECIPIENT_ID" required:"true"`
	CallbackURL         string `envconfig:"ATACADO_PAGARME_CALLBACK_URL"`
}

func (p PagarmeConfig) Environment() string {
	return strings.ToLower(strings.TrimSpace(p.Env))
}

type FeatureFlags struct {
	AutoMigrate bool `envconfig:"ATACADO_AUTO_MIGRATE" default:"false"`
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"ATACADO_WEBHOOK_IDEMPOTENCY_TTL" default:"24h"`
}
