package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Env string

const (
	EnvDevelopment Env = "development"
	EnvStaging     Env = "staging"
	EnvProduction  Env = "production"
)

type Config struct {
	AppName string `env:"APP_NAME" envDefault:"SIAD Agro API"`
	AppEnv  Env    `env:"APP_ENV" envDefault:"development"`
	Debug   bool   `env:"DEBUG" envDefault:"true"`

	HTTPAddr    string   `env:"HTTP_ADDR" envDefault:":8000"`
	CORSOrigins []string `env:"BACKEND_CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost,http://localhost:3000"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN"`

	BlobBasePath string `env:"STORAGE_DIR" envDefault:"storage/uploads"`

	JWTSecret        string        `env:"JWT_SECRET" envDefault:"change-me"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET" envDefault:"change-me-too"`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	RefreshTokenTTL  time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	DefaultLocale      string `env:"DEFAULT_LOCALE" envDefault:"pt-BR"`

	// Upstream quote endpoints. Empty means the static quote is served as fallback.
	PriceCacheTTL     time.Duration `env:"PRICE_CACHE_TTL" envDefault:"5m"`
	PriceFetchTimeout time.Duration `env:"PRICE_FETCH_TIMEOUT" envDefault:"3s"`
	CEPEAURL          string        `env:"PRICE_CEPEA_URL"`
	B3URL             string        `env:"PRICE_B3_URL"`
	FertilizerURL     string        `env:"PRICE_FERTILIZER_URL"`
	FreightURL        string        `env:"PRICE_FREIGHT_URL"`

	// Tracing is off unless an OTLP collector is configured.
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"siad-backend"`

	ReportWorkers  int    `env:"REPORT_WORKERS" envDefault:"2"`
	DefaultStation string `env:"DEFAULT_STATION" envDefault:"BR001"`
}

// FromEnv loads .env (when present) and parses the process environment.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.AppEnv {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("APP_ENV %q: want development, staging or production", c.AppEnv)
	}
	if c.AppEnv == EnvProduction && (c.JWTSecret == "change-me" || c.JWTRefreshSecret == "change-me-too") {
		return errors.New("JWT secrets must be set in production")
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.ReportWorkers <= 0 {
		return errors.New("REPORT_WORKERS must be positive")
	}
	return nil
}

func (c Config) IsProduction() bool { return c.AppEnv == EnvProduction }
