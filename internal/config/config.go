// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"papertrade/pkg/db" // Import db package for its Config struct
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort   string          `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel     string          `env:"LOG_LEVEL" envDefault:"info"`
	StartingCash decimal.Decimal `env:"STARTING_CASH" envDefault:"10000.00"`

	DB       db.Config `envPrefix:"DB_"`
	Quote    QuoteConfig
	Session  SessionConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Screener ScreenerConfig
}

// QuoteConfig configures the quote provider.
type QuoteConfig struct {
	APIKey  string        `env:"API_KEY"`
	BaseURL string        `env:"QUOTE_API_URL" envDefault:"https://cloud.iexapis.com/stable"`
	Timeout time.Duration `env:"QUOTE_TIMEOUT" envDefault:"5s"`
}

// SessionConfig configures session tokens.
type SessionConfig struct {
	Secret string        `env:"SESSION_SECRET,required,notEmpty"`
	TTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

// RedisConfig configures the session registry. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// KafkaConfig configures trade event publishing. No brokers disables it.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"papertrade.trades"`
}

// ScreenerConfig configures the momentum screener.
type ScreenerConfig struct {
	Token        string        `env:"IEX_CLOUD_API_TOKEN"`
	BaseURL      string        `env:"SCREENER_API_URL" envDefault:"https://sandbox.iexapis.com/stable"`
	UniverseFile string        `env:"SCREENER_UNIVERSE_FILE"`
	Top          int           `env:"SCREENER_TOP" envDefault:"50"`
	CacheTTL     time.Duration `env:"SCREENER_CACHE_TTL" envDefault:"15m"`
}

// LoadConfig loads configuration from environment variables.
// Variables found in envFiles (default ".env", optional) are added first without overriding the environment.
// It returns an AppConfig instance or an error if any required variable is missing or invalid.
func LoadConfig(envFiles ...string) (*AppConfig, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to read env files: %w", err)
	}

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if !c.StartingCash.IsPositive() {
		return fmt.Errorf("STARTING_CASH must be positive, got %s", c.StartingCash)
	}
	if _, err := c.DB.DSN(); err != nil {
		return fmt.Errorf("invalid DB_DRIVER: %w", err)
	}
	if c.Quote.Timeout <= 0 {
		return errors.New("QUOTE_TIMEOUT must be positive")
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}
