package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"tradesage/pkg/errors"
)

type Config struct {
	App           AppConfig
	Server        ServerConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	AI            AIConfig
	MarketData    MarketDataConfig
	Research      ResearchConfig
	Predictor     PredictorConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"tradesage"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
}

type ServerConfig struct {
	Port         int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`

	// Pool sizing. Analyses are written once and read rarely, so the pool
	// stays small by default.
	MaxConns        int           `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"POSTGRES_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"POSTGRES_CONN_MAX_IDLE_TIME" default:"15m"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AIConfig struct {
	Provider    string        `envconfig:"AI_PROVIDER" default:"gemini"`
	GeminiKey   string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	OpenAIKey   string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	Timeout     time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`

	// Free-tier Gemini allows 15 requests per minute; one pipeline run
	// issues at most six.
	RequestsPerMinute float64 `envconfig:"AI_REQUESTS_PER_MINUTE" default:"15"`
	Burst             int     `envconfig:"AI_BURST" default:"2"`
}

type MarketDataConfig struct {
	AlphaVantageKey string        `envconfig:"ALPHA_VANTAGE_API_KEY"`
	BaseURL         string        `envconfig:"ALPHA_VANTAGE_BASE_URL" default:"https://www.alphavantage.co/query"`
	Timeout         time.Duration `envconfig:"MARKET_DATA_TIMEOUT" default:"15s"`
	CacheTTL        time.Duration `envconfig:"MARKET_DATA_CACHE_TTL" default:"5m"`

	// Alpha Vantage free tier: 5 calls/min.
	RequestsPerMinute float64 `envconfig:"MARKET_DATA_REQUESTS_PER_MINUTE" default:"5"`
}

type ResearchConfig struct {
	// LiveData selects real market data for the research stage; when false
	// the stage asks the model for a simulated summary instead.
	LiveData bool `envconfig:"RESEARCH_LIVE_DATA" default:"true"`
}

type PredictorConfig struct {
	Enabled    bool   `envconfig:"PREDICTOR_ENABLED" default:"false"`
	ModelPath  string `envconfig:"PREDICTOR_MODEL_PATH" default:"models/price_lstm.onnx"`
	ScalerPath string `envconfig:"PREDICTOR_SCALER_PATH" default:"models/price_scaler.json"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains intervals for background workers
type WorkerConfig struct {
	QuoteWarmerEnabled  bool          `envconfig:"WORKER_QUOTE_WARMER_ENABLED" default:"true"`
	QuoteWarmerInterval time.Duration `envconfig:"WORKER_QUOTE_WARMER_INTERVAL" default:"10m"`
	QuoteWarmerSymbols  int           `envconfig:"WORKER_QUOTE_WARMER_SYMBOLS" default:"10"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
