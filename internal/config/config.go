package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `json:"server"`
	Database     DatabaseConfig     `json:"database"`
	Cache        CacheConfig        `json:"cache"`
	RabbitMQ     RabbitMQConfig     `json:"rabbitmq"`
	Auth         AuthConfig         `json:"auth"`
	ExternalAPIs ExternalAPIsConfig `json:"external_apis"`
	Scheduler    SchedulerConfig    `json:"scheduler"`
	Logger       LoggerConfig       `json:"logger"`
	Analytics    AnalyticsConfig    `json:"analytics"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port           int    `json:"port"`
	Host           string `json:"host"`
	Environment    string `json:"environment"`
	ReadTimeout    int    `json:"read_timeout"`
	WriteTimeout   int    `json:"write_timeout"`
	MaxHeaderBytes int    `json:"max_header_bytes"`
}

// DatabaseConfig represents MongoDB configuration
type DatabaseConfig struct {
	URI            string `json:"uri"`
	Database       string `json:"database"`
	MaxPoolSize    int    `json:"max_pool_size"`
	MinPoolSize    int    `json:"min_pool_size"`
	MaxIdleTime    int    `json:"max_idle_time"`
	ConnectTimeout int    `json:"connect_timeout"`
	SocketTimeout  int    `json:"socket_timeout"`
}

// CacheConfig represents Redis cache configuration
type CacheConfig struct {
	Host               string        `json:"host"`
	Port               int           `json:"port"`
	Password           string        `json:"password"`
	DB                 int           `json:"db"`
	MaxRetries         int           `json:"max_retries"`
	PoolSize           int           `json:"pool_size"`
	MinIdleConnections int           `json:"min_idle_connections"`
	DialTimeout        time.Duration `json:"dial_timeout"`
	ReadTimeout        time.Duration `json:"read_timeout"`
	WriteTimeout       time.Duration `json:"write_timeout"`

	// TTL settings
	RiskReportTTL  time.Duration `json:"risk_report_ttl"`
	CorrelationTTL time.Duration `json:"correlation_ttl"`
	SignalsTTL     time.Duration `json:"signals_ttl"`
	AdvisoryTTL    time.Duration `json:"advisory_ttl"`
}

// RabbitMQConfig represents RabbitMQ configuration
type RabbitMQConfig struct {
	Enabled  bool   `json:"enabled"`
	URL      string `json:"url"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	VHost    string `json:"vhost"`

	ReportExchange   string `json:"report_exchange"`
	ReportRoutingKey string `json:"report_routing_key"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	JWTSecret    string        `json:"jwt_secret"`
	JWTExpiration time.Duration `json:"jwt_expiration"`
	RequireAuth  bool          `json:"require_auth"`
}

// APIEndpoint represents one upstream service endpoint
type APIEndpoint struct {
	URL    string `json:"url"`
	APIKey string `json:"api_key"`
}

// ExternalAPIsConfig represents external API configurations
type ExternalAPIsConfig struct {
	Timeout       time.Duration `json:"timeout"`
	RetryCount    int           `json:"retry_count"`
	MarketDataAPI APIEndpoint   `json:"market_data_api"`
	PortfolioAPI  APIEndpoint   `json:"portfolio_api"`
}

// SchedulerConfig represents background job scheduling configuration
type SchedulerConfig struct {
	Enabled            bool   `json:"enabled"`
	CacheWarmInterval  string `json:"cache_warm_interval"` // Cron expression
	PriceSyncInterval  string `json:"price_sync_interval"` // Cron expression
	TimeZone           string `json:"timezone"`
}

// LoggerConfig represents logging configuration
type LoggerConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	Output     string `json:"output"`
	Filename   string `json:"filename"`
	MaxSize    int    `json:"max_size"`
	MaxAge     int    `json:"max_age"`
	MaxBackups int    `json:"max_backups"`
	Compress   bool   `json:"compress"`
}

// AnalyticsConfig represents the quantitative engine tunables
type AnalyticsConfig struct {
	RiskFreeRate        float64 `json:"risk_free_rate"`
	BenchmarkTicker     string  `json:"benchmark_ticker"`
	Simulations         int     `json:"simulations"`
	Seed                int64   `json:"seed"`
	TradingDays         int     `json:"trading_days"`
	DefaultConfidence   float64 `json:"default_confidence"`
	DefaultLookbackDays int     `json:"default_lookback_days"`
	DefaultHorizonDays  int     `json:"default_horizon_days"`
}

// Load loads configuration from environment variables
func Load() *Config {
	// Load .env file if exists
	godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:           getEnvInt("SERVER_PORT", 8084),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ReadTimeout:    getEnvInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout:   getEnvInt("SERVER_WRITE_TIMEOUT", 30),
			MaxHeaderBytes: getEnvInt("SERVER_MAX_HEADER_BYTES", 1048576),
		},

		Database: DatabaseConfig{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "portfolio_analytics"),
			MaxPoolSize:    getEnvInt("MONGODB_MAX_POOL_SIZE", 100),
			MinPoolSize:    getEnvInt("MONGODB_MIN_POOL_SIZE", 5),
			MaxIdleTime:    getEnvInt("MONGODB_MAX_IDLE_TIME", 300),
			ConnectTimeout: getEnvInt("MONGODB_CONNECT_TIMEOUT", 10),
			SocketTimeout:  getEnvInt("MONGODB_SOCKET_TIMEOUT", 30),
		},

		Cache: CacheConfig{
			Host:               getEnv("REDIS_HOST", "localhost"),
			Port:               getEnvInt("REDIS_PORT", 6379),
			Password:           getEnv("REDIS_PASSWORD", ""),
			DB:                 getEnvInt("REDIS_DB", 0),
			MaxRetries:         getEnvInt("REDIS_MAX_RETRIES", 3),
			PoolSize:           getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConnections: getEnvInt("REDIS_MIN_IDLE_CONNECTIONS", 5),
			DialTimeout:        getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:        getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:       getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			RiskReportTTL:      getEnvDuration("CACHE_RISK_REPORT_TTL", 10*time.Minute),
			CorrelationTTL:     getEnvDuration("CACHE_CORRELATION_TTL", 15*time.Minute),
			SignalsTTL:         getEnvDuration("CACHE_SIGNALS_TTL", 5*time.Minute),
			AdvisoryTTL:        getEnvDuration("CACHE_ADVISORY_TTL", 5*time.Minute),
		},

		RabbitMQ: RabbitMQConfig{
			Enabled:          getEnvBool("RABBITMQ_ENABLED", true),
			URL:              getEnv("RABBITMQ_URL", ""),
			Host:             getEnv("RABBITMQ_HOST", "localhost"),
			Port:             getEnvInt("RABBITMQ_PORT", 5672),
			Username:         getEnv("RABBITMQ_USERNAME", "guest"),
			Password:         getEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:            getEnv("RABBITMQ_VHOST", "/"),
			ReportExchange:   getEnv("RABBITMQ_REPORT_EXCHANGE", "analytics"),
			ReportRoutingKey: getEnv("RABBITMQ_REPORT_ROUTING_KEY", "report.computed"),
		},

		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", "default-secret-key"),
			JWTExpiration: getEnvDuration("JWT_EXPIRATION", 24*time.Hour),
			RequireAuth:   getEnvBool("REQUIRE_AUTH", true),
		},

		ExternalAPIs: ExternalAPIsConfig{
			Timeout:    getEnvDuration("EXTERNAL_API_TIMEOUT", 30*time.Second),
			RetryCount: getEnvInt("EXTERNAL_API_RETRY_COUNT", 3),
			MarketDataAPI: APIEndpoint{
				URL:    getEnv("MARKET_DATA_API_URL", "http://localhost:8082"),
				APIKey: getEnv("MARKET_DATA_API_KEY", ""),
			},
			PortfolioAPI: APIEndpoint{
				URL:    getEnv("PORTFOLIO_API_URL", "http://localhost:8083"),
				APIKey: getEnv("PORTFOLIO_API_KEY", ""),
			},
		},

		Scheduler: SchedulerConfig{
			Enabled:           getEnvBool("SCHEDULER_ENABLED", true),
			CacheWarmInterval: getEnv("SCHEDULER_CACHE_WARM_INTERVAL", "*/15 * * * *"), // Every 15 minutes
			PriceSyncInterval: getEnv("SCHEDULER_PRICE_SYNC_INTERVAL", "0 1 * * *"),    // Daily at 1 AM
			TimeZone:          getEnv("SCHEDULER_TIMEZONE", "UTC"),
		},

		Logger: LoggerConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			Filename:   getEnv("LOG_FILENAME", ""),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 28),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},

		Analytics: AnalyticsConfig{
			RiskFreeRate:        getEnvFloat("ANALYTICS_RISK_FREE_RATE", 0.05),
			BenchmarkTicker:     getEnv("ANALYTICS_BENCHMARK_TICKER", "SPY"),
			Simulations:         getEnvInt("ANALYTICS_MONTE_CARLO_SIMULATIONS", 10000),
			Seed:                int64(getEnvInt("ANALYTICS_MONTE_CARLO_SEED", 42)),
			TradingDays:         getEnvInt("ANALYTICS_TRADING_DAYS", 252),
			DefaultConfidence:   getEnvFloat("ANALYTICS_DEFAULT_CONFIDENCE", 0.95),
			DefaultLookbackDays: getEnvInt("ANALYTICS_DEFAULT_LOOKBACK_DAYS", 365),
			DefaultHorizonDays:  getEnvInt("ANALYTICS_DEFAULT_HORIZON_DAYS", 1),
		},
	}

	return config
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URI == "" {
		return fmt.Errorf("database URI is required")
	}

	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == "default-secret-key" {
		logrus.Warn("Using default JWT secret key, this is not recommended for production")
	}

	if c.ExternalAPIs.MarketDataAPI.URL == "" {
		return fmt.Errorf("market data API URL is required")
	}
	if c.ExternalAPIs.PortfolioAPI.URL == "" {
		return fmt.Errorf("portfolio API URL is required")
	}

	if c.Analytics.DefaultConfidence <= 0 || c.Analytics.DefaultConfidence >= 1 {
		return fmt.Errorf("default confidence must be in (0, 1)")
	}

	return nil
}
