package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Stripe   StripeConfig
	Cache    CacheConfig
	AI       AIConfig
	Orders   OrdersConfig
	Upload   UploadConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int    `envconfig:"SERVER_PORT" default:"8080"`
	AllowedOrigin  string `envconfig:"CORS_ALLOWED_ORIGIN" default:"http://localhost:5173"`
	PublicBaseURL  string `envconfig:"BASE_URL" default:"http://localhost:8080"`
}

// DatabaseConfig holds MySQL connection settings.
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	Name     string `envconfig:"DB_NAME" default:"rizana"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASS" default:""`

	// Optional read-only DSN used by the AI assistant. Falls back to the
	// primary DSN when empty.
	ReadOnlyDSN string `envconfig:"DB_DSN_READONLY" default:""`
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	SecretKey string        `envconfig:"JWT_SECRET_KEY" required:"true"`
	Expiry    time.Duration `envconfig:"JWT_EXPIRY" default:"72h"`
}

// StripeConfig holds payment provider settings.
type StripeConfig struct {
	APIKey string `envconfig:"STRIPE_API_KEY" default:""`

	// PlatformFee is the fraction of an order total kept by the platform
	// when recording the seller payout.
	PlatformFee float64 `envconfig:"PLATFORM_FEE" default:"0.05"`
}

// CacheConfig holds listing cache settings.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"`
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// AIConfig holds the Gemini assistant settings. The assistant is disabled
// when no API key is configured.
type AIConfig struct {
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY" default:""`
	Model        string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
}

// OrdersConfig holds the background order janitor settings.
type OrdersConfig struct {
	StaleAge      time.Duration `envconfig:"ORDER_STALE_AGE" default:"24h"`
	CheckInterval time.Duration `envconfig:"ORDER_CHECK_INTERVAL" default:"1h"`
}

// UploadConfig holds image upload settings.
type UploadConfig struct {
	Dir string `envconfig:"UPLOAD_DIR" default:"./uploads"`
}

// DSN returns the MySQL data source name for the primary connection.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}
