package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Storage   StorageConfig
	S3        S3Config
	Redis     RedisConfig
	Order     OrderConfig
	RateLimit RateLimitConfig
	Scheduler SchedulerConfig
	Admin     AdminConfig
}

type ServerConfig struct {
	Port            string
	GinMode         string
	Environment     string
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// StorageConfig selects where uploaded menu images are written
type StorageConfig struct {
	Driver        string // local, s3
	UploadDir     string
	PublicPrefix  string
	MaxImageBytes int64
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// OrderConfig holds checkout pricing and status policy
type OrderConfig struct {
	PricingMode       string // trust, recompute
	VerifyTotals      bool   // trust mode only
	DeliveryFee       float64
	TaxRate           float64
	EstimatedDelivery time.Duration
	StrictTransitions bool
	HistoryLimit      int
}

type RateLimitConfig struct {
	LoginPerMinute int
	LoginBurst     int
}

type SchedulerConfig struct {
	Enabled      bool
	PopularSpec  string
	PopularTopN  int
	RunOnStartup bool
}

// AdminConfig seeds the first admin account
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

const (
	PricingModeTrust     = "trust"
	PricingModeRecompute = "recompute"

	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "5000"),
			GinMode:         getEnv("GIN_MODE", "debug"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "savanna"),
			Password: getEnv("DB_PASSWORD", "savanna"),
			DBName:   getEnv("DB_NAME", "savanna_table"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key"),
			Expiry: parseDuration(getEnv("JWT_EXPIRY", "168h"), 7*24*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverLocal)),
			UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
			PublicPrefix:  getEnv("UPLOAD_PUBLIC_PREFIX", "/uploads"),
			MaxImageBytes: int64(parseInt(getEnv("UPLOAD_MAX_BYTES", "5242880"), 5<<20)),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "savanna-table-uploads"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "false")),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Order: OrderConfig{
			PricingMode:       strings.ToLower(strings.TrimSpace(getEnv("ORDER_PRICING_MODE", PricingModeTrust))),
			VerifyTotals:      parseBool(getEnv("ORDER_VERIFY_TOTALS", "true")),
			DeliveryFee:       parseFloat(getEnv("ORDER_DELIVERY_FEE", "4.99"), 4.99),
			TaxRate:           parseFloat(getEnv("ORDER_TAX_RATE", "0.08"), 0.08),
			EstimatedDelivery: parseDuration(getEnv("ORDER_ESTIMATED_DELIVERY", "45m"), 45*time.Minute),
			StrictTransitions: parseBool(getEnv("ORDER_STRICT_TRANSITIONS", "false")),
			HistoryLimit:      parseInt(getEnv("ORDER_HISTORY_LIMIT", "50"), 50),
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: parseInt(getEnv("LOGIN_RATE_PER_MINUTE", "10"), 10),
			LoginBurst:     parseInt(getEnv("LOGIN_RATE_BURST", "5"), 5),
		},
		Scheduler: SchedulerConfig{
			Enabled:      parseBool(getEnv("SCHEDULER_ENABLED", "true")),
			PopularSpec:  getEnv("POPULAR_ITEMS_CRON", "0 3 * * *"),
			PopularTopN:  parseInt(getEnv("POPULAR_ITEMS_TOP_N", "4"), 4),
			RunOnStartup: parseBool(getEnv("POPULAR_ITEMS_RUN_ON_STARTUP", "false")),
		},
		Admin: AdminConfig{
			Name:     getEnv("ADMIN_NAME", "Super Admin"),
			Email:    getEnv("ADMIN_EMAIL", "admin@savannable.com"),
			Password: getEnv("ADMIN_PASSWORD", "admin123"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	if c.Order.PricingMode != PricingModeTrust && c.Order.PricingMode != PricingModeRecompute {
		return fmt.Errorf("invalid ORDER_PRICING_MODE %q (want %q or %q)", c.Order.PricingMode, PricingModeTrust, PricingModeRecompute)
	}
	if c.Storage.Driver != StorageDriverLocal && c.Storage.Driver != StorageDriverS3 {
		return fmt.Errorf("invalid STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Order.DeliveryFee < 0 || c.Order.TaxRate < 0 {
		return fmt.Errorf("delivery fee and tax rate must not be negative")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		log.Printf("Invalid number %s, using default %v", s, fallback)
		return fallback
	}
	return f
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}

func parseSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
