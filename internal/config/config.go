// Package config loads application settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	Env           string
	Port          int
	LambdaRuntime bool

	MongoURI      string
	MongoHost     string
	MongoPort     int
	MongoUser     string
	MongoPassword string
	MongoDatabase string

	JWTSecret        string
	JWTRefreshSecret string
	JWTAccessTTL     time.Duration
	JWTRefreshTTL    time.Duration
	BcryptCost       int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3URLExpiry time.Duration

	AllowedOrigins       []string
	RateLimitPerMinute   int
	AdminEmails          []string
	CategoryUpdatePolicy string

	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// Load reads .env (if present) and then the process environment. Variables
// already set in the environment win over .env entries.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:           envOrDefault("APP_ENV", EnvDevelopment),
		LambdaRuntime: envBool("LAMBDA_RUNTIME", false),

		MongoURI:      os.Getenv("MONGO_URI"),
		MongoHost:     envOrDefault("MONGO_HOST", "localhost"),
		MongoUser:     os.Getenv("MONGO_USER"),
		MongoPassword: os.Getenv("MONGO_PASSWORD"),
		MongoDatabase: envOrDefault("MONGO_DATABASE", "blog"),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTRefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),

		AllowedOrigins:       envList("ALLOWED_ORIGINS", []string{"*"}),
		AdminEmails:          envList("ADMIN_EMAILS", nil),
		CategoryUpdatePolicy: envOrDefault("CATEGORY_UPDATE_POLICY", "strict"),

		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		LogPath:     os.Getenv("LOG_PATH"),
		LogCompress: envBool("LOG_COMPRESS", false),
	}

	var errs []error
	intVar := func(dst *int, key string, def int) {
		v, err := envInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		*dst = v
	}
	durationVar := func(dst *time.Duration, key string, def time.Duration) {
		v, err := envDuration(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		*dst = v
	}

	intVar(&cfg.Port, "PORT", 5000)
	intVar(&cfg.MongoPort, "MONGO_PORT", 27017)
	intVar(&cfg.BcryptCost, "BCRYPT_COST", 10)
	intVar(&cfg.RedisDB, "REDIS_DB", 0)
	intVar(&cfg.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE", 60)
	intVar(&cfg.LogMaxSizeMB, "LOG_MAX_SIZE_MB", 100)
	intVar(&cfg.LogMaxBackups, "LOG_MAX_BACKUPS", 3)
	intVar(&cfg.LogMaxAgeDays, "LOG_MAX_AGE_DAYS", 7)
	durationVar(&cfg.JWTAccessTTL, "JWT_ACCESS_TTL", 24*time.Hour)
	durationVar(&cfg.JWTRefreshTTL, "JWT_REFRESH_TTL", 30*24*time.Hour)
	durationVar(&cfg.S3URLExpiry, "S3_URL_EXPIRY", time.Hour)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.CategoryUpdatePolicy {
	case "strict", "lenient":
	default:
		return fmt.Errorf("CATEGORY_UPDATE_POLICY must be strict or lenient, got %q", c.CategoryUpdatePolicy)
	}

	if c.IsProduction() {
		if c.JWTSecret == "" || c.JWTRefreshSecret == "" {
			return errors.New("JWT_SECRET and JWT_REFRESH_SECRET must be set in production")
		}
		return nil
	}

	// Outside production fixed secrets keep local tokens valid across restarts.
	if c.JWTSecret == "" {
		c.JWTSecret = "dev-access-secret"
	}
	if c.JWTRefreshSecret == "" {
		c.JWTRefreshSecret = "dev-refresh-secret"
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// IsAdminEmail reports whether email is configured to receive the admin role
// on registration.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
