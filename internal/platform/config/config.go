package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"perfreview/internal/domain/features"
	"perfreview/internal/domain/rating"
)

type Config struct {
	Addr               string
	DatabaseURL        string
	JWTSecret          string
	Environment        string
	LogLevel           string
	RunMigrations      bool
	MaxBodyBytes       int64
	RateLimitPerMinute int
	ShutdownTimeout    time.Duration
	MetricsEnabled     bool
	ConfigFile         string
	Review             ReviewConfig
}

// ReviewConfig holds review defaults that are usually kept in a YAML file
// rather than the environment.
type ReviewConfig struct {
	DefaultScale         []float64    `yaml:"default_scale"`
	DefaultFeatures      features.Set `yaml:"default_features"`
	ConfirmationRequired bool         `yaml:"confirmation_required"`
}

func DefaultReviewConfig() ReviewConfig {
	return ReviewConfig{
		DefaultScale:         rating.DefaultScale(),
		DefaultFeatures:      features.DefaultSet(),
		ConfirmationRequired: true,
	}
}

// Load reads the environment and, when CONFIG_FILE is set, overlays the
// review section from that YAML file.
func Load() (Config, error) {
	cfg := Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		Environment:        getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		ConfigFile:         getEnv("CONFIG_FILE", ""),
		Review:             DefaultReviewConfig(),
	}
	if cfg.ConfigFile != "" {
		review, err := LoadReviewFile(cfg.ConfigFile, cfg.Review)
		if err != nil {
			return Config{}, err
		}
		cfg.Review = review
	}
	return cfg, nil
}

type fileConfig struct {
	Review ReviewConfig `yaml:"review"`
}

// LoadReviewFile decodes the review section of a YAML file on top of base.
// Keys missing from the file keep their base value.
func LoadReviewFile(path string, base ReviewConfig) (ReviewConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ReviewConfig{}, fmt.Errorf("read config file: %w", err)
	}
	file := fileConfig{Review: base}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return ReviewConfig{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return file.Review, nil
}

func (r ReviewConfig) Scale() rating.Scale {
	return rating.NewScale(r.DefaultScale...)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if len(c.Review.Scale()) == 0 {
		return fmt.Errorf("review.default_scale must contain at least one rating")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
