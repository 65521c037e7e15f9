package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"perfreview/internal/domain/features"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("APP_ADDR", "")
	t.Setenv("SHUTDOWN_TIMEOUT", "bogus")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Fatalf("expected fallback shutdown timeout, got %v", cfg.ShutdownTimeout)
	}
	if !cfg.Review.ConfirmationRequired || len(cfg.Review.Scale()) != 5 {
		t.Fatalf("unexpected review defaults %+v", cfg.Review)
	}
}

func TestLoadReviewFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perfreview.yaml")
	content := `
review:
  default_scale: [4, 1, 2, 3]
  default_features:
    yearly:
      use_goal_weight: true
      enable_employee_self_rating: false
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	scale := cfg.Review.Scale()
	if len(scale) != 4 || scale[0] != 1 || scale[3] != 4 {
		t.Fatalf("unexpected scale %v", scale)
	}
	if !cfg.Review.ConfirmationRequired {
		t.Fatalf("expected confirmation_required to keep its default")
	}
	yearly := cfg.Review.DefaultFeatures.Snapshot(features.PeriodYearly)
	if yearly.Policy() != features.PolicyGoalWeight || yearly.SelfRatingEnabled {
		t.Fatalf("unexpected yearly defaults %+v", yearly)
	}
	if !cfg.Review.DefaultFeatures.Quarterly.EnableEmployeeSelfRating {
		t.Fatalf("expected quarterly defaults to be kept")
	}
}

func TestLoadReviewFileErrors(t *testing.T) {
	if _, err := LoadReviewFile(filepath.Join(t.TempDir(), "missing.yaml"), DefaultReviewConfig()); err == nil {
		t.Fatalf("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("review: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadReviewFile(path, DefaultReviewConfig()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{DatabaseURL: "postgres://localhost/perfreview", MaxBodyBytes: 4096, RateLimitPerMinute: 10, Review: DefaultReviewConfig()}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := map[string]func(c *Config){
		"missing database": func(c *Config) { c.DatabaseURL = " " },
		"production secret": func(c *Config) {
			c.Environment = "production"
		},
		"small body":  func(c *Config) { c.MaxBodyBytes = 10 },
		"rate limit":  func(c *Config) { c.RateLimitPerMinute = 0 },
		"empty scale": func(c *Config) { c.Review.DefaultScale = nil },
	}
	for name, mutate := range cases {
		cfg := valid
		cfg.Review.DefaultScale = append([]float64(nil), valid.Review.DefaultScale...)
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
