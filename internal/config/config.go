package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	GoogleAds GoogleAdsConfig `yaml:"google_ads"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Archive   ArchiveConfig   `yaml:"archive"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GoogleAdsConfig holds Google Ads API credentials and client settings
type GoogleAdsConfig struct {
	BaseURL         string `yaml:"base_url"`
	APIVersion      string `yaml:"api_version"`
	DeveloperToken  string `yaml:"developer_token"`
	ClientID        string `yaml:"client_id"`
	ClientSecret    string `yaml:"client_secret"`
	RefreshToken    string `yaml:"refresh_token"`
	LoginCustomerID string `yaml:"login_customer_id"`
	CustomerID      string `yaml:"customer_id"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	MaxRetries      int    `yaml:"max_retries"`
	PartialFailure  bool   `yaml:"partial_failure"`
}

// Timeout returns the configured timeout as a duration
func (c GoogleAdsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// OptimizerConfig holds execution-controller settings
type OptimizerConfig struct {
	ValidateOnly   bool     `yaml:"validate_only"`
	AllowedCallers []string `yaml:"allowed_callers"`
	LookbackDays   int      `yaml:"lookback_days"`
	LockTTLSeconds int      `yaml:"lock_ttl_seconds"`
}

// LockTTL returns the apply-mode lock TTL as a duration
func (c OptimizerConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// DatabaseConfig holds the audit store connection settings
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// RedisConfig holds the apply-lock backend settings
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ArchiveConfig holds S3 report archival settings
type ArchiveConfig struct {
	Enabled    bool   `yaml:"enabled"`
	S3Bucket   string `yaml:"s3_bucket"`
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.GoogleAds.BaseURL == "" {
		cfg.GoogleAds.BaseURL = "https://googleads.googleapis.com"
	}
	if cfg.GoogleAds.APIVersion == "" {
		cfg.GoogleAds.APIVersion = "v17"
	}
	if cfg.GoogleAds.TimeoutSeconds == 0 {
		cfg.GoogleAds.TimeoutSeconds = 60
	}
	if cfg.GoogleAds.MaxRetries == 0 {
		cfg.GoogleAds.MaxRetries = 3
	}
	if cfg.Optimizer.LookbackDays == 0 {
		cfg.Optimizer.LookbackDays = 30
	}
	if cfg.Optimizer.LockTTLSeconds == 0 {
		cfg.Optimizer.LockTTLSeconds = 120
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Archive.AWSRegion == "" {
		cfg.Archive.AWSRegion = "us-west-2"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if v := os.Getenv("GOOGLE_ADS_DEVELOPER_TOKEN"); v != "" {
		cfg.GoogleAds.DeveloperToken = v
	}
	if v := os.Getenv("GOOGLE_ADS_CLIENT_ID"); v != "" {
		cfg.GoogleAds.ClientID = v
	}
	if v := os.Getenv("GOOGLE_ADS_CLIENT_SECRET"); v != "" {
		cfg.GoogleAds.ClientSecret = v
	}
	if v := os.Getenv("GOOGLE_ADS_REFRESH_TOKEN"); v != "" {
		cfg.GoogleAds.RefreshToken = v
	}
	if v := os.Getenv("GOOGLE_ADS_LOGIN_CUSTOMER_ID"); v != "" {
		cfg.GoogleAds.LoginCustomerID = v
	}
	if v := os.Getenv("GOOGLE_ADS_CUSTOMER_ID"); v != "" {
		cfg.GoogleAds.CustomerID = v
	}

	// Execution mode overrides
	if v := os.Getenv("OPTIMIZER_VALIDATE_ONLY"); v != "" {
		cfg.Optimizer.ValidateOnly = v == "true" || v == "1"
	}
	if v := os.Getenv("OPTIMIZER_ALLOWED_CALLERS"); v != "" {
		cfg.Optimizer.AllowedCallers = splitAndTrim(v)
	}

	// Database override (critical for ECS deployment where config.yaml has local defaults)
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
		cfg.Database.Enabled = true
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("ARCHIVE_S3_BUCKET"); v != "" {
		cfg.Archive.S3Bucket = v
		cfg.Archive.Enabled = true
	}

	return cfg, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
