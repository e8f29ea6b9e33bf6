package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Environment string           `yaml:"environment"`
	Server      ServerConfig     `yaml:"server"`
	Gateway     GatewayConfig    `yaml:"gateway"`
	Database    DatabaseConfig   `yaml:"database"`
	Push        PushConfig       `yaml:"push"`
	WorkerPool  WorkerPoolConfig `yaml:"worker_pool"`
	Poller      PollerConfig     `yaml:"poller"`
	Mock        MockConfig       `yaml:"mock"`
}

// PollerConfig controls the background refresh of booking requests.
type PollerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the dashboard API settings.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// GatewayConfig describes the REST backends the dashboard talks to.
type GatewayConfig struct {
	BookingURL              string        `yaml:"booking_url"`
	AuthURL                 string        `yaml:"auth_url"`
	WorkshopURL             string        `yaml:"workshop_url"`
	TimeoutSeconds          int           `yaml:"timeout_seconds"`
	Timeout                 time.Duration `yaml:"-"`
	RateLimitPerSec         float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst          int           `yaml:"rate_limit_burst"`
	ReferenceCacheTTLSecond int           `yaml:"reference_cache_ttl_seconds"`
	ReferenceCacheTTL       time.Duration `yaml:"-"`
}

// DatabaseConfig holds the durable client storage settings.
// A DSN starting with "postgres://" or "host=" selects postgres, anything else is a sqlite path.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// MockConfig holds the ports of the mock backend binary.
type MockConfig struct {
	BookingPort int `yaml:"booking_port"`
	AccountPort int `yaml:"account_port"`
}

// Load reads the configuration from the given path. A missing file is not an error:
// defaults and environment variables are used instead.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load(".env")

	var cfg Config
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DASHBOARD_ENV"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("DASHBOARD_BOOKING_URL"); v != "" {
		cfg.Gateway.BookingURL = v
	}
	if v := os.Getenv("DASHBOARD_AUTH_URL"); v != "" {
		cfg.Gateway.AuthURL = v
	}
	if v := os.Getenv("DASHBOARD_WORKSHOP_URL"); v != "" {
		cfg.Gateway.WorkshopURL = v
	}
	if v := os.Getenv("DASHBOARD_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DASHBOARD_VAPID_PUBLIC_KEY"); v != "" {
		cfg.Push.PublicKey = v
	}
	if v := os.Getenv("DASHBOARD_VAPID_PRIVATE_KEY"); v != "" {
		cfg.Push.PrivateKey = v
	}
	if v, err := strconv.Atoi(os.Getenv("DASHBOARD_PORT")); err == nil && v > 0 {
		cfg.Server.Port = v
	}
	if v, err := strconv.ParseBool(os.Getenv("DASHBOARD_POLLER_ENABLED")); err == nil {
		cfg.Poller.Enabled = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Gateway.BookingURL == "" {
		cfg.Gateway.BookingURL = "http://127.0.0.1:8000/api"
	}
	if cfg.Gateway.AuthURL == "" {
		cfg.Gateway.AuthURL = "http://localhost:8080"
	}
	if cfg.Gateway.WorkshopURL == "" {
		cfg.Gateway.WorkshopURL = "http://localhost:3004"
	}
	if cfg.Gateway.TimeoutSeconds <= 0 {
		cfg.Gateway.TimeoutSeconds = 10
	}
	cfg.Gateway.Timeout = time.Duration(cfg.Gateway.TimeoutSeconds) * time.Second
	if cfg.Gateway.RateLimitBurst <= 0 {
		cfg.Gateway.RateLimitBurst = 10
	}
	if cfg.Gateway.ReferenceCacheTTLSecond <= 0 {
		cfg.Gateway.ReferenceCacheTTLSecond = 3600
	}
	cfg.Gateway.ReferenceCacheTTL = time.Duration(cfg.Gateway.ReferenceCacheTTLSecond) * time.Second

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "dashboard.db"
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 4
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 2
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}

	if cfg.Poller.IntervalSeconds <= 0 {
		cfg.Poller.IntervalSeconds = 30
	}
	cfg.Poller.Interval = time.Duration(cfg.Poller.IntervalSeconds) * time.Second

	if cfg.Mock.BookingPort <= 0 {
		cfg.Mock.BookingPort = 8000
	}
	if cfg.Mock.AccountPort <= 0 {
		cfg.Mock.AccountPort = 3004
	}
}
