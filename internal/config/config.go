package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the service
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Couriers     CourierConfig      `yaml:"couriers"`
	Tracking     TrackingConfig     `yaml:"tracking"`
	Notification NotificationConfig `yaml:"notification"`
	Archive      ArchiveConfig      `yaml:"archive"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds the PostgreSQL connection settings
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_seconds"`
	AutoMigrate     bool   `yaml:"auto_migrate"`
}

// RedisConfig holds the Redis connection used for the tracking cache and locks
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

// CourierConfig holds one shared secret or credential per courier.
// Values are read once at startup and never mutated afterwards.
type CourierConfig struct {
	PostNordSecret      string `yaml:"postnord_secret"`
	BringSecret         string `yaml:"bring_secret"`
	BudbeeSecret        string `yaml:"budbee_secret"`
	DHLCredential       string `yaml:"dhl_credential"` // "user:password"
	ReplayWindowSeconds int    `yaml:"replay_window_seconds"`
}

// ReplayWindow returns the Bring timestamp tolerance as a duration
func (c CourierConfig) ReplayWindow() time.Duration {
	return time.Duration(c.ReplayWindowSeconds) * time.Second
}

// TrackingConfig holds reconciliation timing settings
type TrackingConfig struct {
	CacheTTLMinutes     int `yaml:"cache_ttl_minutes"`
	LockWaitMillis      int `yaml:"lock_wait_ms"`
	LockTTLSeconds      int `yaml:"lock_ttl_seconds"`
	SideEffectTimeoutMs int `yaml:"side_effect_timeout_ms"`
	ProcessingTimeoutMs int `yaml:"processing_timeout_ms"`
}

// CacheTTL returns the tracking cache TTL
func (c TrackingConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// LockWait returns how long reconciliation waits for the per-order lock
func (c TrackingConfig) LockWait() time.Duration {
	return time.Duration(c.LockWaitMillis) * time.Millisecond
}

// LockTTL returns the expiry of a held per-order lock
func (c TrackingConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// SideEffectTimeout bounds each best-effort downstream call
func (c TrackingConfig) SideEffectTimeout() time.Duration {
	return time.Duration(c.SideEffectTimeoutMs) * time.Millisecond
}

// ProcessingTimeout bounds one webhook end to end
func (c TrackingConfig) ProcessingTimeout() time.Duration {
	return time.Duration(c.ProcessingTimeoutMs) * time.Millisecond
}

// NotificationConfig selects and configures the notification dispatcher
type NotificationConfig struct {
	Mode           string `yaml:"mode"` // "http", "ses", "sqs" or "none"
	URL            string `yaml:"url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
	SESRegion      string `yaml:"ses_region"`
	SESAccessKey   string `yaml:"ses_access_key"`
	SESSecretKey   string `yaml:"ses_secret_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
	SQSQueueURL    string `yaml:"sqs_queue_url"`
	SQSRegion      string `yaml:"sqs_region"`
}

// Timeout returns the configured timeout as a duration
func (c NotificationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ArchiveConfig holds the optional raw-payload archive bucket
type ArchiveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`
	Prefix   string `yaml:"prefix"`
}

// LoggingConfig holds log settings
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
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

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 300
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Couriers.ReplayWindowSeconds == 0 {
		cfg.Couriers.ReplayWindowSeconds = 300
	}
	if cfg.Tracking.CacheTTLMinutes == 0 {
		cfg.Tracking.CacheTTLMinutes = 60
	}
	if cfg.Tracking.LockWaitMillis == 0 {
		cfg.Tracking.LockWaitMillis = 2000
	}
	if cfg.Tracking.LockTTLSeconds == 0 {
		cfg.Tracking.LockTTLSeconds = 30
	}
	if cfg.Tracking.SideEffectTimeoutMs == 0 {
		cfg.Tracking.SideEffectTimeoutMs = 3000
	}
	if cfg.Tracking.ProcessingTimeoutMs == 0 {
		cfg.Tracking.ProcessingTimeoutMs = 10000
	}
	if cfg.Notification.Mode == "" {
		cfg.Notification.Mode = "none"
	}
	if cfg.Notification.TimeoutSeconds == 0 {
		cfg.Notification.TimeoutSeconds = 5
	}
	if cfg.Notification.MaxRetries == 0 {
		cfg.Notification.MaxRetries = 2
	}
	if cfg.Notification.SESRegion == "" {
		cfg.Notification.SESRegion = "eu-north-1"
	}
	if cfg.Notification.SQSRegion == "" {
		cfg.Notification.SQSRegion = cfg.Notification.SESRegion
	}
	if cfg.Archive.S3Region == "" {
		cfg.Archive.S3Region = "eu-north-1"
	}
	if cfg.Archive.Prefix == "" {
		cfg.Archive.Prefix = "courier-webhooks/"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		cfg.Database.AutoMigrate, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	// Courier secrets
	if v := os.Getenv("POSTNORD_WEBHOOK_SECRET"); v != "" {
		cfg.Couriers.PostNordSecret = v
	}
	if v := os.Getenv("BRING_WEBHOOK_SECRET"); v != "" {
		cfg.Couriers.BringSecret = v
	}
	if v := os.Getenv("BUDBEE_WEBHOOK_SECRET"); v != "" {
		cfg.Couriers.BudbeeSecret = v
	}
	if v := os.Getenv("DHL_WEBHOOK_CREDENTIAL"); v != "" {
		cfg.Couriers.DHLCredential = v
	}

	// Notification overrides
	if v := os.Getenv("NOTIFICATION_MODE"); v != "" {
		cfg.Notification.Mode = v
	}
	if v := os.Getenv("NOTIFICATION_URL"); v != "" {
		cfg.Notification.URL = v
	}
	if v := os.Getenv("NOTIFICATION_API_KEY"); v != "" {
		cfg.Notification.APIKey = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.Notification.SESAccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.Notification.SESSecretKey = v
	}
	if v := os.Getenv("NOTIFICATION_SQS_QUEUE_URL"); v != "" {
		cfg.Notification.SQSQueueURL = v
	}
	if v := os.Getenv("ARCHIVE_S3_BUCKET"); v != "" {
		cfg.Archive.S3Bucket = v
		cfg.Archive.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}
