package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DevRCTSalt is the development default for SARAL_RCT_SALT. Production
// refuses to start with it because arms would be predictable.
const DevRCTSalt = "dev_salt_change_me"

// Environments.
const (
	EnvLocal      = "local"
	EnvTest       = "test"
	EnvProduction = "production"
)

// Config is the full process configuration.
type Config struct {
	Server     Server
	Experiment Experiment
	Scheme     Scheme
	Model      Model
	Limits     Limits
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Provenance Provenance
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	AdminToken  string
}

// Experiment holds the RCT assignment secret.
type Experiment struct {
	Salt string
}

// Scheme points at an optional scheme YAML file; empty uses the embedded default.
type Scheme struct {
	ConfigPath string
}

// Model locates the classifier artifacts.
type Model struct {
	Path       string
	Version    string
	IntentPath string
}

// Limits bounds submission velocity and PII retention.
type Limits struct {
	MaxAttempts   int
	AttemptWindow time.Duration
	PIIRetention  time.Duration
}

// DatabaseConfig configures postgres. Empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures redis. Empty URL selects the in-memory limiter.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit topic sink. No brokers disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Provenance is stamped on every case.
type Provenance struct {
	AppVersion     string
	RulesetVersion string
	SchemaVersion  string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	cfg := Config{
		Server: Server{
			Addr:        getEnv("SARAL_ADDR", ":8080"),
			Environment: getEnv("SARAL_ENV", EnvLocal),
			AdminToken:  os.Getenv("SARAL_ADMIN_TOKEN"),
		},
		Experiment: Experiment{
			Salt: getEnv("SARAL_RCT_SALT", DevRCTSalt),
		},
		Scheme: Scheme{
			ConfigPath: os.Getenv("SARAL_SCHEME_CONFIG"),
		},
		Model: Model{
			Path:       getEnv("SARAL_MODEL_PATH", "models/risk_model.json"),
			Version:    getEnv("SARAL_MODEL_VERSION", "v1"),
			IntentPath: getEnv("SARAL_INTENT_MODEL_PATH", "models/intent_model.json"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("SARAL_AUDIT_TOPIC", "saral.audit"),
		},
		Provenance: Provenance{
			AppVersion:     getEnv("SARAL_APP_VERSION", "0.1.0"),
			RulesetVersion: os.Getenv("SARAL_RULESET_VERSION"),
			SchemaVersion:  getEnv("SARAL_SCHEMA_VERSION", "v1"),
		},
	}

	var err error
	if cfg.Limits.MaxAttempts, err = getInt("SARAL_MAX_ATTEMPTS", 3); err != nil {
		return Config{}, err
	}
	if cfg.Limits.AttemptWindow, err = getDuration("SARAL_ATTEMPT_WINDOW", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Limits.PIIRetention, err = getDuration("SARAL_PII_RETENTION", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.Redis.PoolSize, err = getInt("REDIS_POOL_SIZE", cfg.Redis.PoolSize); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that would compromise the experiment.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Experiment.Salt) == "" {
		return errors.New("SARAL_RCT_SALT must not be empty")
	}
	if c.IsProduction() && c.Experiment.Salt == DevRCTSalt {
		return errors.New("SARAL_RCT_SALT must be set in production")
	}
	if c.Limits.MaxAttempts <= 0 {
		return errors.New("SARAL_MAX_ATTEMPTS must be positive")
	}
	if c.Limits.AttemptWindow <= 0 || c.Limits.PIIRetention <= 0 {
		return errors.New("SARAL_ATTEMPT_WINDOW and SARAL_PII_RETENTION must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
