// Package config loads service configuration through viper: defaults, an
// optional YAML file, then WORKBRIDGE_* environment variables, highest last.
// The field-encryption key is externally managed and only ever passes through
// here; it is never generated or persisted by this service.
package config

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/spf13/viper"

	dErrors "workbridge/pkg/domain-errors"
)

type Config struct {
	Addr      string `mapstructure:"addr"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Classifier ClassifierConfig `mapstructure:"classifier"`

	// EncryptionKeyHex is the hex-encoded 32-byte key material supplied by the
	// external key manager. Required whenever Postgres persistence is enabled.
	EncryptionKeyHex string `mapstructure:"encryption_key"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type KafkaConfig struct {
	Brokers    []string      `mapstructure:"brokers"`
	AuditTopic string        `mapstructure:"audit_topic"`
	Interval   time.Duration `mapstructure:"publish_interval"`
}

type ClassifierConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Load reads configuration from the optional file at path plus environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("kafka.audit_topic", "workbridge.audit")
	v.SetDefault("kafka.publish_interval", 2*time.Second)
	v.SetDefault("classifier.model", "gemini-2.5-flash")
	v.SetDefault("classifier.timeout", 3*time.Second)
	v.SetDefault("classifier.cache_ttl", 24*time.Hour)

	v.SetEnvPrefix("WORKBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "unmarshal config")
	}
	return &cfg, nil
}

// EncryptionKey decodes and validates the externally supplied key material.
func (c *Config) EncryptionKey() ([]byte, error) {
	if c.EncryptionKeyHex == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "encryption key is not configured")
	}
	key, err := hex.DecodeString(c.EncryptionKeyHex)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "encryption key is not valid hex")
	}
	if len(key) != 32 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "encryption key must be 32 bytes")
	}
	return key, nil
}
