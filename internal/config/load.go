package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads,
// e.g. NOTES_AUTH_ACCESS_TOKEN_SECRET for auth.access_token_secret.
const EnvPrefix = "NOTES"

// Load reads configuration from defaults, an optional config file and the
// environment, in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	return LoadWith(viper.New(), configFile)
}

// LoadWith is Load over a caller-supplied viper instance. Command-line flags
// bound to v take precedence over everything else.
func LoadWith(v *viper.Viper, configFile string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags plus the rules that span several fields.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.Storage.Driver == "minio" {
		m := c.Storage.MinIO
		if m.Endpoint == "" || m.AccessKey == "" || m.SecretKey == "" || m.Bucket == "" {
			return errors.New("config validation failed: storage.minio endpoint, access_key, secret_key and bucket are required")
		}
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute == 0 {
		return errors.New("config validation failed: rate_limit.requests_per_minute must be positive when enabled")
	}

	return nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_file", "")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.connect_attempts", 5)

	v.SetDefault("auth.access_token_secret", "")
	v.SetDefault("auth.refresh_token_secret", "")
	v.SetDefault("auth.access_token_lifetime", 15*time.Minute)
	v.SetDefault("auth.refresh_token_lifetime", 0)
	v.SetDefault("auth.rotate_refresh_tokens", false)
	v.SetDefault("auth.blacklist_ttl", 600*time.Second)
	v.SetDefault("auth.clock_skew", 30*time.Second)
	v.SetDefault("auth.refresh_cookie_path", "/auth/refresh")
	v.SetDefault("auth.secure_cookies", false)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("cache.driver", "redis")
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")

	v.SetDefault("queue.driver", "postgres")
	v.SetDefault("queue.rabbitmq_url", "")
	v.SetDefault("queue.name", "mutations")
	v.SetDefault("queue.worker_count", 2)
	v.SetDefault("queue.buffer_size", 100)
	v.SetDefault("queue.max_attempts", 5)
	v.SetDefault("queue.retry_backoff", 2*time.Second)
	v.SetDefault("queue.poll_interval", time.Second)
	v.SetDefault("queue.stuck_job_age", 10*time.Minute)

	v.SetDefault("worker.create_delay", 10*time.Second)
	v.SetDefault("worker.delete_delay", 15*time.Second)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_dir", "uploads")
	v.SetDefault("storage.max_file_size", 5<<20)
	v.SetDefault("storage.minio.endpoint", "")
	v.SetDefault("storage.minio.access_key", "")
	v.SetDefault("storage.minio.secret_key", "")
	v.SetDefault("storage.minio.bucket", "")
	v.SetDefault("storage.minio.use_ssl", false)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 10)
	v.SetDefault("rate_limit.list_requests", 5)
	v.SetDefault("rate_limit.list_window", 30*time.Second)
}
