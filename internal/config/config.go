package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"   validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"       validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache"      validate:"required"`
	Queue     QueueConfig     `mapstructure:"queue"      validate:"required"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Storage   StorageConfig   `mapstructure:"storage"    validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	LogFile         string        `mapstructure:"log_file"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"  validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"               validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gt=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gt=0"`
	ConnectAttempts uint64        `mapstructure:"connect_attempts"  validate:"gt=0"`
}

// AuthConfig contains all authentication and session settings.
type AuthConfig struct {
	AccessTokenSecret  string `mapstructure:"access_token_secret"  validate:"required,min=32"`
	RefreshTokenSecret string `mapstructure:"refresh_token_secret" validate:"required,min=32,nefield=AccessTokenSecret"`

	// AccessTokenLifetime is the exp window of access tokens.
	AccessTokenLifetime time.Duration `mapstructure:"access_token_lifetime" validate:"gt=0"`

	// RefreshTokenLifetime adds an exp claim to refresh tokens when positive.
	// Zero issues refresh tokens without expiry; the refresh store still decides validity.
	RefreshTokenLifetime time.Duration `mapstructure:"refresh_token_lifetime" validate:"gte=0"`

	RotateRefreshTokens bool          `mapstructure:"rotate_refresh_tokens"`
	BlacklistTTL        time.Duration `mapstructure:"blacklist_ttl"       validate:"gt=0"`
	ClockSkew           time.Duration `mapstructure:"clock_skew"          validate:"gte=0"`
	RefreshCookiePath   string        `mapstructure:"refresh_cookie_path" validate:"required,startswith=/"`
	SecureCookies       bool          `mapstructure:"secure_cookies"`
	BcryptCost          int           `mapstructure:"bcrypt_cost"         validate:"gte=4,lte=31"`
}

// CacheConfig selects the blacklist cache backend.
type CacheConfig struct {
	Driver   string `mapstructure:"driver"    validate:"required,oneof=redis memory"`
	RedisURL string `mapstructure:"redis_url" validate:"required_if=Driver redis"`
}

// QueueConfig selects and tunes the mutation job queue.
type QueueConfig struct {
	Driver       string        `mapstructure:"driver"        validate:"required,oneof=postgres rabbitmq"`
	RabbitMQURL  string        `mapstructure:"rabbitmq_url"  validate:"required_if=Driver rabbitmq"`
	Name         string        `mapstructure:"name"          validate:"required"`
	WorkerCount  int           `mapstructure:"worker_count"  validate:"gt=0"`
	BufferSize   int           `mapstructure:"buffer_size"   validate:"gt=0"`
	MaxAttempts  int           `mapstructure:"max_attempts"  validate:"gt=0"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" validate:"gt=0"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	StuckJobAge  time.Duration `mapstructure:"stuck_job_age" validate:"gt=0"`
}

// WorkerConfig holds the processing-time budget applied by mutation workers.
type WorkerConfig struct {
	CreateDelay time.Duration `mapstructure:"create_delay" validate:"gte=0"`
	DeleteDelay time.Duration `mapstructure:"delete_delay" validate:"gte=0"`
}

// StorageConfig selects where task attachments are written.
type StorageConfig struct {
	Driver      string      `mapstructure:"driver"        validate:"required,oneof=local minio"`
	LocalDir    string      `mapstructure:"local_dir"     validate:"required_if=Driver local"`
	MaxFileSize int64       `mapstructure:"max_file_size" validate:"gt=0"`
	MinIO       MinIOConfig `mapstructure:"minio"`
}

// MinIOConfig holds S3-compatible object storage settings.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// RateLimitConfig controls per-client request throttling.
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" validate:"gte=0"`
	ListRequests      int           `mapstructure:"list_requests"       validate:"gte=0"`
	ListWindow        time.Duration `mapstructure:"list_window"         validate:"gte=0"`
}
