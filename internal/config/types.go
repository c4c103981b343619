package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Portal       PortalConfig       `yaml:"portal"`
	Logging      LoggingConfig      `yaml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Tracing      TracingConfig      `yaml:"tracing"`
	ConfigSource ConfigSourceConfig `yaml:"config"`
}

// PortalConfig represents the academia portal configuration
type PortalConfig struct {
	Address         string                 `yaml:"address"`
	ReadTimeout     time.Duration          `yaml:"read_timeout"`
	WriteTimeout    time.Duration          `yaml:"write_timeout"`
	ShutdownTimeout time.Duration          `yaml:"shutdown_timeout"`
	JWT             PortalJWTConfig        `yaml:"jwt"`
	Repository      PortalRepositoryConfig `yaml:"repository"`
	Throttle        PortalThrottleConfig   `yaml:"throttle"`
	Errors          PortalErrorsConfig     `yaml:"errors"`
	CORS            PortalCORSConfig       `yaml:"cors"`
}

// PortalJWTConfig represents JWT configuration for portal sessions
type PortalJWTConfig struct {
	Secret    string        `yaml:"secret"`
	Algorithm string        `yaml:"algorithm"`
	ExpiresIn time.Duration `yaml:"expires_in"`
	Issuer    string        `yaml:"issuer"`
}

// PortalRepositoryConfig selects and configures the persistence adapter
type PortalRepositoryConfig struct {
	Type     string               `yaml:"type"` // "memory", "postgres" or "bolt"
	Postgres PortalPostgresConfig `yaml:"postgres"`
	Bolt     PortalBoltConfig     `yaml:"bolt"`
}

// PortalPostgresConfig represents PostgreSQL repository configuration
type PortalPostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MigrationPath   string        `yaml:"migration_path"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

// PortalBoltConfig represents embedded bbolt repository configuration
type PortalBoltConfig struct {
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

// PortalThrottleConfig limits failed login attempts per identifier
type PortalThrottleConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Storage     string        `yaml:"storage"` // "memory" or "redis"
	MaxAttempts int           `yaml:"max_attempts"`
	Window      time.Duration `yaml:"window"`
	Redis       RedisConfig   `yaml:"redis"`
}

// RedisConfig represents Redis connection settings
type RedisConfig struct {
	Address   string        `yaml:"address"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	Timeout   time.Duration `yaml:"timeout"`
}

// PortalErrorsConfig controls how failures are rendered
type PortalErrorsConfig struct {
	// LegacyStatus answers every handled failure with 400 Bad Request.
	LegacyStatus bool `yaml:"legacy_status"`
}

// PortalCORSConfig represents CORS configuration for portal
type PortalCORSConfig struct {
	Enabled          bool     `yaml:"enabled"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Driver       string `yaml:"driver"`
	Level        string `yaml:"level"`
	Development  bool   `yaml:"development"`
	EnableCaller bool   `yaml:"enable_caller"`
	TimeFormat   string `yaml:"time_format"`
	AccessLog    bool   `yaml:"access_log"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
}

// TracingConfig represents tracing configuration
type TracingConfig struct {
	Enabled bool         `yaml:"enabled"`
	Jaeger  JaegerConfig `yaml:"jaeger"`
}

// JaegerConfig represents Jaeger configuration
type JaegerConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// ConfigSourceConfig represents where the configuration document is read from
type ConfigSourceConfig struct {
	Source SourceConfig `yaml:"source"`
}

// SourceConfig represents the configuration source driver settings
type SourceConfig struct {
	Driver string           `yaml:"driver"` // "file" or "etcd"
	Etcd   EtcdSourceConfig `yaml:"etcd"`
}

// EtcdSourceConfig represents etcd-based configuration source settings
type EtcdSourceConfig struct {
	Endpoints []string      `yaml:"endpoints"`
	Key       string        `yaml:"key"`
	Timeout   time.Duration `yaml:"timeout"`
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
}
