package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
	Profiling ProfilingConfig
	Platform  PlatformConfig
	Ledger    LedgerConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application configuration
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	SlowQueryThresh time.Duration
}

// RedisConfig holds redis configuration. Redis backs transaction
// idempotency keys; when disabled an in-process store is used.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds the settings used to verify tokens issued by the external identity provider
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	// ServiceRole is the role claim granted platform-level access
	ServiceRole string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	// RateLimit is the number of requests allowed per RateLimitWindow per caller; 0 disables limiting
	RateLimit       int
	RateLimitWindow time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	MetricsEnabled    bool
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool // development only
	MetricsInterval   time.Duration
}

// ProfilingConfig holds Pyroscope continuous profiling configuration
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	// SpanProfiles links CPU samples to trace spans; requires telemetry.enabled
	SpanProfiles bool
}

// PlatformConfig holds the organization boundary and delete policy
type PlatformConfig struct {
	// OrganizationID is the reserved organization holding USER entities
	OrganizationID uuid.UUID
	// EntityDeleteMode is "soft" or "hard" for unreferenced entities
	EntityDeleteMode string
	// AllowForceDelete lets force=true soft-delete referenced entities
	AllowForceDelete bool
}

// LedgerConfig holds transaction reconciliation and idempotency settings
type LedgerConfig struct {
	DefaultTolerance decimal.Decimal
	TypeTolerances   map[string]decimal.Decimal
	LinelessTypes    []string
	IdempotencyTTL   time.Duration
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("HERA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("platform.allow_force_delete", true)
	v.SetDefault("ledger.lineless_types", []string{"AUDIT", "WORKFLOW"})

	platformOrg := uuid.Nil
	if raw := v.GetString("platform.organization_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("platform.organization_id: %w", err)
		}
		platformOrg = id
	}

	defaultTolerance := decimal.Zero
	if raw := v.GetString("ledger.default_tolerance"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("ledger.default_tolerance: %w", err)
		}
		defaultTolerance = d
	} else {
		defaultTolerance = decimal.RequireFromString("0.50")
	}

	typeTolerances := make(map[string]decimal.Decimal)
	for txnType, raw := range v.GetStringMapString("ledger.type_tolerances") {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("ledger.type_tolerances.%s: %w", txnType, err)
		}
		typeTolerances[strings.ToUpper(txnType)] = d
	}

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			SlowQueryThresh: v.GetDuration("database.slow_query_threshold"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("jwt.secret"),
			Issuer:      v.GetString("jwt.issuer"),
			Audience:    v.GetString("jwt.audience"),
			ServiceRole: v.GetString("jwt.service_role"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			RateLimit:        v.GetInt("http.rate_limit"),
			RateLimitWindow:  v.GetDuration("http.rate_limit_window"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
		},
		Profiling: ProfilingConfig{
			Enabled:           v.GetBool("profiling.enabled"),
			ServerAddress:     v.GetString("profiling.server_address"),
			ApplicationName:   v.GetString("profiling.application_name"),
			BasicAuthUser:     v.GetString("profiling.basic_auth_user"),
			BasicAuthPassword: v.GetString("profiling.basic_auth_password"),
			SpanProfiles:      v.GetBool("profiling.span_profiles"),
		},
		Platform: PlatformConfig{
			OrganizationID:   platformOrg,
			EntityDeleteMode: strings.ToLower(v.GetString("platform.entity_delete_mode")),
			AllowForceDelete: v.GetBool("platform.allow_force_delete"),
		},
		Ledger: LedgerConfig{
			DefaultTolerance: defaultTolerance,
			TypeTolerances:   typeTolerances,
			LinelessTypes:    v.GetStringSlice("ledger.lineless_types"),
			IdempotencyTTL:   v.GetDuration("ledger.idempotency_ttl"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for empty configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "hera-platform"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "hera"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.SlowQueryThresh == 0 {
		cfg.Database.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Audience == "" {
		cfg.JWT.Audience = "authenticated"
	}
	if cfg.JWT.ServiceRole == "" {
		cfg.JWT.ServiceRole = "service_role"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-Actor-User-ID", "Idempotency-Key"}
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.Profiling.ApplicationName == "" {
		cfg.Profiling.ApplicationName = cfg.App.Name
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "hera-platform"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Platform.EntityDeleteMode == "" {
		cfg.Platform.EntityDeleteMode = "soft"
	}
	if cfg.Ledger.IdempotencyTTL == 0 {
		cfg.Ledger.IdempotencyTTL = 24 * time.Hour
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Platform.EntityDeleteMode != "soft" && c.Platform.EntityDeleteMode != "hard" {
		return fmt.Errorf("platform.entity_delete_mode must be 'soft' or 'hard', got %q", c.Platform.EntityDeleteMode)
	}
	if c.Ledger.DefaultTolerance.IsNegative() {
		return fmt.Errorf("ledger.default_tolerance cannot be negative")
	}
	for txnType, tol := range c.Ledger.TypeTolerances {
		if tol.IsNegative() {
			return fmt.Errorf("ledger.type_tolerances.%s cannot be negative", txnType)
		}
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("http.rate_limit cannot be negative")
	}
	if c.Profiling.Enabled && c.Profiling.ServerAddress == "" {
		return fmt.Errorf("profiling.server_address is required when profiling is enabled")
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
