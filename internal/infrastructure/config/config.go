// Package config loads service configuration from config.toml and
// MARKETHUB_-prefixed environment variables, with built-in defaults.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root of all service configuration.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Billing   BillingConfig
	Provider  ProviderConfig
	Scheduler SchedulerConfig
	Telemetry TelemetryConfig
}

// AppConfig identifies the service instance.
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds Postgres connection and pool settings.
// Lifetime values are minutes.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig controls zap: level (debug/info/warn/error), format
// (json/console) and output (stdout, stderr, or a file path).
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// HTTPConfig holds server timeouts, body limits, CORS and rate limiting.
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// BillingConfig holds commission invoicing settings.
type BillingConfig struct {
	TaxPercent float64 // VAT applied to commission invoices
}

// ProviderConfig holds payment provider settings for refund calls.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Sandbox bool // use the in-process sandbox instead of the real provider
}

// SchedulerConfig holds period-close scheduler settings.
type SchedulerConfig struct {
	Enabled           bool
	PeriodCloseCron   string // when to generate settlements for the elapsed period
	MaxConcurrentJobs int
	JobTimeout        time.Duration
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string  // OTLP gRPC endpoint, e.g. "localhost:4317"
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool // non-TLS connection, development only
}

// Load reads config.toml (searched in ., ./backend, /app), overlays
// MARKETHUB_ environment variables on top, fills defaults for anything
// still unset and validates the result. A missing config file is fine;
// defaults plus env vars are a complete configuration.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, dir := range []string{".", "./backend", "/app"} {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	v.SetEnvPrefix("MARKETHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App:       loadApp(v),
		Database:  loadDatabase(v),
		Redis:     loadRedis(v),
		Log:       loadLog(v),
		HTTP:      loadHTTP(v),
		Billing:   loadBilling(v),
		Provider:  loadProvider(v),
		Scheduler: loadScheduler(v),
		Telemetry: loadTelemetry(v),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// The *Or helpers treat zero values as "not configured". That keeps an
// explicit `MARKETHUB_DATABASE_MAX_OPEN_CONNS=0` from disabling the pool:
// zero falls back to the default instead.

func strOr(v *viper.Viper, key, def string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return def
}

func intOr(v *viper.Viper, key string, def int) int {
	if n := v.GetInt(key); n != 0 {
		return n
	}
	return def
}

func int64Or(v *viper.Viper, key string, def int64) int64 {
	if n := v.GetInt64(key); n != 0 {
		return n
	}
	return def
}

func durOr(v *viper.Viper, key string, def time.Duration) time.Duration {
	if d := v.GetDuration(key); d != 0 {
		return d
	}
	return def
}

func floatOr(v *viper.Viper, key string, def float64) float64 {
	if f := v.GetFloat64(key); f != 0 {
		return f
	}
	return def
}

func sliceOr(v *viper.Viper, key string, def []string) []string {
	if s := v.GetStringSlice(key); len(s) > 0 {
		return s
	}
	return def
}

func loadApp(v *viper.Viper) AppConfig {
	return AppConfig{
		Name: strOr(v, "app.name", "markethub-backend"),
		Env:  strOr(v, "app.env", "development"),
		Port: strOr(v, "app.port", "8080"),
	}
}

func loadDatabase(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{
		Host:            strOr(v, "database.host", "localhost"),
		Port:            intOr(v, "database.port", 5432),
		User:            strOr(v, "database.user", "postgres"),
		Password:        v.GetString("database.password"),
		DBName:          strOr(v, "database.dbname", "markethub"),
		SSLMode:         strOr(v, "database.sslmode", "disable"),
		MaxOpenConns:    intOr(v, "database.max_open_conns", 25),
		MaxIdleConns:    intOr(v, "database.max_idle_conns", 5),
		ConnMaxLifetime: intOr(v, "database.conn_max_lifetime", 60),
		ConnMaxIdleTime: intOr(v, "database.conn_max_idle_time", 30),
	}
}

func loadRedis(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Host:     strOr(v, "redis.host", "localhost"),
		Port:     intOr(v, "redis.port", 6379),
		Password: v.GetString("redis.password"),
		DB:       v.GetInt("redis.db"),
	}
}

func loadLog(v *viper.Viper) LogConfig {
	return LogConfig{
		Level:  strOr(v, "log.level", "info"),
		Format: strOr(v, "log.format", "console"),
		Output: strOr(v, "log.output", "stdout"),
	}
}

func loadHTTP(v *viper.Viper) HTTPConfig {
	return HTTPConfig{
		ReadTimeout:    durOr(v, "http.read_timeout", 15*time.Second),
		WriteTimeout:   durOr(v, "http.write_timeout", 15*time.Second),
		IdleTimeout:    durOr(v, "http.idle_timeout", 60*time.Second),
		MaxHeaderBytes: intOr(v, "http.max_header_bytes", 1<<20),
		MaxBodySize:    int64Or(v, "http.max_body_size", 10<<20),
		// No default origins: cross-origin access stays closed until
		// configured explicitly.
		CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		CORSAllowMethods: sliceOr(v, "http.cors_allow_methods",
			[]string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}),
		CORSAllowHeaders: sliceOr(v, "http.cors_allow_headers",
			[]string{"Content-Type", "Authorization", "X-Request-ID"}),
		TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
		RateLimitRequests: intOr(v, "http.rate_limit_requests", 100),
		RateLimitWindow:   durOr(v, "http.rate_limit_window", time.Minute),
	}
}

func loadBilling(v *viper.Viper) BillingConfig {
	return BillingConfig{
		TaxPercent: floatOr(v, "billing.tax_percent", 19),
	}
}

func loadProvider(v *viper.Viper) ProviderConfig {
	return ProviderConfig{
		BaseURL: strOr(v, "provider.base_url", "http://localhost:9090"),
		APIKey:  v.GetString("provider.api_key"),
		Timeout: durOr(v, "provider.timeout", 10*time.Second),
		Sandbox: v.GetBool("provider.sandbox"),
	}
}

func loadScheduler(v *viper.Viper) SchedulerConfig {
	return SchedulerConfig{
		Enabled: v.GetBool("scheduler.enabled"),
		// 03:00 on the 1st of each month
		PeriodCloseCron:   strOr(v, "scheduler.period_close_cron", "0 3 1 * *"),
		MaxConcurrentJobs: intOr(v, "scheduler.max_concurrent_jobs", 3),
		JobTimeout:        durOr(v, "scheduler.job_timeout", 30*time.Minute),
	}
}

func loadTelemetry(v *viper.Viper) TelemetryConfig {
	return TelemetryConfig{
		Enabled:           v.GetBool("telemetry.enabled"),
		CollectorEndpoint: strOr(v, "telemetry.collector_endpoint", "localhost:4317"),
		SamplingRatio:     floatOr(v, "telemetry.sampling_ratio", 1.0),
		ServiceName:       strOr(v, "telemetry.service_name", "markethub-backend"),
		Insecure:          v.GetBool("telemetry.insecure"),
	}
}

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
	if c.Billing.TaxPercent < 0 || c.Billing.TaxPercent > 100 {
		return fmt.Errorf("billing.tax_percent must be between 0 and 100, got %f", c.Billing.TaxPercent)
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.App.Env == "production" {
		return c.validateProduction()
	}
	return nil
}

// validateProduction rejects configurations that are acceptable in
// development but unsafe with real money flowing through the service.
func (c *Config) validateProduction() error {
	if c.Database.Password == "" {
		return fmt.Errorf("database.password is required in production")
	}
	if c.Database.SSLMode == "disable" {
		return fmt.Errorf("database.sslmode cannot be 'disable' in production")
	}
	if c.Provider.Sandbox {
		return fmt.Errorf("provider.sandbox must be false in production")
	}
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required in production")
	}
	for _, origin := range c.HTTP.CORSAllowOrigins {
		if origin == "*" {
			return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
		}
	}
	return nil
}

// DSN returns the postgres:// connection URL with credentials escaped.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
