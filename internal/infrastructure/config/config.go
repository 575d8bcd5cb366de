package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Staging backends
const (
	StagingBackendRedis  = "redis"
	StagingBackendMemory = "memory"
)

// EnvPrefix prefixes every environment override, e.g. FLOWSALES_DATABASE_HOST
const EnvPrefix = "FLOWSALES"

// Config is the complete service configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Swagger   SwaggerConfig   `mapstructure:"swagger"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Profiling ProfilingConfig `mapstructure:"profiling"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Rules     RulesConfig     `mapstructure:"rules"`
	Staging   StagingConfig   `mapstructure:"staging"`
	Narrative NarrativeConfig `mapstructure:"narrative"`
	Printing  PrintingConfig  `mapstructure:"printing"`
	Events    EventsConfig    `mapstructure:"events"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout, stderr or a file path
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Path            string `mapstructure:"path"` // sqlite file, ":memory:" in tests
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type HTTPConfig struct {
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	MaxBodySize       int64         `mapstructure:"max_body_size"`
	MaxUploadSize     int64         `mapstructure:"max_upload_size"`
	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
	CORSAllowOrigins  []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods  []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders  []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies    []string      `mapstructure:"trusted_proxies"`
}

// SwaggerConfig gates the API docs; an empty AllowedIPs admits everyone
type SwaggerConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	AllowedIPs []string `mapstructure:"allowed_ips"`
}

type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"` // OTLP gRPC, host:port
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval"`
	LogsEnabled       bool          `mapstructure:"logs_enabled"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
}

// ProfilingConfig configures the Pyroscope agent. SpanProfiles links CPU
// samples to the active trace span.
type ProfilingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	ServerAddress     string `mapstructure:"server_address"`
	ApplicationName   string `mapstructure:"application_name"`
	BasicAuthUser     string `mapstructure:"basic_auth_user"`
	BasicAuthPassword string `mapstructure:"basic_auth_password"`
	SpanProfiles      bool   `mapstructure:"span_profiles"`
}

// StorageConfig points at the S3-compatible bucket archiving uploaded files
type StorageConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Endpoint          string        `mapstructure:"endpoint"`
	Region            string        `mapstructure:"region"`
	Bucket            string        `mapstructure:"bucket"`
	AccessKey         string        `mapstructure:"access_key"`
	SecretKey         string        `mapstructure:"secret_key"`
	UseSSL            bool          `mapstructure:"use_ssl"`
	UsePathStyle      bool          `mapstructure:"use_path_style"`
	PresignExpiration time.Duration `mapstructure:"presign_expiration"`
	KeyPrefix         string        `mapstructure:"key_prefix"`
}

// RulesConfig locates the verification rules document; empty selects the
// embedded default rule set
type RulesConfig struct {
	Path string `mapstructure:"path"`
}

type StagingConfig struct {
	Backend       string        `mapstructure:"backend"`
	TTL           time.Duration `mapstructure:"ttl"`
	AllowFallback bool          `mapstructure:"allow_fallback"` // memory when Redis is down
}

// NarrativeConfig selects the proposal narrative generator. An empty
// endpoint selects the built-in template.
type NarrativeConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// PrintingConfig drives headless Chrome. An empty RemoteURL launches a
// local browser.
type PrintingConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	RemoteURL string        `mapstructure:"remote_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	NoSandbox bool          `mapstructure:"no_sandbox"`
	// MaxTabs bounds concurrent renders sharing one browser
	MaxTabs int `mapstructure:"max_tabs"`
}

// EventsConfig configures forwarding of domain events to NATS
type EventsConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	URL           string        `mapstructure:"url"`
	SubjectPrefix string        `mapstructure:"subject_prefix"`
	ClientName    string        `mapstructure:"client_name"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

// defaults registers every key with viper so environment overrides reach
// Unmarshal. Keys derived from app.name are filled in after decoding.
var defaults = map[string]any{
	"app.name": "flowsales",
	"app.env":  "development",
	"app.port": "8080",

	"database.driver":             DriverPostgres,
	"database.path":               "",
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "flowsales",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":        15 * time.Second,
	"http.write_timeout":       60 * time.Second, // PDF rendering
	"http.idle_timeout":        60 * time.Second,
	"http.max_header_bytes":    1 << 20,
	"http.max_body_size":       int64(2 << 20),
	"http.max_upload_size":     int64(20 << 20),
	"http.rate_limit_enabled":  false,
	"http.rate_limit_requests": 100,
	"http.rate_limit_window":   time.Minute,
	"http.cors_allow_origins":  []string{},
	"http.cors_allow_methods":  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
	"http.cors_allow_headers":  []string{"Content-Type", "Authorization", "X-Request-ID"},
	"http.trusted_proxies":     []string{},

	"swagger.enabled":     false,
	"swagger.allowed_ips": []string{},

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "",
	"telemetry.insecure":                false,
	"telemetry.metrics_enabled":         false,
	"telemetry.metrics_interval":        time.Minute,
	"telemetry.logs_enabled":            false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,

	"profiling.enabled":             false,
	"profiling.server_address":      "http://localhost:4040",
	"profiling.application_name":    "",
	"profiling.basic_auth_user":     "",
	"profiling.basic_auth_password": "",
	"profiling.span_profiles":       false,

	"storage.enabled":            false,
	"storage.endpoint":           "",
	"storage.region":             "us-east-1",
	"storage.bucket":             "",
	"storage.access_key":         "",
	"storage.secret_key":         "",
	"storage.use_ssl":            false,
	"storage.use_path_style":     false,
	"storage.presign_expiration": 15 * time.Minute,
	"storage.key_prefix":         "uploads/",

	"rules.path": "",

	"staging.backend":        StagingBackendRedis,
	"staging.ttl":            24 * time.Hour,
	"staging.allow_fallback": false,

	"narrative.endpoint": "",
	"narrative.api_key":  "",
	"narrative.model":    "",
	"narrative.timeout":  10 * time.Second,

	"printing.enabled":    false,
	"printing.remote_url": "",
	"printing.timeout":    30 * time.Second,
	"printing.no_sandbox": false,
	"printing.max_tabs":   4,

	"events.enabled":        false,
	"events.url":            "nats://localhost:4222",
	"events.subject_prefix": "flowsales",
	"events.client_name":    "",
	"events.max_reconnects": 60,
	"events.reconnect_wait": 2 * time.Second,
}

// Load reads config.toml from the working directory or /app, then applies
// FLOWSALES_ environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper decodes an already prepared viper instance, layering
// defaults below and environment variables above its values
func LoadFromViper(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.derive()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// derive fills settings that default to another setting
func (c *Config) derive() {
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		c.Database.Path = "flowsales.db"
	}
	for _, name := range []*string{&c.Telemetry.ServiceName, &c.Profiling.ApplicationName, &c.Events.ClientName} {
		if *name == "" {
			*name = c.App.Name
		}
	}
}

// DSN returns the postgres connection URL with credentials escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
