package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
)

func (c *Config) validate() error {
	var errs []error
	check := func(failed bool, format string, args ...any) {
		if failed {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	db := c.Database
	check(db.Driver != DriverPostgres && db.Driver != DriverSQLite,
		"database.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, db.Driver)
	check(db.MaxOpenConns <= 0, "database.max_open_conns must be positive")
	check(db.MaxIdleConns < 0, "database.max_idle_conns cannot be negative")
	check(db.MaxIdleConns > db.MaxOpenConns,
		"database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)

	check(c.Staging.Backend != StagingBackendRedis && c.Staging.Backend != StagingBackendMemory,
		"staging.backend must be %q or %q, got %q", StagingBackendRedis, StagingBackendMemory, c.Staging.Backend)
	check(c.Staging.TTL < 0, "staging.ttl cannot be negative")
	check(c.Storage.Enabled && c.Storage.Bucket == "", "storage.bucket is required when storage is enabled")
	check(c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1,
		"telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)

	if c.Narrative.Endpoint != "" {
		if _, err := url.ParseRequestURI(c.Narrative.Endpoint); err != nil {
			errs = append(errs, fmt.Errorf("narrative.endpoint is not a valid URL: %w", err))
		}
	}

	if c.App.Env == "production" {
		errs = append(errs, c.validateProduction()...)
	}
	return errors.Join(errs...)
}

// validateProduction rejects settings that are only acceptable on a
// developer machine
func (c *Config) validateProduction() []error {
	var errs []error
	if c.Database.Driver == DriverPostgres {
		if c.Database.Password == "" {
			errs = append(errs, errors.New("database.password is required in production"))
		}
		if c.Database.SSLMode == "disable" {
			errs = append(errs, errors.New("database.sslmode cannot be 'disable' in production"))
		}
	}
	if c.Staging.Backend == StagingBackendRedis && c.Staging.AllowFallback {
		errs = append(errs, errors.New("staging.allow_fallback must be false in production: staged plans would not survive restarts"))
	}
	if slices.Contains(c.HTTP.CORSAllowOrigins, "*") {
		errs = append(errs, errors.New("http.cors_allow_origins cannot be '*' in production"))
	}
	if c.Swagger.Enabled && len(c.Swagger.AllowedIPs) == 0 {
		errs = append(errs, errors.New("swagger endpoint must be disabled or IP restricted in production"))
	}
	if c.Telemetry.DBLogFullSQL {
		errs = append(errs, errors.New("telemetry.db_log_full_sql must be false in production"))
	}
	return errs
}
