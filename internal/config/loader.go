package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LookupFunc resolves one variable. os.LookupEnv is the usual source.
type LookupFunc func(key string) (string, bool)

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom fills a Config from lookup, applying the default tag of unset
// fields, then validates it. Every unparsable variable is reported, not
// only the first.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}
	if err := fill(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// fill walks the nested section structs. Fields without an env tag are left
// alone.
func fill(v reflect.Value, lookup LookupFunc) error {
	var errs []error
	t := v.Type()
	for i := range t.NumField() {
		field, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if field.Type.Kind() == reflect.Struct {
			errs = append(errs, fill(fv, lookup))
			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}
		value, ok := lookupNonEmpty(lookup, name)
		if !ok {
			if alt := field.Tag.Get("envAlt"); alt != "" {
				value, ok = lookupNonEmpty(lookup, alt)
			}
		}
		if !ok {
			if field.Tag.Get("required") == "true" {
				errs = append(errs, fmt.Errorf("required environment variable %s is not set", name))
				continue
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}
		if err := set(fv, value); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %s=%q: %w", name, value, err))
		}
	}
	return errors.Join(errs...)
}

func lookupNonEmpty(lookup LookupFunc, key string) (string, bool) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func set(fv reflect.Value, value string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(value)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", fv.Type().Elem())
		}
		fv.Set(reflect.ValueOf(splitList(value)))
	default:
		return fmt.Errorf("unsupported field type %s", fv.Type())
	}
	return nil
}

// splitList splits a comma-separated list, dropping blank entries.
func splitList(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports every setting out of range, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Database.URL != "", "DATABASE_URL is required")
	check(c.Database.MaxConns > 0, "DB_MAX_CONNS must be positive")
	check(c.Database.MinConns >= 0, "DB_MIN_CONNS must be non-negative")
	check(c.Database.MaxConns >= c.Database.MinConns,
		"DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.Database.MaxConns, c.Database.MinConns)

	check(c.Server.Port > 0 && c.Server.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	check(c.Server.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	check(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")

	check(strings.TrimSpace(c.Grid.SpecFile) != "", "GRID_SPEC_FILE must not be empty")
	check(c.Grid.DeleteConcurrency > 0, "GRID_DELETE_CONCURRENCY must be positive")
	check(c.Grid.MaxConcurrentBatches > 0, "GRID_MAX_CONCURRENT_BATCHES must be positive")
	check(c.Grid.BatchWaitTime > 0, "GRID_BATCH_WAIT_TIME must be positive")
	check(c.Grid.OptionsTimeout > 0, "GRID_OPTIONS_TIMEOUT must be positive")
	check(c.Grid.RowLimit > 0, "GRID_ROW_LIMIT must be positive")

	if c.Rate.Enabled {
		check(c.Rate.RequestsPerMinute > 0, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
		check(c.Rate.DeleteLimit > 0, "RATE_LIMIT_DELETE must be positive when rate limiting is enabled")
	}

	check(!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0, "API_KEYS is required when REQUIRE_API_KEY is true")

	var level slog.Level
	check(level.UnmarshalText([]byte(c.Logging.Level)) == nil,
		"LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	format := strings.ToLower(c.Logging.Format)
	check(format == "text" || format == "json", "LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)

	return errors.Join(errs...)
}

// LogValue renders the config for structured logs with the database URL
// and API keys masked.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Group("server",
			slog.String("addr", c.Server.Addr()),
			slog.Duration("request_timeout", c.Server.RequestTimeout)),
		slog.Group("database",
			slog.String("url", "[MASKED]"),
			slog.Int("max_conns", c.Database.MaxConns),
			slog.Int("min_conns", c.Database.MinConns)),
		slog.Group("grid",
			slog.String("spec_file", c.Grid.SpecFile),
			slog.Int("delete_concurrency", c.Grid.DeleteConcurrency),
			slog.Int("max_concurrent_batches", c.Grid.MaxConcurrentBatches),
			slog.Int("row_limit", c.Grid.RowLimit)),
		slog.Group("rate",
			slog.Bool("enabled", c.Rate.Enabled),
			slog.Int("requests_per_minute", c.Rate.RequestsPerMinute),
			slog.Int("delete_limit", c.Rate.DeleteLimit)),
		slog.Group("security",
			slog.Bool("require_api_key", c.Security.RequireAPIKey),
			slog.Int("api_keys", len(c.Security.APIKeys)),
			slog.Any("trusted_proxies", c.Security.TrustedProxies)),
		slog.Group("logging",
			slog.String("level", c.Logging.Level),
			slog.String("format", c.Logging.Format)),
	)
}

// String is the masked LogValue in text form.
func (c *Config) String() string {
	return c.LogValue().String()
}
