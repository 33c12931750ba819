package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LookupFunc returns the value of an environment variable and whether it is set.
type LookupFunc func(key string) (string, bool)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from the process environment.
// It applies defaults for unset values and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads configuration through lookup. Every unset required variable
// and every unparsable value is reported, not only the first.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	if errs := populate(reflect.ValueOf(cfg).Elem(), lookup); len(errs) > 0 {
		return nil, fmt.Errorf("config load: %w", errors.Join(errs...))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// populate fills tagged fields of the struct v, recursing into nested sections.
func populate(v reflect.Value, lookup LookupFunc) []error {
	var errs []error
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			errs = append(errs, populate(fv, lookup)...)
			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}

		raw, ok := firstSet(lookup, name, field.Tag.Get("envAlt"))
		if !ok {
			if field.Tag.Get("required") == "true" {
				errs = append(errs, fmt.Errorf("required environment variable %s is not set", name))
				continue
			}
			raw = field.Tag.Get("default")
		}
		if raw == "" {
			continue
		}

		if err := assign(fv, raw); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %s=%q: %w", name, raw, err))
		}
	}

	return errs
}

// firstSet returns the first non-empty variable among names.
func firstSet(lookup LookupFunc, names ...string) (string, bool) {
	for _, n := range names {
		if n == "" {
			continue
		}
		if v, ok := lookup(n); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// assign parses raw into the field according to its type.
func assign(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", fv.Type().Elem().Kind())
		}
		fv.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field type: %s", fv.Kind())
	}
	return nil
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if c.Database.URL == "" {
		add("DATABASE_URL is required")
	}
	if c.Database.MaxConns <= 0 {
		add("DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		add("DB_MIN_CONNS must be non-negative")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		add("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.Database.MaxConns, c.Database.MinConns)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		add("SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 {
		add("SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		add("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	if c.Upload.MaxFileSize <= 0 {
		add("UPLOAD_MAX_FILE_SIZE must be positive")
	}

	if c.Derive.MaxConcurrent <= 0 {
		add("DERIVE_MAX_CONCURRENT must be positive")
	}
	if c.Derive.MaxConcurrent > c.Database.MaxConns {
		add("DERIVE_MAX_CONCURRENT (%d) must not exceed DB_MAX_CONNS (%d)", c.Derive.MaxConcurrent, c.Database.MaxConns)
	}
	if c.Derive.MaxWaitTime <= 0 {
		add("DERIVE_MAX_WAIT_TIME must be positive")
	}
	if c.Derive.Timeout <= 0 {
		add("DERIVE_TIMEOUT must be positive")
	}
	if c.Derive.FoodGroupID <= 0 {
		add("DERIVE_FOOD_GROUP_ID must be positive")
	}

	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		add("RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.DeriveLimit <= 0 {
		add("RATE_LIMIT_DERIVE must be positive when rate limiting is enabled")
	}

	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		add("REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		add("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs and API keys are masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Server: {Addr: %q}, Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, "+
		"Upload: {MaxFileSize: %d}, Derive: {MaxConcurrent: %d, Timeout: %s, FoodGroupID: %d}, "+
		"Rate: {Enabled: %v, RequestsPerMinute: %d}, Security: {RequireAPIKey: %v, APIKeys: %d}, "+
		"Logging: {Level: %q, Format: %q}}",
		c.Server.Addr(), c.Database.MaxConns, c.Database.MinConns,
		c.Upload.MaxFileSize, c.Derive.MaxConcurrent, c.Derive.Timeout, c.Derive.FoodGroupID,
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Security.RequireAPIKey, len(c.Security.APIKeys),
		c.Logging.Level, c.Logging.Format)
}
