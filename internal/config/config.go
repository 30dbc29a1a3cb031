// Package config reads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

// Configuration validation errors.
var (
	ErrInvalidPort          = errors.New("PORT must be a number between 1 and 65535")
	ErrMissingDBPath        = errors.New("DB_PATH is required")
	ErrInvalidLogLevel      = errors.New("LOG_LEVEL must be one of: debug, info, warn, error")
	ErrInvalidTimeout       = errors.New("UPSTREAM_TIMEOUT must be a positive duration")
	ErrInvalidCacheSize     = errors.New("NORMALIZE_CACHE_SIZE must be non-negative")
	ErrInvalidSupabaseURL   = errors.New("SUPABASE_URL must be an absolute http(s) URL")
	ErrServiceRoleKeyRole   = errors.New("SUPABASE_SERVICE_ROLE_KEY is not a service_role key")
	ErrUnsupportedLanguage  = errors.New("DEFAULT_LANGUAGE must be pt or en")
	errInvalidDurationValue = errors.New("invalid duration")
)

const (
	DefaultPort         = "8080"
	DefaultRPCName      = "obter_historico_e_previsao_vacinacao"
	defaultTimeout      = 30 * time.Second
	defaultCacheSize    = 1024
	serviceRoleClaimKey = "role"
	serviceRoleName     = "service_role"
)

type Config struct {
	Port               string
	DBPath             string
	MappingsPath       string
	LogLevel           string
	DefaultLanguage    string
	NormalizeCacheSize int
	Supabase           SupabaseConfig
	Postgres           PostgresConfig
}

// SupabaseConfig addresses the PostgREST endpoint exposing the forecast RPC.
type SupabaseConfig struct {
	URL            string
	ServiceRoleKey string
	RPCName        string
	Timeout        time.Duration
}

// Configured reports whether both the URL and the service role key are set.
func (c SupabaseConfig) Configured() bool {
	return strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.ServiceRoleKey) != ""
}

// PostgresConfig points at the database behind the RPC for direct calls.
type PostgresConfig struct {
	DSN string
}

func (c PostgresConfig) Configured() bool {
	return strings.TrimSpace(c.DSN) != ""
}

// LoadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads .env and the environment and validates the result.
func Load() (Config, error) {
	if err := LoadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	cfg, err := FromEnv()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables and defaults.
func FromEnv() (Config, error) {
	timeout, err := parseDuration(getEnv("UPSTREAM_TIMEOUT", ""), defaultTimeout)
	if err != nil {
		return Config{}, fmt.Errorf("UPSTREAM_TIMEOUT: %w", err)
	}

	cacheSize := defaultCacheSize
	if raw := strings.TrimSpace(os.Getenv("NORMALIZE_CACHE_SIZE")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("NORMALIZE_CACHE_SIZE: %w", err)
		}
		cacheSize = parsed
	}

	return Config{
		Port:               getEnv("PORT", DefaultPort),
		DBPath:             getEnv("DB_PATH", "data/vacprev.db"),
		MappingsPath:       getEnv("MAPPINGS_PATH", "data/mappings.json"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		DefaultLanguage:    strings.ToLower(getEnv("DEFAULT_LANGUAGE", "pt")),
		NormalizeCacheSize: cacheSize,
		Supabase: SupabaseConfig{
			URL:            strings.TrimSpace(os.Getenv("SUPABASE_URL")),
			ServiceRoleKey: strings.TrimSpace(os.Getenv("SUPABASE_SERVICE_ROLE_KEY")),
			RPCName:        getEnv("SUPABASE_RPC_NAME", DefaultRPCName),
			Timeout:        timeout,
		},
		Postgres: PostgresConfig{DSN: postgresDSNFromEnv()},
	}, nil
}

// Validate checks the configuration. Supabase settings are optional here;
// the forecast endpoint reports them as missing at request time.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return ErrInvalidPort
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return ErrMissingDBPath
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	switch c.DefaultLanguage {
	case "pt", "en":
	default:
		return ErrUnsupportedLanguage
	}

	if c.Supabase.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.NormalizeCacheSize < 0 {
		return ErrInvalidCacheSize
	}

	if c.Supabase.URL != "" {
		parsed, err := url.Parse(c.Supabase.URL)
		if err != nil || !parsed.IsAbs() || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("%w: %q", ErrInvalidSupabaseURL, c.Supabase.URL)
		}
	}
	if c.Supabase.ServiceRoleKey != "" {
		if err := InspectServiceRoleKey(c.Supabase.ServiceRoleKey); err != nil {
			return err
		}
	}
	return nil
}

// InspectServiceRoleKey rejects JWT keys whose role claim names another
// role, such as the public anon key. Keys that are not JWTs are accepted.
// The signature is not verified.
func InspectServiceRoleKey(key string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(key), claims); err != nil {
		return nil
	}

	role, ok := claims[serviceRoleClaimKey].(string)
	if !ok || role == "" || role == serviceRoleName {
		return nil
	}
	return fmt.Errorf("%w: role %q", ErrServiceRoleKeyRole, role)
}

// postgresDSNFromEnv prefers DATABASE_URL and otherwise assembles a URL from
// the discrete user/password/host/port/dbname variables.
func postgresDSNFromEnv() string {
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		return dsn
	}

	host := strings.TrimSpace(os.Getenv("host"))
	if host == "" {
		return ""
	}
	if port := strings.TrimSpace(os.Getenv("port")); port != "" {
		host = net.JoinHostPort(host, port)
	}

	dsn := url.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   "/" + strings.TrimSpace(os.Getenv("dbname")),
	}
	if user := os.Getenv("user"); user != "" {
		if password := os.Getenv("password"); password != "" {
			dsn.User = url.UserPassword(user, password)
		} else {
			dsn.User = url.User(user)
		}
	}
	return dsn.String()
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(seconds * float64(time.Second)), nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w %q", errInvalidDurationValue, raw)
	}
	return parsed, nil
}

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
