// Package config provides application configuration management with support for
// command-line flags, environment variables, .env files, and a TOML config file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Store  StoreConfig
	Server ServerConfig
	Auth   AuthConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StoreConfig holds document store configuration.
type StoreConfig struct {
	Path     string // Badger directory
	InMemory bool   // Keep everything in memory (data is lost on exit)
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string        // Server port (default: 8080)
	PublicURL      string        // Root used for self and next links (default: http://localhost:{port})
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins    []string      // Allowed CORS origins (default: none)
	RateLimitRPS   float64       // Requests per second per client IP; 0 disables (default: 20)
	RateLimitBurst int           // Burst per client IP (default: 40)
}

// AuthConfig holds identity issuer configuration.
type AuthConfig struct {
	Domain       string   // Issuer tenant domain, e.g. tenant.us.auth0.com
	IssuerURL    string   // Expected "iss" (default: https://{domain}/)
	JWKSURL      string   // Key set location (default: https://{domain}/.well-known/jwks.json)
	ClientID     string   // Expected "aud" and OAuth client ID
	ClientSecret string   // OAuth client secret, needed only for /login
	CallbackURL  string   // OAuth redirect (default: {public}/callback)
	Algorithms   []string // Allow-listed signing algorithms (default: RS256)
	KeyPath      string   // Directory holding the login state key (default: store path)
	StateTTL     time.Duration
}

// fileConfig mirrors the TOML file. Values are strings so they slot into the
// same precedence chain as flags and environment variables.
type fileConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	Store    struct {
		Path     string `toml:"path"`
		InMemory string `toml:"in_memory"`
	} `toml:"store"`
	Server struct {
		Port           string `toml:"port"`
		PublicURL      string `toml:"public_url"`
		ReadTimeout    string `toml:"read_timeout"`
		WriteTimeout   string `toml:"write_timeout"`
		IdleTimeout    string `toml:"idle_timeout"`
		CORSOrigins    string `toml:"cors_origins"`
		RateLimitRPS   string `toml:"rate_limit_rps"`
		RateLimitBurst string `toml:"rate_limit_burst"`
	} `toml:"server"`
	Auth struct {
		Domain       string `toml:"domain"`
		IssuerURL    string `toml:"issuer_url"`
		JWKSURL      string `toml:"jwks_url"`
		ClientID     string `toml:"client_id"`
		ClientSecret string `toml:"client_secret"`
		CallbackURL  string `toml:"callback_url"`
		Algorithms   string `toml:"algorithms"`
		KeyPath      string `toml:"key_path"`
		StateTTL     string `toml:"state_ttl"`
	} `toml:"auth"`
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. TOML config file.
// 5. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("readinglists", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	storePath := fs.String("store-path", "", "Directory for the document store")
	inMemory := fs.String("in-memory", "", "Keep the store in memory (default: false)")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	publicURL := fs.String("public-url", "", "Public root URL used in links")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma separated allowed CORS origins")
	rateRPS := fs.String("rate-limit-rps", "", "Requests per second per client (default: 20)")
	rateBurst := fs.String("rate-limit-burst", "", "Burst per client (default: 40)")

	authDomain := fs.String("auth-domain", "", "Identity issuer domain")
	issuerURL := fs.String("auth-issuer", "", "Expected token issuer URL")
	jwksURL := fs.String("auth-jwks-url", "", "Issuer key set URL")
	clientID := fs.String("auth-client-id", "", "OAuth client ID")
	clientSecret := fs.String("auth-client-secret", "", "OAuth client secret")
	callbackURL := fs.String("auth-callback-url", "", "OAuth callback URL")
	algorithms := fs.String("auth-algorithms", "", "Comma separated signing algorithms (default: RS256)")
	keyPath := fs.String("auth-key-path", "", "Directory for the login state key")

	envFile := fs.String("env-file", ".env", "Path to .env file")
	configFile := fs.String("config", "", "Path to TOML config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Missing .env is fine; godotenv never overrides variables already set.
	_ = godotenv.Load(*envFile)

	var file fileConfig
	if path := getConfigValue(*configFile, "CONFIG_FILE", ""); path != "" {
		if _, err := toml.DecodeFile(path, &file); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	var errs []error
	duration := func(flagValue, envKey, fileValue, def string) time.Duration {
		s := getConfigValue(flagValue, envKey, orDefault(fileValue, def))
		d, err := time.ParseDuration(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: %w", envKey, s, err))
		}
		return d
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", orDefault(file.Env, "development")),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", orDefault(file.LogLevel, "info")),
		},
		Store: StoreConfig{
			Path:     getConfigValue(*storePath, "STORE_PATH", file.Store.Path),
			InMemory: getBoolConfigValue(*inMemory, "STORE_IN_MEMORY", orDefault(file.Store.InMemory, "false")),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", orDefault(file.Server.Port, "8080")),
			PublicURL:      getConfigValue(*publicURL, "PUBLIC_URL", file.Server.PublicURL),
			ReadTimeout:    duration(*readTimeout, "SERVER_READ_TIMEOUT", file.Server.ReadTimeout, "15s"),
			WriteTimeout:   duration(*writeTimeout, "SERVER_WRITE_TIMEOUT", file.Server.WriteTimeout, "15s"),
			IdleTimeout:    duration(*idleTimeout, "SERVER_IDLE_TIMEOUT", file.Server.IdleTimeout, "60s"),
			CORSOrigins:    splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", file.Server.CORSOrigins)),
			RateLimitRPS:   getFloatConfigValue(*rateRPS, "RATE_LIMIT_RPS", orDefault(file.Server.RateLimitRPS, "20")),
			RateLimitBurst: getIntConfigValue(*rateBurst, "RATE_LIMIT_BURST", orDefault(file.Server.RateLimitBurst, "40")),
		},
		Auth: AuthConfig{
			Domain:       getConfigValue(*authDomain, "AUTH_DOMAIN", file.Auth.Domain),
			IssuerURL:    getConfigValue(*issuerURL, "AUTH_ISSUER", file.Auth.IssuerURL),
			JWKSURL:      getConfigValue(*jwksURL, "AUTH_JWKS_URL", file.Auth.JWKSURL),
			ClientID:     getConfigValue(*clientID, "AUTH_CLIENT_ID", file.Auth.ClientID),
			ClientSecret: getConfigValue(*clientSecret, "AUTH_CLIENT_SECRET", file.Auth.ClientSecret),
			CallbackURL:  getConfigValue(*callbackURL, "AUTH_CALLBACK_URL", file.Auth.CallbackURL),
			Algorithms:   splitList(getConfigValue(*algorithms, "AUTH_ALGORITHMS", orDefault(file.Auth.Algorithms, "RS256"))),
			KeyPath:      getConfigValue(*keyPath, "AUTH_KEY_PATH", file.Auth.KeyPath),
			StateTTL:     duration("", "AUTH_STATE_TTL", file.Auth.StateTTL, "10m"),
		},
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if err := cfg.applyDerivedDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyDerivedDefaults fills values that depend on other settings.
func (c *Config) applyDerivedDefaults() error {
	if !c.Store.InMemory {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path, err := expandPath(c.Store.Path, filepath.Join(homeDir, "ReadingLists", "data"))
		if err != nil {
			return fmt.Errorf("invalid store path: %w", err)
		}
		c.Store.Path = path
	}

	keyPath, err := expandPath(c.Auth.KeyPath, c.Store.Path)
	if err != nil {
		return fmt.Errorf("invalid key path: %w", err)
	}
	c.Auth.KeyPath = keyPath

	if c.Server.PublicURL == "" {
		c.Server.PublicURL = "http://localhost:" + c.Server.Port
	}
	c.Server.PublicURL = strings.TrimRight(c.Server.PublicURL, "/")

	if c.Auth.Domain != "" {
		if c.Auth.IssuerURL == "" {
			c.Auth.IssuerURL = "https://" + c.Auth.Domain + "/"
		}
		if c.Auth.JWKSURL == "" {
			c.Auth.JWKSURL = "https://" + c.Auth.Domain + "/.well-known/jwks.json"
		}
	}
	if c.Auth.CallbackURL == "" {
		c.Auth.CallbackURL = c.Server.PublicURL + "/callback"
	}
	return nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if !c.Store.InMemory && c.Store.Path == "" {
		return errors.New("store path cannot be empty")
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}

	if _, err := url.ParseRequestURI(c.Server.PublicURL); err != nil {
		return fmt.Errorf("invalid public URL %q: %w", c.Server.PublicURL, err)
	}

	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		return errors.New("rate limit values cannot be negative")
	}

	if c.Auth.IssuerURL == "" || c.Auth.JWKSURL == "" {
		return errors.New("AUTH_DOMAIN (or both AUTH_ISSUER and AUTH_JWKS_URL) is required")
	}
	if c.Auth.ClientID == "" {
		return errors.New("AUTH_CLIENT_ID is required")
	}
	for _, alg := range c.Auth.Algorithms {
		if strings.HasPrefix(strings.ToUpper(alg), "HS") {
			return fmt.Errorf("symmetric algorithm %s cannot be verified with a public key set", alg)
		}
	}

	return nil
}

// LoginEnabled reports whether the OAuth login endpoints can run.
func (c *Config) LoginEnabled() bool {
	return c.Auth.Domain != "" && c.Auth.ClientSecret != ""
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, uses defaultPath as is.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return absPath, nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
// The default may itself come from the config file.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1", "yes" (case-insensitive) as true.
func getBoolConfigValue(flagValue, envKey, defaultValue string) bool {
	s := strings.ToLower(getConfigValue(flagValue, envKey, defaultValue))
	return s == "true" || s == "1" || s == "yes"
}

// getIntConfigValue returns an int, falling back to the default on parse errors.
func getIntConfigValue(flagValue, envKey, defaultValue string) int {
	if n, err := strconv.Atoi(getConfigValue(flagValue, envKey, defaultValue)); err == nil {
		return n
	}
	n, _ := strconv.Atoi(defaultValue)
	return n
}

// getFloatConfigValue returns a float, falling back to the default on parse errors.
func getFloatConfigValue(flagValue, envKey, defaultValue string) float64 {
	if f, err := strconv.ParseFloat(getConfigValue(flagValue, envKey, defaultValue), 64); err == nil {
		return f
	}
	f, _ := strconv.ParseFloat(defaultValue, 64)
	return f
}

func orDefault(value, def string) string {
	if value != "" {
		return value
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
