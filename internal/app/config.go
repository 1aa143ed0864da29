package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/vonage/pkg/auth"
	"github.com/aussiebroadwan/vonage/pkg/httpclient"
)

// Config is everything the CLI needs to build a client. Values are layered:
// defaults, then the YAML file, then .env, then the process environment.
type Config struct {
	APIKey          string `yaml:"api_key"`
	APISecret       string `yaml:"api_secret"`
	ApplicationID   string `yaml:"application_id"`
	PrivateKeyPath  string `yaml:"private_key_path"`
	SignatureSecret string `yaml:"signature_secret"`
	SignatureMethod string `yaml:"signature_method"`

	APIHost     string `yaml:"api_host"`
	RestHost    string `yaml:"rest_host"`
	NetworkHost string `yaml:"network_host"`
	OIDCHost    string `yaml:"oidc_host"`
	VideoHost   string `yaml:"video_host"`

	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`

	Env       string `yaml:"env"`        // dev, staging, prod (default: prod)
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error (default: warn)
	LogFormat string `yaml:"log_format"` // json, text (default: text)
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	o := httpclient.DefaultOptions()
	return Config{
		APIHost:     o.APIHost,
		RestHost:    o.RestHost,
		NetworkHost: o.NetworkHost,
		OIDCHost:    o.OIDCHost,
		VideoHost:   o.VideoHost,
		Timeout:     30 * time.Second,
		MaxRetries:  o.MaxRetries,
		Env:         "prod",
		LogLevel:    "warn",
		LogFormat:   "text",
	}
}

// DefaultConfigPath is $XDG_CONFIG_HOME/vonage/config.yaml, falling back to
// ~/.config. It is empty when no home directory can be found.
func DefaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "vonage", "config.yaml")
}

// LoadOptions controls where LoadConfig looks.
type LoadOptions struct {
	// ConfigFile is read when set and must exist. When empty the default
	// path is tried and silently skipped if missing.
	ConfigFile string
	// EnvFile is loaded into the environment when present. Variables that
	// are already set win. Defaults to ".env".
	EnvFile string
}

// LoadConfig resolves the layered configuration.
func LoadConfig(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	path, required := opts.ConfigFile, true
	if path == "" {
		path, required = DefaultConfigPath(), false
	}
	if path != "" {
		if err := loadFile(&cfg, path, required); err != nil {
			return Config{}, err
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func loadFile(cfg *Config, path string, required bool) error {
	f, err := os.Open(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.APIKey = getEnvOrDefault("VONAGE_API_KEY", cfg.APIKey)
	cfg.APISecret = getEnvOrDefault("VONAGE_API_SECRET", cfg.APISecret)
	cfg.ApplicationID = getEnvOrDefault("VONAGE_APPLICATION_ID", cfg.ApplicationID)
	cfg.PrivateKeyPath = getEnvOrDefault("VONAGE_PRIVATE_KEY_PATH", cfg.PrivateKeyPath)
	cfg.SignatureSecret = getEnvOrDefault("VONAGE_SIGNATURE_SECRET", cfg.SignatureSecret)
	cfg.SignatureMethod = getEnvOrDefault("VONAGE_SIGNATURE_METHOD", cfg.SignatureMethod)

	cfg.APIHost = getEnvOrDefault("VONAGE_API_HOST", cfg.APIHost)
	cfg.RestHost = getEnvOrDefault("VONAGE_REST_HOST", cfg.RestHost)
	cfg.NetworkHost = getEnvOrDefault("VONAGE_NETWORK_HOST", cfg.NetworkHost)
	cfg.OIDCHost = getEnvOrDefault("VONAGE_OIDC_HOST", cfg.OIDCHost)
	cfg.VideoHost = getEnvOrDefault("VONAGE_VIDEO_HOST", cfg.VideoHost)

	cfg.Timeout = getEnvDurationOrDefault("VONAGE_TIMEOUT", cfg.Timeout)
	cfg.MaxRetries = getEnvIntOrDefault("VONAGE_MAX_RETRIES", cfg.MaxRetries)

	cfg.Env = getEnvOrDefault("VONAGE_ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("VONAGE_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("VONAGE_LOG_FORMAT", cfg.LogFormat)
}

// Credentials converts the credential fields.
func (c Config) Credentials() auth.Credentials {
	return auth.Credentials{
		APIKey:          c.APIKey,
		APISecret:       c.APISecret,
		ApplicationID:   c.ApplicationID,
		PrivateKeyPath:  c.PrivateKeyPath,
		SignatureSecret: c.SignatureSecret,
		SignatureMethod: c.SignatureMethod,
	}
}

// Options converts the transport fields on top of httpclient.DefaultOptions.
func (c Config) Options() httpclient.Options {
	o := httpclient.DefaultOptions()
	o.APIHost = c.APIHost
	o.RestHost = c.RestHost
	o.NetworkHost = c.NetworkHost
	o.OIDCHost = c.OIDCHost
	o.VideoHost = c.VideoHost
	o.Timeout = c.Timeout
	o.MaxRetries = c.MaxRetries
	return o
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// "30s", "2m"
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
