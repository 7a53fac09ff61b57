package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dshills/critic/internal/completion"
)

// Config represents the critic configuration. An empty Model selects the
// provider's default model.
type Config struct {
	Provider       string        `json:"provider"`
	Model          string        `json:"model"`
	Format         string        `json:"format"`
	Listen         string        `json:"listen"`
	AllowedOrigins []string      `json:"allowedOrigins,omitempty"`
	MaxCodeBytes   int           `json:"maxCodeBytes"`
	MaxTokens      int           `json:"maxTokens"`
	Temperature    float64       `json:"temperature,omitempty"`
	Retry          RetryConfig   `json:"retry"`
	Cache          CacheConfig   `json:"cache"`
	Privacy        PrivacyConfig `json:"privacy"`
}

// RetryConfig controls the completion retry policy.
type RetryConfig struct {
	Attempts         int `json:"attempts"`
	InitialDelayMs   int `json:"initialDelayMs"`
	AttemptTimeoutMs int `json:"attemptTimeoutMs,omitempty"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `json:"enabled"`
	Dir        string `json:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds"`
}

// PrivacyConfig controls redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool `json:"redactSecrets"`
}

// Formats lists the accepted output formats.
var Formats = []string{"text", "markdown", "json", "html"}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:       "gemini",
		Format:         "text",
		Listen:         ":3000",
		AllowedOrigins: []string{"*"},
		MaxCodeBytes:   200000,
		MaxTokens:      8192,
		Retry: RetryConfig{
			Attempts:       3,
			InitialDelayMs: 500,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
		},
	}
}

// RetryPolicy converts the retry section into a completion policy.
func (c Config) RetryPolicy() completion.Policy {
	return completion.Policy{
		Attempts:       c.Retry.Attempts,
		InitialDelay:   time.Duration(c.Retry.InitialDelayMs) * time.Millisecond,
		AttemptTimeout: time.Duration(c.Retry.AttemptTimeoutMs) * time.Millisecond,
	}
}

// Validate checks values that cannot be fixed up silently.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Provider) == "" {
		errs = append(errs, errors.New("provider must not be empty"))
	}
	if c.Retry.Attempts < 0 {
		errs = append(errs, fmt.Errorf("retry.attempts must be >= 0, got %d", c.Retry.Attempts))
	}
	if c.Retry.InitialDelayMs < 0 {
		errs = append(errs, fmt.Errorf("retry.initialDelayMs must be >= 0, got %d", c.Retry.InitialDelayMs))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be between 0 and 2, got %g", c.Temperature))
	}
	if c.MaxCodeBytes <= 0 {
		errs = append(errs, fmt.Errorf("maxCodeBytes must be > 0, got %d", c.MaxCodeBytes))
	}
	if !validFormat(c.Format) {
		errs = append(errs, fmt.Errorf("unsupported format %q (want one of %s)", c.Format, strings.Join(Formats, ", ")))
	}
	return errors.Join(errs...)
}

func validFormat(f string) bool {
	for _, v := range Formats {
		if f == v {
			return true
		}
	}
	return false
}

// ConfigDir returns the platform-appropriate config directory for critic.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "critic"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "critic"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "critic"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "critic"), nil
	default:
		return filepath.Join(home, ".config", "critic"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// LoadFile loads config from the config file. Returns zero Config and nil error if file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	if reflect.DeepEqual(src, Config{}) {
		return
	}
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.Listen != "" {
		dst.Listen = src.Listen
	}
	if len(src.AllowedOrigins) > 0 {
		dst.AllowedOrigins = src.AllowedOrigins
	}
	if src.MaxCodeBytes > 0 {
		dst.MaxCodeBytes = src.MaxCodeBytes
	}
	if src.MaxTokens > 0 {
		dst.MaxTokens = src.MaxTokens
	}
	if src.Temperature > 0 {
		dst.Temperature = src.Temperature
	}
	if src.Retry.Attempts > 0 {
		dst.Retry.Attempts = src.Retry.Attempts
	}
	if src.Retry.InitialDelayMs > 0 {
		dst.Retry.InitialDelayMs = src.Retry.InitialDelayMs
	}
	if src.Retry.AttemptTimeoutMs > 0 {
		dst.Retry.AttemptTimeoutMs = src.Retry.AttemptTimeoutMs
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
	if src.Cache.TTLSeconds > 0 {
		dst.Cache.TTLSeconds = src.Cache.TTLSeconds
	}
	// JSON cannot tell an unset bool from false, so a non-empty file is
	// trusted for both booleans.
	dst.Cache.Enabled = src.Cache.Enabled
	dst.Privacy.RedactSecrets = src.Privacy.RedactSecrets
}

func mergeEnv(cfg *Config) error {
	if v := os.Getenv("CRITIC_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("CRITIC_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("CRITIC_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Listen = ":" + v
	}
	if v := os.Getenv("CRITIC_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("CRITIC_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = SplitList(v)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"CRITIC_MAX_CODE_BYTES", &cfg.MaxCodeBytes},
		{"CRITIC_MAX_TOKENS", &cfg.MaxTokens},
		{"CRITIC_RETRY_ATTEMPTS", &cfg.Retry.Attempts},
		{"CRITIC_RETRY_INITIAL_DELAY_MS", &cfg.Retry.InitialDelayMs},
		{"CRITIC_RETRY_ATTEMPT_TIMEOUT_MS", &cfg.Retry.AttemptTimeoutMs},
		{"CRITIC_CACHE_TTL_SECONDS", &cfg.Cache.TTLSeconds},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", e.key, err)
		}
		*e.dst = n
	}

	if v := os.Getenv("CRITIC_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CRITIC_TEMPERATURE must be a number: %w", err)
		}
		cfg.Temperature = f
	}
	if v := os.Getenv("CRITIC_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("CRITIC_CACHE_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CRITIC_CACHE_ENABLED must be a boolean: %w", err)
		}
		cfg.Cache.Enabled = b
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, value := range overrides {
		if value == "" {
			continue
		}
		if err := SetField(cfg, key, value); err != nil {
			return err
		}
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "format":
		if !validFormat(value) {
			return fmt.Errorf("unsupported format %q", value)
		}
		cfg.Format = value
	case "listen":
		cfg.Listen = value
	case "allowedOrigins":
		cfg.AllowedOrigins = SplitList(value)
	case "maxCodeBytes":
		return setInt(&cfg.MaxCodeBytes, key, value)
	case "maxTokens":
		return setInt(&cfg.MaxTokens, key, value)
	case "temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("temperature must be a number: %w", err)
		}
		cfg.Temperature = f
	case "retry.attempts":
		return setInt(&cfg.Retry.Attempts, key, value)
	case "retry.initialDelayMs":
		return setInt(&cfg.Retry.InitialDelayMs, key, value)
	case "retry.attemptTimeoutMs":
		return setInt(&cfg.Retry.AttemptTimeoutMs, key, value)
	case "cache.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("cache.enabled must be a boolean: %w", err)
		}
		cfg.Cache.Enabled = b
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttlSeconds":
		return setInt(&cfg.Cache.TTLSeconds, key, value)
	case "privacy.redactSecrets":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("privacy.redactSecrets must be a boolean: %w", err)
		}
		cfg.Privacy.RedactSecrets = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var result []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
