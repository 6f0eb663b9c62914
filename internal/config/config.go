// Package config loads runtime configuration for augnotes from a TOML
// file with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL          = "http://127.0.0.1:7433"
	DefaultLogLevel        = "info"
	DefaultSessionTTLHours = 24

	DefaultMaxUploadBytes     int64 = 200 * 1024 * 1024
	DefaultMultipartMaxMemory int64 = 8 * 1024 * 1024

	configFileName  = ".augnotes.toml"
	configDirEnvKey = "AUGNOTES_CONFIG_DIR"
	adminEnvKey     = "AUGNOTES_ADMIN_EMAILS"
	dbPathEnvKey    = "AUGNOTES_DB_PATH"
	blobRootEnvKey  = "AUGNOTES_BLOB_ROOT"
)

// UploadConfig bounds multipart song uploads.
type UploadConfig struct {
	MaxUploadBytes     int64 `toml:"max_upload_bytes"`
	MultipartMaxMemory int64 `toml:"multipart_max_memory"`
}

// Config defines runtime configuration for augnotes.
type Config struct {
	APIURL          string       `toml:"api_url"`
	DBPath          string       `toml:"db_path"`
	BlobRoot        string       `toml:"blob_root"`
	LogLevel        string       `toml:"log_level"`
	AdminEmails     []string     `toml:"admin_emails"`
	SessionTTLHours int          `toml:"session_ttl_hours"`
	Uploads         UploadConfig `toml:"uploads"`

	// Path is the config file the values were loaded from, empty when
	// running on defaults.
	Path string `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:          DefaultAPIURL,
		LogLevel:        DefaultLogLevel,
		SessionTTLHours: DefaultSessionTTLHours,
		Uploads: UploadConfig{
			MaxUploadBytes:     DefaultMaxUploadBytes,
			MultipartMaxMemory: DefaultMultipartMaxMemory,
		},
	}
}

// Load resolves configuration from defaults, the config file, and the
// environment, in increasing precedence.
func Load() (*Config, error) {
	cfg := Default()

	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	if path != "" {
		loaded, err := loadFileIfExists(path, &cfg)
		if err != nil {
			return nil, err
		}
		if loaded {
			cfg.Path = path
		}
	}

	applyEnvOverrides(&cfg)
	applyDerivedDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsAdminEmail reports whether email is in the configured allow-list.
// Matching is case-insensitive; an empty allow-list admits nobody.
func (c *Config) IsAdminEmail(email string) bool {
	if c == nil {
		return false
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, allowed := range c.AdminEmails {
		if strings.ToLower(strings.TrimSpace(allowed)) == email {
			return true
		}
	}
	return false
}

// SortedAdminEmails returns the allow-list normalized for display.
func (c *Config) SortedAdminEmails() []string {
	emails := make([]string, 0, len(c.AdminEmails))
	for _, raw := range c.AdminEmails {
		email := strings.ToLower(strings.TrimSpace(raw))
		if email != "" {
			emails = append(emails, email)
		}
	}
	sort.Strings(emails)
	return emails
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("api_url is required")
	}
	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("session_ttl_hours must be positive")
	}
	if c.Uploads.MaxUploadBytes <= 0 {
		return fmt.Errorf("uploads.max_upload_bytes must be positive")
	}
	if c.Uploads.MultipartMaxMemory <= 0 {
		return fmt.Errorf("uploads.multipart_max_memory must be positive")
	}
	return nil
}

func resolveConfigPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnvKey)); dir != "" {
		return filepath.Join(dir, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// No home directory is fine; run on defaults.
		return "", nil
	}
	return filepath.Join(home, configFileName), nil
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func applyEnvOverrides(cfg *Config) {
	if raw := strings.TrimSpace(os.Getenv(adminEnvKey)); raw != "" {
		emails := []string{}
		for _, part := range strings.Split(raw, ",") {
			if email := strings.TrimSpace(part); email != "" {
				emails = append(emails, email)
			}
		}
		cfg.AdminEmails = emails
	}
	if raw := strings.TrimSpace(os.Getenv(dbPathEnvKey)); raw != "" {
		cfg.DBPath = raw
	}
	if raw := strings.TrimSpace(os.Getenv(blobRootEnvKey)); raw != "" {
		cfg.BlobRoot = raw
	}
}

func applyDerivedDefaults(cfg *Config) {
	if cfg.DBPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DBPath = filepath.Join(home, ".augnotes", "augnotes.db")
		}
	}
	if cfg.BlobRoot == "" && cfg.DBPath != "" {
		cfg.BlobRoot = filepath.Join(filepath.Dir(cfg.DBPath), "blobs")
	}
}

// Render returns the effective configuration as TOML.
func (c *Config) Render() (string, error) {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return "", err
	}
	return b.String(), nil
}
