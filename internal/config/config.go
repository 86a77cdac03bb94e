// Package config handles configuration loading from CLI flags, environment
// variables, and TOML files.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration settings for the folio server.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Content ContentConfig `toml:"content"`
	Auth    AuthConfig    `toml:"auth"`
	Rules   RulesConfig   `toml:"rules"`
	Session SessionConfig `toml:"session"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	Dir  string `toml:"-"` // Custom site directory (CLI only, not in config file)
}

// StorageConfig holds storage-related settings.
type StorageConfig struct {
	Type string `toml:"type"` // "memory", "sqlite", "postgresql"
	Path string `toml:"path"` // SQLite file path
	URL  string `toml:"url"`  // PostgreSQL connection URL
}

// ContentConfig holds content ingestion and gallery settings.
type ContentConfig struct {
	Dir         string `toml:"dir"`          // content.json + stories/ directory
	EagerWindow int    `toml:"eager_window"` // eagerly-rendered grid prefix
	HotReload   bool   `toml:"hot_reload"`   // watch the content dir for changes
}

// AuthConfig holds the editor's shared-secret gate.
type AuthConfig struct {
	Secret string `toml:"secret"`
}

// RulesConfig holds validation hook settings.
type RulesConfig struct {
	Path string `toml:"path"` // validate.lua location ("" disables rules)
}

// SessionConfig holds session-related settings.
type SessionConfig struct {
	Timeout Duration `toml:"timeout"` // Session expiration (0 = never)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level     string `toml:"level"`     // "debug", "info", "warn", "error"
	Verbosity int    `toml:"verbosity"` // 0=none, 1=connections, 2=commits, 3=messages
}

// verbosityCounter implements flag.Value for counting -v flags.
type verbosityCounter int

func (v *verbosityCounter) String() string {
	return fmt.Sprintf("%d", *v)
}

func (v *verbosityCounter) Set(string) error {
	*v++
	return nil
}

func (v *verbosityCounter) IsBoolFlag() bool {
	return true
}

// expandVerbosityFlags preprocesses args to expand -vvv into -v -v -v.
// This allows both "-v -v -v" and "-vvv" styles to work.
func expandVerbosityFlags(args []string) []string {
	result := make([]string, 0, len(args))
	for _, arg := range args {
		if len(arg) > 2 && arg[0] == '-' && arg[1] != '-' && arg[1] == 'v' {
			allV := true
			for _, c := range arg[1:] {
				if c != 'v' {
					allV = false
					break
				}
			}
			if allV {
				for range arg[1:] {
					result = append(result, "-v")
				}
				continue
			}
		}
		result = append(result, arg)
	}
	return result
}

// Duration is a time.Duration that can be unmarshaled from TOML strings.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// DefaultConfig returns a Config with all default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Type: "memory",
			Path: "folio.db",
		},
		Content: ContentConfig{
			Dir:         "content/",
			EagerWindow: 12,
			HotReload:   true,
		},
		Session: SessionConfig{
			Timeout: Duration(24 * time.Hour),
		},
		Logging: LoggingConfig{
			Level:     "info",
			Verbosity: 0,
		},
	}
}

// Load loads configuration from CLI flags, environment variables, and TOML file.
// Priority: CLI flags > env vars > TOML file > defaults
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()

	args = expandVerbosityFlags(args)

	fs := flag.NewFlagSet("folio", flag.ContinueOnError)
	dir := fs.String("dir", "", "Serve static site from directory")

	// Server flags
	host := fs.String("host", "", "Listen address")
	port := fs.Int("port", 0, "Listen port")

	// Storage flags
	storage := fs.String("storage", "", "Storage type: memory, sqlite, postgresql")
	storagePath := fs.String("storage-path", "", "SQLite database path")
	storageURL := fs.String("storage-url", "", "PostgreSQL connection URL")

	// Content flags
	contentDir := fs.String("content", "", "Content directory (content.json + stories/)")
	eagerWindow := fs.Int("eager-window", 0, "Eagerly-rendered grid prefix size")
	hotReload := fs.Bool("hot-reload", true, "Watch the content directory for changes")

	// Auth flags
	secret := fs.String("secret", "", "Editor shared secret (empty disables editing)")

	// Rules flags
	rulesPath := fs.String("rules", "", "Validation rules script (validate.lua)")

	// Session flags
	sessionTimeout := fs.Duration("session-timeout", 0, "Session expiration (0=never)")

	// Logging flags
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	var verbosity verbosityCounter
	fs.Var(&verbosity, "v", "Verbosity level (use -v, -vv, or -vvv)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load TOML config if exists (from the content directory)
	configPath := "config/folio.toml"
	if *dir != "" {
		configPath = *dir + "/config/folio.toml"
	}
	if err := cfg.loadTOML(configPath); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	// Apply environment variables
	cfg.applyEnv()

	// Apply CLI flags (highest priority)
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *storage != "" {
		cfg.Storage.Type = *storage
	}
	if *storagePath != "" {
		cfg.Storage.Path = *storagePath
	}
	if *storageURL != "" {
		cfg.Storage.URL = *storageURL
	}
	if *contentDir != "" {
		cfg.Content.Dir = *contentDir
	}
	if *eagerWindow != 0 {
		cfg.Content.EagerWindow = *eagerWindow
	}
	if fs.Lookup("hot-reload").Value.String() != "true" {
		cfg.Content.HotReload = *hotReload
	}
	if *secret != "" {
		cfg.Auth.Secret = *secret
	}
	if *rulesPath != "" {
		cfg.Rules.Path = *rulesPath
	}
	if *sessionTimeout != 0 {
		cfg.Session.Timeout = Duration(*sessionTimeout)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if verbosity > 0 {
		cfg.Logging.Verbosity = int(verbosity)
	}

	// Store dir in config (not from TOML, only CLI)
	cfg.Server.Dir = *dir

	return cfg, nil
}

// loadTOML loads configuration from a TOML file.
func (c *Config) loadTOML(path string) error {
	_, err := toml.DecodeFile(path, c)
	return err
}

// applyEnv applies environment variable overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("FOLIO_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("FOLIO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("FOLIO_STORAGE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("FOLIO_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("FOLIO_STORAGE_URL"); v != "" {
		c.Storage.URL = v
	}
	if v := os.Getenv("FOLIO_CONTENT_DIR"); v != "" {
		c.Content.Dir = v
	}
	if v := os.Getenv("FOLIO_EAGER_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Content.EagerWindow = n
		}
	}
	if v := os.Getenv("FOLIO_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("FOLIO_RULES"); v != "" {
		c.Rules.Path = v
	}
	if v := os.Getenv("FOLIO_SESSION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Session.Timeout = Duration(d)
		}
	}
	if v := os.Getenv("FOLIO_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FOLIO_VERBOSITY"); v != "" {
		if verbosity, err := strconv.Atoi(v); err == nil {
			c.Logging.Verbosity = verbosity
		}
	}
}

// Verbosity returns the configured verbosity level (0-3).
func (c *Config) Verbosity() int {
	return c.Logging.Verbosity
}

// Log writes a verbosity-gated log message.
func (c *Config) Log(level int, format string, args ...interface{}) {
	if c.Logging.Verbosity >= level {
		log.Printf("[v%d] "+format, append([]interface{}{level}, args...)...)
	}
}
