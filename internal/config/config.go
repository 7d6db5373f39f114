// Package config resolves server settings from defaults, an optional config
// file and the environment, in that order of precedence (lowest first).
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Database holds connection settings for either backend.
type Database struct {
	Driver   string `toml:"driver" yaml:"driver"`
	Host     string `toml:"host" yaml:"host"`
	Port     string `toml:"port" yaml:"port"`
	Name     string `toml:"name" yaml:"name"`
	Username string `toml:"username" yaml:"username"`
	Password string `toml:"password" yaml:"password"`
	Schema   string `toml:"schema" yaml:"schema"`
	// SQLitePath is a file path or ":memory:".
	SQLitePath string `toml:"sqlite_path" yaml:"sqlite_path"`
	// LogLevel is one of silent, error, warn, info.
	LogLevel string `toml:"log_level" yaml:"log_level"`
}

// Config is the resolved server configuration.
type Config struct {
	Port         int           `toml:"port" yaml:"port"`
	SecretKey    string        `toml:"secret_key" yaml:"secret_key"`
	SessionTTL   time.Duration `toml:"-" yaml:"-"`
	CookieSecure bool          `toml:"cookie_secure" yaml:"cookie_secure"`
	CORSOrigins  []string      `toml:"cors_origins" yaml:"cors_origins"`
	Database     Database      `toml:"database" yaml:"database"`

	// SessionTTLRaw carries the file value until it is parsed into SessionTTL.
	SessionTTLRaw string `toml:"session_ttl" yaml:"session_ttl"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		Port:        8080,
		SessionTTL:  72 * time.Hour,
		CORSOrigins: []string{"https://*", "http://*"},
		Database: Database{
			Driver:     DriverSQLite,
			Port:       "5432",
			SQLitePath: "todos.db",
			LogLevel:   "warn",
		},
	}
}

// Load builds the configuration. The file named by TODO_CONFIG is read
// first when set; environment variables (including those from .env) win.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("TODO_CONFIG"); path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.SecretKey == "" {
		key, err := randomKey()
		if err != nil {
			return nil, fmt.Errorf("generating secret key: %w", err)
		}
		log.Println("Warning: SECRET_KEY not set, using a random key; sessions will not survive a restart")
		cfg.SecretKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes a TOML or YAML file over cfg. The format is chosen by
// extension.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	if cfg.SessionTTLRaw != "" {
		ttl, err := time.ParseDuration(cfg.SessionTTLRaw)
		if err != nil {
			return fmt.Errorf("session_ttl: %w", err)
		}
		cfg.SessionTTL = ttl
	}
	return nil
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.SecretKey = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TTL %q: %w", v, err)
		}
		cfg.SessionTTL = ttl
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid COOKIE_SECURE %q: %w", v, err)
		}
		cfg.CookieSecure = secure
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	db := &cfg.Database
	setString(&db.Driver, "DB_DRIVER")
	setString(&db.Host, "BLUEPRINT_DB_HOST")
	setString(&db.Port, "BLUEPRINT_DB_PORT")
	setString(&db.Name, "BLUEPRINT_DB_DATABASE")
	setString(&db.Username, "BLUEPRINT_DB_USERNAME")
	setString(&db.Password, "BLUEPRINT_DB_PASSWORD")
	setString(&db.Schema, "BLUEPRINT_DB_SCHEMA")
	setString(&db.SQLitePath, "SQLITE_PATH")
	setString(&db.LogLevel, "DB_LOG_LEVEL")
	return nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("postgres driver needs BLUEPRINT_DB_HOST and BLUEPRINT_DB_DATABASE")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite driver needs SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Database.LogLevel {
	case "silent", "error", "warn", "info":
	default:
		return fmt.Errorf("unknown database log level %q", c.Database.LogLevel)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func randomKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
