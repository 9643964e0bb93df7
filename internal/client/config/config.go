package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/ideauth/internal/cryptox"
)

// Store backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds runtime settings for the ide account core.
//
// File names are resolved against DataDir unless absolute.
type Config struct {
	DataDir         string
	StoreBackend    string
	UsersFile       string
	SQLiteFile      string
	SessionFile     string
	KeybindingsFile string

	SessionTTL    time.Duration
	RememberMeTTL time.Duration

	// argon2id cost, shared by password hashing and key derivation
	KDFTime    uint32
	KDFMemory  uint32 // KiB
	KDFThreads uint8

	// MaxBackoff caps a single throttle wait; zero means uncapped.
	MaxBackoff time.Duration

	LogLevel  string
	LogFormat string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = "data"
	c.StoreBackend = BackendJSON
	c.UsersFile = "users.json"
	c.SQLiteFile = "users.db"
	c.SessionFile = "session.json"
	c.KeybindingsFile = "keybindings.json"

	c.SessionTTL = 7 * 24 * time.Hour
	c.RememberMeTTL = 90 * 24 * time.Hour

	c.KDFTime = cryptox.DefaultKDFParams.Time
	c.KDFMemory = cryptox.DefaultKDFParams.Memory
	c.KDFThreads = cryptox.DefaultKDFParams.Threads

	c.MaxBackoff = 0

	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the config file (if present), the environment and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// Validate rejects settings the account core cannot run with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir is empty")
	}
	if c.SessionTTL <= 0 || c.RememberMeTTL <= 0 {
		return fmt.Errorf("session durations must be positive")
	}
	if c.KDFTime == 0 || c.KDFMemory == 0 || c.KDFThreads == 0 {
		return fmt.Errorf("kdf parameters must be positive")
	}
	if c.MaxBackoff < 0 {
		return fmt.Errorf("max backoff must not be negative")
	}
	return nil
}

func (c *Config) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

func (c *Config) UsersPath() string       { return c.path(c.UsersFile) }
func (c *Config) SQLitePath() string      { return c.path(c.SQLiteFile) }
func (c *Config) SessionPath() string     { return c.path(c.SessionFile) }
func (c *Config) KeybindingsPath() string { return c.path(c.KeybindingsFile) }

// HashParams returns the argon2id policy for password hashes.
func (c *Config) HashParams() cryptox.Argon2Params {
	p := cryptox.DefaultHashParams
	p.Time, p.Memory, p.Threads = c.KDFTime, c.KDFMemory, c.KDFThreads
	return p
}

// KDFParams returns the argon2id policy for wrapping keys.
func (c *Config) KDFParams() cryptox.Argon2Params {
	p := cryptox.DefaultKDFParams
	p.Time, p.Memory, p.Threads = c.KDFTime, c.KDFMemory, c.KDFThreads
	return p
}
