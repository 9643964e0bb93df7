package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/ideauth/internal/timex"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "IDE_"

// dotEnvFile is loaded into the environment when present. Variables already
// set in the process environment win.
var dotEnvFile = ".env"

// parseEnv overlays Config with IDE_* environment variables. Panics on
// malformed values.
func parseEnv(cfg *Config) {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Errorf("load %s: %w", dotEnvFile, err))
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		panic(err)
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		d, err := timex.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
		return nil
	}
	unsigned := func(name string, bits int) (uint64, bool, error) {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return 0, false, nil
		}
		n, err := strconv.ParseUint(v, 10, bits)
		if err != nil {
			return 0, false, fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		return n, true, nil
	}

	str("DATA_DIR", &cfg.DataDir)
	str("STORE_BACKEND", &cfg.StoreBackend)
	str("USERS_FILE", &cfg.UsersFile)
	str("SQLITE_FILE", &cfg.SQLiteFile)
	str("SESSION_FILE", &cfg.SessionFile)
	str("KEYBINDINGS_FILE", &cfg.KeybindingsFile)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)

	for name, dst := range map[string]*time.Duration{
		"SESSION_TTL":     &cfg.SessionTTL,
		"REMEMBER_ME_TTL": &cfg.RememberMeTTL,
		"MAX_BACKOFF":     &cfg.MaxBackoff,
	} {
		if err := dur(name, dst); err != nil {
			return err
		}
	}

	if n, ok, err := unsigned("KDF_TIME", 32); err != nil {
		return err
	} else if ok {
		cfg.KDFTime = uint32(n)
	}
	if n, ok, err := unsigned("KDF_MEMORY", 32); err != nil {
		return err
	} else if ok {
		cfg.KDFMemory = uint32(n)
	}
	if n, ok, err := unsigned("KDF_THREADS", 8); err != nil {
		return err
	} else if ok {
		cfg.KDFThreads = uint8(n)
	}

	return nil
}
