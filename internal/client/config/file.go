package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/ideauth/internal/flagx"
	"github.com/dmitrijs2005/ideauth/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for config file unmarshalling.
// Pointer fields distinguish "absent" from a zero value, so a file only
// overrides what it names.
type FileConfig struct {
	DataDir         *string `json:"data_dir" yaml:"data_dir"`
	StoreBackend    *string `json:"store_backend" yaml:"store_backend"`
	UsersFile       *string `json:"users_file" yaml:"users_file"`
	SQLiteFile      *string `json:"sqlite_file" yaml:"sqlite_file"`
	SessionFile     *string `json:"session_file" yaml:"session_file"`
	KeybindingsFile *string `json:"keybindings_file" yaml:"keybindings_file"`

	SessionTTL    *timex.Duration `json:"session_ttl" yaml:"session_ttl"`
	RememberMeTTL *timex.Duration `json:"remember_me_ttl" yaml:"remember_me_ttl"`
	MaxBackoff    *timex.Duration `json:"max_backoff" yaml:"max_backoff"`

	KDF *struct {
		Time    *uint32 `json:"time" yaml:"time"`
		Memory  *uint32 `json:"memory" yaml:"memory"`
		Threads *uint8  `json:"threads" yaml:"threads"`
	} `json:"kdf" yaml:"kdf"`

	Log *struct {
		Level  *string `json:"level" yaml:"level"`
		Format *string `json:"format" yaml:"format"`
	} `json:"log" yaml:"log"`
}

// parseFile overlays Config with values loaded from the file named by -c or
// -config. The format follows the extension: .yaml/.yml, otherwise JSON.
// Panics on read or unmarshal errors.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag(os.Args[1:])
	if path == "" {
		return
	}

	fc, err := readFile(path)
	if err != nil {
		panic(err)
	}
	fc.apply(cfg)
}

func readFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &fc, nil
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.StoreBackend, fc.StoreBackend)
	setString(&cfg.UsersFile, fc.UsersFile)
	setString(&cfg.SQLiteFile, fc.SQLiteFile)
	setString(&cfg.SessionFile, fc.SessionFile)
	setString(&cfg.KeybindingsFile, fc.KeybindingsFile)

	if fc.SessionTTL != nil {
		cfg.SessionTTL = fc.SessionTTL.Duration
	}
	if fc.RememberMeTTL != nil {
		cfg.RememberMeTTL = fc.RememberMeTTL.Duration
	}
	if fc.MaxBackoff != nil {
		cfg.MaxBackoff = fc.MaxBackoff.Duration
	}

	if fc.KDF != nil {
		if fc.KDF.Time != nil {
			cfg.KDFTime = *fc.KDF.Time
		}
		if fc.KDF.Memory != nil {
			cfg.KDFMemory = *fc.KDF.Memory
		}
		if fc.KDF.Threads != nil {
			cfg.KDFThreads = *fc.KDF.Threads
		}
	}

	if fc.Log != nil {
		setString(&cfg.LogLevel, fc.Log.Level)
		setString(&cfg.LogFormat, fc.Log.Format)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
