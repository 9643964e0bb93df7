// Package config loads runtime configuration for the ide account core.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via -c or -config; .yaml/.yml files are
//     parsed with yaml.v3, anything else as JSON.
//  3. Environment variables prefixed IDE_, after loading an optional .env
//     file from the working directory.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-d string   data directory
//	-b string   user store backend (json|sqlite)
//	-l string   log level
//
// # File schema
//
// Durations use timex.Duration, so values can be strings like "168h" or
// "90d" or integer nanoseconds:
//
//	data_dir: ~/.ide
//	store_backend: sqlite
//	session_ttl: 7d
//	remember_me_ttl: 90d
//	max_backoff: 1m
//	kdf:
//	  time: 6
//	  memory: 262144
//	  threads: 2
//	log:
//	  level: debug
//	  format: zerolog
//
// # Environment
//
//	IDE_DATA_DIR, IDE_STORE_BACKEND, IDE_USERS_FILE, IDE_SQLITE_FILE,
//	IDE_SESSION_FILE, IDE_KEYBINDINGS_FILE, IDE_SESSION_TTL,
//	IDE_REMEMBER_ME_TTL, IDE_MAX_BACKOFF, IDE_KDF_TIME, IDE_KDF_MEMORY,
//	IDE_KDF_THREADS, IDE_LOG_LEVEL, IDE_LOG_FORMAT
package config
