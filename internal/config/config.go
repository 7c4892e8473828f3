// Package config loads server settings from an optional TOML file with flag
// and environment overrides.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Storage backend types.
const (
	StorageJSONFile = "jsonfile"
	StorageMongoDB  = "mongodb"
)

const (
	defaultPort              = 8080
	defaultRecordFile        = "students.json"
	defaultDBName            = "srms"
	defaultRequestsPerMinute = 120
)

// Config holds all settings for the record server.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Limits  LimitsConfig  `toml:"limits"`

	// Dev switches the mongodb backend to a scratch database name.
	Dev bool `toml:"-"`
}

// ServerConfig holds listen settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects and configures the record store backend.
type StorageConfig struct {
	Type   string `toml:"type"`    // "jsonfile" or "mongodb"
	Path   string `toml:"path"`    // jsonfile record file
	URL    string `toml:"url"`     // mongodb connection URL
	DBName string `toml:"db_name"` // mongodb database name
}

// LimitsConfig holds request throttling settings.
type LimitsConfig struct {
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// Load parses the optional TOML config file named by the --config flag and
// applies overrides from the --dev flag and the PORT and DB_URL environment
// variables.
func Load(args []string) (*Config, error) {
	cfg := &Config{
		Server:  ServerConfig{Port: defaultPort},
		Storage: StorageConfig{Type: StorageJSONFile, Path: defaultRecordFile, DBName: defaultDBName},
		Limits:  LimitsConfig{RequestsPerMinute: defaultRequestsPerMinute},
	}

	flags := flag.NewFlagSet("srms", flag.ContinueOnError)
	configPath := flags.String("config", "", "Path to a TOML config file")
	flags.BoolVar(&cfg.Dev, "dev", false, "Run server in development mode")
	err := flags.Parse(args)
	if err != nil {
		return nil, err
	}

	if *configPath != "" {
		_, err = toml.DecodeFile(*configPath, cfg)
		if err != nil {
			return nil, fmt.Errorf("toml.DecodeFile error: %w", err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port, err = strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
	}

	if dbURL := os.Getenv("DB_URL"); dbURL != "" {
		cfg.Storage.URL = dbURL
	}

	switch cfg.Storage.Type {
	case StorageJSONFile:
		if cfg.Storage.Path == "" {
			return nil, errors.New("storage.path is required for the jsonfile backend")
		}
	case StorageMongoDB:
		if cfg.Storage.URL == "" {
			return nil, errors.New("storage.url or DB_URL is required for the mongodb backend")
		}
		if cfg.Dev {
			cfg.Storage.DBName = "dev_" + cfg.Storage.DBName
		}
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}

	return cfg, nil
}

// Addr returns the host:port the server listens on.
func (cfg *Config) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
}
