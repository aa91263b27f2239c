package library

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config is the runtime configuration, loaded from librarian.yaml with
// LIBRARIAN_* environment overrides. Every field has a working default so
// the tool runs without any config file at all.
type Config struct {
	Name          string `mapstructure:"name"`
	Backend       string `mapstructure:"backend"`        // file | sqlite
	DataPath      string `mapstructure:"data_path"`      // document path for the file backend
	DatabasePath  string `mapstructure:"database_path"`  // db path for the sqlite backend
	AdminPassword string `mapstructure:"admin_password"` // unlocks admin commands in the shell
}

// Backends accepted by Config.Backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// LoadConfig reads cfgFile, or searches the working directory for
// librarian.yaml when cfgFile is empty. A missing config file is not an
// error.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetDefault("name", "My Awesome Library")
	v.SetDefault("backend", BackendFile)
	v.SetDefault("data_path", "library_data.json")
	v.SetDefault("database_path", "library.db")
	v.SetDefault("admin_password", "admin123")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("librarian")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("librarian")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Backend != BackendFile && cfg.Backend != BackendSQLite {
		return nil, fmt.Errorf("unknown backend %q (want %q or %q)", cfg.Backend, BackendFile, BackendSQLite)
	}
	return &cfg, nil
}

// OpenStore builds the configured persistence backend.
func (c *Config) OpenStore() (Store, error) {
	switch c.Backend {
	case BackendSQLite:
		return NewSQLStore(c.DatabasePath)
	default:
		return NewFileStore(c.DataPath), nil
	}
}
