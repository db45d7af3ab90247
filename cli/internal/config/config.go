// Package config loads the dbal CLI settings from flags, environment,
// .env files and an optional .dbal.yaml.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/dbal/runtime/driver"
)

var AppFs = afero.NewOsFs()

const (
	configName = ".dbal"
	envPrefix  = "DBAL"
)

// Config holds the CLI configuration.
type Config struct {
	Adapter        string
	DSN            string
	Database       string
	Prefix         string
	Charset        string
	ConnectTimeout time.Duration
	SlowQuery      time.Duration
	Scrollable     bool
	Debug          bool
	JSONLogs       bool

	// File is the config file that was read, if any.
	File string
}

// New returns a viper instance with the CLI defaults and environment
// binding. Flags are bound onto it by the caller.
func New() *viper.Viper {
	v := viper.New()
	v.SetFs(AppFs)
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("adapter", "sqlite")
	v.SetDefault("prefix", "")
	v.SetDefault("connect_timeout", 10*time.Second)
	v.SetDefault("slow_query", 100*time.Millisecond)
	v.SetDefault("debug", false)
	v.SetDefault("json_logs", false)
	return v
}

// Load reads the configuration. An explicit file must exist; otherwise
// .dbal.yaml is looked up in the working directory, the home directory
// and ~/.config/dbal, and a missing file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "dbal"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	loadEnvFiles()

	cfg := &Config{
		Adapter:        v.GetString("adapter"),
		DSN:            v.GetString("dsn"),
		Database:       v.GetString("database"),
		Prefix:         v.GetString("prefix"),
		Charset:        v.GetString("charset"),
		ConnectTimeout: v.GetDuration("connect_timeout"),
		SlowQuery:      v.GetDuration("slow_query"),
		Scrollable:     v.GetBool("scrollable"),
		Debug:          v.GetBool("debug"),
		JSONLogs:       v.GetBool("json_logs"),
		File:           v.ConfigFileUsed(),
	}
	if cfg.DSN == "" {
		cfg.DSN = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

// loadEnvFiles loads .env and then .env.local, which wins.
func loadEnvFiles() {
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}
}

// DriverOptions converts the configuration into driver options.
func (c *Config) DriverOptions() driver.Options {
	return driver.Options{
		Adapter:        c.Adapter,
		DSN:            c.DSN,
		Database:       c.Database,
		Select:         c.Database != "",
		Prefix:         c.Prefix,
		Charset:        c.Charset,
		ConnectTimeout: c.ConnectTimeout,
		Scrollable:     c.Scrollable,
	}
}

// Save writes the connection settings to ~/.config/dbal/.dbal.yaml, or to
// path when it is set, and returns the file written.
func Save(v *viper.Viper, cfg *Config, path string) (string, error) {
	v.Set("adapter", cfg.Adapter)
	v.Set("dsn", cfg.DSN)
	v.Set("database", cfg.Database)
	v.Set("prefix", cfg.Prefix)

	if path == "" {
		home, err := homedir.Dir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, ".config", "dbal", configName+".yaml")
	}
	if err := AppFs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, v.WriteConfigAs(path)
}
