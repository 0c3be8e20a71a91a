// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`

	// PrivateKey signs authentication tokens.
	PrivateKey string `mapstructure:"privatekey"`
	// AdminSecret is the out-of-band shared secret required (as the
	// x-secret header) to register new websites.
	AdminSecret      string `mapstructure:"adminsecret"`
	AdminEmail       string `mapstructure:"adminemail"`
	TokenTimeoutSecs int    `mapstructure:"tokentimeoutseconds"`

	// File paths
	DatabasePath string `mapstructure:"storagepath"`
	DatabaseName string `mapstructure:"-"` // Derived from other settings
	GeoDBPath    string `mapstructure:"geodbpath"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseMaxOpenConns int `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int `mapstructure:"dbmaxidleconns"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		v.SetDefault("appname", "beaconlight")
		v.SetDefault("appport", "2020")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("privatekey", "88888888888888888888888888888888")
		v.SetDefault("adminsecret", "")
		v.SetDefault("tokentimeoutseconds", 900) // 15 minutes
		v.SetDefault("storagepath", "storage")
		v.SetDefault("geodbpath", "storage/GeoLite2-Country.mmdb")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)

		v.BindEnv("appname", "BEACONLIGHT_APP_NAME")
		v.BindEnv("appport", "BEACONLIGHT_APP_PORT")
		v.BindEnv("environment", "BEACONLIGHT_ENV")
		v.BindEnv("loglevel", "BEACONLIGHT_LOG_LEVEL")
		v.BindEnv("privatekey", "BEACONLIGHT_PRIVATE_KEY")
		v.BindEnv("adminsecret", "BEACONLIGHT_ADMIN_SECRET")
		v.BindEnv("adminemail", "BEACONLIGHT_ADMIN_EMAIL")
		v.BindEnv("tokentimeoutseconds", "BEACONLIGHT_TOKEN_TIMEOUT_SECONDS")
		v.BindEnv("storagepath", "BEACONLIGHT_STORAGE_PATH")
		v.BindEnv("geodbpath", "BEACONLIGHT_GEO_DB_PATH")
		v.BindEnv("logsdir", "BEACONLIGHT_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "BEACONLIGHT_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "BEACONLIGHT_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "BEACONLIGHT_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbmaxopenconns", "BEACONLIGHT_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "BEACONLIGHT_DB_MAX_IDLE_CONNS")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		cfg.DatabaseName = cfg.GetDatabasePath()

		// The default private key is only acceptable outside production
		defaultKey := "88888888888888888888888888888888"
		if cfg.PrivateKey == "" {
			log.Fatal("Private key is required")
		}
		if cfg.IsProduction() && cfg.PrivateKey == defaultKey {
			log.Fatal("Production requires a unique BEACONLIGHT_PRIVATE_KEY (cannot use default)")
		}
		if cfg.IsProduction() && cfg.AdminSecret == "" {
			log.Fatal("Production requires BEACONLIGHT_ADMIN_SECRET for website registration")
		}
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}
	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetTokenTimeout returns the login token lifetime in seconds.
func (c *Config) GetTokenTimeout() int {
	return c.TokenTimeoutSecs
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1 (required for in-memory database stability)
// - Development/Production: 10 (allows concurrent reads for parallel report queries)
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
