package relationaldb

import (
	"strings"
	"time"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains index database settings
type Config struct {
	// Driver is "sqlite" (modernc.org/sqlite) or "postgres" (lib/pq).
	Driver string `mapstructure:"driver"`
	// DSN is a file path for sqlite or a connection URL for postgres.
	DSN string `mapstructure:"dsn"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// NewConfig creates a Config with pool defaults for the given driver.
func NewConfig(driver, dsn string) *Config {
	c := &Config{
		Driver:          strings.ToLower(driver),
		DSN:             dsn,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	}
	if c.Driver == DriverSQLite {
		// single writer avoids SQLITE_BUSY
		c.MaxOpenConns = 1
		c.MaxIdleConns = 1
	}
	return c
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return ErrInvalidDriver
	}
	if c.DSN == "" {
		return ErrMissingDSN
	}
	if c.MaxOpenConns < 0 {
		return ErrInvalidMaxOpenConns
	}
	if c.MaxIdleConns < 0 {
		return ErrInvalidMaxIdleConns
	}
	if c.MaxOpenConns > 0 && c.MaxIdleConns > c.MaxOpenConns {
		return ErrMaxIdleExceedsMaxOpen
	}
	return nil
}
