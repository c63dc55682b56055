package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDatabase(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.MigrationsDir) == "" {
		c.Paths.MigrationsDir = defaultMigrationsDir
	}
	if c.Paths.MigrationsDir, err = expandPath(c.Paths.MigrationsDir); err != nil {
		return fmt.Errorf("paths.migrations_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDatabase() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = defaultDriver
	}
	c.Database.DSN = strings.TrimSpace(c.Database.DSN)
	if c.Database.DSN == "" {
		if value, ok := os.LookupEnv("DRIFTWATCH_DATABASE_URL"); ok {
			c.Database.DSN = strings.TrimSpace(value)
		}
	}
	c.Database.Host = strings.TrimSpace(c.Database.Host)
	if c.Database.Host == "" {
		c.Database.Host = defaultHost
	}
	if c.Database.Port == 0 {
		c.Database.Port = defaultPort
	}
	c.Database.SSLMode = strings.TrimSpace(c.Database.SSLMode)
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = defaultSSLMode
	}
	c.Database.TrackingTable = strings.TrimSpace(c.Database.TrackingTable)
	if c.Database.TrackingTable == "" {
		c.Database.TrackingTable = defaultTrackingTable
	}
	if c.Database.Driver == "sqlite" && strings.TrimSpace(c.Database.Path) != "" {
		var err error
		if c.Database.Path, err = expandPath(c.Database.Path); err != nil {
			return fmt.Errorf("database.path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
