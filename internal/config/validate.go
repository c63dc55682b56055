package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateCheck(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", "postgres", "sqlite", c.Database.Driver)
	}
	if c.Database.Driver == "sqlite" {
		if strings.TrimSpace(c.Database.Path) == "" && strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("database.path must be set when database.driver is sqlite")
		}
		return nil
	}
	if strings.TrimSpace(c.Database.DSN) == "" && strings.TrimSpace(c.Database.Name) == "" {
		return errors.New("database.name (or database.dsn / DRIFTWATCH_DATABASE_URL) must be set")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 1 and 65535, got %d", c.Database.Port)
	}
	return nil
}

func (c *Config) validateCheck() error {
	return ensurePositiveMap(map[string]int{
		"check.probe_timeout": c.Check.ProbeTimeout,
		"check.retry_delay":   c.Check.RetryDelay,
	}, map[string]int{
		"check.retry_attempts": c.Check.RetryAttempts,
	})
}

func (c *Config) validateWatch() error {
	if c.Watch.Interval <= 0 {
		return errors.New("watch.interval must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if !c.History.Enabled {
		return nil
	}
	if c.History.RetentionDays <= 0 {
		return errors.New("history.retention_days must be positive when history.enabled is true")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	return nil
}

func ensurePositiveMap(positive map[string]int, nonNegative map[string]int) error {
	for key, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", key, value)
		}
	}
	for key, value := range nonNegative {
		if value < 0 {
			return fmt.Errorf("%s must not be negative, got %d", key, value)
		}
	}
	return nil
}
