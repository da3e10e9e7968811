package database

import (
	"fmt"
	"time"
)

// Config holds sqlite connection settings for the directory store.
type Config struct {
	Path            string
	MaxConnections  int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns settings suitable for a single-process deployment.
func DefaultConfig(path string) *Config {
	return &Config{
		Path:            path,
		MaxConnections:  10,
		ConnMaxLifetime: 30 * time.Second,
		ConnMaxIdleTime: 10 * time.Second,
	}
}

// DSN builds the sqlite connection string. WAL keeps concurrent readers
// from blocking on the single writer; the busy timeout covers the brief
// windows where they still contend.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", c.Path)
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("max connections must be positive")
	}
	return nil
}
