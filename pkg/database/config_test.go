package database

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("/tmp/test.db")

	if config.Path != "/tmp/test.db" {
		t.Errorf("Expected path /tmp/test.db, got %q", config.Path)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

func TestDSNEnablesWALAndForeignKeys(t *testing.T) {
	dsn := DefaultConfig("/tmp/test.db").DSN()

	if !strings.HasPrefix(dsn, "/tmp/test.db?") {
		t.Errorf("DSN should start with the path, got %q", dsn)
	}
	for _, param := range []string{"_journal_mode=WAL", "_busy_timeout=5000", "_foreign_keys=on"} {
		if !strings.Contains(dsn, param) {
			t.Errorf("DSN missing %s: %q", param, dsn)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	config := DefaultConfig("")
	if err := config.Validate(); err == nil {
		t.Error("Expected error for empty path")
	}

	config = DefaultConfig("/tmp/test.db")
	config.MaxConnections = 0
	if err := config.Validate(); err == nil {
		t.Error("Expected error for zero max connections")
	}
}
