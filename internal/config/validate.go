package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// simple range over values to validate needed variables
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DuckDB.Binary) == "" {
		return fmt.Errorf("duckdb.binary is required")
	}
	if c.DuckDB.Timeout <= 0 {
		return fmt.Errorf("duckdb.timeout must be > 0 (got %s)", c.DuckDB.Timeout)
	}

	switch c.Backup.Method {
	case "cp", "attach":
	default:
		return fmt.Errorf("backup.method=%q must be cp or attach", c.Backup.Method)
	}

	if c.Backup.Extension == "" {
		return fmt.Errorf("backup.extension is required")
	}
	if strings.ContainsAny(c.Backup.Extension, `/\`) {
		return fmt.Errorf("backup.extension=%q must not contain path separators", c.Backup.Extension)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format=%q must be text or json", c.Log.Format)
	}

	for i, n := range c.Notifications {
		if strings.TrimSpace(n.Type) == "" {
			return fmt.Errorf("notifications[%d].type is required", i)
		}
	}
	return nil
}
