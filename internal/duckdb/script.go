package duckdb

import (
	"fmt"
	"strings"
)

const (
	SourceAlias = "source_db"
	BackupAlias = "backup_db"
)

// CopyDatabaseScript attaches src read-only and dest (created if missing) and
// copies every object from the first into the second.
func CopyDatabaseScript(src, dest string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ATTACH %s AS %s (READ_ONLY);\n", quote(src), SourceAlias)
	fmt.Fprintf(&b, "ATTACH %s AS %s;\n", quote(dest), BackupAlias)
	fmt.Fprintf(&b, "COPY FROM DATABASE %s TO %s;\n", SourceAlias, BackupAlias)
	return b.String()
}

// quote renders s as a SQL string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
