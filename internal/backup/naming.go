package backup

import (
	"strings"
	"time"
)

const (
	TimestampLayout = "20060102-150405"
	namePrefix      = "backup-"
)

// TimestampedName returns backup-YYYYMMDD-HHMMSS.<ext> for t in local time.
// Names built within the same second collide.
func TimestampedName(t time.Time, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return namePrefix + t.Local().Format(TimestampLayout) + "." + ext
}
