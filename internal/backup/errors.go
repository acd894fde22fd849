package backup

import (
	"errors"

	"github.com/dev-tams/duckdb-backup/internal/duckdb"
)

var (
	ErrSourceNotFound = errors.New("source database not found")
	ErrCreateDir      = errors.New("create backup directory")
	ErrUnknownMethod  = errors.New("unknown backup method")
	ErrFilesystem     = errors.New("filesystem error")

	ErrExitStatus  = duckdb.ErrExitStatus
	ErrTimeout     = duckdb.ErrTimeout
	ErrClientStart = duckdb.ErrStart
)
