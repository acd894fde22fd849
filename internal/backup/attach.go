package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/dev-tams/duckdb-backup/internal/duckdb"
	"github.com/dev-tams/duckdb-backup/internal/storage/local"
)

// AttachBackupper exports the database through the duckdb client using
// ATTACH and COPY FROM DATABASE.
type AttachBackupper struct {
	Client *duckdb.Client
}

// NewAttachBackupper uses client, or a default duckdb client when nil.
func NewAttachBackupper(client *duckdb.Client) AttachBackupper {
	return AttachBackupper{Client: client}
}

func (b AttachBackupper) client() *duckdb.Client {
	if b.Client == nil {
		return duckdb.New("", 0)
	}
	return b.Client
}

func (AttachBackupper) Method() Method { return MethodAttach }

func (b AttachBackupper) Backup(ctx context.Context, log *logrus.Entry, src, dest string) Result {
	started := time.Now()
	log = log.WithFields(logrus.Fields{"method": MethodAttach, "source": src, "dest": dest})
	log.Info("starting ATTACH+COPY backup")

	n, err := b.export(ctx, log, src, dest)
	res := Result{Method: MethodAttach, Source: src, Dest: dest, Bytes: n, Duration: time.Since(started), Err: err}
	if err != nil {
		log.WithError(err).Error("ATTACH+COPY backup failed")
		return res
	}

	log.WithFields(logrus.Fields{
		"bytes":    n,
		"size":     humanize.IBytes(uint64(n)),
		"duration": res.Duration.Round(time.Millisecond),
	}).Info("ATTACH+COPY backup completed")
	return res
}

func (b AttachBackupper) export(ctx context.Context, log *logrus.Entry, src, dest string) (int64, error) {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return 0, fmt.Errorf("%w: resolve source: %w", ErrFilesystem, err)
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return 0, fmt.Errorf("%w: resolve destination: %w", ErrFilesystem, err)
	}

	if _, err := os.Stat(absSrc); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrSourceNotFound, absSrc)
		}
		return 0, fmt.Errorf("%w: stat source: %w", ErrFilesystem, err)
	}

	st, name := local.ForFile(absDest)
	if err := st.EnsureDir(); err != nil {
		return 0, fmt.Errorf("%w %s: %w", ErrCreateDir, st.BasePath(), err)
	}

	client := b.client()

	script := duckdb.CopyDatabaseScript(absSrc, absDest)
	log.WithField("binary", client.Binary).Debugf("running duckdb script:\n%s", script)

	out, err := client.Exec(ctx, script)
	if err != nil {
		if out.Stderr != "" {
			log.WithField("exit_code", out.ExitCode).Errorf("duckdb stderr: %s", out.Stderr)
		}
		return 0, err
	}
	log.WithField("elapsed", out.Duration.Round(time.Millisecond)).Debug("duckdb finished")

	n, err := st.Size(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	return n, nil
}
