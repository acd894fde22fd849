package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/dev-tams/duckdb-backup/internal/storage/local"
)

// CopyBackupper duplicates the database file byte for byte.
type CopyBackupper struct{}

func (CopyBackupper) Method() Method { return MethodCopy }

func (b CopyBackupper) Backup(ctx context.Context, log *logrus.Entry, src, dest string) Result {
	started := time.Now()
	log = log.WithFields(logrus.Fields{"method": MethodCopy, "source": src, "dest": dest})
	log.Info("starting file-based backup")

	n, err := b.copy(ctx, log, src, dest)
	res := Result{Method: MethodCopy, Source: src, Dest: dest, Bytes: n, Duration: time.Since(started), Err: err}
	if err != nil {
		log.WithError(err).Error("file-based backup failed")
		return res
	}

	log.WithFields(logrus.Fields{
		"bytes":    n,
		"size":     humanize.IBytes(uint64(n)),
		"duration": res.Duration.Round(time.Millisecond),
	}).Info("file-based backup completed")
	return res
}

func (CopyBackupper) copy(ctx context.Context, log *logrus.Entry, src, dest string) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
		}
		return 0, fmt.Errorf("%w: stat source: %w", ErrFilesystem, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%w: source %s is a directory", ErrFilesystem, src)
	}

	if destInfo, err := os.Stat(dest); err == nil && os.SameFile(info, destInfo) {
		return 0, fmt.Errorf("%w: destination %s is the source", ErrFilesystem, dest)
	}

	st, name := local.ForFile(dest)
	if err := st.EnsureDir(); err != nil {
		return 0, fmt.Errorf("%w %s: %w", ErrCreateDir, st.BasePath(), err)
	}

	removed, err := st.Remove(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	if removed {
		log.Warn("overwriting existing backup")
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("%w: open source: %w", ErrFilesystem, err)
	}
	defer in.Close()

	out, err := st.Create(name, info.Mode().Perm())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		// partial files are not backups
		_, _ = st.Remove(name)
		return 0, fmt.Errorf("%w: write backup: %w", ErrFilesystem, errors.Join(copyErr, closeErr))
	}

	if err := st.SetMetadata(name, info.Mode().Perm(), info.ModTime()); err != nil {
		log.WithError(err).Warn("could not preserve file metadata")
	}

	n, err := st.Size(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	return n, nil
}
