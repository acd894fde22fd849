package app

import (
	"context"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dev-tams/duckdb-backup/internal/backup"
	"github.com/dev-tams/duckdb-backup/internal/config"
	"github.com/dev-tams/duckdb-backup/internal/duckdb"
	"github.com/dev-tams/duckdb-backup/internal/logging"
	"github.com/dev-tams/duckdb-backup/internal/notify"
)

const notificationTimeout = 5 * time.Second

// now is swapped in tests.
var now = time.Now

type Options struct {
	DBPath     string
	BackupPath string
	Method     string
	// Timestamp treats BackupPath as a directory and names the file after
	// the current local time.
	Timestamp bool
}

// RunBackup resolves the destination, runs the selected strategy and reports
// the outcome. It never returns an error: failures live in the Result.
func RunBackup(ctx context.Context, cfg *config.Config, opts Options, log *logrus.Entry) backup.Result {
	if log == nil {
		log = logging.Discard()
	}
	started := now()

	dispatcher, err := notify.NewDispatcher(cfg.Notifications)
	if err != nil {
		log.WithError(err).Warn("notifications disabled")
	}

	method, err := backup.ParseMethod(opts.Method)
	if err != nil {
		log.WithError(err).Error("backup aborted")
		res := backup.Result{Source: opts.DBPath, Dest: opts.BackupPath, Err: err}
		notifyResult(ctx, dispatcher, res, log)
		return res
	}

	dest := opts.BackupPath
	if opts.Timestamp {
		name := backup.TimestampedName(started, cfg.Backup.Extension)
		dest = filepath.Join(opts.BackupPath, name)
		log.WithField("file", name).Info("creating timestamped backup")
	}

	res := newBackupper(method, cfg).Backup(ctx, log, opts.DBPath, dest)
	notifyResult(ctx, dispatcher, res, log)

	return res
}

func newBackupper(method backup.Method, cfg *config.Config) backup.Backupper {
	if method == backup.MethodAttach {
		client := duckdb.New(cfg.DuckDB.Binary, cfg.DuckDB.Timeout)
		client.Args = cfg.DuckDB.Args
		return backup.NewAttachBackupper(client)
	}
	return backup.CopyBackupper{}
}

func notifyResult(ctx context.Context, dispatcher *notify.Dispatcher, res backup.Result, log *logrus.Entry) {
	if dispatcher.Len() == 0 {
		return
	}

	event := notify.Event{
		DB:       res.Source,
		Method:   string(res.Method),
		Status:   notify.StatusSuccess,
		Bytes:    res.Bytes,
		Dest:     res.Dest,
		Duration: res.Duration.Round(time.Millisecond).String(),
	}
	if res.Err != nil {
		event.Status = notify.StatusFailure
		event.Error = res.Err.Error()
	}

	notifyCtx, cancel := notificationContext(ctx)
	defer cancel()

	if err := dispatcher.Notify(notifyCtx, event); err != nil {
		log.WithError(err).WithField("status", event.Status).Warn("notification failed")
	}
}

func notificationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), notificationTimeout)
	}
	return context.WithTimeout(context.WithoutCancel(ctx), notificationTimeout)
}
