package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dev-tams/duckdb-backup/internal/backup"
	"github.com/dev-tams/duckdb-backup/internal/config"
	"github.com/dev-tams/duckdb-backup/internal/notify"
)

func testLogger(buf *bytes.Buffer) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(buf)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return logrus.NewEntry(l)
}

func freezeClock(t *testing.T, ts time.Time) {
	t.Helper()
	orig := now
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = orig })
}

func seedSource(t *testing.T, dir string, data string) string {
	t.Helper()
	src := filepath.Join(dir, "a.db")
	if err := os.WriteFile(src, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return src
}

func TestRunBackupCopyLiteralDestination(t *testing.T) {
	dir := t.TempDir()
	src := seedSource(t, dir, "0123456789")
	dest := filepath.Join(dir, "out.db")

	res := RunBackup(context.Background(), config.Default(), Options{DBPath: src, BackupPath: dest, Method: "cp"}, testLogger(&bytes.Buffer{}))
	if !res.OK() {
		t.Fatalf("RunBackup failed: %v", res.Err)
	}
	if res.Dest != dest || res.Bytes != 10 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRunBackupTimestampedDestination(t *testing.T) {
	dir := t.TempDir()
	src := seedSource(t, dir, "data")
	backups := filepath.Join(dir, "backups")
	freezeClock(t, time.Date(2025, 12, 23, 15, 30, 45, 0, time.Local))

	res := RunBackup(context.Background(), config.Default(), Options{DBPath: src, BackupPath: backups, Method: "cp", Timestamp: true}, testLogger(&bytes.Buffer{}))
	if !res.OK() {
		t.Fatalf("RunBackup failed: %v", res.Err)
	}

	want := filepath.Join(backups, "backup-20251223-153045.duckdb")
	if res.Dest != want {
		t.Fatalf("Dest = %q, want %q", res.Dest, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("timestamped backup missing: %v", err)
	}
}

func TestRunBackupTimestampedRunsOneSecondApart(t *testing.T) {
	dir := t.TempDir()
	src := seedSource(t, dir, "data")
	cfg := config.Default()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.Local)

	var dests []string
	for i := 0; i < 2; i++ {
		freezeClock(t, base.Add(time.Duration(i)*time.Second))
		res := RunBackup(context.Background(), cfg, Options{DBPath: src, BackupPath: dir, Method: "cp", Timestamp: true}, testLogger(&bytes.Buffer{}))
		if !res.OK() {
			t.Fatalf("run %d failed: %v", i, res.Err)
		}
		dests = append(dests, res.Dest)
	}
	if dests[0] == dests[1] {
		t.Fatalf("expected distinct destinations, got %q twice", dests[0])
	}
}

func TestRunBackupUnknownMethodTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	src := seedSource(t, dir, "data")
	dest := filepath.Join(dir, "never", "out.db")

	var logs bytes.Buffer
	res := RunBackup(context.Background(), config.Default(), Options{DBPath: src, BackupPath: dest, Method: "rsync"}, testLogger(&logs))
	if !errors.Is(res.Err, backup.ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", res.Err)
	}
	if _, err := os.Stat(filepath.Dir(dest)); !os.IsNotExist(err) {
		t.Fatalf("no directory should be created, stat err=%v", err)
	}
	if !strings.Contains(logs.String(), "unknown backup method") {
		t.Fatalf("expected unknown method log:\n%s", logs.String())
	}
}

func TestRunBackupAttachUsesConfiguredClient(t *testing.T) {
	dir := t.TempDir()
	src := seedSource(t, dir, "data")

	cfg := config.Default()
	cfg.DuckDB.Binary = filepath.Join(dir, "missing-duckdb")

	res := RunBackup(context.Background(), cfg, Options{DBPath: src, BackupPath: filepath.Join(dir, "out.db"), Method: "attach"}, testLogger(&bytes.Buffer{}))
	if res.Method != backup.MethodAttach {
		t.Fatalf("method = %q, want attach", res.Method)
	}
	if !errors.Is(res.Err, backup.ErrClientStart) {
		t.Fatalf("expected ErrClientStart from configured binary, got %v", res.Err)
	}
}

func TestRunBackupNotifiesWebhook(t *testing.T) {
	events := make(chan notify.Event, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev notify.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			t.Errorf("decode: %v", err)
		}
		events <- ev
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Notifications = []config.NotificationConfig{
		{Type: "webhook", On: []string{"failure"}, Config: config.NotificationDetails{URL: srv.URL}},
	}

	res := RunBackup(context.Background(), cfg, Options{DBPath: filepath.Join(dir, "missing.db"), BackupPath: filepath.Join(dir, "out.db"), Method: "cp"}, testLogger(&bytes.Buffer{}))
	if res.OK() {
		t.Fatal("expected failure")
	}

	select {
	case ev := <-events:
		if ev.Status != notify.StatusFailure || ev.Method != "cp" {
			t.Fatalf("unexpected event: %+v", ev)
		}
		if !strings.Contains(ev.Error, "source database not found") {
			t.Fatalf("event error = %q", ev.Error)
		}
	default:
		t.Fatal("expected a failure notification")
	}
}

func TestRunBackupNotificationFailureDoesNotFailBackup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	src := seedSource(t, dir, "data")
	cfg := config.Default()
	cfg.Notifications = []config.NotificationConfig{
		{Type: "webhook", On: []string{"both"}, Config: config.NotificationDetails{URL: srv.URL}},
	}

	var logs bytes.Buffer
	res := RunBackup(context.Background(), cfg, Options{DBPath: src, BackupPath: filepath.Join(dir, "out.db"), Method: "cp"}, testLogger(&logs))
	if !res.OK() {
		t.Fatalf("backup should succeed despite notification failure: %v", res.Err)
	}
	if !strings.Contains(logs.String(), "notification failed") {
		t.Fatalf("expected notification warning:\n%s", logs.String())
	}
}

func TestRunBackupWithoutLogger(t *testing.T) {
	dir := t.TempDir()
	src := seedSource(t, dir, "data")

	res := RunBackup(context.Background(), config.Default(), Options{DBPath: src, BackupPath: filepath.Join(dir, "out.db"), Method: "cp"}, nil)
	if !res.OK() {
		t.Fatalf("RunBackup failed: %v", res.Err)
	}
}

func TestNewBackupperWiresClientConfig(t *testing.T) {
	cfg := config.Default()
	cfg.DuckDB.Binary = "/opt/duckdb/bin/duckdb"
	cfg.DuckDB.Timeout = 90 * time.Second
	cfg.DuckDB.Args = []string{"-bail"}

	b, ok := newBackupper(backup.MethodAttach, cfg).(backup.AttachBackupper)
	if !ok {
		t.Fatalf("attach method should build an AttachBackupper")
	}
	c := b.Client
	if c.Binary != cfg.DuckDB.Binary || c.Timeout != cfg.DuckDB.Timeout {
		t.Fatalf("client = %+v", c)
	}
	if len(c.Args) != 1 || c.Args[0] != "-bail" {
		t.Fatalf("client args = %q", c.Args)
	}

	if _, ok := newBackupper(backup.MethodCopy, cfg).(backup.CopyBackupper); !ok {
		t.Fatal("cp method should build a CopyBackupper")
	}
}
