package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/dev-tams/duckdb-backup/internal/app"
	"github.com/dev-tams/duckdb-backup/internal/config"
	"github.com/dev-tams/duckdb-backup/internal/logging"
)

// errReported marks failures that have already been logged.
var errReported = errors.New("backup failed")

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cliApp := &cli.App{
		Name:            "duckdb-backup",
		Usage:           "back up a DuckDB database file by copy or ATTACH+COPY",
		UsageText:       "duckdb-backup --db <path> --backup <path> [--method cp|attach] [--timestamp]",
		HideHelpCommand: true,
		Writer:          stdout,
		ErrWriter:       stderr,
		Flags:           backupFlags(),
		Action: func(c *cli.Context) error {
			return backupAction(c, stdout, stderr)
		},
	}

	if err := cliApp.Run(args); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}
	return 0
}

func backupFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Required: true,
			Usage:    "path to the source database",
		},
		&cli.StringFlag{
			Name:     "backup",
			Required: true,
			Usage:    "backup file, or the directory to write into with --timestamp",
		},
		&cli.StringFlag{
			Name:  "method",
			Value: config.DefaultMethod,
			Usage: "backup method: cp (file copy) or attach (ATTACH+COPY via the duckdb CLI)",
		},
		&cli.BoolFlag{
			Name:  "timestamp",
			Usage: "name the backup after the current time, e.g. backup-20251223-153045.duckdb",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to an optional config yaml",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable debug logging",
		},
	}
}

func backupAction(c *cli.Context, stdout, stderr io.Writer) error {
	cfg, err := loadValidatedConfig(c.String("config"))
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if c.Bool("verbose") {
		level = logrus.DebugLevel.String()
	}
	log, err := logging.New(stderr, level, cfg.Log.Format)
	if err != nil {
		return err
	}

	method := cfg.Backup.Method
	if c.IsSet("method") {
		method = c.String("method")
	}

	opts := app.Options{
		DBPath:     c.String("db"),
		BackupPath: c.String("backup"),
		Method:     method,
		Timestamp:  c.Bool("timestamp"),
	}

	res := app.RunBackup(c.Context, cfg, opts, log)
	if !res.OK() {
		return errReported
	}

	if opts.Timestamp {
		fmt.Fprintln(stdout, res.Dest)
	}
	return nil
}

func loadValidatedConfig(cfgPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
