// Package logging builds the logger handle passed to every backup component.
package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// New returns an entry on a dedicated logrus.Logger writing to w.
// The package-level logrus logger is never touched.
func New(w io.Writer, level, format string) (*logrus.Entry, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)

	switch format {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}

	return logrus.NewEntry(l), nil
}

// Discard is a logger that drops everything; handy when a caller has none.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
