package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type Method string

const (
	MethodCopy   Method = "cp"
	MethodAttach Method = "attach"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodCopy, MethodAttach:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (want cp or attach)", ErrUnknownMethod, s)
	}
}

// Result is what every strategy reports back. A zero Err means success.
type Result struct {
	Method   Method
	Source   string
	Dest     string
	Bytes    int64
	Duration time.Duration
	Err      error
}

func (r Result) OK() bool { return r.Err == nil }

// Backupper copies the database at src into the file dest. Failures are
// logged on log and returned in Result.Err, never panicked.
type Backupper interface {
	Method() Method
	Backup(ctx context.Context, log *logrus.Entry, src, dest string) Result
}
