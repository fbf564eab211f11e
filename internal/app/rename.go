package app

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"syscall"
	"time"
)

// backoff retries an operation with a doubling delay.
type backoff struct {
	attempts int
	initial  time.Duration
	max      time.Duration
	sleep    func(time.Duration)
}

// replaceBackoff covers editors, sync clients and virus scanners that hold
// the document open for a moment, mostly on Windows.
var replaceBackoff = backoff{
	attempts: 20,
	initial:  150 * time.Millisecond,
	max:      2 * time.Second,
	sleep:    time.Sleep,
}

func (b backoff) delay(attempt int) time.Duration {
	d := b.initial
	for i := 0; i < attempt && d < b.max; i++ {
		d *= 2
	}
	return min(d, b.max)
}

// retry runs op until it succeeds, returns an error retryable rejects, or the
// attempts run out.
func (b backoff) retry(op func() error, retryable func(error) bool) error {
	var err error
	for attempt := 0; attempt < b.attempts; attempt++ {
		if err = op(); err == nil || !retryable(err) {
			return err
		}
		if attempt < b.attempts-1 {
			b.sleep(b.delay(attempt))
		}
	}
	return fmt.Errorf("gave up after %d attempts (file may be held open by another program): %w", b.attempts, err)
}

// replaceFile moves the freshly written temp file over the document.
func replaceFile(tmp string, dst string) error {
	return replaceBackoff.retry(func() error {
		return os.Rename(tmp, dst)
	}, isTransientReplaceError)
}

// Windows: access denied, sharing violation, lock violation, user mapped
// section. Unix: EPERM, EACCES, EBUSY, ETXTBSY.
var transientReplaceErrnos = map[string][]uint32{
	"windows": {5, 32, 33, 1224},
	"unix":    {1, 13, 16, 26},
}

func isTransientReplaceError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	family := "unix"
	if runtime.GOOS == "windows" {
		family = "windows"
	}
	return slices.Contains(transientReplaceErrnos[family], uint32(errno))
}
