package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	defaultLockWait = 10 * time.Second
	lockRetryDelay  = 100 * time.Millisecond
	lockStaleAfter  = 30 * time.Second
)

// lockHolder is written into the lock file so a blocked run can say who
// holds the document.
type lockHolder struct {
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquiredAt"`
}

// FileLock is an advisory lock next to the document. It only guards against
// two runs of these tools, not against other writers.
type FileLock struct {
	path string
}

// documentLocker takes the document lock. Waiting, staleness and the
// holder's timestamp all follow clock.
type documentLocker struct {
	path  string
	clock clockwork.Clock
	wait  time.Duration
}

func (l documentLocker) acquire() (*FileLock, error) {
	if err := ensureParentDir(l.path); err != nil {
		return nil, err
	}

	deadline := l.clock.Now().Add(l.wait)
	for {
		created, err := l.tryCreate()
		if err != nil {
			return nil, err
		}
		if created {
			return &FileLock{path: l.path}, nil
		}

		holder, stale := l.inspect()
		if stale {
			_ = os.Remove(l.path)
			continue
		}
		if !l.clock.Now().Before(deadline) {
			return nil, fmt.Errorf("document is locked by pid %d since %s (%s)",
				holder.PID, holder.AcquiredAt.Format(time.RFC3339), l.path)
		}
		l.clock.Sleep(lockRetryDelay)
	}
}

func (l documentLocker) tryCreate() (bool, error) {
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer file.Close()
	holder := lockHolder{PID: os.Getpid(), AcquiredAt: l.clock.Now().UTC()}
	if err := json.NewEncoder(file).Encode(holder); err != nil {
		_ = os.Remove(l.path)
		return false, fmt.Errorf("write lock %s: %w", l.path, err)
	}
	return true, nil
}

// inspect reads the current holder. A lock that cannot be read or decoded
// counts as stale, except when it vanished in the meantime.
func (l documentLocker) inspect() (lockHolder, bool) {
	var holder lockHolder
	bytes, err := os.ReadFile(l.path)
	if err != nil {
		return holder, false
	}
	if err := json.Unmarshal(bytes, &holder); err != nil || holder.AcquiredAt.IsZero() {
		return holder, true
	}
	return holder, l.clock.Since(holder.AcquiredAt) > lockStaleAfter
}

func (l *FileLock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
