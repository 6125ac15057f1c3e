package symbolcache

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/reflexsearch/reflex/internal/rerrors"
)

// workerLock guards against two background workers running against the
// same status directory at once, using the same open-file-plus-flock
// primitive as the Indexer's writer lock (internal/indexer/lock.go),
// grounded on kraklabs-cie/cmd/cie/queue.go's TryAcquireLock.
type workerLock struct {
	f *os.File
}

const workerLockFileName = "worker.lock"

func acquireWorkerLock(statusDir string) (*workerLock, error) {
	if err := os.MkdirAll(statusDir, 0o755); err != nil {
		return nil, rerrors.NewIO("create status dir", statusDir, err)
	}
	path := filepath.Join(statusDir, workerLockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, rerrors.NewIO("open worker lock", path, err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if err == syscall.EWOULDBLOCK {
			return nil, rerrors.NewBackgroundWorkerUnavailable(fmt.Sprintf("a background worker is already running for %s", statusDir))
		}
		return nil, rerrors.NewIO("flock worker lock", path, err)
	}
	f.Truncate(0)
	f.Seek(0, 0)
	fmt.Fprintf(f, "%d %d\n", os.Getpid(), time.Now().Unix())
	return &workerLock{f: f}, nil
}

func (l *workerLock) Release() error {
	syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	return l.f.Close()
}
