package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/reflexsearch/reflex/internal/rerrors"
)

// writerLock is the advisory, cache-directory-wide lock spec §5 requires:
// "writers obtain an advisory lock on the cache directory and fail fast if
// one is held." Grounded on kraklabs-cie/cmd/cie/queue.go's
// TryAcquireLock/ReleaseLock (an open lock file plus a non-blocking
// syscall.Flock), generalized from "one lock per queue" to "one lock per
// cache directory" since the Indexer always commits trigram, content, and
// metadata together in one atomic step.
type writerLock struct {
	f *os.File
}

const lockFileName = "writer.lock"

// acquireWriterLock opens writer.lock and takes a non-blocking exclusive
// flock on it. EWOULDBLOCK means another writer holds the lock, which
// surfaces as CacheLocked rather than blocking, matching spec §5.
func acquireWriterLock(cacheDir string) (*writerLock, error) {
	path := filepath.Join(cacheDir, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, rerrors.NewIO("open writer lock", path, err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if err == syscall.EWOULDBLOCK {
			return nil, rerrors.NewCacheLocked(fmt.Sprintf("cache directory %s is locked by another writer", cacheDir))
		}
		return nil, rerrors.NewIO("flock writer lock", path, err)
	}

	f.Truncate(0)
	f.Seek(0, 0)
	fmt.Fprintf(f, "%d %d\n", os.Getpid(), time.Now().Unix())

	return &writerLock{f: f}, nil
}

// Release unlocks and closes the lock file, letting the next writer in.
func (l *writerLock) Release() error {
	syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	return l.f.Close()
}
