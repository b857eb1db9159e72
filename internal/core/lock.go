package core

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sys/unix"
)

// ErrLockHeld is returned when another holder keeps the lock past the
// configured wait.
var ErrLockHeld = stderrors.New("lock is held by another process")

// Lock is an exclusive flock on the raw archive file. The locked file is
// also the download destination, so the holder writes through File().
type Lock struct {
	file *os.File
	path string
}

// LockOptions controls AcquireExclusive.
type LockOptions struct {
	// Wait bounds how long to retry a held lock. Zero tries once.
	Wait time.Duration
	// PollInterval is the initial retry interval.
	PollInterval time.Duration
	// OnWait is called once when the first attempt finds the lock held.
	OnWait func()
}

// AcquireExclusive opens path for writing without truncating it and takes
// an exclusive lock on it. A held lock is retried with exponential backoff
// until opts.Wait elapses, after which ErrLockHeld is returned. Context
// cancellation ends the wait with ctx.Err().
//
// After locking, the open file is checked to still be the file at path. A
// previous holder unlinks the file before releasing it, so a waiter can end
// up holding a lock on an orphaned inode; that case is treated as held and
// retried against the fresh file.
func AcquireExclusive(ctx context.Context, path string, opts LockOptions) (*Lock, error) {
	lock, err := tryLock(path)
	if err == nil || !stderrors.Is(err, ErrLockHeld) {
		return lock, err
	}
	if opts.Wait <= 0 {
		return nil, ErrLockHeld
	}
	if opts.OnWait != nil {
		opts.OnWait()
	}

	poll := opts.PollInterval
	if poll <= 0 {
		poll = DefaultLockPoll
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = poll
	b.MaxInterval = time.Second
	b.Multiplier = 1.5
	b.MaxElapsedTime = opts.Wait
	b.Reset()

	err = backoff.Retry(func() error {
		l, err := tryLock(path)
		if err == nil {
			lock = l
			return nil
		}
		if stderrors.Is(err, ErrLockHeld) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return nil, err
	}
	return lock, nil
}

func tryLock(path string) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	fd := int(file.Fd())
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if stderrors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLockHeld
		}
		return nil, fmt.Errorf("failed to lock file: %w", err)
	}

	var held, current unix.Stat_t
	if err := unix.Fstat(fd, &held); err != nil {
		unlockAndClose(file)
		return nil, fmt.Errorf("failed to stat lock file: %w", err)
	}
	if err := unix.Stat(path, &current); err != nil || held.Ino != current.Ino || held.Dev != current.Dev {
		unlockAndClose(file)
		return nil, ErrLockHeld
	}

	return &Lock{file: file, path: path}, nil
}

func unlockAndClose(file *os.File) {
	_ = unix.Flock(int(file.Fd()), unix.LOCK_UN)
	file.Close()
}

// File returns the locked file. It is nil after Release.
func (l *Lock) File() *os.File {
	return l.file
}

// Path returns the locked path.
func (l *Lock) Path() string {
	return l.path
}

// Release releases the lock and closes the file.
func (l *Lock) Release() error {
	if l.file == nil {
		return fmt.Errorf("lock already released")
	}

	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		l.file.Close()
		l.file = nil
		return fmt.Errorf("failed to unlock file: %w", err)
	}

	if err := l.file.Close(); err != nil {
		l.file = nil
		return fmt.Errorf("failed to close lock file: %w", err)
	}

	l.file = nil
	return nil
}
