//go:build !windows

package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// AdvisoryLock serializes access to the index database across
// screenkeep processes. The store is single-writer; the lock makes a
// second `screenkeep watch` fail fast instead of interleaving writes.
type AdvisoryLock struct {
	path string
	file *os.File
}

func NewAdvisoryLock(lockDir, name string) (*AdvisoryLock, error) {
	if err := os.MkdirAll(lockDir, 0755); err != nil {
		return nil, err
	}

	return &AdvisoryLock{
		path: filepath.Join(lockDir, name+".lock"),
	}, nil
}

func (l *AdvisoryLock) Acquire(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("lock acquisition timeout: %s", l.path)
		}

		file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0600)
		if err != nil {
			return err
		}

		err = syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			l.file = file
			return nil
		}

		file.Close()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (l *AdvisoryLock) Release() error {
	if l.file == nil {
		return nil
	}

	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if err != nil {
		return err
	}
	return closeErr
}
