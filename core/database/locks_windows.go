//go:build windows

package database

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// AdvisoryLock on Windows relies on exclusive file creation. Good
// enough for the one-desktop, one-user deployment this tool targets.
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

		file, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
		if err == nil {
			l.file = file
			return nil
		}

		if time.Now().After(deadline) {
			return err
		}

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

	err := l.file.Close()
	l.file = nil
	_ = os.Remove(l.path)
	return err
}
