//go:build !windows

package storage

import (
	"os"
	"path/filepath"
)

func platformConfigDefault() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "screenkeep")
}

func platformDataDefault() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "screenkeep")
}

func platformCacheDefault() string {
	return filepath.Join(os.Getenv("HOME"), ".cache", "screenkeep")
}

func platformStateDefault() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "state", "screenkeep")
}
