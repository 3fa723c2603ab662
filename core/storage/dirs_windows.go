//go:build windows

package storage

import (
	"os"
	"path/filepath"
)

func platformConfigDefault() string {
	return filepath.Join(os.Getenv("APPDATA"), "screenkeep", "config")
}

func platformDataDefault() string {
	return filepath.Join(os.Getenv("APPDATA"), "screenkeep", "data")
}

func platformCacheDefault() string {
	return filepath.Join(os.Getenv("LOCALAPPDATA"), "screenkeep", "cache")
}

func platformStateDefault() string {
	return filepath.Join(os.Getenv("LOCALAPPDATA"), "screenkeep", "state")
}
