// Package storage provides platform-native directory resolution with XDG support.
package storage

import (
	"os"
	"path/filepath"
	"sync"
)

// Dirs provides platform-appropriate directories for screenkeep state.
type Dirs struct {
	Config string // User configuration (config.yaml)
	Data   string // Persistent data (index database, checkpoints)
	Cache  string // Regenerable cache (OCR text cache, thumbnails)
	State  string // Runtime state (logs)
}

var (
	globalDirs     *Dirs
	globalDirsOnce sync.Once
)

// ResolveDirs returns platform-appropriate directories.
// Results are cached after first call.
func ResolveDirs() *Dirs {
	globalDirsOnce.Do(func() {
		globalDirs = &Dirs{
			Config: resolveDir("XDG_CONFIG_HOME", platformConfigDefault()),
			Data:   resolveDir("XDG_DATA_HOME", platformDataDefault()),
			Cache:  resolveDir("XDG_CACHE_HOME", platformCacheDefault()),
			State:  resolveDir("XDG_STATE_HOME", platformStateDefault()),
		}
	})
	return globalDirs
}

func resolveDir(envVar, fallback string) string {
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, "screenkeep")
	}
	return fallback
}

// ConfigDir returns the config subdirectory path.
func (d *Dirs) ConfigDir(subpath ...string) string {
	return filepath.Join(append([]string{d.Config}, subpath...)...)
}

// DataDir returns the data subdirectory path.
func (d *Dirs) DataDir(subpath ...string) string {
	return filepath.Join(append([]string{d.Data}, subpath...)...)
}

// CacheDir returns the cache subdirectory path.
func (d *Dirs) CacheDir(subpath ...string) string {
	return filepath.Join(append([]string{d.Cache}, subpath...)...)
}

// StateDir returns the state subdirectory path.
func (d *Dirs) StateDir(subpath ...string) string {
	return filepath.Join(append([]string{d.State}, subpath...)...)
}

// LogDir returns the log directory.
func (d *Dirs) LogDir() string {
	return d.StateDir("logs")
}

// EnsureDir creates a directory with the specified permissions if it doesn't exist.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = 0755
	}
	return os.MkdirAll(path, perm)
}

// EnsureAll creates all standard directories.
func (d *Dirs) EnsureAll() error {
	dirs := []string{
		d.Config,
		d.Data,
		d.Cache,
		d.CacheDir("ocr"),
		d.State,
		d.LogDir(),
	}

	for _, dir := range dirs {
		if err := EnsureDir(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}
