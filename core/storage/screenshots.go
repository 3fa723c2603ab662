package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultScreenshotFolder returns the folder the OS saves screenshots to.
// On macOS the system default is the Desktop unless the user created
// ~/Pictures/Screenshots; Windows uses Pictures\Screenshots; everything
// else falls back to ~/Pictures.
func DefaultScreenshotFolder() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "Pictures", "Screenshots")
	case "darwin":
		pictures := filepath.Join(home, "Pictures", "Screenshots")
		if info, err := os.Stat(pictures); err == nil && info.IsDir() {
			return pictures
		}
		return filepath.Join(home, "Desktop")
	default:
		return filepath.Join(home, "Pictures")
	}
}
