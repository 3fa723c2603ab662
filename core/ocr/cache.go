package ocr

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
)

// diskCache stores one text file per content hash.
type diskCache struct {
	dir string
}

func newDiskCache(dir string) (*diskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &diskCache{dir: dir}, nil
}

func (c *diskCache) get(contentHash string) (string, bool) {
	data, err := os.ReadFile(c.path(contentHash))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (c *diskCache) put(contentHash, text string) error {
	return os.WriteFile(c.path(contentHash), []byte(text), 0o644)
}

func (c *diskCache) clear() error {
	entries, err := filepath.Glob(filepath.Join(c.dir, "*.txt"))
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.Remove(entry); err != nil {
			return err
		}
	}
	return nil
}

func (c *diskCache) path(contentHash string) string {
	return filepath.Join(c.dir, contentHash+".txt")
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
