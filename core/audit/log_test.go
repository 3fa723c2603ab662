package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lophius/screenkeep/core/database"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()

	pool, err := database.Open(t.TempDir()+"/audit_test.db", database.DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Close()
	})

	migrator := database.NewMigrator(pool, database.Migrations)
	require.NoError(t, migrator.Migrate(context.Background()))

	return NewLog(pool, nil)
}

// moveForTest performs a real move and records it, the way the
// organizer does in production.
func moveForTest(t *testing.T, log *Log, dir, name string) (oldPath, newPath string) {
	t.Helper()
	ctx := context.Background()

	oldPath = filepath.Join(dir, "in", name)
	newPath = filepath.Join(dir, "out", "2026-08", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(oldPath), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(newPath), 0o755))
	require.NoError(t, os.WriteFile(oldPath, []byte("image"), 0o644))

	require.NoError(t, os.Rename(oldPath, newPath))
	require.NoError(t, log.RecordMove(ctx, nil, oldPath, newPath, nil))
	return oldPath, newPath
}

func TestRollback_RestoresMovedFile(t *testing.T) {
	log := newTestLog(t)
	ctx := context.Background()
	dir := t.TempDir()

	oldPath, newPath := moveForTest(t, log, dir, "a.png")

	count, err := log.Rollback(ctx, 24)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.FileExists(t, oldPath)
	assert.NoFileExists(t, newPath)

	entries, err := log.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusRolledBack, entries[0].Status)
}

func TestRollback_SecondPassFindsNothing(t *testing.T) {
	log := newTestLog(t)
	ctx := context.Background()

	moveForTest(t, log, t.TempDir(), "a.png")

	count, err := log.Rollback(ctx, 24)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	count, err = log.Rollback(ctx, 24)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRollback_SkipsFileAlreadyGone(t *testing.T) {
	log := newTestLog(t)
	ctx := context.Background()

	_, newPath := moveForTest(t, log, t.TempDir(), "a.png")
	require.NoError(t, os.Remove(newPath))

	count, err := log.Rollback(ctx, 24)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// The entry keeps its success status for a later attempt.
	entries, err := log.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusSuccess, entries[0].Status)
}

func TestRollback_IgnoresEntriesOutsideWindow(t *testing.T) {
	log := newTestLog(t)
	ctx := context.Background()
	dir := t.TempDir()

	oldPath := filepath.Join(dir, "in", "old.png")
	newPath := filepath.Join(dir, "out", "old.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(newPath), 0o755))
	require.NoError(t, os.WriteFile(newPath, []byte("image"), 0o644))

	_, err := log.Record(ctx, Entry{
		Operation:   OpMove,
		Timestamp:   time.Now().UTC().Add(-48 * time.Hour),
		OldPath:     oldPath,
		NewPath:     newPath,
		OldFilename: "old.png",
		NewFilename: "old.png",
		Status:      StatusSuccess,
	})
	require.NoError(t, err)

	count, err := log.Rollback(ctx, 24)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.FileExists(t, newPath)
}

func TestRollback_FailedEntriesNotEligible(t *testing.T) {
	log := newTestLog(t)
	ctx := context.Background()

	require.NoError(t, log.RecordMove(ctx, nil, "/in/a.png", "/out/a.png",
		errors.New("disk full")))

	count, err := log.Rollback(ctx, 24)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRollback_PerEntryIsolation(t *testing.T) {
	log := newTestLog(t)
	ctx := context.Background()
	dir := t.TempDir()

	// First entry's file is gone; the second is intact. The good one
	// must still roll back.
	_, gonePath := moveForTest(t, log, dir, "gone.png")
	require.NoError(t, os.Remove(gonePath))
	oldPath, _ := moveForTest(t, log, dir, "intact.png")

	count, err := log.Rollback(ctx, 24)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.FileExists(t, oldPath)
}

func TestRecordMove_FailureIsLogged(t *testing.T) {
	log := newTestLog(t)
	ctx := context.Background()

	require.NoError(t, log.RecordMove(ctx, nil, "/in/a.png", "/out/a.png",
		errors.New("permission denied")))

	entries, err := log.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusFailed, entries[0].Status)
	assert.Equal(t, "permission denied", entries[0].ErrorMessage)
	assert.Equal(t, "a.png", entries[0].OldFilename)
}
