package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkCheckedSurvivesReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "progress.json")

	tr := NewTracker(ctx, NewDocument(path), nil)
	assert.Zero(t, tr.Loaded())
	tr.MarkChecked(ctx, "x.com")
	tr.MarkChecked(ctx, "y.com")

	reloaded := NewTracker(ctx, NewDocument(path), nil)
	assert.Equal(t, 2, reloaded.Loaded())
	assert.True(t, reloaded.IsChecked("x.com"))
	assert.True(t, reloaded.IsChecked("y.com"))
	assert.False(t, reloaded.IsChecked("z.com"))
}

func TestDocumentFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "progress.json")

	tr := NewTracker(ctx, NewDocument(path), nil)
	tr.MarkChecked(ctx, "b.com")
	tr.MarkChecked(ctx, "a.com")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string][]string
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, []string{"a.com", "b.com"}, doc["checked_domains"])

	// No temp files are left next to the document
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDocumentFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not tracked on windows")
	}
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "progress.json")

	require.NoError(t, NewDocument(path).Persist(ctx, "a.com", func() []string { return []string{"a.com"} }))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, CheckpointMode, info.Mode().Perm())
}

func TestDocumentAcceptsCamelCaseKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"checkedDomains": ["a.com"]}`), 0644))

	tr := NewTracker(context.Background(), NewDocument(path), nil)
	assert.True(t, tr.IsChecked("a.com"))
}

func TestUnchecked(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(ctx, nil, nil)
	tr.MarkChecked(ctx, "a")
	tr.MarkChecked(ctx, "b")
	assert.Equal(t, []string{"c"}, tr.Unchecked([]string{"a", "b", "c"}))
}

func TestCorruptCheckpointStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	var diag bytes.Buffer
	tr := NewTracker(context.Background(), NewDocument(path), &diag)
	assert.Zero(t, tr.Len())
	assert.Contains(t, diag.String(), "Warning: could not load progress")
}

func TestCleanupRemovesDocument(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "progress.json")
	tr := NewTracker(ctx, NewDocument(path), nil)
	tr.MarkChecked(ctx, "a.com")

	require.NoError(t, tr.Cleanup(ctx))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Cleanup of an absent document is not an error
	assert.NoError(t, tr.Cleanup(ctx))
}

type failingBackend struct{}

func (failingBackend) Load(context.Context) ([]string, error) { return []string{"old.com"}, nil }
func (failingBackend) Persist(context.Context, string, func() []string) error {
	return errors.New("disk full")
}
func (failingBackend) Remove(context.Context) error { return nil }
func (failingBackend) Close() error                 { return nil }

func TestPersistFailureIsLoggedNotFatal(t *testing.T) {
	var diag bytes.Buffer
	ctx := context.Background()
	tr := NewTracker(ctx, failingBackend{}, &diag)
	tr.MarkChecked(ctx, "new.com")

	assert.True(t, tr.IsChecked("new.com"))
	assert.True(t, tr.IsChecked("old.com"))
	assert.Contains(t, diag.String(), "Error saving progress: disk full")
}

func TestConcurrentMarksAllPersisted(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "progress.json")
	tr := NewTracker(ctx, NewDocument(path), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr.MarkChecked(ctx, string(rune('a'+i))+".com")
		}(i)
	}
	wg.Wait()

	reloaded := NewTracker(ctx, NewDocument(path), nil)
	assert.Equal(t, 20, reloaded.Len())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(""))
	assert.Equal(t, KindDocument, KindOf(".dcheck_progress.json"))
	assert.Equal(t, KindSQLite, KindOf("state/progress.db"))
	assert.Equal(t, KindSQLite, KindOf("progress.SQLite"))
	assert.Equal(t, KindRedis, KindOf("redis://localhost:6379/0#run1"))
}

func TestOpenBackendSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "progress.db")

	b, err := OpenBackend(ctx, path, "run-1")
	require.NoError(t, err)
	tr := NewTracker(ctx, b, nil)
	tr.MarkChecked(ctx, "a.com")
	require.NoError(t, tr.Close())

	b, err = OpenBackend(ctx, path, "run-2")
	require.NoError(t, err)
	reloaded := NewTracker(ctx, b, nil)
	defer reloaded.Close()
	assert.True(t, reloaded.IsChecked("a.com"))
}

func TestRunLock(t *testing.T) {
	checkpoint := filepath.Join(t.TempDir(), "progress.json")

	lockPath, err := AcquireRunLock(checkpoint, "run-1")
	require.NoError(t, err)
	assert.Equal(t, LockPath(checkpoint), lockPath)

	// Re-acquiring from the same process is allowed
	_, err = AcquireRunLock(checkpoint, "run-2")
	require.NoError(t, err)

	require.NoError(t, ReleaseRunLock(lockPath))
	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err))
}

func TestRunLockHeldByLiveProcess(t *testing.T) {
	checkpoint := filepath.Join(t.TempDir(), "progress.json")
	hostname, err := os.Hostname()
	require.NoError(t, err)

	// PID 1 is always alive
	data, err := json.Marshal(RunLock{Holder: "dcheck", PID: 1, Hostname: hostname})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(LockPath(checkpoint), data, 0644))

	_, err = AcquireRunLock(checkpoint, "run-1")
	assert.Error(t, err)
}
