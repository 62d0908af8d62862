package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// Test Plan for FileWatcher:
// - NewFileWatcher succeeds with an existing source and template directory
// - NewFileWatcher fails for a missing source or template directory
// - Source file change fires callback after debounce
// - Template change fires callback, also in sub-directories created later
// - Unrelated files next to the source are ignored
// - An empty template directory watches the source alone
// - Rapid changes are coalesced into a single sorted batch
// - Pause/Resume (accumulate during pause, fire on resume)
// - Context cancellation stops the watcher
// - Stop() is idempotent and leaves no goroutines behind

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testDebounce = 100 * time.Millisecond

// fixture creates src/motor.c and templates/ below a temp dir.
func fixture(t *testing.T) (source, templates string) {
	t.Helper()

	root := t.TempDir()
	source = filepath.Join(root, "src", "motor.c")
	templates = filepath.Join(root, "templates")
	require.NoError(t, os.MkdirAll(filepath.Dir(source), 0755))
	require.NoError(t, os.MkdirAll(templates, 0755))
	require.NoError(t, os.WriteFile(source, []byte("void f(void)\n{\n}\n"), 0644))
	return source, templates
}

// startWatcher starts a watcher whose callbacks are delivered on the returned channel.
func startWatcher(t *testing.T, ctx context.Context, source, templates string) (FileWatcher, <-chan []string) {
	t.Helper()

	w, err := NewFileWatcher(source, templates, Options{Debounce: testDebounce})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	batches := make(chan []string, 10)
	require.NoError(t, w.Start(ctx, func(files []string) { batches <- files }))

	// Wait for watcher to initialize
	time.Sleep(50 * time.Millisecond)
	return w, batches
}

func waitBatch(t *testing.T, batches <-chan []string) []string {
	t.Helper()

	select {
	case files := <-batches:
		return files
	case <-time.After(2 * time.Second):
		t.Fatal("Callback not called after timeout")
		return nil
	}
}

func TestNewFileWatcher_Success(t *testing.T) {
	t.Parallel()

	source, templates := fixture(t)
	w, err := NewFileWatcher(source, templates, Options{})
	require.NoError(t, err)
	require.NotNil(t, w)
	require.NoError(t, w.Stop())
}

func TestNewFileWatcher_Invalid(t *testing.T) {
	t.Parallel()

	source, templates := fixture(t)

	w, err := NewFileWatcher(filepath.Join(filepath.Dir(source), "missing.c"), templates, Options{})
	assert.Error(t, err)
	assert.Nil(t, w)

	w, err = NewFileWatcher(source, filepath.Join(templates, "missing"), Options{})
	assert.Error(t, err)
	assert.Nil(t, w)
}

func TestFileWatcher_SourceChange(t *testing.T) {
	t.Parallel()

	source, templates := fixture(t)
	_, batches := startWatcher(t, context.Background(), source, templates)

	other := filepath.Join(filepath.Dir(source), "other.c")
	require.NoError(t, os.WriteFile(other, []byte("int x;"), 0644))
	require.NoError(t, os.WriteFile(source, []byte("void g(void)\n{\n}\n"), 0644))

	files := waitBatch(t, batches)
	assert.Contains(t, files, source)
	assert.NotContains(t, files, other)
}

func TestFileWatcher_SourceOnly(t *testing.T) {
	t.Parallel()

	source, templates := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, batches := startWatcher(t, ctx, source, "")

	// Template dir is not watched, so only the source change is reported
	require.NoError(t, os.WriteFile(filepath.Join(templates, "a.h"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(source, []byte("void g(void)\n{\n}\n"), 0644))

	assert.Equal(t, []string{source}, waitBatch(t, batches))
}

func TestFileWatcher_TemplateChanges(t *testing.T) {
	t.Parallel()

	source, templates := fixture(t)
	_, batches := startWatcher(t, context.Background(), source, templates)

	header := filepath.Join(templates, "@sourcename@.h")
	require.NoError(t, os.WriteFile(header, []byte("@fncs@@name@@end-fncs@"), 0644))
	assert.Contains(t, waitBatch(t, batches), header)

	sub := filepath.Join(templates, "test_@sourcename@")
	require.NoError(t, os.Mkdir(sub, 0755))
	waitBatch(t, batches)

	nested := filepath.Join(sub, "mock.c.j2")
	require.NoError(t, os.WriteFile(nested, []byte("{{ sourcename }}"), 0644))
	assert.Contains(t, waitBatch(t, batches), nested)
}

func TestFileWatcher_Debouncing(t *testing.T) {
	t.Parallel()

	source, templates := fixture(t)
	_, batches := startWatcher(t, context.Background(), source, templates)

	a := filepath.Join(templates, "a.h")
	b := filepath.Join(templates, "b.h")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(b, []byte{byte('0' + i)}, 0644))
		require.NoError(t, os.WriteFile(a, []byte{byte('0' + i)}, 0644))
		time.Sleep(testDebounce / 4)
	}

	assert.Equal(t, []string{a, b}, waitBatch(t, batches))

	select {
	case files := <-batches:
		t.Fatalf("unexpected second callback: %v", files)
	case <-time.After(3 * testDebounce):
	}
}

func TestFileWatcher_PauseResume(t *testing.T) {
	t.Parallel()

	source, templates := fixture(t)
	w, batches := startWatcher(t, context.Background(), source, templates)

	w.Pause()
	require.NoError(t, os.WriteFile(source, []byte("void h(void)\n{\n}\n"), 0644))

	select {
	case files := <-batches:
		t.Fatalf("callback fired while paused: %v", files)
	case <-time.After(3 * testDebounce):
	}

	w.Resume()
	assert.Contains(t, waitBatch(t, batches), source)
}

func TestFileWatcher_ContextCancellation(t *testing.T) {
	t.Parallel()

	source, templates := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	w, batches := startWatcher(t, ctx, source, templates)

	cancel()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(source, []byte("int late;"), 0644))
	select {
	case files := <-batches:
		t.Fatalf("callback fired after cancellation: %v", files)
	case <-time.After(3 * testDebounce):
	}

	require.NoError(t, w.Stop())
}

func TestFileWatcher_ConcurrentStop(t *testing.T) {
	t.Parallel()

	source, templates := fixture(t)
	w, err := NewFileWatcher(source, templates, Options{Debounce: testDebounce})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background(), func([]string) {}))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Stop()
		}()
	}
	wg.Wait()
}

func TestFileWatcher_StopWithoutStart(t *testing.T) {
	t.Parallel()

	source, templates := fixture(t)
	w, err := NewFileWatcher(source, templates, Options{})
	require.NoError(t, err)
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
