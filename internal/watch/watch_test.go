package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type calls struct {
	mu      sync.Mutex
	batches [][]string
	seen    chan struct{}
}

func newCalls() *calls {
	return &calls{seen: make(chan struct{}, 16)}
}

func (c *calls) rebuild(_ context.Context, changed []string) error {
	c.mu.Lock()
	c.batches = append(c.batches, changed)
	c.mu.Unlock()
	c.seen <- struct{}{}
	return nil
}

func (c *calls) wait(t *testing.T) []string {
	t.Helper()
	select {
	case <-c.seen:
	case <-time.After(5 * time.Second):
		t.Fatal("rebuild was not triggered")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batches[len(c.batches)-1]
}

func TestDiff(t *testing.T) {
	now := time.Now()
	before := map[string]stamp{
		"/p/a.ts": {modTime: now, size: 1},
		"/p/b.ts": {modTime: now, size: 1},
		"/p/c.ts": {modTime: now, size: 1},
	}
	after := map[string]stamp{
		"/p/a.ts": {modTime: now, size: 1},
		"/p/b.ts": {modTime: now.Add(time.Second), size: 1},
		"/p/d.ts": {modTime: now, size: 1},
	}
	assert.Equal(t, []string{"/p/b.ts", "/p/c.ts", "/p/d.ts"}, diff(before, after))
}

func TestExcluded(t *testing.T) {
	w := New(Config{Root: "/p", Exclude: []string{"/p/dist"}})
	assert.True(t, w.excluded("/p/dist/main.js"))
	assert.True(t, w.excluded("/p/dist"))
	assert.False(t, w.excluded("/p/distribution/x.js"))
	assert.False(t, w.excluded("/p/src/main.ts"))
	assert.True(t, w.skipDir("/p/node_modules"))
}

func TestWatcher_Poll(t *testing.T) {
	t.Run("Should coalesce changes into one rebuild", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/p/src/main.ts", []byte("a"), 0644))
		require.NoError(t, afero.WriteFile(fs, "/p/dist/main.js", []byte("a"), 0644))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		c := newCalls()
		w := New(Config{Root: "/p", Poll: 10 * time.Millisecond, Debounce: 50 * time.Millisecond, Fs: fs, Exclude: []string{"/p/dist"}})
		done := make(chan error, 1)
		go func() { done <- w.Run(ctx, c.rebuild) }()

		time.Sleep(100 * time.Millisecond)
		require.NoError(t, afero.WriteFile(fs, "/p/src/main.ts", []byte("changed"), 0644))
		require.NoError(t, afero.WriteFile(fs, "/p/src/extra.ts", []byte("new"), 0644))
		require.NoError(t, afero.WriteFile(fs, "/p/dist/main.js", []byte("changed"), 0644))

		changed := c.wait(t)
		assert.Subset(t, []string{"/p/src/extra.ts", "/p/src/main.ts"}, changed)
		assert.NotContains(t, changed, "/p/dist/main.js")

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
		}
	})
}

func TestWatcher_Notify(t *testing.T) {
	t.Run("Should rebuild when a file is written", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		c := newCalls()
		w := New(Config{Root: dir, Debounce: 20 * time.Millisecond})
		go func() { _ = w.Run(ctx, c.rebuild) }()

		time.Sleep(200 * time.Millisecond)
		target := filepath.Join(dir, "src", "main.ts")
		require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

		assert.Contains(t, c.wait(t), target)
	})
}
