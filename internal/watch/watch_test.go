package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldIgnoreEvent(t *testing.T) {
	tests := map[string]bool{
		"reports/R1.json":        false,
		"templates/report.html":  false,
		"templates/.report.html": true,
		"templates/report.html~": true,
		"pages/.index.html.swp":  true,
		"pages/index.html.swx":   true,
		"pages/#index.html#":     true,
		"static/Thumbs.db":       true,
	}
	for path, want := range tests {
		assert.Equal(t, want, shouldIgnoreEvent(path), path)
	}
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	req := make(chan struct{}, 1)
	trigger, stop := debouncer(20*time.Millisecond, req)
	defer stop()

	for range 5 {
		trigger()
	}
	select {
	case <-req:
	case <-time.After(time.Second):
		t.Fatal("no rebuild requested")
	}
	select {
	case <-req:
		t.Fatal("burst produced more than one rebuild")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestWatcher_Exclude(t *testing.T) {
	root := t.TempDir()
	w := New(nil, root).Exclude(filepath.Join(root, "build"))
	assert.True(t, w.excluded(filepath.Join(root, "build", "index.html")))
	assert.True(t, w.excluded(filepath.Join(root, "build")))
	assert.False(t, w.excluded(filepath.Join(root, "buildings", "x")))
}

func TestWatcher_RebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o750))

	var builds atomic.Int32
	done := make(chan struct{}, 8)
	build := func(context.Context) error {
		n := builds.Add(1)
		done <- struct{}{}
		if n == 1 {
			return errors.New("initial build fails")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		result <- New(build, dir, filepath.Join(dir, "missing")).WithDebounce(20 * time.Millisecond).Run(ctx)
	}()

	waitBuild := func() {
		t.Helper()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("build did not run")
		}
	}
	waitBuild()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "R1.json"), []byte("{}"), 0o600))
	waitBuild()
	assert.GreaterOrEqual(t, builds.Load(), int32(2))

	cancel()
	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_NoDirectories(t *testing.T) {
	err := New(func(context.Context) error { return nil }, filepath.Join(t.TempDir(), "nope")).Run(context.Background())
	require.Error(t, err)
}

func TestWatcher_ServeReturnsWhenEventsClose(t *testing.T) {
	events := make(chan fsnotify.Event)
	errs := make(chan error)
	var builds atomic.Int32
	w := New(func(context.Context) error { builds.Add(1); return nil }).WithDebounce(time.Millisecond)

	result := make(chan error, 1)
	go func() { result <- w.serve(context.Background(), events, errs, func(string) {}) }()

	events <- fsnotify.Event{Name: filepath.Join(t.TempDir(), "R1.json"), Op: fsnotify.Write}
	require.Eventually(t, func() bool { return builds.Load() == 1 }, 5*time.Second, 5*time.Millisecond)

	close(events)
	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after the event stream closed")
	}
}

func TestWatcher_ServeAddsCreatedDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "new")
	require.NoError(t, os.Mkdir(dir, 0o750))
	events := make(chan fsnotify.Event, 1)
	var added []string
	w := New(func(context.Context) error { return nil })

	events <- fsnotify.Event{Name: dir, Op: fsnotify.Create}
	close(events)
	require.NoError(t, w.serve(context.Background(), events, nil, func(d string) { added = append(added, d) }))
	assert.Equal(t, []string{dir}, added)
}
