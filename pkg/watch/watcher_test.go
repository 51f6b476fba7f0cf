package watch

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marchview/cyclomet/pkg/config"
)

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Watch.DebounceMS = 50
	w, err := NewWatcher(t.TempDir(), cfg)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	t.Cleanup(func() { w.Stop() })
	return w
}

func TestHandleEventFilters(t *testing.T) {
	w := newTestWatcher(t)

	w.handleEvent(fsnotify.Event{Name: "src/app.py", Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: "new.ts", Op: fsnotify.Create})
	w.handleEvent(fsnotify.Event{Name: "notes.md", Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: "chmodded.py", Op: fsnotify.Chmod})
	w.handleEvent(fsnotify.Event{Name: "gone.py", Op: fsnotify.Remove})
	w.handleEvent(fsnotify.Event{Name: filepath.Join("node_modules", "dep.js"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: "bundle.min.js", Op: fsnotify.Write})

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) != 2 {
		t.Fatalf("pending = %v, want exactly app.py and new.ts", w.pending)
	}
	for _, want := range []string{"src/app.py", "new.ts"} {
		if _, ok := w.pending[want]; !ok {
			t.Errorf("pending missing %q", want)
		}
	}
}

func TestDebounceDelaysCallback(t *testing.T) {
	w := newTestWatcher(t)

	fired := make(chan string, 1)
	w.SetCallback(func(path string) { fired <- path })

	w.handleEvent(fsnotify.Event{Name: "edit.py", Op: fsnotify.Write})

	// Fresh change: still inside the debounce window.
	w.processPending()
	select {
	case path := <-fired:
		t.Fatalf("callback fired early for %q", path)
	case <-time.After(20 * time.Millisecond):
	}

	// Age the entry past the debounce interval.
	w.mu.Lock()
	w.pending["edit.py"] = time.Now().Add(-time.Second)
	w.mu.Unlock()

	w.processPending()
	select {
	case path := <-fired:
		if path != "edit.py" {
			t.Errorf("callback path = %q, want %q", path, "edit.py")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired after debounce")
	}

	// The entry is consumed; nothing fires again.
	w.processPending()
	select {
	case path := <-fired:
		t.Fatalf("callback fired twice for %q", path)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestRepeatedWritesResetDebounce(t *testing.T) {
	w := newTestWatcher(t)

	w.handleEvent(fsnotify.Event{Name: "busy.py", Op: fsnotify.Write})
	w.mu.Lock()
	first := w.pending["busy.py"]
	w.mu.Unlock()

	time.Sleep(5 * time.Millisecond)
	w.handleEvent(fsnotify.Event{Name: "busy.py", Op: fsnotify.Write})

	w.mu.Lock()
	second := w.pending["busy.py"]
	w.mu.Unlock()

	if !second.After(first) {
		t.Error("a repeated write must refresh the pending timestamp")
	}
}
