// Package watcher polls the generator's input files and reports changes.
package watcher

import (
	"context"
	"os"
	"sync"
	"time"
)

// Event represents a file change event.
type Event struct {
	Path string
	Op   string // "create", "write", "remove"
}

// DefaultPollInterval is the default polling interval for file change detection.
const DefaultPollInterval = 500 * time.Millisecond

// Watcher polls a fixed set of files. Changes seen within the debounce window
// are delivered together.
type Watcher struct {
	paths        []string
	debounce     time.Duration
	pollInterval time.Duration
	onChange     func(events []Event)

	mu      sync.Mutex
	pending []Event
	timer   *time.Timer
}

// New creates a watcher for the given files. Empty paths are ignored.
func New(paths []string, debounce time.Duration, onChange func(events []Event)) *Watcher {
	var watched []string
	for _, p := range paths {
		if p != "" {
			watched = append(watched, p)
		}
	}
	return &Watcher{
		paths:        watched,
		debounce:     debounce,
		pollInterval: DefaultPollInterval,
		onChange:     onChange,
	}
}

// SetPollInterval sets the polling interval for file change detection.
func (w *Watcher) SetPollInterval(d time.Duration) {
	w.pollInterval = d
}

// Watch polls until ctx is done. It always returns ctx.Err().
func (w *Watcher) Watch(ctx context.Context) error {
	snapshot := w.snapshot()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer w.cancelPending()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			next := w.snapshot()
			if events := diff(snapshot, next); len(events) > 0 {
				w.schedule(events)
			}
			snapshot = next
		}
	}
}

func (w *Watcher) schedule(events []Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, events...)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		pending := w.pending
		w.pending = nil
		w.mu.Unlock()
		if len(pending) > 0 && w.onChange != nil {
			w.onChange(pending)
		}
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = nil
}

type fileInfo struct {
	modTime time.Time
	size    int64
}

func (w *Watcher) snapshot() map[string]fileInfo {
	snap := make(map[string]fileInfo, len(w.paths))
	for _, path := range w.paths {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		snap[path] = fileInfo{modTime: info.ModTime(), size: info.Size()}
	}
	return snap
}

func diff(old, cur map[string]fileInfo) []Event {
	var events []Event
	for path, info := range cur {
		prev, ok := old[path]
		switch {
		case !ok:
			events = append(events, Event{Path: path, Op: "create"})
		case !info.modTime.Equal(prev.modTime) || info.size != prev.size:
			events = append(events, Event{Path: path, Op: "write"})
		}
	}
	for path := range old {
		if _, ok := cur[path]; !ok {
			events = append(events, Event{Path: path, Op: "remove"})
		}
	}
	return events
}
