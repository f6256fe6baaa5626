// Package watch re-runs analysis when unit files change on disk. It
// wraps fsnotify with per-path debouncing: editors produce bursts of
// write events for one save, and a run per burst is enough.
package watch

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Runner is invoked with the changed path after the debounce window.
type Runner func(path string)

// Watcher drives a Runner from filesystem events.
type Watcher struct {
	fw       *fsnotify.Watcher
	debounce time.Duration
	run      Runner
}

// New creates a watcher over the given files. A zero debounce defaults
// to 250ms.
func New(paths []string, debounce time.Duration, run Runner) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if err := fw.Add(p); err != nil {
			fw.Close()
			return nil, err
		}
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &Watcher{fw: fw, debounce: debounce, run: run}, nil
}

// Run blocks, dispatching debounced change events to the Runner, until
// the context is canceled or the underlying watcher closes.
func (w *Watcher) Run(ctx context.Context) error {
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	fired := make(chan string, 16)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case path := <-fired:
			delete(timers, path)
			w.run(path)

		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op&fsnotify.Rename != 0 {
				// Editors that save via rename drop the watch; re-add.
				_ = w.fw.Add(ev.Name)
			}
			path := ev.Name
			if t, ok := timers[path]; ok {
				t.Reset(w.debounce)
				continue
			}
			timers[path] = time.AfterFunc(w.debounce, func() {
				fired <- path
			})

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error { return w.fw.Close() }
