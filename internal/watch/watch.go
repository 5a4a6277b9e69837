// Package watch reports filesystem mutations under a sandbox overlay
// root as they happen, for `sbox run --watch`.
package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/czj19920117/mbox/internal/logger"
)

// Event is one overlay mutation, with Path relative to the overlay
// root rather than fsnotify's absolute form.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher recursively watches an overlay root and emits Events for
// every create/write/remove/rename/chmod under it, including
// directories created after the watch starts.
type Watcher struct {
	root   string
	fsw    *fsnotify.Watcher
	events chan Event
	done   chan struct{}
}

// New starts watching root, which must already exist.
func New(root string) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: new watcher: %w", err)
	}

	w := &Watcher{
		root:   abs,
		fsw:    fsw,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	if err := w.addTree(abs); err != nil {
		fsw.Close()
		return nil, err
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("watch: add %s: %w", path, err)
			}
		}
		return nil
	})
}

func statIsDir(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return fi.IsDir(), nil
}

// Events returns the channel Event values are delivered on. It is
// closed once Close has stopped the watcher; events not yet delivered
// at that point are dropped.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

func (w *Watcher) loop() {
	defer close(w.events)
	log := logger.Cat("watch")
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			rel, err := filepath.Rel(w.root, ev.Name)
			if err != nil {
				rel = ev.Name
			}
			if ev.Op.Has(fsnotify.Create) {
				if fi, err := statIsDir(ev.Name); err == nil && fi {
					if err := w.fsw.Add(ev.Name); err != nil {
						log.Debug("watch add failed", "path", ev.Name, "err", err)
					}
				}
			}
			select {
			case w.events <- Event{Path: rel, Op: ev.Op}:
			case <-w.done:
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn("watch error", "err", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher and releases its underlying fd.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
