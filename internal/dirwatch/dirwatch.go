// Package dirwatch watches cached SaveDB directories for external removal
// (a save slot deleted from outside the process, a Saves/ tree rsynced away
// mid-run) and evicts them from the call handler's cache so a later call
// against that directory reopens cleanly instead of operating on a handle
// to a vanished file.
package dirwatch

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Evictor is the subset of dbCache dirwatch needs; callhandler.Handler
// satisfies it via its own Evict method.
type Evictor interface {
	Evict(dir string)
}

// Watcher wraps an fsnotify.Watcher, translating Remove/Rename events on
// watched directories into Evictor.Evict calls.
type Watcher struct {
	fsw     *fsnotify.Watcher
	evict   Evictor
	log     zerolog.Logger
	mu      sync.Mutex
	watched map[string]bool
	done    chan struct{}
}

// New starts a Watcher that calls evict.Evict(dir) whenever a watched
// directory is removed or renamed out from under the process.
func New(evict Evictor, log zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:     fsw,
		evict:   evict,
		log:     log,
		watched: make(map[string]bool),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Add registers dir for removal watching. Calling Add on an
// already-watched dir is a no-op. Best-effort: a dir that disappears
// between Acquire and Add simply never reports, and the next call against
// it will surface the failure through savedb.Open instead.
func (w *Watcher) Add(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[dir] {
		return
	}
	if err := w.fsw.Add(dir); err != nil {
		w.log.Warn().Err(err).Str("dir", dir).Msg("dirwatch: add")
		return
	}
	w.watched[dir] = true
}

// Remove unregisters dir, e.g. once its SaveDB has been closed normally and
// there is no more reason to watch it.
func (w *Watcher) Remove(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.watched[dir] {
		return
	}
	_ = w.fsw.Remove(dir)
	delete(w.watched, dir)
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.handleGone(ev.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("dirwatch: watch error")
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleGone(dir string) {
	w.mu.Lock()
	_, ok := w.watched[dir]
	delete(w.watched, dir)
	w.mu.Unlock()
	if !ok {
		return
	}
	w.log.Info().Str("dir", dir).Msg("dirwatch: directory gone, evicting")
	w.evict.Evict(dir)
}

// Close stops the watch loop and releases the underlying fsnotify handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
