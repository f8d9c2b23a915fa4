// Package watch reruns a callback when watched files change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before the
// callback runs.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a set of files for changes
type Watcher struct {
	files    map[string]bool
	callback func() error
	onError  func(error)
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a watcher for files. The parent directories are
// watched so that editors replacing a file by rename are noticed. Callback
// and watch errors are passed to onError.
func NewWatcher(files []string, callback func() error, onError func(error)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		files:    make(map[string]bool, len(files)),
		callback: callback,
		onError:  onError,
		debounce: DefaultDebounce,
		watcher:  watcher,
	}
	dirs := make(map[string]bool)
	for _, f := range files {
		absPath, err := filepath.Abs(f)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		w.files[absPath] = true
		dir := filepath.Dir(absPath)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch directory: %w", err)
		}
	}
	return w, nil
}

// SetDebounce changes the quiet period.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// Run calls the callback once, then again after every burst of changes,
// until ctx is done. An error from the first call is returned; later
// errors go to onError.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.callback(); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()
	var debounceCh <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			eventPath, err := filepath.Abs(event.Name)
			if err == nil && w.files[eventPath] {
				// Reset on each event.
				debounceTimer.Reset(w.debounce)
				debounceCh = debounceTimer.C
			}

		case <-debounceCh:
			debounceCh = nil
			if err := w.callback(); err != nil {
				w.report(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.report(fmt.Errorf("watch error: %w", err))

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) report(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}
