// Package credwatch monitors the credential file so a rotated token takes
// effect without restarting the process.
package credwatch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ChangeCallback is called with the new credential after the file settles.
// An empty credential means the file was removed or emptied.
type ChangeCallback func(credential string)

// Watcher monitors a credential file for writes, renames, and removal.
// Editors and secret managers often replace the file rather than write it
// in place, so the parent directory is watched and events are debounced.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	callback ChangeCallback
	debounce time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	last   string
	cancel context.CancelFunc
}

// New creates a Watcher for the credential file at path.
func New(path string, callback ChangeCallback, log zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     path,
		watcher:  fw,
		callback: callback,
		debounce: 500 * time.Millisecond,
		log:      log,
	}

	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Read returns the current credential, trimmed of surrounding whitespace.
// A missing file yields an empty credential, not an error.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Start begins watching. Events settle for the debounce window before the
// callback fires, and the callback only fires when the credential actually
// changed.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.last, _ = Read(w.path)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(event)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.log.Warn().Err(err).Msg("credential watch error")
			}
		}
	}()
}

// Stop stops watching.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.watcher.Close()
}

// SetDebounce sets the settle window for batching file events.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	credential, err := Read(w.path)
	if err != nil {
		w.log.Warn().Err(err).Msg("reading credential failed")
		return
	}

	w.mu.Lock()
	changed := credential != w.last
	w.last = credential
	w.mu.Unlock()

	if !changed || w.callback == nil {
		return
	}

	w.log.Info().Bool("present", credential != "").Msg("credential changed")
	w.callback(credential)
}
