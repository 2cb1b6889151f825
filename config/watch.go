package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher calls a function whenever the configuration file was written or
// replaced. Changes are coalesced until the file was quiet for the debounce
// delay, editors tend to write in several steps.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func()

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewWatcher(path string, debounce time.Duration, onChange func()) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		onChange: onChange,
		done:     make(chan struct{}),
	}
}

// Start watches the directory of the file, so a file replaced by rename is
// still seen.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher

	slog.Info("Config watcher started", "path", w.path, "debounce", w.debounce)
	w.wg.Add(1)
	go w.watch()
	return nil
}

func (w *Watcher) Stop() error {
	if w.watcher == nil {
		return nil
	}
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	w.watcher = nil
	return err
}

func (w *Watcher) watch() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			slog.Debug("Config file change detected", "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			slog.Info("Config file changed", "path", w.path)
			w.onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Config watcher error", "error", err)
		}
	}
}
