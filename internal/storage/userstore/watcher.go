package userstore

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"tlscope/internal/util/logger/sl"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher observes the data directory and fires onReload, debounced, when
// record files are added, changed or removed externally.
type Watcher struct {
	fsw      *fsnotify.Watcher
	onReload func()
	debounce time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	log      *slog.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewWatcher(dir string, onReload func(), log *slog.Logger) (*Watcher, error) {
	const op = "userstore.NewWatcher"

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		onReload: onReload,
		debounce: defaultDebounce,
		log:      log.With(slog.String("op", op)),
		stopChan: make(chan struct{}),
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != RecordExt {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.trigger()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("watch error", sl.Err(err))
		}
	}
}

// trigger coalesces bursts of record-file events into one reload.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onReload)
}

func (w *Watcher) Close() error {
	close(w.stopChan)
	err := w.fsw.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	return err
}
