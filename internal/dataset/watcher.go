package dataset

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/callmap/internal/logger"
	"github.com/j-veylop/callmap/internal/models"
)

// EventType defines the type of watcher event.
type EventType int

const (
	// EventReloaded is sent after the dataset was re-read successfully.
	EventReloaded EventType = iota
	// EventError is sent when watching or re-reading fails.
	EventError
)

// Event represents a dataset watcher event.
type Event struct {
	Dataset *models.Dataset
	Error   error
	Type    EventType
}

const debounceInterval = 100 * time.Millisecond

// Watcher reloads a dataset file whenever it changes on disk.
type Watcher struct {
	mu            sync.Mutex
	watcher       *fsnotify.Watcher
	debounceTimer *time.Timer
	eventChan     chan Event
	stopChan      chan struct{}
	path          string
	closed        bool
}

// NewWatcher starts watching the directory containing path.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory so editors that replace the file are caught
	if err := fw.Add(filepath.Dir(path)); err != nil {
		if closeErr := fw.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		watcher:   fw,
		path:      path,
		eventChan: make(chan Event, 10),
		stopChan:  make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

// Events returns the channel reload results are delivered on.
func (w *Watcher) Events() <-chan Event {
	return w.eventChan
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			w.mu.Lock()
			if w.debounceTimer != nil {
				w.debounceTimer.Stop()
			}
			w.debounceTimer = time.AfterFunc(debounceInterval, w.reload)
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendEvent(Event{Type: EventError, Error: err})

		case <-w.stopChan:
			return
		}
	}
}

// reload re-reads the dataset and reports the outcome.
func (w *Watcher) reload() {
	ds, err := Load(w.path)
	if err != nil {
		logger.Warn("dataset reload failed", "path", w.path, "error", err)
		w.sendEvent(Event{Type: EventError, Error: err})
		return
	}
	logger.Info("dataset reloaded", "path", w.path)
	w.sendEvent(Event{Type: EventReloaded, Dataset: ds})
}

// sendEvent sends an event non-blocking, dropping the oldest when full.
func (w *Watcher) sendEvent(event Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	select {
	case w.eventChan <- event:
	default:
		select {
		case <-w.eventChan:
		default:
		}
		select {
		case w.eventChan <- event:
		default:
		}
	}
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()

	close(w.stopChan)
	return w.watcher.Close()
}
