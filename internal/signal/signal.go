// Package signal delivers stop requests to running sessions through
// per-session files in a signals directory. The stop command writes a
// file; the engine's stop check observes it at the next stage boundary.
package signal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher tracks stop signals for sessions. It watches the signals
// directory with fsnotify and falls back to a file stat so a missed
// event never loses a stop request.
type Watcher struct {
	signalsDir string

	mu      sync.RWMutex
	stopped map[string]bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New creates a watcher over dataDir/signals, creating the directory
// if needed.
func New(dataDir string) (*Watcher, error) {
	signalsDir := filepath.Join(dataDir, "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, fmt.Errorf("create signals directory: %w", err)
	}

	w := &Watcher{
		signalsDir: signalsDir,
		stopped:    make(map[string]bool),
		done:       make(chan struct{}),
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		// Stat fallback in ShouldStop still works without the watcher.
		return w, nil
	}
	if err := fsw.Add(signalsDir); err != nil {
		fsw.Close()
		return w, nil
	}
	w.watcher = fsw
	go w.watch()

	return w, nil
}

func (w *Watcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.mu.Lock()
				w.stopped[filepath.Base(event.Name)] = true
				w.mu.Unlock()
			}
		case <-w.watcher.Errors:
			// Keep watching; the stat fallback covers missed events.
		}
	}
}

// ShouldStop reports whether a stop has been requested for the session.
func (w *Watcher) ShouldStop(sessionID string) bool {
	// Check the file directly in case the watcher missed the event.
	if _, err := os.Stat(w.signalPath(sessionID)); err == nil {
		w.mu.Lock()
		w.stopped[sessionID] = true
		w.mu.Unlock()
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stopped[sessionID]
}

// RequestStop records a stop request for the session.
func (w *Watcher) RequestStop(sessionID string) error {
	return os.WriteFile(w.signalPath(sessionID), []byte(time.Now().Format(time.RFC3339)), 0644)
}

// Clear removes the stop request for a session so it can be started
// again.
func (w *Watcher) Clear(sessionID string) {
	w.mu.Lock()
	delete(w.stopped, sessionID)
	w.mu.Unlock()
	os.Remove(w.signalPath(sessionID))
}

// Close shuts down the watcher.
func (w *Watcher) Close() {
	close(w.done)
	if w.watcher != nil {
		w.watcher.Close()
	}
}

func (w *Watcher) signalPath(sessionID string) string {
	return filepath.Join(w.signalsDir, sessionID)
}
