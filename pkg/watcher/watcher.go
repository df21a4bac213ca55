// Package watcher observes a project tree for source changes and
// coalesces them into re-analysis triggers.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/depscope/depscope/pkg/analyzer"
	"github.com/depscope/depscope/pkg/logging"
)

// ChangeEvent is a batch of changed paths.
type ChangeEvent struct {
	Paths     []string
	Timestamp time.Time
}

// FileWatcher watches a project tree recursively. fsnotify watches are
// per directory, so every non-skipped directory is registered, and
// directories created later join the watch set as they appear.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	root    string
	events  chan ChangeEvent
}

// NewFileWatcher creates a watcher for a project root.
func NewFileWatcher(root string) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &FileWatcher{
		watcher: w,
		root:    root,
		events:  make(chan ChangeEvent, 100),
	}, nil
}

// Start registers the directory tree and begins emitting change
// events. Cancelling ctx stops the watcher and closes Events.
func (fw *FileWatcher) Start(ctx context.Context) error {
	count := 0
	err := filepath.WalkDir(fw.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != fw.root && analyzer.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			logging.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk project tree: %w", err)
	}

	logging.Info("watching project", "root", fw.root, "directories", count)
	go fw.processEvents(ctx)
	return nil
}

// Events returns the channel of change events.
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// processEvents filters raw fsnotify events down to source-relevant
// changes and batches rapid successors before emitting.
func (fw *FileWatcher) processEvents(ctx context.Context) {
	var pending []string
	flushTimer := time.NewTimer(0)
	if !flushTimer.Stop() {
		<-flushTimer.C
	}

	flush := func() {
		if len(pending) == 0 {
			return
		}
		fw.events <- ChangeEvent{Paths: pending, Timestamp: time.Now()}
		pending = nil
	}

	for {
		select {
		case <-ctx.Done():
			fw.watcher.Close()
			close(fw.events)
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				close(fw.events)
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if !fw.relevant(event) {
				continue
			}
			pending = append(pending, event.Name)
			flushTimer.Reset(100 * time.Millisecond)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				close(fw.events)
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// relevant admits code-file changes and directory changes. A created
// directory also joins the watch set, so sources written into it later
// are seen.
func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if analyzer.IsCodeFile(event.Name) {
		return true
	}

	info, err := os.Stat(event.Name)
	if err == nil && info.IsDir() {
		if analyzer.SkipDir(filepath.Base(event.Name)) {
			return false
		}
		if event.Op.Has(fsnotify.Create) {
			if err := fw.watcher.Add(event.Name); err != nil {
				logging.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
		}
		return true
	}

	// A removed or renamed entry cannot be stat'ed; treat
	// extensionless names as directories that may have held sources.
	if err != nil && filepath.Ext(event.Name) == "" {
		return !analyzer.SkipDir(filepath.Base(event.Name))
	}
	return false
}
