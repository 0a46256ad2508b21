package parity

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchOptions configures Watch.
type WatchOptions struct {
	// Debounce is how long the directories must be quiet before a re-check.
	Debounce time.Duration
	// Datasets limits the check; empty means every discovered dataset.
	Datasets []string
}

func (o *WatchOptions) setDefaults() {
	if o.Debounce == 0 {
		o.Debounce = 250 * time.Millisecond
	}
}

// ReportFunc receives the outcome of every check Watch runs.
type ReportFunc func(*Report, error)

// Watch runs a check immediately and again after every burst of changes to
// dataset files in either directory. It blocks until ctx is cancelled.
func (c *Checker) Watch(ctx context.Context, opts WatchOptions, onReport ReportFunc) error {
	opts.setDefaults()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range []string{c.baseDir, c.workingDir} {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		c.logger.Debug("added watch", "path", dir)
	}

	run := func() {
		onReport(c.Check(ctx, opts.Datasets...))
	}
	run()

	// Single timer, reset on every relevant event.
	timer := time.NewTimer(opts.Debounce)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event) {
				continue
			}
			c.logger.Debug("dataset changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(opts.Debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			run()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("watch error", "error", err)
		}
	}
}

func relevantEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(event.Name)
	if ignored(name) {
		return false
	}
	return slices.Contains(extensions, filepath.Ext(name))
}
