// Package watch triggers a rebuild whenever a file in the most recent
// module graph changes, debouncing bursts of events (an editor's
// several separate writes for one save) into a single rebuild. It
// knows nothing about the graph or writer types themselves: a build is
// just a function that returns the set of files to watch next.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/packline-dev/packline/internal/bundlerrors"
	"github.com/packline-dev/packline/internal/log"
)

// Debounce is how long the watcher waits after the last observed event
// before triggering a rebuild.
const Debounce = 50 * time.Millisecond

// Outcome is what one build reports back to Run: the set of files the
// new graph depends on, which becomes the next watch set.
type Outcome struct {
	Files []string
}

// BuildFunc runs one build (including writing its output, which is the
// caller's concern, not this package's) and reports the files it now
// depends on. A non-nil error means the rebuild failed; per §7, no
// error is fatal to the process in watch mode.
type BuildFunc func() (Outcome, error)

// Run performs an initial build, then watches every file it named and
// triggers build again on every debounced change, re-diffing the watch
// set after each rebuild since the graph can change file to file. quiet
// suppresses the terminal bell that otherwise follows a failed rebuild.
// Run returns only on a watcher setup error or ctx cancellation.
func Run(ctx context.Context, logger *log.Logger, quiet bool, build BuildFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return bundlerrors.Wrap(bundlerrors.Watch, "cannot start file system watcher", err)
	}
	defer w.Close()

	watched := make(map[string]bool)

	rebuild := func() {
		outcome, err := build()
		if err != nil {
			logger.WithError(err).Error("build failed")
			if !quiet {
				fmt.Print("\a")
			}
			return
		}
		resync(w, logger, watched, outcome.Files)
	}

	rebuild()

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op == 0 {
				continue
			}
			timer.Reset(Debounce)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.WithError(watchErr).Warn("file system watcher error")

		case <-timer.C:
			rebuild()
		}
	}
}

// resync adds every not-yet-watched file in files and removes every
// watched file no longer in it, so the watch set always matches the
// graph the most recent successful build produced.
func resync(w *fsnotify.Watcher, logger *log.Logger, watched map[string]bool, files []string) {
	want := make(map[string]bool, len(files))
	for _, f := range files {
		want[f] = true
		if !watched[f] {
			if err := w.Add(f); err != nil {
				logger.WithError(err).WithField("path", f).Warn("cannot watch file")
				continue
			}
			watched[f] = true
		}
	}
	for f := range watched {
		if !want[f] {
			_ = w.Remove(f)
			delete(watched, f)
		}
	}
}
