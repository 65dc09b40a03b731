package content

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// settle absorbs the burst of events editors produce for a single save.
const settle = 100 * time.Millisecond

// Watch reloads the page at path whenever it changes and hands the result
// to fn. The directory is watched rather than the file so that editors that
// save by renaming are picked up. Watching stops when ctx is done.
func Watch(ctx context.Context, path string, fn func(Page, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("unable to resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return fmt.Errorf("unable to watch %s: %w", filepath.Dir(abs), err)
	}
	log.Debug("Watching page", "path", abs)

	go func() {
		defer func() { _ = w.Close() }()

		var reload <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				reload = time.After(settle)

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				fn(Page{}, fmt.Errorf("watch error: %w", err))

			case <-reload:
				reload = nil
				p, err := Load(abs)
				log.Debug("Reloaded page", "path", abs, "error", err)
				fn(p, err)
			}
		}
	}()
	return nil
}
