package app

import (
	"context"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchFile reloads the draft context whenever the local cube list at
// path is rewritten. The watch runs until ctx is cancelled. Editors
// often replace files instead of writing in place, so the watch is on
// the containing directory and filters events to path.
func (a *App) WatchFile(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != abs || !event.Op.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				log.Printf("Cube list %s changed, reloading", path)
				if err := a.Load(ctx); err != nil {
					log.Printf("Reload failed: %v", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Cube list watch error: %v", err)
			}
		}
	}()

	return nil
}
