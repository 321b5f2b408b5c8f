package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the global configuration whenever the config file is
// written, created or replaced, then calls onChange with the new value.
// It blocks until ctx is cancelled.
//
// The parent directory is watched rather than the file so that editors and
// ConfigMap updates that swap the file atomically are still seen.
func Watch(ctx context.Context, onChange func(*Config)) error {
	path := FilePath()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := Reload(); err != nil {
				log.Printf("config: reload of %s failed: %v", path, err)
				continue
			}
			cfg := Get()
			if err := cfg.Validate(); err != nil {
				log.Printf("config: reloaded %s is invalid: %v", path, err)
				continue
			}
			log.Printf("config: reloaded %s", path)
			if onChange != nil {
				onChange(cfg)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("config: watcher error: %v", err)
		}
	}
}
