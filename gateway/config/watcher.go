package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watch reloads the config file on change and hands the parsed result to
// onChange. Editors replace files rather than writing in place, so the watch
// is on the parent directory and events are debounced. Blocks until ctx is
// cancelled.
func Watch(ctx context.Context, path string, logger *log.Logger, onChange func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return err
	}

	var debounce *time.Timer
	reload := func() {
		cfg, err := Load(absPath)
		if err != nil {
			logger.WithFields(log.Fields{"path": absPath, "error": err.Error()}).
				Warn("Config reload failed, keeping previous config")
			return
		}
		logger.WithFields(log.Fields{"path": absPath}).Info("Config reloaded")
		onChange(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithFields(log.Fields{"error": err.Error()}).Warn("Config watcher error")
		}
	}
}
