package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/perfkit/agent/internal/log"
)

// Watcher reloads a config file on write events and hands the result to
// onChange. It reacts to file-system events only; SIGHUP (sent by
// `perfkitd reload`) goes through Daemon.Reload instead. The daemon's
// callback applies logging changes and only warns that control-socket or
// channel-list changes need a restart.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	onChange func(*GlobalConfig)
}

// NewWatcher starts watching path's containing directory (editors typically
// replace the file rather than writing in place, which loses inotify watches
// on the original inode) and invokes onChange with the freshly loaded config
// whenever path is written or recreated.
func NewWatcher(path string, onChange func(*GlobalConfig)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{path: path, watcher: fw, onChange: onChange}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	logger := log.GetLogger().WithField("path", w.path)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				logger.WithError(err).Warn("config: reload on file change failed")
				continue
			}
			w.onChange(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.WithError(err).Warn("config: watcher error")
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
