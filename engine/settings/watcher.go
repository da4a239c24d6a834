package settings

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/Carmen-Shannon/oxy-ro/common"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a settings file when it changes on disk.
// Reloaded settings are delivered on Changes; the host applies them between frames on its render goroutine.
type Watcher struct {
	path    string
	fs      *fsnotify.Watcher
	changes chan Settings
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup

	current Settings
}

// NewWatcher starts watching a settings file. The parent directory is watched so that editors replacing the file
// by rename are observed.
//
// Parameters:
//   - path: the settings file
//   - current: the settings currently applied, used to drop reloads without changes
//
// Returns:
//   - *Watcher: the running watcher
//   - error: the fsnotify error
func NewWatcher(path string, current Settings) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create settings watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fsWatch.Close()
		return nil, fmt.Errorf("failed to resolve settings path %s: %w", path, err)
	}
	if err := fsWatch.Add(filepath.Dir(abs)); err != nil {
		fsWatch.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:    abs,
		fs:      fsWatch,
		changes: make(chan Settings, 1),
		done:    make(chan struct{}),
		current: current,
	}
	w.wg.Add(1)
	go w.start()
	return w, nil
}

// Changes delivers reloaded settings. Only the latest pending reload is kept.
func (w *Watcher) Changes() <-chan Settings {
	return w.changes
}

// Close stops the watcher. Safe to call multiple times.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.wg.Wait()
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) start() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != w.path || e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.reload()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			common.LogError("settings watcher: %v", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	s, err := Load(w.path)
	if err != nil {
		common.LogWarn("settings reload skipped: %v", err)
		return
	}
	if s == w.current {
		return
	}
	w.current = s
	common.LogInfo("settings reloaded from %s", w.path)

	// Non-blocking send; a pending reload is replaced by the newer one.
	select {
	case w.changes <- s:
	default:
		select {
		case <-w.changes:
		default:
		}
		w.changes <- s
	}
}
