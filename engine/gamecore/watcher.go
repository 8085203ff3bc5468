package gamecore

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/gamex/engine/core"
)

// SceneWatcher calls onChange whenever the watched file is written or
// recreated. The parent directory is watched so editors that save by
// renaming a temporary file are picked up too.
type SceneWatcher struct {
	path     string
	onChange func(path string)

	fsnotify *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup

	mu       sync.Mutex
	isClosed bool
}

func NewSceneWatcher(path string, onChange func(path string)) (*SceneWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatch.Add(filepath.Dir(abs)); err != nil {
		fsWatch.Close()
		return nil, err
	}

	sw := &SceneWatcher{
		path:     abs,
		onChange: onChange,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}
	sw.wg.Add(1)
	go sw.start()

	core.LogDebug("Watching scene file %s.", abs)
	return sw, nil
}

func (sw *SceneWatcher) start() {
	defer sw.wg.Done()
	for {
		select {
		case e, ok := <-sw.fsnotify.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != sw.path {
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				sw.onChange(sw.path)
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				core.LogWarn("Scene file %s was removed; keeping the current scene.", sw.path)
			}

		case err, ok := <-sw.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-sw.done:
			return
		}
	}
}

// Close stops watching and waits for the event loop to exit.
func (sw *SceneWatcher) Close() error {
	sw.mu.Lock()
	if sw.isClosed {
		sw.mu.Unlock()
		return errors.New("scene watcher already closed")
	}
	sw.isClosed = true
	sw.mu.Unlock()

	close(sw.done)
	sw.wg.Wait()
	return sw.fsnotify.Close()
}
