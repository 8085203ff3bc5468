package gamecore

import (
	"runtime"
	"sync"

	"github.com/spaghettifunk/gamex/engine/animation"
	"github.com/spaghettifunk/gamex/engine/core"
)

// AnimationManager receives the commands the core produces.
type AnimationManager interface {
	Enqueue(c animation.Command)
}

type Config struct {
	// Workers defaults to the number of CPUs when zero.
	Workers int
	// QueueSize is the job queue capacity.
	QueueSize int
	// ScenePath is optional. When set the scene is loaded on Start and reloaded on change.
	ScenePath string
}

// Core runs background processing for the game: scene loading and any job
// the game submits. Results reach the animation manager as commands.
type Core struct {
	manager AnimationManager
	cfg     Config

	mu      sync.Mutex
	running bool
	jobs    *JobSystem
	watcher *SceneWatcher
}

func New(manager AnimationManager, cfg Config) *Core {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	return &Core{
		manager: manager,
		cfg:     cfg,
	}
}

// Start launches the worker pool, loads the scene and starts watching it.
func (c *Core) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return core.ErrCoreAlreadyRunning
	}

	jobs, err := NewJobSystem(c.cfg.Workers, c.cfg.QueueSize)
	if err != nil {
		return err
	}

	if c.cfg.ScenePath != "" {
		// The first load is synchronous so a broken scene fails Start.
		tracks, err := LoadScene(c.cfg.ScenePath)
		if err != nil {
			jobs.Shutdown()
			return err
		}
		c.manager.Enqueue(animation.ReplaceTracks{Tracks: tracks})
		core.LogInfo("Scene %s loaded (%d tracks).", c.cfg.ScenePath, len(tracks))

		watcher, err := NewSceneWatcher(c.cfg.ScenePath, c.reloadScene)
		if err != nil {
			jobs.Shutdown()
			return err
		}
		c.watcher = watcher
	}

	c.jobs = jobs
	c.running = true
	core.LogInfo("Core started with %d workers.", c.cfg.Workers)
	return nil
}

func (c *Core) reloadScene(path string) {
	err := c.Submit(Job{
		Name: "scene-reload",
		Run: func() error {
			tracks, err := LoadScene(path)
			if err != nil {
				return err
			}
			c.manager.Enqueue(animation.ReplaceTracks{Tracks: tracks})
			core.LogInfo("Scene %s reloaded (%d tracks).", path, len(tracks))
			return nil
		},
	})
	if err != nil {
		core.LogWarn("Scene reload skipped: %s", err)
	}
}

// Submit runs job on the worker pool.
func (c *Core) Submit(job Job) error {
	c.mu.Lock()
	jobs := c.jobs
	running := c.running
	c.mu.Unlock()

	if !running {
		return core.ErrCoreNotRunning
	}
	return jobs.Submit(job)
}

// Running reports whether Start succeeded and Stop was not called since.
func (c *Core) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Stop closes the watcher and waits for queued jobs to finish.
func (c *Core) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return core.ErrCoreNotRunning
	}
	c.running = false
	watcher, jobs := c.watcher, c.jobs
	c.watcher, c.jobs = nil, nil
	c.mu.Unlock()

	if watcher != nil {
		if err := watcher.Close(); err != nil {
			core.LogWarn(err.Error())
		}
	}
	if err := jobs.Shutdown(); err != nil {
		return err
	}
	core.LogInfo("Core stopped.")
	return nil
}

// Destroy stops the core if it is still running.
func (c *Core) Destroy() error {
	if c.Running() {
		return c.Stop()
	}
	return nil
}
