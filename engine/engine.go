package engine

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/gamex/engine/core"
	"github.com/spaghettifunk/gamex/engine/math"
)

type Stage uint8

const (
	// Application is constructed but Init was not called
	StageUninitialized Stage = iota
	// Core started and the game initialized
	StageInitialized
	// Frame loop is running
	StageRunning
	// Cleanup in progress
	StageShuttingDown
	// Every component has been released
	StageClosed
)

func (s Stage) String() string {
	switch s {
	case StageUninitialized:
		return "uninitialized"
	case StageInitialized:
		return "initialized"
	case StageRunning:
		return "running"
	case StageShuttingDown:
		return "shutting down"
	case StageClosed:
		return "closed"
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

// Application owns the window, graphics context, renderer, animation
// manager and core, and drives the frame loop. It must be used from the
// goroutine that created it, which should be the main one.
type Application struct {
	settings ApplicationSettings
	game     Game

	window    Window
	context   GraphicsContext
	renderer  Renderer
	animation AnimationManager
	core      GameCore

	owned ownedList

	events  *core.EventSystem
	input   *core.Input
	clock   *core.Clock
	metrics *core.Metrics

	stage       Stage
	coreStarted bool
	updated     bool
	lastTime    float64
}

// New builds every component in dependency order: window, graphics context,
// renderer, animation manager, core. If one fails, the ones already built
// are released in reverse order and the error is returned.
func New(settings ApplicationSettings, game Game, opts ...Option) (*Application, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	core.SetLogLevel(core.ParseLogLevel(settings.LogLevel))

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if game == nil {
		game = BaseGame{}
	}

	events := core.NewEventSystem()
	app := &Application{
		settings: settings,
		game:     game,
		events:   events,
		input:    core.NewInput(events),
		clock:    core.NewClockWithSource(o.now),
		metrics:  core.NewMetrics(),
		stage:    StageUninitialized,
	}

	if err := app.build(o); err != nil {
		if rerr := app.owned.releaseAll(); rerr != nil {
			err = errors.Join(err, rerr)
		}
		events.Shutdown()
		return nil, err
	}

	app.events.Register(core.EVENT_CODE_APPLICATION_QUIT, app.onEvent)
	app.events.Register(core.EVENT_CODE_RESIZED, app.onResized)

	// Deltas of the first Update are measured from here.
	app.clock.Start()
	app.lastTime = 0

	core.LogInfo("Application '%s' created.", settings.Name)
	return app, nil
}

func (a *Application) build(o options) error {
	w, err := o.window(a.settings, a.input)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrWindowCreation, err)
	}
	a.window = w
	a.owned.push("windowing subsystem", w.Terminate)
	a.owned.push("window", w.Destroy)

	ctx, err := o.context(w, a.settings)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrContextCreation, err)
	}
	a.context = ctx
	a.owned.push("graphics context", ctx.Destroy)

	r, err := o.renderer(ctx)
	if err != nil {
		return fmt.Errorf("%w: renderer: %w", core.ErrComponentCreation, err)
	}
	a.renderer = r
	a.owned.push("renderer", r.Destroy)

	m, err := o.animation(r)
	if err != nil {
		return fmt.Errorf("%w: animation manager: %w", core.ErrComponentCreation, err)
	}
	a.animation = m
	a.owned.push("animation manager", m.Destroy)

	c, err := o.core(m, a.settings)
	if err != nil {
		return fmt.Errorf("%w: core: %w", core.ErrComponentCreation, err)
	}
	a.core = c
	a.owned.push("core", c.Destroy)
	return nil
}

// Init starts the core and then calls the game's OnInit hook.
func (a *Application) Init() error {
	switch a.stage {
	case StageClosed, StageShuttingDown:
		return core.ErrApplicationClosed
	case StageUninitialized:
	default:
		return core.ErrAlreadyInitialized
	}

	if err := a.core.Start(); err != nil {
		return fmt.Errorf("failed to start core: %w", err)
	}
	a.coreStarted = true

	a.game.OnInit()
	a.stage = StageInitialized
	core.LogInfo("Application initialized.")
	return nil
}

// Run initializes the application if needed and loops over poll, Update and
// Render until the window is asked to close. It then waits for the GPU to go
// idle and cleans up, whatever happened before.
func (a *Application) Run() error {
	if a.stage >= StageShuttingDown {
		return core.ErrApplicationClosed
	}

	err := a.runLoop()

	if werr := a.context.WaitIdle(); werr != nil {
		err = errors.Join(err, fmt.Errorf("failed waiting for device idle: %w", werr))
	}
	if cerr := a.Cleanup(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	return err
}

func (a *Application) runLoop() error {
	if a.stage == StageUninitialized {
		if err := a.Init(); err != nil {
			return err
		}
	}
	if a.stage == StageRunning {
		return fmt.Errorf("application is already running")
	}
	a.stage = StageRunning
	core.LogInfo("Entering frame loop.")

	for !a.window.ShouldClose() {
		a.window.PollEvents()
		if err := a.Update(); err != nil {
			return err
		}
		if err := a.Render(); err != nil {
			return err
		}
	}
	core.LogInfo("Window closed, leaving frame loop.")
	return nil
}

// Update runs the game's OnUpdate hook, advances the animation manager by the
// time elapsed since the previous Update and syncs the renderer objects.
func (a *Application) Update() error {
	if a.stage >= StageShuttingDown {
		return core.ErrApplicationClosed
	}

	a.game.OnUpdate()

	a.clock.Update()
	now := a.clock.Elapsed()
	delta := math.Max(now-a.lastTime, 0)
	a.lastTime = now
	a.metrics.Update(delta)

	a.animation.Update(delta)
	if err := a.renderer.SyncObjects(); err != nil {
		return fmt.Errorf("failed to sync renderer objects: %w", err)
	}

	// Input state copying happens once everything this frame read it.
	a.input.Update()
	a.updated = true
	return nil
}

// Render clears the frame, lets the animation manager render its film and,
// when a film frame is ready, composites it onto the frame before presenting.
func (a *Application) Render() error {
	if a.stage >= StageShuttingDown {
		return core.ErrApplicationClosed
	}
	if !a.updated {
		return fmt.Errorf("%w: Render called before the first Update", core.ErrNotInitialized)
	}

	if err := a.context.BeginFrame(); err != nil {
		if errors.Is(err, core.ErrSwapchainBooting) {
			core.LogDebug("Swapchain out of date, skipping frame.")
			return nil
		}
		return fmt.Errorf("failed to begin frame: %w", err)
	}

	cmd := a.context.CommandBuffer()
	frame := a.context.FrameImage()
	clearFrame(cmd, frame)

	if a.animation.Render(cmd) {
		if film := a.animation.PrimaryFilm(); film != nil {
			OutputImage(cmd, film.Image, frame)
		}
	}

	if err := a.context.EndFrame(); err != nil {
		return fmt.Errorf("failed to end frame: %w", err)
	}
	return nil
}

// Cleanup calls the game's OnCleanup hook, stops the core and releases every
// component in reverse construction order, the windowing subsystem last. It
// may only be called once. OnCleanup only runs when OnInit did.
func (a *Application) Cleanup() error {
	if a.stage >= StageShuttingDown {
		return core.ErrApplicationClosed
	}
	initialized := a.stage >= StageInitialized
	a.stage = StageShuttingDown
	core.LogInfo("Application shutting down...")

	if initialized {
		a.game.OnCleanup()
	}

	var errs []error
	if a.coreStarted {
		if err := a.core.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop core: %w", err))
		}
		a.coreStarted = false
	}
	if err := a.owned.releaseAll(); err != nil {
		errs = append(errs, err)
	}
	a.events.Shutdown()

	a.stage = StageClosed
	core.LogInfo("Application closed.")
	return errors.Join(errs...)
}

// RequestClose asks the frame loop to stop after the current frame. Safe to
// call from any goroutine.
func (a *Application) RequestClose() {
	a.window.RequestClose()
}

func (a *Application) Stage() Stage {
	return a.stage
}

func (a *Application) Settings() ApplicationSettings {
	return a.settings
}

func (a *Application) Input() *core.Input {
	return a.input
}

func (a *Application) Events() *core.EventSystem {
	return a.events
}

func (a *Application) Metrics() *core.Metrics {
	return a.metrics
}

// Animation returns the animation manager, for games that drive it directly.
func (a *Application) Animation() AnimationManager {
	return a.animation
}

func (a *Application) onEvent(context core.EventContext) bool {
	if context.Type == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		a.window.RequestClose()
		return true
	}
	return false
}

func (a *Application) onResized(context core.EventContext) bool {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	core.LogDebug("Window resize: %d, %d", se.WindowWidth, se.WindowHeight)
	return false
}
