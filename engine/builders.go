package engine

import (
	"time"

	"github.com/spaghettifunk/gamex/engine/animation"
	"github.com/spaghettifunk/gamex/engine/core"
	"github.com/spaghettifunk/gamex/engine/gamecore"
	"github.com/spaghettifunk/gamex/engine/platform"
	"github.com/spaghettifunk/gamex/engine/renderer"
	"github.com/spaghettifunk/gamex/engine/renderer/vulkan"
)

type (
	WindowBuilder    func(settings ApplicationSettings, input *core.Input) (Window, error)
	ContextBuilder   func(window Window, settings ApplicationSettings) (GraphicsContext, error)
	RendererBuilder  func(ctx GraphicsContext) (Renderer, error)
	AnimationBuilder func(r Renderer) (AnimationManager, error)
	CoreBuilder      func(m AnimationManager, settings ApplicationSettings) (GameCore, error)
)

type options struct {
	window    WindowBuilder
	context   ContextBuilder
	renderer  RendererBuilder
	animation AnimationBuilder
	core      CoreBuilder
	now       func() time.Time
}

// Option overrides how the application builds one of its components.
type Option func(*options)

func WithWindowBuilder(b WindowBuilder) Option {
	return func(o *options) { o.window = b }
}

func WithContextBuilder(b ContextBuilder) Option {
	return func(o *options) { o.context = b }
}

func WithRendererBuilder(b RendererBuilder) Option {
	return func(o *options) { o.renderer = b }
}

func WithAnimationBuilder(b AnimationBuilder) Option {
	return func(o *options) { o.animation = b }
}

func WithCoreBuilder(b CoreBuilder) Option {
	return func(o *options) { o.core = b }
}

// WithTimeSource replaces the wall clock used for frame deltas.
func WithTimeSource(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func defaultOptions() options {
	return options{
		window:    buildWindow,
		context:   buildContext,
		renderer:  buildRenderer,
		animation: buildAnimation,
		core:      buildCore,
		now:       time.Now,
	}
}

func buildWindow(settings ApplicationSettings, input *core.Input) (Window, error) {
	if err := platform.Init(); err != nil {
		return nil, err
	}

	mode, err := platform.PrimaryVideoMode()
	if err != nil {
		if settings.Fullscreen {
			platform.Terminate()
			return nil, err
		}
		core.LogWarn("Primary monitor unavailable: %s", err)
	}

	width, height := ResolveSize(settings, mode)
	w, err := platform.NewWindow(platform.WindowConfig{
		Title:      settings.Name,
		Width:      width,
		Height:     height,
		Fullscreen: settings.Fullscreen,
	}, input)
	if err != nil {
		platform.Terminate()
		return nil, err
	}
	return w, nil
}

func buildContext(window Window, settings ApplicationSettings) (GraphicsContext, error) {
	ctx, err := vulkan.NewContext(window, settings.Name, settings.Debug)
	if err != nil {
		return nil, err
	}
	return ctx, nil
}

func buildRenderer(ctx GraphicsContext) (Renderer, error) {
	r, err := renderer.New(ctx)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func buildAnimation(r Renderer) (AnimationManager, error) {
	m, err := animation.NewManager(r, animation.DefaultManagerConfig())
	if err != nil {
		return nil, err
	}
	return m, nil
}

func buildCore(m AnimationManager, settings ApplicationSettings) (GameCore, error) {
	return gamecore.New(m, gamecore.Config{
		Workers:   settings.Workers,
		ScenePath: settings.ScenePath,
	}), nil
}
