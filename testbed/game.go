package testbed

import (
	"github.com/spaghettifunk/gamex/engine"
	"github.com/spaghettifunk/gamex/engine/animation"
	"github.com/spaghettifunk/gamex/engine/core"
)

// TestGame drives a small colour animation and exposes a few debug keys:
// P pauses or resumes, R rewinds, F logs the frame metrics.
type TestGame struct {
	engine.BaseGame

	app     *engine.Application
	paused  bool
	keyID   uint64
	hasKeys bool
}

func NewTestGame() *TestGame {
	return &TestGame{}
}

// Attach hands the game the application it runs in. Must be called before Run.
func (g *TestGame) Attach(app *engine.Application) {
	g.app = app
}

func (g *TestGame) OnInit() {
	core.LogInfo("booting testbed...")
	if g.app == nil {
		core.LogWarn("testbed not attached to an application")
		return
	}

	g.keyID = g.app.Events().Register(core.EVENT_CODE_KEY_RELEASED, g.onKey)
	g.hasKeys = true

	// Without a scene the film pulses between two colours.
	if g.app.Settings().ScenePath != "" {
		return
	}
	pulse, err := animation.NewTrack("pulse", true,
		animation.Keyframe{Time: 0, Value: animation.Color{0.1, 0.1, 0.3, 1}},
		animation.Keyframe{Time: 1.5, Value: animation.Color{0.9, 0.4, 0.1, 1}},
		animation.Keyframe{Time: 3, Value: animation.Color{0.1, 0.1, 0.3, 1}},
	)
	if err != nil {
		core.LogError("failed to build pulse track: %s", err)
		return
	}
	g.app.Animation().Enqueue(animation.SetTrack{Track: pulse})
}

func (g *TestGame) OnUpdate() {
	if g.app == nil {
		return
	}
	in := g.app.Input()
	if in.IsKeyDown(core.KEY_F) && in.WasKeyUp(core.KEY_F) {
		fps, frameTime := g.app.Metrics().Frame()
		core.LogInfo("FPS: %5.1f (%4.1fms)", fps, frameTime)
	}
}

func (g *TestGame) OnCleanup() {
	if g.app != nil && g.hasKeys {
		g.app.Events().Unregister(core.EVENT_CODE_KEY_RELEASED, g.keyID)
	}
	core.LogInfo("testbed shut down")
}

func (g *TestGame) onKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		return false
	}
	switch ke.KeyCode {
	case core.KEY_P:
		if g.paused {
			g.app.Animation().Enqueue(animation.Resume{})
		} else {
			g.app.Animation().Enqueue(animation.Pause{})
		}
		g.paused = !g.paused
		core.LogDebug("animation paused: %t", g.paused)
		return true
	case core.KEY_R:
		g.app.Animation().Enqueue(animation.Reset{})
		core.LogDebug("animation rewound")
		return true
	}
	return false
}
