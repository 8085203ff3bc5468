package engine

// Game customizes the application at fixed points of its lifecycle. The
// sequencing around the hooks never changes.
type Game interface {
	// OnInit runs once, after the core started and before the first frame.
	OnInit()
	// OnUpdate runs at the start of every Update, before time advances.
	OnUpdate()
	// OnCleanup runs first during Cleanup, while every component is alive.
	// It is skipped when OnInit never ran.
	OnCleanup()
}

// BaseGame implements Game with no-ops. Embed it and override what you need.
type BaseGame struct{}

func (BaseGame) OnInit()    {}
func (BaseGame) OnUpdate()  {}
func (BaseGame) OnCleanup() {}
