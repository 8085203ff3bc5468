package engine

import (
	"github.com/spaghettifunk/gamex/engine/animation"
	"github.com/spaghettifunk/gamex/engine/gamecore"
	"github.com/spaghettifunk/gamex/engine/renderer"
	"github.com/spaghettifunk/gamex/engine/renderer/metadata"
	"github.com/spaghettifunk/gamex/engine/renderer/vulkan"
)

// Window is the OS window the graphics context presents into.
type Window interface {
	vulkan.SurfaceProvider
	ShouldClose() bool
	// RequestClose must be safe to call from any goroutine.
	RequestClose()
	PollEvents()
	Destroy() error
	// Terminate shuts down the windowing subsystem.
	Terminate() error
}

// GraphicsContext owns the device and swapchain and brackets every frame.
type GraphicsContext interface {
	renderer.Device
	BeginFrame() error
	EndFrame() error
	// CommandBuffer and FrameImage are valid between BeginFrame and EndFrame.
	CommandBuffer() metadata.CommandBuffer
	FrameImage() *metadata.Image
	WaitIdle() error
	Destroy() error
}

type Renderer interface {
	animation.Renderer
	SyncObjects() error
	Destroy() error
}

type AnimationManager interface {
	gamecore.AnimationManager
	Update(dt float64)
	Render(cmd metadata.CommandBuffer) bool
	PrimaryFilm() *animation.Film
	Destroy() error
}

type GameCore interface {
	Start() error
	Stop() error
	Destroy() error
}
