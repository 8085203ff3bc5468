package platform

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/gamex/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// VideoMode is the subset of a monitor's video mode used to size windows.
type VideoMode struct {
	Width       int
	Height      int
	RedBits     int
	GreenBits   int
	BlueBits    int
	RefreshRate int
}

// WindowConfig describes the window to create. Width and Height must already be resolved.
type WindowConfig struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
}

// Window is a GLFW window that Vulkan presents into.
type Window struct {
	handle *glfw.Window
	input  *core.Input

	closeRequested atomic.Bool
	destroyed      bool
}

// Init starts the windowing subsystem and loads the Vulkan loader through it.
func Init() error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %w", err)
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to initialize vulkan loader: %w", err)
	}
	return nil
}

// PrimaryVideoMode reports the current video mode of the primary monitor.
// Init must have been called.
func PrimaryVideoMode() (VideoMode, error) {
	monitor := glfw.GetPrimaryMonitor()
	if monitor == nil {
		return VideoMode{}, fmt.Errorf("no primary monitor found")
	}
	mode := monitor.GetVideoMode()
	if mode == nil {
		return VideoMode{}, fmt.Errorf("primary monitor reports no video mode")
	}
	return VideoMode{
		Width:       mode.Width,
		Height:      mode.Height,
		RedBits:     mode.RedBits,
		GreenBits:   mode.GreenBits,
		BlueBits:    mode.BlueBits,
		RefreshRate: mode.RefreshRate,
	}, nil
}

// NewWindow creates a non-resizable window. A fullscreen window is borderless,
// matches the primary monitor mode and sits at the origin.
func NewWindow(cfg WindowConfig, input *core.Input) (*Window, error) {
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.Visible, glfw.False)

	if cfg.Fullscreen {
		mode, err := PrimaryVideoMode()
		if err != nil {
			return nil, err
		}
		glfw.WindowHint(glfw.RedBits, mode.RedBits)
		glfw.WindowHint(glfw.GreenBits, mode.GreenBits)
		glfw.WindowHint(glfw.BlueBits, mode.BlueBits)
		glfw.WindowHint(glfw.RefreshRate, mode.RefreshRate)
		glfw.WindowHint(glfw.Decorated, glfw.False)
	}

	handle, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	w := &Window{
		handle: handle,
		input:  input,
	}

	handle.SetKeyCallback(w.keyCallback)
	handle.SetMouseButtonCallback(w.mouseButtonCallback)
	handle.SetCursorPosCallback(w.cursorPosCallback)
	handle.SetScrollCallback(w.scrollCallback)
	handle.SetFramebufferSizeCallback(w.framebufferSizeCallback)

	if cfg.Fullscreen {
		handle.SetPos(0, 0)
	}
	handle.Show()

	core.LogInfo("Window '%s' created (%dx%d, fullscreen=%t).", cfg.Title, cfg.Width, cfg.Height, cfg.Fullscreen)
	return w, nil
}

// ShouldClose reports whether the OS or RequestClose asked the window to close.
func (w *Window) ShouldClose() bool {
	if w.closeRequested.Load() {
		return true
	}
	return w.handle == nil || w.handle.ShouldClose()
}

// RequestClose flags the window for closing. Safe to call from any goroutine.
func (w *Window) RequestClose() {
	w.closeRequested.Store(true)
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// FramebufferSize reports the drawable size in pixels.
func (w *Window) FramebufferSize() (uint32, uint32) {
	width, height := w.handle.GetFramebufferSize()
	return uint32(width), uint32(height)
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.handle.GetRequiredInstanceExtensions()
}

func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := w.handle.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, fmt.Errorf("vulkan surface creation failed: %w", err)
	}
	return vk.SurfaceFromPointer(surface), nil
}

// Destroy releases the window. Later calls are no-ops.
func (w *Window) Destroy() error {
	if w.destroyed {
		return nil
	}
	w.destroyed = true
	w.handle.Destroy()
	w.handle = nil
	core.LogInfo("Window destroyed.")
	return nil
}

// Terminate shuts the windowing subsystem down. No window may be used afterwards.
func (w *Window) Terminate() error {
	Terminate()
	return nil
}

// Terminate releases everything Init set up.
func Terminate() {
	glfw.Terminate()
	core.LogInfo("Windowing subsystem terminated.")
}

func (w *Window) keyCallback(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action == glfw.Repeat {
		return
	}
	pressed := action == glfw.Press

	if key == glfw.KeyEscape && pressed {
		w.RequestClose()
	}

	if code, ok := TranslateKey(key); ok && w.input != nil {
		w.input.ProcessKey(code, pressed)
	}
}

func (w *Window) mouseButtonCallback(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	if w.input == nil {
		return
	}
	var b core.Button
	switch button {
	case glfw.MouseButtonLeft:
		b = core.BUTTON_LEFT
	case glfw.MouseButtonRight:
		b = core.BUTTON_RIGHT
	case glfw.MouseButtonMiddle:
		b = core.BUTTON_MIDDLE
	default:
		return
	}
	w.input.ProcessButton(b, action == glfw.Press)
}

func (w *Window) cursorPosCallback(_ *glfw.Window, xpos, ypos float64) {
	if w.input == nil || xpos < 0 || ypos < 0 {
		return
	}
	w.input.ProcessMouseMove(uint16(xpos), uint16(ypos))
}

func (w *Window) scrollCallback(_ *glfw.Window, _, yoff float64) {
	if w.input == nil || yoff == 0 {
		return
	}
	// Flatten the input to an OS-independent (-1, 1)
	var delta int8 = 1
	if yoff < 0 {
		delta = -1
	}
	w.input.ProcessMouseWheel(delta)
}

func (w *Window) framebufferSizeCallback(_ *glfw.Window, width, height int) {
	if w.input == nil {
		return
	}
	w.input.ProcessResize(uint32(width), uint32(height))
}
