package animation

import (
	"github.com/spaghettifunk/gamex/engine/renderer/metadata"
)

// Film is the offscreen image the manager renders into. Its steady state
// layout is shader readable.
type Film struct {
	Image *metadata.Image

	// colour produced by the last evaluation
	pending Color
	// colour the GPU pass uses, set by Sync
	current Color
	dirty   bool
}

func newFilm(image *metadata.Image, initial Color) *Film {
	return &Film{
		Image:   image,
		pending: initial,
		current: initial,
	}
}

// Extent returns the film size in pixels.
func (f *Film) Extent() (uint32, uint32) {
	return f.Image.Width, f.Image.Height
}

// Color returns the colour the next film pass clears to.
func (f *Film) Color() Color {
	return f.current
}

func (f *Film) setColor(c Color) {
	if !f.dirty && c == f.current {
		return
	}
	f.pending = c
	f.dirty = true
}

func (f *Film) Dirty() bool {
	return f.dirty
}

func (f *Film) Sync() error {
	f.current = f.pending
	f.dirty = false
	return nil
}

func (f *Film) record(cmd metadata.CommandBuffer) {
	cmd.TransitImageLayout(f.Image, metadata.TransitionFilmShaderReadToTransferDst)
	cmd.ClearColorImage(f.Image, metadata.TransitionFilmShaderReadToTransferDst.NewLayout, f.current)
	cmd.TransitImageLayout(f.Image, metadata.TransitionFilmTransferDstToShaderRead)
}
