package metadata

import (
	vk "github.com/goki/vulkan"
)

// CommandBuffer is the recording surface handed out by the graphics context
// for the current frame. It must not be kept past the frame it was returned for.
type CommandBuffer interface {
	// TransitImageLayout records a pipeline barrier moving image between layouts.
	TransitImageLayout(image *Image, transition ImageTransition)
	// ClearColorImage fills the whole color subresource of image, which must be in layout.
	ClearColorImage(image *Image, layout vk.ImageLayout, color [4]float32)
	// BlitImage copies the full extent of src onto the full extent of dst,
	// resampling with filter.
	BlitImage(src *Image, srcLayout vk.ImageLayout, dst *Image, dstLayout vk.ImageLayout, filter vk.Filter)
}

// SyncObject is CPU-side state mirrored to the GPU by the renderer every tick.
type SyncObject interface {
	Dirty() bool
	Sync() error
}
