package metadata

import (
	vk "github.com/goki/vulkan"
)

// Image is a GPU image and, when owned, its memory and view. Swapchain images
// are borrowed: Memory is nil and the handle belongs to the swapchain.
type Image struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Format vk.Format
	Width  uint32
	Height uint32
}

// Extent returns the full 2D extent of the image.
func (i *Image) Extent() vk.Extent2D {
	return vk.Extent2D{
		Width:  i.Width,
		Height: i.Height,
	}
}
