package engine

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/gamex/engine/renderer/metadata"
)

// ClearColor is the background every frame starts from.
var ClearColor = [4]float32{0.6, 0.7, 0.8, 1.0}

// clearFrame fills a freshly acquired frame image and leaves it presentable.
func clearFrame(cmd metadata.CommandBuffer, frame *metadata.Image) {
	cmd.TransitImageLayout(frame, metadata.TransitionFrameAcquiredToTransferDst)
	cmd.ClearColorImage(frame, vk.ImageLayoutTransferDstOptimal, ClearColor)
	cmd.TransitImageLayout(frame, metadata.TransitionFrameTransferDstToPresent)
}

// OutputImage blits the whole film onto the whole frame with nearest
// filtering. Both images are returned to their steady layouts afterwards:
// shader readable for the film, presentable for the frame.
func OutputImage(cmd metadata.CommandBuffer, film, frame *metadata.Image) {
	cmd.TransitImageLayout(film, metadata.TransitionFilmShaderReadToTransferSrc)
	cmd.TransitImageLayout(frame, metadata.TransitionFramePresentToTransferDst)

	cmd.BlitImage(
		film, vk.ImageLayoutTransferSrcOptimal,
		frame, vk.ImageLayoutTransferDstOptimal,
		vk.FilterNearest,
	)

	cmd.TransitImageLayout(film, metadata.TransitionFilmTransferSrcToShaderRead)
	cmd.TransitImageLayout(frame, metadata.TransitionFrameTransferDstToPresent)
}
