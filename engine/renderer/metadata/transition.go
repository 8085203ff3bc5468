package metadata

import (
	vk "github.com/goki/vulkan"
)

// ImageTransition describes a layout transition barrier: the layouts, the
// pipeline stages that must complete before and wait after it, and the
// matching access masks.
type ImageTransition struct {
	OldLayout  vk.ImageLayout
	NewLayout  vk.ImageLayout
	SrcStage   vk.PipelineStageFlags
	DstStage   vk.PipelineStageFlags
	SrcAccess  vk.AccessFlags
	DstAccess  vk.AccessFlags
	AspectMask vk.ImageAspectFlags
}

// Reverse swaps both sides of the transition.
func (t ImageTransition) Reverse() ImageTransition {
	return ImageTransition{
		OldLayout:  t.NewLayout,
		NewLayout:  t.OldLayout,
		SrcStage:   t.DstStage,
		DstStage:   t.SrcStage,
		SrcAccess:  t.DstAccess,
		DstAccess:  t.SrcAccess,
		AspectMask: t.AspectMask,
	}
}

var colorAspect = vk.ImageAspectFlags(vk.ImageAspectColorBit)

var (
	// Freshly acquired swapchain image, contents discarded, ready to be cleared.
	TransitionFrameAcquiredToTransferDst = ImageTransition{
		OldLayout:  vk.ImageLayoutUndefined,
		NewLayout:  vk.ImageLayoutTransferDstOptimal,
		SrcStage:   vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		DstStage:   vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		SrcAccess:  vk.AccessFlags(vk.AccessMemoryReadBit),
		DstAccess:  vk.AccessFlags(vk.AccessTransferWriteBit),
		AspectMask: colorAspect,
	}

	// Cleared or blitted swapchain image handed back for presentation.
	TransitionFrameTransferDstToPresent = ImageTransition{
		OldLayout:  vk.ImageLayoutTransferDstOptimal,
		NewLayout:  vk.ImageLayoutPresentSrc,
		SrcStage:   vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		DstStage:   vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		SrcAccess:  vk.AccessFlags(vk.AccessTransferWriteBit),
		DstAccess:  vk.AccessFlags(vk.AccessMemoryReadBit),
		AspectMask: colorAspect,
	}

	// Presentable swapchain image reopened as a blit destination.
	TransitionFramePresentToTransferDst = TransitionFrameTransferDstToPresent.Reverse()

	// Film leaving its steady shader-readable state to be a blit source.
	TransitionFilmShaderReadToTransferSrc = ImageTransition{
		OldLayout:  vk.ImageLayoutShaderReadOnlyOptimal,
		NewLayout:  vk.ImageLayoutTransferSrcOptimal,
		SrcStage:   vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		DstStage:   vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		SrcAccess:  vk.AccessFlags(vk.AccessShaderReadBit),
		DstAccess:  vk.AccessFlags(vk.AccessTransferReadBit),
		AspectMask: colorAspect,
	}

	TransitionFilmTransferSrcToShaderRead = TransitionFilmShaderReadToTransferSrc.Reverse()

	// Film opened for writing by transfer commands.
	TransitionFilmShaderReadToTransferDst = ImageTransition{
		OldLayout:  vk.ImageLayoutShaderReadOnlyOptimal,
		NewLayout:  vk.ImageLayoutTransferDstOptimal,
		SrcStage:   vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		DstStage:   vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		SrcAccess:  vk.AccessFlags(vk.AccessShaderReadBit),
		DstAccess:  vk.AccessFlags(vk.AccessTransferWriteBit),
		AspectMask: colorAspect,
	}

	TransitionFilmTransferDstToShaderRead = TransitionFilmShaderReadToTransferDst.Reverse()

	// First use of a newly created render target.
	TransitionUndefinedToShaderRead = ImageTransition{
		OldLayout:  vk.ImageLayoutUndefined,
		NewLayout:  vk.ImageLayoutShaderReadOnlyOptimal,
		SrcStage:   vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		DstStage:   vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		SrcAccess:  0,
		DstAccess:  vk.AccessFlags(vk.AccessShaderReadBit),
		AspectMask: colorAspect,
	}
)
