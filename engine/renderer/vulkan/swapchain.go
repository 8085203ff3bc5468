package vulkan

import (
	"errors"
	"fmt"
	"math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/gamex/engine/core"
	"github.com/spaghettifunk/gamex/engine/renderer/metadata"
)

// MaxFramesInFlight bounds how many frames the CPU may record ahead of the GPU.
const MaxFramesInFlight uint8 = 2

// errSwapchainOutOfDate tells the context to rebuild the swapchain.
var errSwapchainOutOfDate = errors.New("swapchain out of date")

type VulkanSwapchain struct {
	ImageFormat       vk.SurfaceFormat
	MaxFramesInFlight uint8
	Handle            vk.Swapchain
	ImageCount        uint32
	Extent            vk.Extent2D

	// Images are owned by the swapchain; only their views are ours.
	Images []*metadata.Image
}

type VulkanSwapchainSupportInfo struct {
	Capabilities     vk.SurfaceCapabilities
	FormatCount      uint32
	Formats          []vk.SurfaceFormat
	PresentModeCount uint32
	PresentModes     []vk.PresentMode
}

func SwapchainCreate(context *VulkanContext, width uint32, height uint32) (*VulkanSwapchain, error) {
	return createSwapchain(context, width, height)
}

// SwapchainRecreate replaces the swapchain in place. The caller refreshes the
// surface support info first and makes sure the device is idle.
func (vs *VulkanSwapchain) SwapchainRecreate(context *VulkanContext, width uint32, height uint32) error {
	vs.destroySwapchain(context)
	sc, err := createSwapchain(context, width, height)
	if err != nil {
		return err
	}
	*vs = *sc
	return nil
}

func (vs *VulkanSwapchain) SwapchainDestroy(context *VulkanContext) {
	vs.destroySwapchain(context)
}

// AcquireNextImageIndex returns the index of the next presentable image, or
// errSwapchainOutOfDate when the swapchain must be rebuilt first.
func (vs *VulkanSwapchain) AcquireNextImageIndex(context *VulkanContext, timeoutNS uint64, imageAvailableSemaphore vk.Semaphore, fence vk.Fence) (uint32, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, timeoutNS, imageAvailableSemaphore, fence, &imageIndex)

	switch result {
	case vk.Success, vk.Suboptimal:
		return imageIndex, nil
	case vk.ErrorOutOfDate:
		return 0, errSwapchainOutOfDate
	default:
		return 0, fmt.Errorf("failed to acquire swapchain image: %s", VulkanResultString(result, true))
	}
}

// Present returns the image to the swapchain once renderCompleteSemaphore is
// signaled. An out of date or suboptimal swapchain yields errSwapchainOutOfDate.
func (vs *VulkanSwapchain) Present(context *VulkanContext, presentQueue vk.Queue, renderCompleteSemaphore vk.Semaphore, presentImageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderCompleteSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{presentImageIndex},
		PResults:           nil,
	}

	result := vk.QueuePresent(presentQueue, &presentInfo)
	switch result {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return errSwapchainOutOfDate
	default:
		return fmt.Errorf("failed to present swap chain image: %s", VulkanResultString(result, true))
	}
}

func createSwapchain(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	support := &context.Device.SwapchainSupport
	if len(support.Formats) == 0 {
		return nil, fmt.Errorf("surface reports no formats")
	}

	swapchain := &VulkanSwapchain{
		MaxFramesInFlight: MaxFramesInFlight,
		ImageFormat:       chooseSurfaceFormat(support.Formats),
		Extent:            chooseSwapchainExtent(support.Capabilities, width, height),
	}
	presentMode := choosePresentMode(support.PresentModes)
	imageCount := chooseImageCount(support.Capabilities.MinImageCount, support.Capabilities.MaxImageCount)

	// The frame image is the destination of clears and blits, never a render target.
	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchain.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferDstBit),
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	// Setup the queue family indices
	if context.Device.GraphicsQueueIndex != context.Device.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{
			uint32(context.Device.GraphicsQueueIndex),
			uint32(context.Device.PresentQueueIndex),
		}
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var swapchainHandle vk.Swapchain
	if res := vk.CreateSwapchain(context.Device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &swapchainHandle); res != vk.Success {
		return nil, fmt.Errorf("failed to create swapchain: %s", VulkanResultString(res, true))
	}
	swapchain.Handle = swapchainHandle

	// Start with a zero frame index.
	context.CurrentFrame = 0

	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, nil); res != vk.Success {
		swapchain.destroySwapchain(context)
		return nil, fmt.Errorf("failed to get swapchain images: %s", VulkanResultString(res, false))
	}
	handles := make([]vk.Image, swapchain.ImageCount)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, handles); res != vk.Success {
		swapchain.destroySwapchain(context)
		return nil, fmt.Errorf("failed to get swapchain images: %s", VulkanResultString(res, false))
	}

	swapchain.Images = make([]*metadata.Image, 0, swapchain.ImageCount)
	for _, handle := range handles {
		view, err := createImageView(context, handle, swapchain.ImageFormat.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			swapchain.destroySwapchain(context)
			return nil, err
		}
		swapchain.Images = append(swapchain.Images, &metadata.Image{
			Handle: handle,
			View:   view,
			Format: swapchain.ImageFormat.Format,
			Width:  swapchain.Extent.Width,
			Height: swapchain.Extent.Height,
		})
	}

	core.LogInfo("Swapchain created successfully (%dx%d, %d images).", swapchain.Extent.Width, swapchain.Extent.Height, swapchain.ImageCount)
	return swapchain, nil
}

func (vs *VulkanSwapchain) destroySwapchain(context *VulkanContext) {
	// Only destroy the views, not the images, since those are owned by the swapchain and are thus
	// destroyed when it is.
	for _, image := range vs.Images {
		if image.View != vk.NullImageView {
			vk.DestroyImageView(context.Device.LogicalDevice, image.View, context.Allocator)
		}
	}
	vs.Images = nil

	if vs.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
		vs.Handle = vk.NullSwapchain
	}
}

// chooseSurfaceFormat prefers B8G8R8A8 UNORM in the sRGB non-linear color space.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range formats {
		if format.Format == vk.FormatB8g8r8a8Unorm && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	return formats[0]
}

// choosePresentMode prefers mailbox and falls back to FIFO, which is always available.
func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

func chooseSwapchainExtent(capabilities vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	extent := vk.Extent2D{Width: width, Height: height}
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		extent = capabilities.CurrentExtent
	}

	// Clamp to the value allowed by the GPU.
	lo := capabilities.MinImageExtent
	hi := capabilities.MaxImageExtent
	extent.Width = MathClamp(extent.Width, lo.Width, hi.Width)
	extent.Height = MathClamp(extent.Height, lo.Height, hi.Height)
	return extent
}

// extentIsZero reports whether the surface currently has no drawable area, as
// happens while the window is minimized. No swapchain can be created then.
func extentIsZero(capabilities vk.SurfaceCapabilities, width, height uint32) bool {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent.Width == 0 || capabilities.CurrentExtent.Height == 0
	}
	return width == 0 || height == 0
}

// chooseImageCount asks for one image more than the minimum. A max of zero means unbounded.
func chooseImageCount(minImageCount, maxImageCount uint32) uint32 {
	imageCount := minImageCount + 1
	if maxImageCount > 0 && imageCount > maxImageCount {
		imageCount = maxImageCount
	}
	return imageCount
}
