package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/gamex/engine/core"
	"github.com/spaghettifunk/gamex/engine/renderer/metadata"
)

// DefaultImageUsage lets a render target be cleared, blitted from and sampled.
const DefaultImageUsage = vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit | vk.ImageUsageColorAttachmentBit)

// ImageCreate allocates a device local 2D color image with a view.
func ImageCreate(context *VulkanContext, width, height uint32, format vk.Format, usage vk.ImageUsageFlags) (*metadata.Image, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}

	image := &metadata.Image{
		Format: format,
		Width:  width,
		Height: height,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	var handle vk.Image
	if res := vk.CreateImage(context.Device.LogicalDevice, &imageCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("failed to create image: %s", VulkanResultString(res, true))
	}
	image.Handle = handle

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, image.Handle, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, uint32(vk.MemoryPropertyDeviceLocalBit))
	if memoryType == -1 {
		ImageDestroy(context, image)
		return nil, fmt.Errorf("required memory type not found, image not valid")
	}

	memoryAllocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &memoryAllocateInfo, context.Allocator, &memory); res != vk.Success {
		ImageDestroy(context, image)
		return nil, fmt.Errorf("failed to allocate image memory: %s", VulkanResultString(res, true))
	}
	image.Memory = memory

	if res := vk.BindImageMemory(context.Device.LogicalDevice, image.Handle, image.Memory, 0); res != vk.Success {
		ImageDestroy(context, image)
		return nil, fmt.Errorf("failed to bind image memory: %s", VulkanResultString(res, true))
	}

	view, err := createImageView(context, image.Handle, format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		ImageDestroy(context, image)
		return nil, err
	}
	image.View = view

	core.LogDebug("Image created (%dx%d).", width, height)
	return image, nil
}

// ImageDestroy releases the view, memory and handle of an owned image.
func ImageDestroy(context *VulkanContext, image *metadata.Image) {
	if image == nil {
		return
	}
	if image.View != vk.NullImageView {
		vk.DestroyImageView(context.Device.LogicalDevice, image.View, context.Allocator)
		image.View = vk.NullImageView
	}
	if image.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, image.Memory, context.Allocator)
		image.Memory = vk.NullDeviceMemory
	}
	if image.Handle != vk.NullImage {
		vk.DestroyImage(context.Device.LogicalDevice, image.Handle, context.Allocator)
		image.Handle = vk.NullImage
	}
}

func createImageView(context *VulkanContext, image vk.Image, format vk.Format, aspectFlags vk.ImageAspectFlags) (vk.ImageView, error) {
	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspectFlags,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if res := vk.CreateImageView(context.Device.LogicalDevice, &viewCreateInfo, context.Allocator, &view); res != vk.Success {
		return vk.NullImageView, fmt.Errorf("failed to create image view: %s", VulkanResultString(res, true))
	}
	return view, nil
}

// CreateImage creates a render target and moves it into the shader readable
// layout, which is the steady state every user of the image expects.
func (vc *VulkanContext) CreateImage(width, height uint32) (*metadata.Image, error) {
	format := vk.FormatB8g8r8a8Unorm
	if vc.Swapchain != nil {
		format = vc.Swapchain.ImageFormat.Format
	}
	image, err := ImageCreate(vc, width, height, format, DefaultImageUsage)
	if err != nil {
		return nil, err
	}

	cb, err := AllocateAndBeginSingleUse(vc, vc.Device.GraphicsCommandPool)
	if err != nil {
		ImageDestroy(vc, image)
		return nil, err
	}
	cb.TransitImageLayout(image, metadata.TransitionUndefinedToShaderRead)
	if err := cb.EndSingleUse(vc, vc.Device.GraphicsCommandPool, vc.Device.GraphicsQueue); err != nil {
		ImageDestroy(vc, image)
		return nil, err
	}
	return image, nil
}

// DestroyImage waits for the device to go idle so the image is no longer in use, then releases it.
func (vc *VulkanContext) DestroyImage(image *metadata.Image) {
	if err := vc.WaitIdle(); err != nil {
		core.LogWarn(err.Error())
	}
	ImageDestroy(vc, image)
}
