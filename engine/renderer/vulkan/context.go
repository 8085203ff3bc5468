package vulkan

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/gamex/engine/core"
	"github.com/spaghettifunk/gamex/engine/renderer/metadata"
)

// SurfaceProvider is the window the context presents into.
type SurfaceProvider interface {
	// RequiredInstanceExtensions lists the instance extensions the window system needs.
	RequiredInstanceExtensions() []string
	// CreateSurface creates a presentation surface for the given instance.
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	// FramebufferSize reports the drawable size in pixels.
	FramebufferSize() (uint32, uint32)
}

// VulkanContext owns the device, swapchain and per-frame synchronization.
// Everything in here must be driven from a single goroutine.
type VulkanContext struct {
	// The framebuffer's current width.
	FramebufferWidth uint32
	// The framebuffer's current height.
	FramebufferHeight uint32

	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	provider SurfaceProvider

	debug          bool
	debugMessenger vk.DebugReportCallback

	Device    *VulkanDevice
	Swapchain *VulkanSwapchain

	// One per swapchain image.
	GraphicsCommandBuffers []*VulkanCommandBuffer

	// One per frame in flight.
	ImageAvailableSemaphores []vk.Semaphore
	QueueCompleteSemaphores  []vk.Semaphore
	InFlightFences           []*VulkanFence

	// Holds pointers to fences which exist and are owned elsewhere.
	ImagesInFlight []*VulkanFence

	ImageIndex   uint32
	CurrentFrame uint32

	frameInProgress bool
	// set while the swapchain could not be rebuilt, e.g. minimized window
	recreatePending bool
}

// NewContext brings up a Vulkan instance, device and swapchain presenting into surface.
// Any failure releases what was already created.
func NewContext(surface SurfaceProvider, appName string, debug bool) (*VulkanContext, error) {
	width, height := surface.FramebufferSize()
	vc := &VulkanContext{
		FramebufferWidth:  width,
		FramebufferHeight: height,
		Allocator:         nil,
		provider:          surface,
		debug:             debug,
		Device:            &VulkanDevice{},
	}

	if err := vc.initialize(surface, appName); err != nil {
		core.LogError("vulkan context initialization failed: %s", err)
		vc.Destroy()
		return nil, err
	}
	core.LogInfo("Vulkan context initialized successfully.")
	return vc, nil
}

func (vc *VulkanContext) initialize(surface SurfaceProvider, appName string) error {
	if err := vc.createInstance(surface.RequiredInstanceExtensions(), appName); err != nil {
		return err
	}

	core.LogDebug("Creating Vulkan surface...")
	s, err := surface.CreateSurface(vc.Instance)
	if err != nil {
		return fmt.Errorf("failed to create platform surface: %w", err)
	}
	vc.Surface = s
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(vc); err != nil {
		return err
	}

	sc, err := SwapchainCreate(vc, vc.FramebufferWidth, vc.FramebufferHeight)
	if err != nil {
		return err
	}
	vc.Swapchain = sc

	if err := vc.createCommandBuffers(); err != nil {
		return err
	}
	return vc.createSyncObjects()
}

func (vc *VulkanContext) createInstance(windowExtensions []string, appName string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("GameX"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := append([]string{"VK_KHR_surface"}, windowExtensions...)
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layers []string
	if vc.debug {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
		layers = []string{"VK_LAYER_KHRONOS_validation"}
		if !validationLayersAvailable(layers) {
			core.LogWarn("Validation layers requested but not available, continuing without them.")
			layers = nil
		}
	}

	core.LogDebug("Required extensions: %v", requiredExtensions)
	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, vc.Allocator, &instance); res != vk.Success {
		return fmt.Errorf("failed in creating the Vulkan Instance with error `%s`", VulkanResultString(res, true))
	}
	vc.Instance = instance
	if err := vk.InitInstance(vc.Instance); err != nil {
		return err
	}
	core.LogInfo("Vulkan Instance created.")

	if vc.debug && len(layers) > 0 {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(vc.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
			return fmt.Errorf("vk.CreateDebugReportCallback failed with %w", err)
		}
		vc.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}
	return nil
}

func validationLayersAvailable(required []string) bool {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return false
	}
	available := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, available); res != vk.Success {
		return false
	}
	for _, name := range required {
		found := false
		for i := range available {
			available[i].Deref()
			if vk.ToString(available[i].LayerName[:]) == name {
				found = true
				break
			}
		}
		if !found {
			core.LogDebug("Required validation layer is missing: %s", name)
			return false
		}
	}
	return true
}

func (vc *VulkanContext) createCommandBuffers() error {
	vc.GraphicsCommandBuffers = make([]*VulkanCommandBuffer, vc.Swapchain.ImageCount)
	for i := range vc.GraphicsCommandBuffers {
		cb, err := NewVulkanCommandBuffer(vc, vc.Device.GraphicsCommandPool, true)
		if err != nil {
			return err
		}
		vc.GraphicsCommandBuffers[i] = cb
	}
	core.LogDebug("Vulkan command buffers created.")
	return nil
}

func (vc *VulkanContext) createSyncObjects() error {
	frames := int(vc.Swapchain.MaxFramesInFlight)
	vc.ImageAvailableSemaphores = make([]vk.Semaphore, frames)
	vc.QueueCompleteSemaphores = make([]vk.Semaphore, frames)
	vc.InFlightFences = make([]*VulkanFence, frames)

	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	for i := 0; i < frames; i++ {
		if res := vk.CreateSemaphore(vc.Device.LogicalDevice, &semaphoreCreateInfo, vc.Allocator, &vc.ImageAvailableSemaphores[i]); res != vk.Success {
			return fmt.Errorf("failed to create semaphore on image available: %s", VulkanResultString(res, false))
		}
		if res := vk.CreateSemaphore(vc.Device.LogicalDevice, &semaphoreCreateInfo, vc.Allocator, &vc.QueueCompleteSemaphores[i]); res != vk.Success {
			return fmt.Errorf("failed to create semaphore on queue complete: %s", VulkanResultString(res, false))
		}
		// Created signaled so the first frame does not wait forever on a frame
		// that was never submitted.
		f, err := NewFence(vc, true)
		if err != nil {
			return err
		}
		vc.InFlightFences[i] = f
	}

	vc.ImagesInFlight = make([]*VulkanFence, vc.Swapchain.ImageCount)
	return nil
}

// BeginFrame waits for the frame slot, acquires the next swapchain image and
// begins recording into its command buffer.
func (vc *VulkanContext) BeginFrame() error {
	if vc.frameInProgress {
		return fmt.Errorf("BeginFrame called while a frame is already in progress")
	}

	if vc.recreatePending {
		if err := vc.recreateSwapchain(); err != nil {
			return err
		}
	}

	// Wait for the execution of the current frame to complete. The fence being free will allow this one to move on.
	if !vc.InFlightFences[vc.CurrentFrame].FenceWait(vc, math.MaxUint64) {
		return fmt.Errorf("in-flight fence wait failure")
	}

	// Acquire the next image from the swap chain. The semaphore is waited on by
	// the queue submission so the image is available before it is written.
	imageIndex, err := vc.Swapchain.AcquireNextImageIndex(vc, math.MaxUint64, vc.ImageAvailableSemaphores[vc.CurrentFrame], vk.NullFence)
	if errors.Is(err, errSwapchainOutOfDate) {
		if err := vc.recreateSwapchain(); err != nil {
			return err
		}
		return core.ErrSwapchainBooting
	}
	if err != nil {
		return err
	}
	vc.ImageIndex = imageIndex

	// The image's command buffer may still be pending from the frame that
	// last used it, so that frame has to finish before recording again.
	if err := claimImage(vc.ImagesInFlight, imageIndex, vc.InFlightFences[vc.CurrentFrame], func(f *VulkanFence) bool {
		return f.FenceWait(vc, math.MaxUint64)
	}); err != nil {
		return err
	}

	commandBuffer := vc.GraphicsCommandBuffers[vc.ImageIndex]
	commandBuffer.Reset()
	if err := commandBuffer.Begin(true, false, false); err != nil {
		return err
	}
	vc.frameInProgress = true
	return nil
}

// EndFrame ends recording, submits the command buffer and presents the image.
func (vc *VulkanContext) EndFrame() error {
	if !vc.frameInProgress {
		return fmt.Errorf("EndFrame called without BeginFrame")
	}
	vc.frameInProgress = false

	commandBuffer := vc.GraphicsCommandBuffers[vc.ImageIndex]
	if err := commandBuffer.End(); err != nil {
		return err
	}

	if err := vc.InFlightFences[vc.CurrentFrame].FenceReset(vc); err != nil {
		return err
	}

	// The first use of the acquired image is a transfer, so that is the
	// stage which must wait for the image to become available.
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{vc.ImageAvailableSemaphores[vc.CurrentFrame]},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageTransferBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{vc.QueueCompleteSemaphores[vc.CurrentFrame]},
	}
	if res := vk.QueueSubmit(vc.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vc.InFlightFences[vc.CurrentFrame].Handle); res != vk.Success {
		return fmt.Errorf("vkQueueSubmit failed with result: %s", VulkanResultString(res, true))
	}
	commandBuffer.UpdateSubmitted()

	// Give the image back to the swapchain.
	err := vc.Swapchain.Present(vc, vc.Device.PresentQueue, vc.QueueCompleteSemaphores[vc.CurrentFrame], vc.ImageIndex)

	// Increment (and loop) the index.
	vc.CurrentFrame = (vc.CurrentFrame + 1) % uint32(vc.Swapchain.MaxFramesInFlight)

	if errors.Is(err, errSwapchainOutOfDate) {
		// The frame was presented; a swapchain that cannot be rebuilt yet is retried by the next BeginFrame.
		if err := vc.recreateSwapchain(); err != nil && !errors.Is(err, core.ErrSwapchainBooting) {
			return err
		}
		return nil
	}
	return err
}

// claimImage waits for the frame that last used image index to finish, then
// records frameFence as the image's new owner.
func claimImage(imagesInFlight []*VulkanFence, index uint32, frameFence *VulkanFence, wait func(*VulkanFence) bool) error {
	if int(index) >= len(imagesInFlight) {
		return fmt.Errorf("swapchain image index %d out of range (%d images)", index, len(imagesInFlight))
	}
	if previous := imagesInFlight[index]; previous != nil && previous != frameFence {
		if !wait(previous) {
			return fmt.Errorf("image in-flight fence wait failure")
		}
	}
	imagesInFlight[index] = frameFence
	return nil
}

// recreateSwapchain rebuilds the swapchain and everything sized by its image
// count. While the surface has no drawable area it leaves the old swapchain
// in place, marks the rebuild as pending and returns core.ErrSwapchainBooting.
func (vc *VulkanContext) recreateSwapchain() error {
	width, height := vc.provider.FramebufferSize()
	if err := DeviceQuerySwapchainSupport(vc.Device.PhysicalDevice, vc.Surface, &vc.Device.SwapchainSupport); err != nil {
		return err
	}
	if extentIsZero(vc.Device.SwapchainSupport.Capabilities, width, height) {
		if !vc.recreatePending {
			core.LogDebug("Surface has no drawable area, postponing swapchain recreation.")
		}
		vc.recreatePending = true
		return core.ErrSwapchainBooting
	}

	// Frames in flight may still use the old images and command buffers.
	if err := vc.WaitIdle(); err != nil {
		return err
	}
	vc.freeCommandBuffers()

	if err := vc.Swapchain.SwapchainRecreate(vc, width, height); err != nil {
		return err
	}
	vc.FramebufferWidth = vc.Swapchain.Extent.Width
	vc.FramebufferHeight = vc.Swapchain.Extent.Height

	if err := vc.createCommandBuffers(); err != nil {
		return err
	}
	vc.ImagesInFlight = make([]*VulkanFence, vc.Swapchain.ImageCount)
	vc.recreatePending = false
	core.LogInfo("Swapchain recreated (%dx%d).", vc.FramebufferWidth, vc.FramebufferHeight)
	return nil
}

func (vc *VulkanContext) freeCommandBuffers() {
	for _, cb := range vc.GraphicsCommandBuffers {
		if cb != nil && cb.Handle != nil {
			cb.Free(vc, vc.Device.GraphicsCommandPool)
		}
	}
	vc.GraphicsCommandBuffers = nil
}

// CommandBuffer returns the command buffer recording the current frame.
func (vc *VulkanContext) CommandBuffer() metadata.CommandBuffer {
	return vc.GraphicsCommandBuffers[vc.ImageIndex]
}

// FrameImage returns the swapchain image acquired by the last BeginFrame. The
// image is borrowed from the swapchain for the duration of one frame.
func (vc *VulkanContext) FrameImage() *metadata.Image {
	return vc.Swapchain.Images[vc.ImageIndex]
}

// WaitIdle blocks until all submitted GPU work has completed.
func (vc *VulkanContext) WaitIdle() error {
	if vc.Device == nil || vc.Device.LogicalDevice == nil {
		return nil
	}
	if res := vk.DeviceWaitIdle(vc.Device.LogicalDevice); !VulkanResultIsSuccess(res) {
		return fmt.Errorf("vkDeviceWaitIdle failed: '%s'", VulkanResultString(res, true))
	}
	return nil
}

// Destroy releases every Vulkan object in the opposite order of creation.
// It tolerates partially initialized contexts.
func (vc *VulkanContext) Destroy() error {
	if err := vc.WaitIdle(); err != nil {
		core.LogWarn(err.Error())
	}

	if vc.Device != nil && vc.Device.LogicalDevice != nil {
		for i := range vc.ImageAvailableSemaphores {
			if vc.ImageAvailableSemaphores[i] != vk.NullSemaphore {
				vk.DestroySemaphore(vc.Device.LogicalDevice, vc.ImageAvailableSemaphores[i], vc.Allocator)
				vc.ImageAvailableSemaphores[i] = vk.NullSemaphore
			}
		}
		for i := range vc.QueueCompleteSemaphores {
			if vc.QueueCompleteSemaphores[i] != vk.NullSemaphore {
				vk.DestroySemaphore(vc.Device.LogicalDevice, vc.QueueCompleteSemaphores[i], vc.Allocator)
				vc.QueueCompleteSemaphores[i] = vk.NullSemaphore
			}
		}
		for _, f := range vc.InFlightFences {
			if f != nil {
				f.FenceDestroy(vc)
			}
		}
		vc.freeCommandBuffers()
	}
	vc.ImageAvailableSemaphores = nil
	vc.QueueCompleteSemaphores = nil
	vc.InFlightFences = nil
	vc.ImagesInFlight = nil
	vc.GraphicsCommandBuffers = nil

	if vc.Swapchain != nil {
		vc.Swapchain.SwapchainDestroy(vc)
		vc.Swapchain = nil
	}

	if vc.Device != nil && vc.Device.LogicalDevice != nil {
		core.LogDebug("Destroying Vulkan device...")
		DeviceDestroy(vc)
	}

	if vc.Surface != vk.NullSurface {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(vc.Instance, vc.Surface, vc.Allocator)
		vc.Surface = vk.NullSurface
	}

	if vc.debugMessenger != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vc.Instance, vc.debugMessenger, vc.Allocator)
		vc.debugMessenger = vk.NullDebugReportCallback
	}

	if vc.Instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(vc.Instance, vc.Allocator)
		vc.Instance = nil
	}
	return nil
}

// FindMemoryIndex returns the index of a memory type matching typeFilter with
// all of propertyFlags set, or -1.
func (vc *VulkanContext) FindMemoryIndex(typeFilter, propertyFlags uint32) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (uint32(memoryProperties.MemoryTypes[i].PropertyFlags)&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
