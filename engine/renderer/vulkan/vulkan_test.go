package vulkan

import (
	"math"
	"reflect"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/gamex/engine/renderer/metadata"
)

func TestSelectQueueFamilies(t *testing.T) {
	graphics := vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit | vk.QueueTransferBit)
	transferOnly := vk.QueueFlags(vk.QueueTransferBit)

	tests := []struct {
		name     string
		families []queueFamily
		want     VulkanPhysicalDeviceQueueFamilyInfo
	}{
		{
			name:     "single universal family",
			families: []queueFamily{{Flags: graphics, SupportPresent: true}},
			want:     VulkanPhysicalDeviceQueueFamilyInfo{0, 0, 0, 0},
		},
		{
			name: "dedicated transfer family",
			families: []queueFamily{
				{Flags: graphics, SupportPresent: true},
				{Flags: transferOnly},
			},
			want: VulkanPhysicalDeviceQueueFamilyInfo{0, 0, 0, 1},
		},
		{
			name: "present only on a separate family",
			families: []queueFamily{
				{Flags: graphics},
				{Flags: transferOnly, SupportPresent: true},
			},
			want: VulkanPhysicalDeviceQueueFamilyInfo{0, 1, 0, 1},
		},
		{
			name:     "no graphics",
			families: []queueFamily{{Flags: transferOnly}},
			want:     VulkanPhysicalDeviceQueueFamilyInfo{-1, -1, -1, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := selectQueueFamilies(tt.families); got != tt.want {
				t.Errorf("selectQueueFamilies() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestQueueFamilyRequirements(t *testing.T) {
	req := &VulkanPhysicalDeviceRequirements{Graphics: true, Present: true, Transfer: true}
	if !(VulkanPhysicalDeviceQueueFamilyInfo{0, 0, -1, 0}).satisfies(req) {
		t.Error("expected requirements to be met without compute")
	}
	if (VulkanPhysicalDeviceQueueFamilyInfo{0, -1, 0, 0}).satisfies(req) {
		t.Error("expected missing present family to fail")
	}
}

func TestUniqueQueueIndices(t *testing.T) {
	got := uniqueQueueIndices(0, 0, 2, -1, 2)
	want := []uint32{0, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("uniqueQueueIndices() = %v, want %v", got, want)
	}
}

func TestMissingExtensions(t *testing.T) {
	got := missingExtensions([]string{"VK_KHR_swapchain", "VK_KHR_other"}, []string{"VK_KHR_swapchain"})
	if !reflect.DeepEqual(got, []string{"VK_KHR_other"}) {
		t.Errorf("missingExtensions() = %v", got)
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	other := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	if got := chooseSurfaceFormat([]vk.SurfaceFormat{other, preferred}); got != preferred {
		t.Errorf("expected preferred format, got %v", got.Format)
	}
	if got := chooseSurfaceFormat([]vk.SurfaceFormat{other}); got != other {
		t.Errorf("expected fallback to first format, got %v", got.Format)
	}
}

func TestChoosePresentMode(t *testing.T) {
	if got := choosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}); got != vk.PresentModeMailbox {
		t.Errorf("choosePresentMode() = %v, want mailbox", got)
	}
	if got := choosePresentMode([]vk.PresentMode{vk.PresentModeImmediate}); got != vk.PresentModeFifo {
		t.Errorf("choosePresentMode() = %v, want fifo", got)
	}
}

func TestChooseSwapchainExtent(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 1920, Height: 1080},
	}
	if got := chooseSwapchainExtent(caps, 4000, 720); got.Width != 1920 || got.Height != 720 {
		t.Errorf("expected requested size clamped to 1920x720, got %dx%d", got.Width, got.Height)
	}

	caps.CurrentExtent = vk.Extent2D{Width: 800, Height: 600}
	if got := chooseSwapchainExtent(caps, 1280, 720); got.Width != 800 || got.Height != 600 {
		t.Errorf("expected surface extent 800x600, got %dx%d", got.Width, got.Height)
	}
}

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		min, max, want uint32
	}{
		{2, 0, 3},
		{2, 8, 3},
		{3, 3, 3},
	}
	for _, tt := range tests {
		if got := chooseImageCount(tt.min, tt.max); got != tt.want {
			t.Errorf("chooseImageCount(%d, %d) = %d, want %d", tt.min, tt.max, got, tt.want)
		}
	}
}

func TestBlitRegionCoversFullExtents(t *testing.T) {
	src := &metadata.Image{Width: 640, Height: 360}
	dst := &metadata.Image{Width: 1280, Height: 720}

	region := blitRegion(src, dst)
	if region.SrcOffsets[0] != (vk.Offset3D{}) || region.DstOffsets[0] != (vk.Offset3D{}) {
		t.Fatalf("expected blit to start at the origin, got %+v", region)
	}
	if region.SrcOffsets[1] != (vk.Offset3D{X: 640, Y: 360, Z: 1}) {
		t.Errorf("unexpected source extent %+v", region.SrcOffsets[1])
	}
	if region.DstOffsets[1] != (vk.Offset3D{X: 1280, Y: 720, Z: 1}) {
		t.Errorf("unexpected destination extent %+v", region.DstOffsets[1])
	}
	if region.SrcSubresource.LayerCount != 1 || region.DstSubresource.LayerCount != 1 {
		t.Error("expected a single array layer on both sides")
	}
}

func TestImageBarrierFollowsTransition(t *testing.T) {
	image := &metadata.Image{Width: 1, Height: 1}
	tr := metadata.TransitionFrameAcquiredToTransferDst

	b := imageBarrier(image, tr)
	if b.OldLayout != tr.OldLayout || b.NewLayout != tr.NewLayout {
		t.Errorf("layouts not carried over: %v -> %v", b.OldLayout, b.NewLayout)
	}
	if b.SrcAccessMask != tr.SrcAccess || b.DstAccessMask != tr.DstAccess {
		t.Error("access masks not carried over")
	}
	if b.SrcQueueFamilyIndex != vk.QueueFamilyIgnored || b.DstQueueFamilyIndex != vk.QueueFamilyIgnored {
		t.Error("expected no queue family ownership transfer")
	}
	if b.SubresourceRange.AspectMask != vk.ImageAspectFlags(vk.ImageAspectColorBit) {
		t.Error("expected color aspect")
	}
}

func TestStringHelpers(t *testing.T) {
	if got := VulkanSafeString("abc"); got != "abc\x00" {
		t.Errorf("VulkanSafeString() = %q", got)
	}
	if got := VulkanSafeString("abc\x00"); got != "abc\x00" {
		t.Errorf("VulkanSafeString() double terminated: %q", got)
	}
	if got := FindFirstZeroInByteArray([]byte{'a', 'b', 0, 'c'}); got != 2 {
		t.Errorf("FindFirstZeroInByteArray() = %d, want 2", got)
	}
	if got := FindFirstZeroInByteArray([]byte{'a', 'b'}); got != 2 {
		t.Errorf("FindFirstZeroInByteArray() without terminator = %d, want 2", got)
	}
	if MathClamp(10, 1, 5) != 5 || MathClamp(0, 1, 5) != 1 {
		t.Error("MathClamp out of range")
	}
}

// The debug report callback must keep the exact signature goki/vulkan expects.
var _ vk.DebugReportCallbackFunc = dbgCallbackFunc

func TestExtentIsZero(t *testing.T) {
	undefined := vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32}

	tests := []struct {
		name          string
		current       vk.Extent2D
		width, height uint32
		want          bool
	}{
		{"minimized surface", vk.Extent2D{Width: 0, Height: 0}, 1280, 720, true},
		{"collapsed height", vk.Extent2D{Width: 800, Height: 0}, 1280, 720, true},
		{"visible surface", vk.Extent2D{Width: 800, Height: 600}, 0, 0, false},
		{"surface defers to window, window minimized", undefined, 0, 0, true},
		{"surface defers to window", undefined, 1280, 720, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := vk.SurfaceCapabilities{CurrentExtent: tt.current}
			if got := extentIsZero(caps, tt.width, tt.height); got != tt.want {
				t.Errorf("extentIsZero() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClaimImage(t *testing.T) {
	frame0 := &VulkanFence{}
	frame1 := &VulkanFence{}
	images := make([]*VulkanFence, 3)

	var waited []*VulkanFence
	wait := func(f *VulkanFence) bool {
		waited = append(waited, f)
		return true
	}

	// first use of an image waits on nothing
	if err := claimImage(images, 1, frame0, wait); err != nil {
		t.Fatalf("claimImage() error = %v", err)
	}
	if len(waited) != 0 || images[1] != frame0 {
		t.Fatalf("waited = %v, owner = %p", waited, images[1])
	}

	// the other frame slot re-acquiring the same image waits for its owner first
	if err := claimImage(images, 1, frame1, wait); err != nil {
		t.Fatalf("claimImage() error = %v", err)
	}
	if len(waited) != 1 || waited[0] != frame0 {
		t.Fatalf("waited = %v, want the previous owner", waited)
	}
	if images[1] != frame1 {
		t.Error("image owner not updated")
	}

	if err := claimImage(images, 1, frame0, func(*VulkanFence) bool { return false }); err == nil {
		t.Error("claimImage() ignored a failed wait")
	}
	if images[1] != frame1 {
		t.Error("owner changed although the wait failed")
	}
}

func TestClaimImageAfterSwapchainGrew(t *testing.T) {
	// per-image state sized for a 3 image swapchain cannot serve index 3
	images := make([]*VulkanFence, 3)
	if err := claimImage(images, 3, &VulkanFence{}, func(*VulkanFence) bool { return true }); err == nil {
		t.Fatal("claimImage() accepted an index past the per-image state")
	}

	images = make([]*VulkanFence, 4)
	if err := claimImage(images, 3, &VulkanFence{}, func(*VulkanFence) bool { return true }); err != nil {
		t.Fatalf("claimImage() error = %v after resizing", err)
	}
}
