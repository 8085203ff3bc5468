package metadata

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestTransitionReverse(t *testing.T) {
	tr := TransitionFilmShaderReadToTransferSrc
	back := tr.Reverse()
	if back.OldLayout != vk.ImageLayoutTransferSrcOptimal || back.NewLayout != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Fatalf("layouts not swapped: %v -> %v", back.OldLayout, back.NewLayout)
	}
	if back.SrcStage != tr.DstStage || back.DstStage != tr.SrcStage {
		t.Fatal("stages not swapped")
	}
	if back.SrcAccess != tr.DstAccess || back.DstAccess != tr.SrcAccess {
		t.Fatal("access masks not swapped")
	}
	if back.Reverse() != tr {
		t.Fatal("Reverse is not an involution")
	}
}

func TestFramePresentRoundTrip(t *testing.T) {
	open := TransitionFramePresentToTransferDst
	if open.OldLayout != vk.ImageLayoutPresentSrc || open.NewLayout != vk.ImageLayoutTransferDstOptimal {
		t.Fatalf("unexpected layouts %v -> %v", open.OldLayout, open.NewLayout)
	}
	if open.SrcStage != vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit) ||
		open.DstStage != vk.PipelineStageFlags(vk.PipelineStageTransferBit) {
		t.Fatal("unexpected stages")
	}
	if open.SrcAccess != vk.AccessFlags(vk.AccessMemoryReadBit) ||
		open.DstAccess != vk.AccessFlags(vk.AccessTransferWriteBit) {
		t.Fatal("unexpected access masks")
	}
}

func TestImageExtent(t *testing.T) {
	img := &Image{Width: 640, Height: 360}
	if ext := img.Extent(); ext.Width != 640 || ext.Height != 360 {
		t.Fatalf("Extent() = %+v", ext)
	}
}
