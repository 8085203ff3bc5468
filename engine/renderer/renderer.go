package renderer

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/gamex/engine/core"
	"github.com/spaghettifunk/gamex/engine/renderer/metadata"
)

// Device allocates GPU images. The Vulkan context satisfies it.
type Device interface {
	// CreateImage returns a colour image already in the shader readable layout.
	CreateImage(width, height uint32) (*metadata.Image, error)
	DestroyImage(image *metadata.Image)
}

type registeredObject struct {
	id     uuid.UUID
	object metadata.SyncObject
}

// Renderer owns offscreen render targets and keeps GPU-visible objects in sync.
type Renderer struct {
	device Device

	mu      sync.RWMutex
	objects []registeredObject
	targets map[*metadata.Image]struct{}
}

func New(device Device) (*Renderer, error) {
	if device == nil {
		return nil, fmt.Errorf("renderer requires a device")
	}
	core.LogInfo("Renderer initialized.")
	return &Renderer{
		device:  device,
		targets: make(map[*metadata.Image]struct{}),
	}, nil
}

// CreateRenderTarget allocates an image that can be cleared, blitted from and
// sampled. It is in the shader readable layout when returned.
func (r *Renderer) CreateRenderTarget(width, height uint32) (*metadata.Image, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("invalid render target size %dx%d", width, height)
	}
	image, err := r.device.CreateImage(width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to create render target: %w", err)
	}

	r.mu.Lock()
	r.targets[image] = struct{}{}
	r.mu.Unlock()

	core.LogDebug("Render target created (%dx%d).", width, height)
	return image, nil
}

// DestroyRenderTarget releases a target created by CreateRenderTarget. Unknown images are ignored.
func (r *Renderer) DestroyRenderTarget(image *metadata.Image) {
	r.mu.Lock()
	_, ok := r.targets[image]
	delete(r.targets, image)
	r.mu.Unlock()

	if !ok {
		core.LogWarn("DestroyRenderTarget called with an image the renderer does not own")
		return
	}
	r.device.DestroyImage(image)
}

// RegisterObject adds obj to the set synchronized by SyncObjects.
func (r *Renderer) RegisterObject(obj metadata.SyncObject) uuid.UUID {
	id := uuid.New()

	r.mu.Lock()
	r.objects = append(r.objects, registeredObject{id: id, object: obj})
	r.mu.Unlock()
	return id
}

// UnregisterObject removes the object with id, reporting whether it was registered.
func (r *Renderer) UnregisterObject(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, o := range r.objects {
		if o.id == id {
			r.objects = append(r.objects[:i], r.objects[i+1:]...)
			return true
		}
	}
	return false
}

// ObjectCount returns how many objects are registered.
func (r *Renderer) ObjectCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}

// SyncObjects pushes the state of every dirty object to the GPU, in
// registration order, stopping at the first failure.
func (r *Renderer) SyncObjects() error {
	r.mu.RLock()
	objects := make([]registeredObject, len(r.objects))
	copy(objects, r.objects)
	r.mu.RUnlock()

	for _, o := range objects {
		if !o.object.Dirty() {
			continue
		}
		if err := o.object.Sync(); err != nil {
			return fmt.Errorf("failed to sync object %s: %w", o.id, err)
		}
	}
	return nil
}

// Destroy releases every render target still owned and forgets all objects.
func (r *Renderer) Destroy() error {
	r.mu.Lock()
	targets := r.targets
	r.targets = make(map[*metadata.Image]struct{})
	r.objects = nil
	r.mu.Unlock()

	for image := range targets {
		r.device.DestroyImage(image)
	}
	core.LogInfo("Renderer destroyed.")
	return nil
}
