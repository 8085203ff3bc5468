package renderer

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/spaghettifunk/gamex/engine/renderer/metadata"
)

type fakeDevice struct {
	created   int
	destroyed []*metadata.Image
	err       error
}

func (d *fakeDevice) CreateImage(width, height uint32) (*metadata.Image, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.created++
	return &metadata.Image{Width: width, Height: height}, nil
}

func (d *fakeDevice) DestroyImage(image *metadata.Image) {
	d.destroyed = append(d.destroyed, image)
}

type fakeObject struct {
	name  string
	dirty bool
	err   error
	log   *[]string
}

func (o *fakeObject) Dirty() bool { return o.dirty }

func (o *fakeObject) Sync() error {
	*o.log = append(*o.log, o.name)
	if o.err != nil {
		return o.err
	}
	o.dirty = false
	return nil
}

func TestRenderTargets(t *testing.T) {
	dev := &fakeDevice{}
	r, err := New(dev)
	if err != nil {
		t.Fatal(err)
	}

	img, err := r.CreateRenderTarget(320, 200)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 320 || img.Height != 200 {
		t.Errorf("unexpected target size %dx%d", img.Width, img.Height)
	}

	if _, err := r.CreateRenderTarget(0, 10); err == nil {
		t.Error("expected zero-sized target to fail")
	}

	r.DestroyRenderTarget(img)
	r.DestroyRenderTarget(img)
	if len(dev.destroyed) != 1 {
		t.Errorf("expected exactly one release, got %d", len(dev.destroyed))
	}
}

func TestRenderTargetCreationError(t *testing.T) {
	wantErr := errors.New("out of memory")
	r, _ := New(&fakeDevice{err: wantErr})
	if _, err := r.CreateRenderTarget(1, 1); !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped device error, got %v", err)
	}
}

func TestDestroyReleasesOutstandingTargets(t *testing.T) {
	dev := &fakeDevice{}
	r, _ := New(dev)
	_, _ = r.CreateRenderTarget(4, 4)
	_, _ = r.CreateRenderTarget(8, 8)

	if err := r.Destroy(); err != nil {
		t.Fatal(err)
	}
	if len(dev.destroyed) != 2 {
		t.Errorf("expected 2 targets released, got %d", len(dev.destroyed))
	}
}

func TestSyncObjectsOnlyDirty(t *testing.T) {
	var log []string
	r, _ := New(&fakeDevice{})
	r.RegisterObject(&fakeObject{name: "a", dirty: true, log: &log})
	r.RegisterObject(&fakeObject{name: "b", dirty: false, log: &log})
	r.RegisterObject(&fakeObject{name: "c", dirty: true, log: &log})

	if err := r.SyncObjects(); err != nil {
		t.Fatal(err)
	}
	if len(log) != 2 || log[0] != "a" || log[1] != "c" {
		t.Errorf("unexpected sync order %v", log)
	}

	// Nothing is dirty any more.
	log = log[:0]
	if err := r.SyncObjects(); err != nil {
		t.Fatal(err)
	}
	if len(log) != 0 {
		t.Errorf("expected no syncs, got %v", log)
	}
}

func TestSyncObjectsStopsAtFirstError(t *testing.T) {
	var log []string
	wantErr := errors.New("upload failed")
	r, _ := New(&fakeDevice{})
	id := r.RegisterObject(&fakeObject{name: "bad", dirty: true, err: wantErr, log: &log})
	r.RegisterObject(&fakeObject{name: "after", dirty: true, log: &log})

	err := r.SyncObjects()
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if len(log) != 1 {
		t.Errorf("expected sync to stop after failure, got %v", log)
	}
	if want := id.String(); !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not name object %s", err, want)
	}
}

func TestUnregisterObject(t *testing.T) {
	var log []string
	r, _ := New(&fakeDevice{})
	id := r.RegisterObject(&fakeObject{name: "a", dirty: true, log: &log})

	if !r.UnregisterObject(id) {
		t.Fatal("expected object to be removed")
	}
	if r.UnregisterObject(id) || r.UnregisterObject(uuid.New()) {
		t.Error("expected unknown ids to be rejected")
	}
	if r.ObjectCount() != 0 {
		t.Errorf("expected no objects, got %d", r.ObjectCount())
	}
	_ = r.SyncObjects()
	if len(log) != 0 {
		t.Errorf("unregistered object was synced: %v", log)
	}
}
