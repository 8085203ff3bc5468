package animation

import (
	"sync"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/spaghettifunk/gamex/engine/renderer/metadata"
)

type fakeRenderer struct {
	created      []*metadata.Image
	destroyed    []*metadata.Image
	registered   map[uuid.UUID]metadata.SyncObject
	unregistered []uuid.UUID
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{registered: make(map[uuid.UUID]metadata.SyncObject)}
}

func (r *fakeRenderer) CreateRenderTarget(width, height uint32) (*metadata.Image, error) {
	img := &metadata.Image{Width: width, Height: height}
	r.created = append(r.created, img)
	return img, nil
}

func (r *fakeRenderer) DestroyRenderTarget(image *metadata.Image) {
	r.destroyed = append(r.destroyed, image)
}

func (r *fakeRenderer) RegisterObject(obj metadata.SyncObject) uuid.UUID {
	id := uuid.New()
	r.registered[id] = obj
	return id
}

func (r *fakeRenderer) UnregisterObject(id uuid.UUID) bool {
	_, ok := r.registered[id]
	delete(r.registered, id)
	r.unregistered = append(r.unregistered, id)
	return ok
}

func (r *fakeRenderer) sync() {
	for _, o := range r.registered {
		if o.Dirty() {
			_ = o.Sync()
		}
	}
}

type recordedCall struct {
	op     string
	layout vk.ImageLayout
	color  [4]float32
}

type fakeCommandBuffer struct {
	calls []recordedCall
}

func (c *fakeCommandBuffer) TransitImageLayout(_ *metadata.Image, tr metadata.ImageTransition) {
	c.calls = append(c.calls, recordedCall{op: "transit", layout: tr.NewLayout})
}

func (c *fakeCommandBuffer) ClearColorImage(_ *metadata.Image, layout vk.ImageLayout, color [4]float32) {
	c.calls = append(c.calls, recordedCall{op: "clear", layout: layout, color: color})
}

func (c *fakeCommandBuffer) BlitImage(_ *metadata.Image, _ vk.ImageLayout, _ *metadata.Image, _ vk.ImageLayout, _ vk.Filter) {
	c.calls = append(c.calls, recordedCall{op: "blit"})
}

func mustTrack(t *testing.T, name string, loop bool, keys ...Keyframe) *Track {
	t.Helper()
	tr, err := NewTrack(name, loop, keys...)
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func approx(a, b Color) bool {
	for i := range a {
		d := a[i] - b[i]
		if d > 1e-5 || d < -1e-5 {
			return false
		}
	}
	return true
}

func TestTrackEvaluate(t *testing.T) {
	red := Color{1, 0, 0, 1}
	blue := Color{0, 0, 1, 1}
	tr := mustTrack(t, "fade", false,
		Keyframe{Time: 2, Value: blue},
		Keyframe{Time: 0, Value: red},
	)

	tests := []struct {
		name string
		at   float64
		want Color
	}{
		{"before first key", -1, red},
		{"first key", 0, red},
		{"midpoint", 1, Color{0.5, 0, 0.5, 1}},
		{"last key", 2, blue},
		{"after last key holds", 5, blue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.Evaluate(tt.at); !approx(got, tt.want) {
				t.Errorf("Evaluate(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestTrackLoops(t *testing.T) {
	tr := mustTrack(t, "pulse", true,
		Keyframe{Time: 0, Value: Color{0, 0, 0, 1}},
		Keyframe{Time: 1, Value: Color{1, 1, 1, 1}},
	)
	if got := tr.Evaluate(1.25); !approx(got, Color{0.25, 0.25, 0.25, 1}) {
		t.Errorf("expected looped value, got %v", got)
	}
}

func TestNewTrackValidation(t *testing.T) {
	if _, err := NewTrack("", false, Keyframe{}); err == nil {
		t.Error("expected empty name to fail")
	}
	if _, err := NewTrack("a", false); err == nil {
		t.Error("expected track without keys to fail")
	}
	if _, err := NewTrack("a", false, Keyframe{Time: -1}); err == nil {
		t.Error("expected negative time to fail")
	}
}

func TestColorOver(t *testing.T) {
	half := Color{1, 1, 1, 0.5}
	got := half.Over(Color{0, 0, 0, 1})
	if !approx(got, Color{0.5, 0.5, 0.5, 1}) {
		t.Errorf("Over() = %v", got)
	}
	opaque := Color{0.2, 0.4, 0.6, 1}
	if got := opaque.Over(Color{1, 1, 1, 1}); !approx(got, opaque) {
		t.Errorf("opaque colour should replace the destination, got %v", got)
	}
}

func TestRenderRequiresUpdate(t *testing.T) {
	m, err := NewManager(newFakeRenderer(), DefaultManagerConfig())
	if err != nil {
		t.Fatal(err)
	}
	cmd := &fakeCommandBuffer{}

	if m.Render(cmd) {
		t.Fatal("Render reported a frame before any Update")
	}
	if len(cmd.calls) != 0 {
		t.Fatalf("nothing should be recorded, got %v", cmd.calls)
	}

	m.Update(0.016)
	if !m.Render(cmd) {
		t.Fatal("expected a frame after Update")
	}
	if m.Render(cmd) {
		t.Fatal("expected no frame without a new Update")
	}
}

func TestRenderRecordsFilmPass(t *testing.T) {
	r := newFakeRenderer()
	m, _ := NewManager(r, DefaultManagerConfig())
	m.Enqueue(SetTrack{Track: mustTrack(t, "solid", false, Keyframe{Value: Color{0.1, 0.2, 0.3, 1}})})

	m.Update(0.5)
	r.sync()

	cmd := &fakeCommandBuffer{}
	m.Render(cmd)

	want := []recordedCall{
		{op: "transit", layout: vk.ImageLayoutTransferDstOptimal},
		{op: "clear", layout: vk.ImageLayoutTransferDstOptimal, color: [4]float32{0.1, 0.2, 0.3, 1}},
		{op: "transit", layout: vk.ImageLayoutShaderReadOnlyOptimal},
	}
	if len(cmd.calls) != len(want) {
		t.Fatalf("recorded %v, want %v", cmd.calls, want)
	}
	for i := range want {
		if cmd.calls[i].op != want[i].op || cmd.calls[i].layout != want[i].layout {
			t.Errorf("call %d = %+v, want %+v", i, cmd.calls[i], want[i])
		}
	}
	if !approx(Color(cmd.calls[1].color), Color(want[1].color)) {
		t.Errorf("cleared to %v, want %v", cmd.calls[1].color, want[1].color)
	}
}

func TestFilmColorOnlyChangesOnSync(t *testing.T) {
	r := newFakeRenderer()
	cfg := DefaultManagerConfig()
	m, _ := NewManager(r, cfg)
	m.Enqueue(SetTrack{Track: mustTrack(t, "white", false, Keyframe{Value: Color{1, 1, 1, 1}})})
	m.Update(0)

	film := m.PrimaryFilm()
	if !film.Dirty() {
		t.Fatal("expected film to be dirty after evaluation")
	}
	if film.Color() != cfg.Base {
		t.Errorf("unsynced film should keep its previous colour, got %v", film.Color())
	}
	r.sync()
	if film.Dirty() || film.Color() != (Color{1, 1, 1, 1}) {
		t.Errorf("expected synced white film, got %v dirty=%t", film.Color(), film.Dirty())
	}
}

func TestManagerWithoutFilm(t *testing.T) {
	r := newFakeRenderer()
	m, err := NewManager(r, ManagerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	m.Update(1)
	if m.Render(&fakeCommandBuffer{}) {
		t.Error("manager without a film must never report a frame")
	}
	if m.PrimaryFilm() != nil || len(r.created) != 0 {
		t.Error("no film should have been created")
	}
}

func TestClockControl(t *testing.T) {
	m, _ := NewManager(newFakeRenderer(), DefaultManagerConfig())

	m.Update(-3)
	if m.Time() != 0 {
		t.Errorf("negative delta must be clamped, time=%v", m.Time())
	}

	m.Update(1)
	m.Enqueue(Pause{})
	m.Update(1)
	if m.Time() != 1 || !m.Paused() {
		t.Errorf("expected paused clock at 1, got %v paused=%t", m.Time(), m.Paused())
	}

	m.Enqueue(Resume{})
	m.Update(0.5)
	if m.Time() != 1.5 {
		t.Errorf("expected resumed clock at 1.5, got %v", m.Time())
	}

	m.Enqueue(Reset{})
	m.Update(0)
	if m.Time() != 0 {
		t.Errorf("expected reset clock, got %v", m.Time())
	}
}

func TestTrackCommands(t *testing.T) {
	m, _ := NewManager(newFakeRenderer(), DefaultManagerConfig())
	a := mustTrack(t, "a", false, Keyframe{})
	b := mustTrack(t, "b", false, Keyframe{})

	m.Enqueue(SetTrack{Track: b})
	m.Enqueue(SetTrack{Track: a})
	m.Update(0)
	if names := m.TrackNames(); len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected tracks %v", names)
	}

	m.Enqueue(RemoveTrack{Name: "a"})
	m.Update(0)
	if names := m.TrackNames(); len(names) != 1 || names[0] != "b" {
		t.Fatalf("unexpected tracks after removal %v", names)
	}

	m.Enqueue(ReplaceTracks{Tracks: []*Track{a}})
	m.Update(0)
	if names := m.TrackNames(); len(names) != 1 || names[0] != "a" {
		t.Fatalf("unexpected tracks after replace %v", names)
	}
}

func TestEnqueueConcurrently(t *testing.T) {
	m, _ := NewManager(newFakeRenderer(), DefaultManagerConfig())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr, err := NewTrack(string(rune('a'+i)), false, Keyframe{})
			if err != nil {
				t.Error(err)
				return
			}
			m.Enqueue(SetTrack{Track: tr})
		}(i)
	}
	wg.Wait()

	m.Update(0)
	if got := len(m.TrackNames()); got != 8 {
		t.Errorf("expected 8 tracks, got %d", got)
	}
}

func TestDestroyReleasesFilm(t *testing.T) {
	r := newFakeRenderer()
	m, _ := NewManager(r, DefaultManagerConfig())
	film := m.PrimaryFilm()

	if err := m.Destroy(); err != nil {
		t.Fatal(err)
	}
	if len(r.destroyed) != 1 || r.destroyed[0] != film.Image {
		t.Error("expected the film render target to be released")
	}
	if len(r.registered) != 0 {
		t.Error("expected the film to be unregistered")
	}
}
