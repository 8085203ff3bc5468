package gamecore

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spaghettifunk/gamex/engine/animation"
	"github.com/spaghettifunk/gamex/engine/core"
)

const testScene = `
[[track]]
name = "sky"
loop = true

  [[track.key]]
  time = 0.0
  color = "black"

  [[track.key]]
  time = 2.0
  color = "#ff8000"
  alpha = 0.5

[[track]]
name = "flash"

  [[track.key]]
  time = 0.0
  color = "White"
`

type fakeManager struct {
	mu       sync.Mutex
	commands []animation.Command
	notify   chan struct{}
}

func newFakeManager() *fakeManager {
	return &fakeManager{notify: make(chan struct{}, 16)}
}

func (m *fakeManager) Enqueue(c animation.Command) {
	m.mu.Lock()
	m.commands = append(m.commands, c)
	m.mu.Unlock()
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *fakeManager) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.commands)
}

func (m *fakeManager) last() animation.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commands[len(m.commands)-1]
}

func writeScene(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "scene.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseScene(t *testing.T) {
	tracks, err := ParseScene([]byte(testScene))
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}

	sky := tracks[0]
	if sky.Name != "sky" || !sky.Loop || len(sky.Keys) != 2 {
		t.Fatalf("unexpected sky track %+v", sky)
	}
	want := animation.Color{1, 128.0 / 255, 0, 0.5}
	if sky.Keys[1].Value != want {
		t.Errorf("hex key = %v, want %v", sky.Keys[1].Value, want)
	}
	if tracks[1].Keys[0].Value != (animation.Color{1, 1, 1, 1}) {
		t.Errorf("named colour lookup should be case-insensitive, got %v", tracks[1].Keys[0].Value)
	}
}

func TestParseSceneErrors(t *testing.T) {
	tests := []struct {
		name  string
		scene string
	}{
		{"unknown colour", "[[track]]\nname = \"a\"\n[[track.key]]\ncolor = \"notacolour\"\n"},
		{"bad hex", "[[track]]\nname = \"a\"\n[[track.key]]\ncolor = \"#12\"\n"},
		{"alpha out of range", "[[track]]\nname = \"a\"\n[[track.key]]\ncolor = \"red\"\nalpha = 2.0\n"},
		{"no keys", "[[track]]\nname = \"a\"\n"},
		{"duplicate track", "[[track]]\nname = \"a\"\n[[track.key]]\ncolor = \"red\"\n[[track]]\nname = \"a\"\n[[track.key]]\ncolor = \"red\"\n"},
		{"unknown field", "[[track]]\nname = \"a\"\nspeed = 2\n[[track.key]]\ncolor = \"red\"\n"},
		{"malformed", "[[track]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseScene([]byte(tt.scene)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want animation.Color
	}{
		{"red", animation.Color{1, 0, 0, 1}},
		{"#00ff00", animation.Color{0, 1, 0, 1}},
		{"#0000ff80", animation.Color{0, 0, 1, 128.0 / 255}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestJobSystem(t *testing.T) {
	if _, err := NewJobSystem(0, 1); !errors.Is(err, ErrNoWorkers) {
		t.Errorf("expected ErrNoWorkers, got %v", err)
	}
	if _, err := NewJobSystem(1, -1); !errors.Is(err, ErrNegativeChannelSize) {
		t.Errorf("expected ErrNegativeChannelSize, got %v", err)
	}

	js, err := NewJobSystem(4, 8)
	if err != nil {
		t.Fatal(err)
	}

	var completed, failed atomic.Int32
	boom := errors.New("boom")
	for i := 0; i < 20; i++ {
		i := i
		err := js.Submit(Job{
			Name: "work",
			Run: func() error {
				if i%5 == 0 {
					return boom
				}
				return nil
			},
			OnComplete: func() { completed.Add(1) },
			OnFailure: func(err error) {
				if errors.Is(err, boom) {
					failed.Add(1)
				}
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if completed.Load() != 16 || failed.Load() != 4 {
		t.Errorf("completed=%d failed=%d, want 16 and 4", completed.Load(), failed.Load())
	}
	if err := js.Submit(Job{Run: func() error { return nil }}); !errors.Is(err, ErrJobSystemClosed) {
		t.Errorf("expected ErrJobSystemClosed, got %v", err)
	}
	if err := js.Shutdown(); !errors.Is(err, ErrJobSystemClosed) {
		t.Errorf("expected second shutdown to fail, got %v", err)
	}
}

func TestCoreStartStop(t *testing.T) {
	c := New(newFakeManager(), Config{Workers: 2})

	if err := c.Stop(); !errors.Is(err, core.ErrCoreNotRunning) {
		t.Errorf("expected ErrCoreNotRunning, got %v", err)
	}
	if err := c.Submit(Job{Run: func() error { return nil }}); !errors.Is(err, core.ErrCoreNotRunning) {
		t.Errorf("expected ErrCoreNotRunning, got %v", err)
	}

	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(); !errors.Is(err, core.ErrCoreAlreadyRunning) {
		t.Errorf("expected ErrCoreAlreadyRunning, got %v", err)
	}

	done := make(chan struct{})
	if err := c.Submit(Job{Run: func() error { close(done); return nil }}); err != nil {
		t.Fatal(err)
	}
	if err := c.Stop(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	default:
		t.Error("Stop returned before queued jobs ran")
	}
	if c.Running() {
		t.Error("core still running after Stop")
	}
}

func TestCoreLoadsScene(t *testing.T) {
	path := writeScene(t, t.TempDir(), testScene)
	m := newFakeManager()
	c := New(m, Config{Workers: 1, ScenePath: path})

	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	if m.count() != 1 {
		t.Fatalf("expected the scene to be enqueued once, got %d", m.count())
	}
	replace, ok := m.last().(animation.ReplaceTracks)
	if !ok || len(replace.Tracks) != 2 {
		t.Fatalf("unexpected command %#v", m.last())
	}
}

func TestCoreRejectsBrokenScene(t *testing.T) {
	path := writeScene(t, t.TempDir(), "[[track]\n")
	c := New(newFakeManager(), Config{Workers: 1, ScenePath: path})
	if err := c.Start(); err == nil {
		c.Stop()
		t.Fatal("expected Start to fail on a malformed scene")
	}
	if c.Running() {
		t.Error("core must not be running after a failed Start")
	}
}

func TestCoreReloadsSceneOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeScene(t, dir, testScene)
	m := newFakeManager()
	c := New(m, Config{Workers: 1, ScenePath: path})
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()
	<-m.notify

	writeScene(t, dir, "[[track]]\nname = \"only\"\n[[track.key]]\ncolor = \"navy\"\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-m.notify:
			if r, ok := m.last().(animation.ReplaceTracks); ok && len(r.Tracks) == 1 && r.Tracks[0].Name == "only" {
				return
			}
		case <-deadline:
			t.Fatal("scene was not reloaded after the file changed")
		}
	}
}
