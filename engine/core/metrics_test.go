package core

import "testing"

func TestMetricsAverage(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.010)
	}
	if got := m.FrameTime(); got < 9.999 || got > 10.001 {
		t.Fatalf("FrameTime() = %v, want 10ms", got)
	}
	// the average must not accumulate across windows
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.020)
	}
	if got := m.FrameTime(); got < 19.999 || got > 20.001 {
		t.Fatalf("FrameTime() = %v, want 20ms", got)
	}
}

func TestMetricsFPS(t *testing.T) {
	m := NewMetrics()
	// 61 frames of ~16.6ms cross the one second boundary once.
	for i := 0; i < 61; i++ {
		m.Update(1.0 / 60.0)
	}
	fps, _ := m.Frame()
	if fps < 59 || fps > 61 {
		t.Fatalf("FPS() = %v, want about 60", fps)
	}
}
