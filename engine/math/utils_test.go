package math

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Errorf("Clamp(5, 0, 3) = %v", got)
	}
	if got := Clamp(-1.5, 0, 3); got != 0 {
		t.Errorf("Clamp(-1.5, 0, 3) = %v", got)
	}
	if got := Clamp(uint32(2), 1, 3); got != 2 {
		t.Errorf("Clamp(2, 1, 3) = %v", got)
	}
}

func TestLerp(t *testing.T) {
	tests := []struct {
		a, b, t, want float32
	}{
		{0, 10, 0, 0},
		{0, 10, 1, 10},
		{0, 10, 0.25, 2.5},
		{4, 2, 0.5, 3},
	}
	for _, tt := range tests {
		if got := Lerp(tt.a, tt.b, tt.t); got != tt.want {
			t.Errorf("Lerp(%v, %v, %v) = %v, want %v", tt.a, tt.b, tt.t, got, tt.want)
		}
	}
}

func TestInverseLerp(t *testing.T) {
	if got := InverseLerp(2.0, 4.0, 3.0); got != 0.5 {
		t.Errorf("InverseLerp(2, 4, 3) = %v", got)
	}
	if got := InverseLerp(2.0, 2.0, 3.0); got != 0 {
		t.Errorf("InverseLerp on empty range = %v", got)
	}
	if got := Saturate(1.7); got != 1 {
		t.Errorf("Saturate(1.7) = %v", got)
	}
}
