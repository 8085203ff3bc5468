package animation

import (
	"fmt"
	stdmath "math"

	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/gamex/engine/math"
)

// Color is a linear RGBA colour.
type Color [4]float32

// Keyframe pins a colour to a point in time, in seconds.
type Keyframe struct {
	Time  float64
	Value Color
}

// Track interpolates linearly between keyframes sorted by time.
type Track struct {
	Name string
	Loop bool
	Keys []Keyframe
}

// NewTrack sorts keys by time. Equal times keep their given order.
func NewTrack(name string, loop bool, keys ...Keyframe) (*Track, error) {
	if name == "" {
		return nil, fmt.Errorf("track name must not be empty")
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("track %q has no keyframes", name)
	}
	sorted := make([]Keyframe, len(keys))
	copy(sorted, keys)
	for _, k := range sorted {
		if k.Time < 0 || stdmath.IsNaN(k.Time) || stdmath.IsInf(k.Time, 0) {
			return nil, fmt.Errorf("track %q has an invalid keyframe time %v", name, k.Time)
		}
	}
	slices.SortStableFunc(sorted, func(a, b Keyframe) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	return &Track{Name: name, Loop: loop, Keys: sorted}, nil
}

// Duration is the time of the last keyframe.
func (t *Track) Duration() float64 {
	return t.Keys[len(t.Keys)-1].Time
}

// Evaluate returns the track value at time at. Outside the keyed range the
// nearest keyframe holds, unless the track loops.
func (t *Track) Evaluate(at float64) Color {
	if len(t.Keys) == 1 {
		return t.Keys[0].Value
	}
	if t.Loop && t.Duration() > 0 {
		at = stdmath.Mod(at, t.Duration())
	}

	first, last := t.Keys[0], t.Keys[len(t.Keys)-1]
	if at <= first.Time {
		return first.Value
	}
	if at >= last.Time {
		return last.Value
	}

	// First key strictly after at.
	next := 1
	for next < len(t.Keys) && t.Keys[next].Time <= at {
		next++
	}
	a, b := t.Keys[next-1], t.Keys[next]
	f := float32(math.InverseLerp(a.Time, b.Time, at))

	var out Color
	for i := range out {
		out[i] = math.Lerp(a.Value[i], b.Value[i], f)
	}
	return out
}

// Over composites c on top of dst using c's alpha.
func (c Color) Over(dst Color) Color {
	a := math.Saturate(c[3])
	return Color{
		c[0]*a + dst[0]*(1-a),
		c[1]*a + dst[1]*(1-a),
		c[2]*a + dst[2]*(1-a),
		a + dst[3]*(1-a),
	}
}
