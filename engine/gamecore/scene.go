package gamecore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/image/colornames"

	"github.com/spaghettifunk/gamex/engine/animation"
)

// Scene file layout:
//
//	[[track]]
//	name = "sky"
//	loop = true
//	  [[track.key]]
//	  time = 0.0
//	  color = "midnightblue"
//	  [[track.key]]
//	  time = 4.0
//	  color = "#ffa07a"
//	  alpha = 0.8
type sceneFile struct {
	Tracks []trackSpec `toml:"track"`
}

type trackSpec struct {
	Name string    `toml:"name"`
	Loop bool      `toml:"loop"`
	Keys []keySpec `toml:"key"`
}

type keySpec struct {
	Time  float64  `toml:"time"`
	Color string   `toml:"color"`
	Alpha *float64 `toml:"alpha"`
}

// LoadScene reads and parses the scene file at path.
func LoadScene(path string) ([]*animation.Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene %s: %w", path, err)
	}
	tracks, err := ParseScene(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scene %s: %w", path, err)
	}
	return tracks, nil
}

// ParseScene turns a TOML scene description into animation tracks.
func ParseScene(data []byte) ([]*animation.Track, error) {
	var scene sceneFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&scene); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("unknown fields in scene:\n%s", strict.String())
		}
		return nil, err
	}

	seen := make(map[string]bool, len(scene.Tracks))
	tracks := make([]*animation.Track, 0, len(scene.Tracks))
	for i, spec := range scene.Tracks {
		if seen[spec.Name] {
			return nil, fmt.Errorf("track %d: duplicate name %q", i, spec.Name)
		}
		seen[spec.Name] = true

		keys := make([]animation.Keyframe, 0, len(spec.Keys))
		for j, k := range spec.Keys {
			c, err := ParseColor(k.Color)
			if err != nil {
				return nil, fmt.Errorf("track %q key %d: %w", spec.Name, j, err)
			}
			if k.Alpha != nil {
				if *k.Alpha < 0 || *k.Alpha > 1 {
					return nil, fmt.Errorf("track %q key %d: alpha %v out of [0, 1]", spec.Name, j, *k.Alpha)
				}
				c[3] = float32(*k.Alpha)
			}
			keys = append(keys, animation.Keyframe{Time: k.Time, Value: c})
		}

		track, err := animation.NewTrack(spec.Name, spec.Loop, keys...)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// ParseColor accepts an SVG colour name or a #rrggbb / #rrggbbaa hex string.
func ParseColor(s string) (animation.Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		return parseHexColor(s[1:])
	}
	rgba, ok := colornames.Map[strings.ToLower(s)]
	if !ok {
		return animation.Color{}, fmt.Errorf("unknown colour %q", s)
	}
	return animation.Color{
		float32(rgba.R) / 255,
		float32(rgba.G) / 255,
		float32(rgba.B) / 255,
		float32(rgba.A) / 255,
	}, nil
}

func parseHexColor(hex string) (animation.Color, error) {
	if len(hex) != 6 && len(hex) != 8 {
		return animation.Color{}, fmt.Errorf("invalid hex colour %q", "#"+hex)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return animation.Color{}, fmt.Errorf("invalid hex colour %q: %w", "#"+hex[:6], err)
	}
	return animation.Color{
		float32((v>>24)&0xff) / 255,
		float32((v>>16)&0xff) / 255,
		float32((v>>8)&0xff) / 255,
		float32(v&0xff) / 255,
	}, nil
}
