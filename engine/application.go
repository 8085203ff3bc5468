package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/gamex/engine/platform"
)

const (
	// SizeUnspecified marks a window dimension to be resolved at window creation.
	SizeUnspecified = -1

	DefaultWidth  = 1280
	DefaultHeight = 720
)

// ApplicationSettings is read once at construction and never changes after.
type ApplicationSettings struct {
	// The application name used in windowing.
	Name string `toml:"name"`
	// Window width in pixels, or SizeUnspecified.
	Width int `toml:"width"`
	// Window height in pixels, or SizeUnspecified.
	Height     int  `toml:"height"`
	Fullscreen bool `toml:"fullscreen"`
	// One of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
	// Optional scene file loaded and watched by the core.
	ScenePath string `toml:"scene"`
	// Number of core workers, 0 for one per CPU.
	Workers int `toml:"workers"`
	// Enables the Vulkan validation layers.
	Debug bool `toml:"debug"`
}

func DefaultSettings() ApplicationSettings {
	return ApplicationSettings{
		Name:       "GameX",
		Width:      SizeUnspecified,
		Height:     SizeUnspecified,
		Fullscreen: false,
		LogLevel:   "info",
	}
}

// LoadSettings reads TOML settings from path on top of DefaultSettings. A
// missing file is not an error.
func LoadSettings(path string) (ApplicationSettings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to read settings %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return settings, settings.Validate()
}

// Validate rejects dimensions that are neither positive nor SizeUnspecified.
func (s ApplicationSettings) Validate() error {
	if s.Width != SizeUnspecified && s.Width <= 0 {
		return fmt.Errorf("invalid window width %d", s.Width)
	}
	if s.Height != SizeUnspecified && s.Height <= 0 {
		return fmt.Errorf("invalid window height %d", s.Height)
	}
	if s.Workers < 0 {
		return fmt.Errorf("invalid worker count %d", s.Workers)
	}
	return nil
}

// ResolveSize returns the window size for s. When either dimension is
// unspecified both are replaced: by the primary display mode in fullscreen,
// by the default size otherwise.
func ResolveSize(s ApplicationSettings, primary platform.VideoMode) (int, int) {
	if s.Width != SizeUnspecified && s.Height != SizeUnspecified {
		return s.Width, s.Height
	}
	if s.Fullscreen {
		return primary.Width, primary.Height
	}
	return DefaultWidth, DefaultHeight
}
