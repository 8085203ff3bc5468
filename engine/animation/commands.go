package animation

// Command mutates the manager between two updates. Commands are created on
// any goroutine and applied on the frame loop.
type Command interface {
	apply(m *Manager)
}

// SetTrack adds a track or replaces the one with the same name.
type SetTrack struct {
	Track *Track
}

// RemoveTrack drops the named track if it exists.
type RemoveTrack struct {
	Name string
}

// Pause freezes the animation clock.
type Pause struct{}

// Resume restarts a paused animation clock.
type Resume struct{}

// Reset rewinds the animation clock to zero.
type Reset struct{}

// ReplaceTracks swaps the whole track set atomically, as when a scene is reloaded.
type ReplaceTracks struct {
	Tracks []*Track
}

func (c SetTrack) apply(m *Manager) {
	if c.Track == nil {
		return
	}
	m.tracks[c.Track.Name] = c.Track
}

func (c RemoveTrack) apply(m *Manager) {
	delete(m.tracks, c.Name)
}

func (Pause) apply(m *Manager) {
	m.paused = true
}

func (Resume) apply(m *Manager) {
	m.paused = false
}

func (Reset) apply(m *Manager) {
	m.time = 0
}

func (c ReplaceTracks) apply(m *Manager) {
	m.tracks = make(map[string]*Track, len(c.Tracks))
	for _, t := range c.Tracks {
		if t != nil {
			m.tracks[t.Name] = t
		}
	}
}
