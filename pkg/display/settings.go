// Package display keeps the channel display settings of a live view in
// step with the quadrant selection.
package display

import (
	"errors"
	"image/color"
	"sync/atomic"

	"quadview/internal/models"
)

// ErrContention is returned when an update keeps losing the race against
// concurrent writers
var ErrContention = errors.New("display settings changed concurrently")

// DefaultMaxRetries bounds the compare-and-swap loop of Store.Update
const DefaultMaxRetries = 8

// ColorMode says how channels are combined on screen
type ColorMode int

const (
	Composite ColorMode = iota
	Grayscale
)

func (m ColorMode) String() string {
	if m == Grayscale {
		return "grayscale"
	}
	return "composite"
}

// Colors assigned to each quadrant's channel
var (
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Orange  = color.RGBA{R: 255, G: 200, B: 0, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
)

var quadrantColors = map[models.Quadrant]color.RGBA{
	models.TopLeft:     Cyan,
	models.BottomLeft:  Green,
	models.TopRight:    Orange,
	models.BottomRight: Magenta,
}

// ChannelSettings is the display state of one channel
type ChannelSettings struct {
	Name  string
	Color color.RGBA
}

// Settings is an immutable snapshot of the display state
type Settings struct {
	// Version increases by one with every successful update
	Version  uint64
	Channels []ChannelSettings
	Mode     ColorMode
}

// ForSelection returns the channel layout matching frames split with sel.
// Channels are listed in output channel order; a single channel is shown
// in grayscale, anything else as a composite.
func ForSelection(sel models.QuadSelection) Settings {
	var s Settings
	for _, spec := range sel.Selected() {
		s.Channels = append(s.Channels, ChannelSettings{
			Name:  spec.Name,
			Color: quadrantColors[spec.Quadrant],
		})
	}
	if len(s.Channels) == 1 {
		s.Mode = Grayscale
	} else {
		s.Mode = Composite
	}
	return s
}

// Store holds the current display settings and allows lock-free updates
type Store struct {
	// MaxRetries bounds Update; zero means DefaultMaxRetries
	MaxRetries int

	current atomic.Pointer[Settings]
}

// NewStore creates a store holding initial at version 0
func NewStore(initial Settings) *Store {
	s := &Store{}
	initial.Version = 0
	s.current.Store(&initial)
	return s
}

// Current returns the latest snapshot
func (s *Store) Current() Settings {
	if p := s.current.Load(); p != nil {
		return *p
	}
	return Settings{}
}

// Update applies fn to the latest snapshot and publishes the result if no
// other writer got there first, retrying up to MaxRetries times. fn may be
// called more than once and must not have side effects.
func (s *Store) Update(fn func(Settings) Settings) (Settings, error) {
	retries := s.MaxRetries
	if retries <= 0 {
		retries = DefaultMaxRetries
	}

	for attempt := 0; attempt < retries; attempt++ {
		old := s.current.Load()
		var base Settings
		if old != nil {
			base = *old
		}

		next := fn(base)
		next.Version = base.Version + 1
		if s.current.CompareAndSwap(old, &next) {
			return next, nil
		}
	}
	return s.Current(), ErrContention
}

// ApplySelection replaces the channel layout with the one for sel
func (s *Store) ApplySelection(sel models.QuadSelection) (Settings, error) {
	layout := ForSelection(sel)
	return s.Update(func(cur Settings) Settings {
		cur.Channels = layout.Channels
		cur.Mode = layout.Mode
		return cur
	})
}
