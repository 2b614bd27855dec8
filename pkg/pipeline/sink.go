package pipeline

import (
	"sort"
	"sync"

	"quadview/internal/models"
)

// MemorySink collects frames and summaries in memory.
// It is safe for concurrent use.
type MemorySink struct {
	mu        sync.Mutex
	frames    []models.OutputFrame
	summaries []models.ChannelCatalog
}

func (m *MemorySink) PutFrame(f models.OutputFrame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, f)
	return nil
}

func (m *MemorySink) PutSummary(cat models.ChannelCatalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, cat)
	return nil
}

// Frames returns the collected frames ordered by time, z, position and
// channel
func (m *MemorySink) Frames() []models.OutputFrame {
	m.mu.Lock()
	out := append([]models.OutputFrame(nil), m.frames...)
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Coords, out[j].Coords
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.Channel < b.Channel
	})
	return out
}

// Summaries returns the collected summaries in arrival order
func (m *MemorySink) Summaries() []models.ChannelCatalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ChannelCatalog(nil), m.summaries...)
}
