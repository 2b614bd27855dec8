// Package pipeline feeds acquisition frames and summaries through the quad
// splitter and metadata remapper and hands the results to sinks.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"quadview/internal/models"
	"quadview/pkg/logging"
	"quadview/pkg/remap"
	"quadview/pkg/split"
)

// FrameSink receives split frames. Implementations used with ProcessAll
// must be safe for concurrent use.
type FrameSink interface {
	PutFrame(f models.OutputFrame) error
}

// MetadataSink receives the remapped dataset summary
type MetadataSink interface {
	PutSummary(cat models.ChannelCatalog) error
}

// Processor applies one quadrant selection to a dataset
type Processor struct {
	Selection models.QuadSelection

	// Strict rejects frames that do not split into equal quadrants
	Strict bool

	// Workers limits concurrent frame splits; zero means one per CPU
	Workers int

	Frames  FrameSink
	Summary MetadataSink
}

// Report summarizes a ProcessAll run
type Report struct {
	FramesIn  int
	FramesOut int
	BytesOut  int64

	// Channels holds intensity statistics per output channel index
	Channels []ChannelReport
}

// ChannelReport describes the frames emitted on one channel
type ChannelReport struct {
	Channel  int
	Quadrant models.Quadrant
	Frames   int
	Mean     float64
	StdDev   float64
}

// ProcessSummary remaps the summary for the processor's selection and
// passes it to the metadata sink if one is set
func (p *Processor) ProcessSummary(cat models.ChannelCatalog) (models.ChannelCatalog, error) {
	out := remap.RemapSummary(cat, p.Selection)
	logging.Debugf("Remapped %d channel names to %d for selection %v",
		len(cat.ChannelNames), len(out.ChannelNames), p.Selection)

	if p.Summary != nil {
		if err := p.Summary.PutSummary(out); err != nil {
			return out, fmt.Errorf("failed to store summary: %w", err)
		}
	}
	return out, nil
}

// ProcessFrame splits one frame and passes each output to the frame sink.
// It returns the outputs that were delivered.
func (p *Processor) ProcessFrame(frame models.SourceFrame) ([]models.OutputFrame, error) {
	seq, err := split.Splitter{Strict: p.Strict}.Split(frame, p.Selection)
	if err != nil {
		return nil, fmt.Errorf("frame at time %d: %w", frame.Coords.Time, err)
	}

	var outputs []models.OutputFrame
	for out := range seq {
		if p.Frames != nil {
			if err := p.Frames.PutFrame(out); err != nil {
				return outputs, fmt.Errorf("failed to store channel %d of frame at time %d: %w",
					out.Coords.Channel, frame.Coords.Time, err)
			}
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// ProcessAll splits frames in parallel. It stops at the first error, or
// when ctx is cancelled, and returns what was processed up to then.
// Report.FramesIn counts the frames a worker started on.
func (p *Processor) ProcessAll(ctx context.Context, frames []models.SourceFrame) (Report, error) {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	acc := newStatsAccumulator()
	parent := ctx
	g, ctx := errgroup.WithContext(parent)
	g.SetLimit(workers)

	for _, frame := range frames {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outputs, err := p.ProcessFrame(frame)
			acc.add(outputs)
			return err
		})
	}

	err := g.Wait()
	if err == nil {
		err = parent.Err()
	}
	report := acc.report()
	logging.Infof("Split %d frames into %d channel frames", report.FramesIn, report.FramesOut)
	return report, err
}

// statsAccumulator collects per-channel samples from concurrent workers
type statsAccumulator struct {
	mu       sync.Mutex
	in       int
	out      int
	bytes    int64
	channels map[int]*channelSamples
}

type channelSamples struct {
	quadrant models.Quadrant
	frames   int
	means    []float64
	weights  []float64
	sumSq    float64
	total    float64
}

func newStatsAccumulator() *statsAccumulator {
	return &statsAccumulator{channels: make(map[int]*channelSamples)}
}

// add records one split source frame and its outputs
func (a *statsAccumulator) add(outputs []models.OutputFrame) {
	stats := make([]FrameStats, len(outputs))
	for i, out := range outputs {
		stats[i] = ChannelStats(out)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.in++
	for i, out := range outputs {
		a.out++
		a.bytes += int64(len(out.Pix))

		cs, ok := a.channels[out.Coords.Channel]
		if !ok {
			cs = &channelSamples{quadrant: out.Quadrant}
			a.channels[out.Coords.Channel] = cs
		}
		cs.frames++
		s := stats[i]
		if s.Samples == 0 {
			continue
		}
		n := float64(s.Samples)
		cs.means = append(cs.means, s.Mean)
		cs.weights = append(cs.weights, n)
		cs.sumSq += n * (s.StdDev*s.StdDev + s.Mean*s.Mean)
		cs.total += n
	}
}

func (a *statsAccumulator) report() Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := Report{FramesIn: a.in, FramesOut: a.out, BytesOut: a.bytes}
	for ch, cs := range a.channels {
		cr := ChannelReport{Channel: ch, Quadrant: cs.quadrant, Frames: cs.frames}
		if cs.total > 0 {
			cr.Mean, cr.StdDev = pooledMeanStdDev(cs.means, cs.weights, cs.sumSq, cs.total)
		}
		r.Channels = append(r.Channels, cr)
	}
	sort.Slice(r.Channels, func(i, j int) bool { return r.Channels[i].Channel < r.Channels[j].Channel })
	return r
}
