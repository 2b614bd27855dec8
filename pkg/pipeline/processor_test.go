package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"

	"quadview/internal/models"
	"quadview/pkg/split"
)

// createQuadFrame creates a 1-byte frame whose quadrants hold constant
// values: 10 top-left, 20 bottom-left, 30 top-right, 40 bottom-right
func createQuadFrame(width, height, time int) models.SourceFrame {
	pix := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var v byte
			switch {
			case x < width/2 && y < height/2:
				v = 10
			case x < width/2:
				v = 20
			case y < height/2:
				v = 30
			default:
				v = 40
			}
			pix[y*width+x] = v
		}
	}
	return models.SourceFrame{
		Pix: pix, Width: width, Height: height,
		BytesPerPixel: 1, NumComponents: 1,
		Coords: models.Coords{Time: time},
	}
}

type failingSink struct{ after int }

func (f *failingSink) PutFrame(models.OutputFrame) error {
	if f.after == 0 {
		return errors.New("disk full")
	}
	f.after--
	return nil
}

func (f *failingSink) PutSummary(models.ChannelCatalog) error {
	return errors.New("read-only")
}

// TestProcessAll runs a small dataset through the processor
func TestProcessAll(t *testing.T) {
	sink := &MemorySink{}
	p := &Processor{
		Selection: models.NewSelection(false, true, false, true),
		Workers:   3,
		Frames:    sink,
		Summary:   sink,
	}

	frames := make([]models.SourceFrame, 10)
	for i := range frames {
		frames[i] = createQuadFrame(8, 6, i)
	}

	report, err := p.ProcessAll(context.Background(), frames)
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}

	if report.FramesIn != 10 || report.FramesOut != 20 {
		t.Errorf("Expected 10 in and 20 out, got %d and %d", report.FramesIn, report.FramesOut)
	}
	if report.BytesOut != 20*4*3 {
		t.Errorf("Expected %d bytes out, got %d", 20*4*3, report.BytesOut)
	}

	if len(report.Channels) != 2 {
		t.Fatalf("Expected 2 channel reports, got %d", len(report.Channels))
	}
	wantMeans := []float64{20, 40}
	wantQuads := []models.Quadrant{models.BottomLeft, models.BottomRight}
	for i, ch := range report.Channels {
		if ch.Channel != i || ch.Quadrant != wantQuads[i] || ch.Frames != 10 {
			t.Errorf("Channel report %d: unexpected %+v", i, ch)
		}
		if math.Abs(ch.Mean-wantMeans[i]) > 1e-9 || ch.StdDev > 1e-9 {
			t.Errorf("Channel %d: expected mean %.0f and no spread, got %.3f/%.3f",
				i, wantMeans[i], ch.Mean, ch.StdDev)
		}
	}

	got := sink.Frames()
	if len(got) != 20 {
		t.Fatalf("Sink holds %d frames, expected 20", len(got))
	}
	for i, f := range got {
		if f.Coords.Time != i/2 || f.Coords.Channel != i%2 {
			t.Errorf("Frame %d has coords %+v", i, f.Coords)
		}
	}
}

// TestSummaryMatchesFrames checks that the summary describes as many
// channels per original channel as each frame produces
func TestSummaryMatchesFrames(t *testing.T) {
	catalog := models.ChannelCatalog{
		ChannelNames:     []string{"DIC"},
		AxisOrder:        []string{models.AxisTime, models.AxisChannel},
		IntendedChannels: 1,
		ImageWidth:       8,
		ImageHeight:      6,
	}

	for s := models.NoQuadrants; s <= models.AllQuadrants; s++ {
		sink := &MemorySink{}
		p := &Processor{Selection: s, Frames: sink, Summary: sink}

		out, err := p.ProcessSummary(catalog)
		if err != nil {
			t.Fatalf("ProcessSummary failed: %v", err)
		}
		frames, err := p.ProcessFrame(createQuadFrame(8, 6, 0))
		if err != nil {
			t.Fatalf("ProcessFrame failed: %v", err)
		}

		if len(out.ChannelNames) != len(frames) || out.IntendedChannels != len(frames) {
			t.Errorf("Selection %v: %d names, %d channels, %d frames",
				s, len(out.ChannelNames), out.IntendedChannels, len(frames))
		}
		for i, f := range frames {
			if f.Width != out.ImageWidth || f.Height != out.ImageHeight {
				t.Errorf("Selection %v: frame %dx%d but summary %dx%d",
					s, f.Width, f.Height, out.ImageWidth, out.ImageHeight)
			}
			want := "DIC" + models.Quadrants[f.Quadrant].Suffix
			if out.ChannelNames[i] != want {
				t.Errorf("Selection %v: channel %d named %s, frame came from %v",
					s, i, out.ChannelNames[i], f.Quadrant)
			}
		}
		if len(sink.Summaries()) != 1 {
			t.Errorf("Expected one summary in the sink")
		}
	}
}

// TestProcessAllStrict verifies that invalid frames stop the run
func TestProcessAllStrict(t *testing.T) {
	p := &Processor{Selection: models.AllQuadrants, Strict: true, Workers: 1, Frames: &MemorySink{}}

	frames := []models.SourceFrame{createQuadFrame(8, 6, 0), createQuadFrame(7, 6, 1)}
	_, err := p.ProcessAll(context.Background(), frames)
	if !errors.Is(err, split.ErrInvalidGeometry) {
		t.Errorf("Expected ErrInvalidGeometry, got %v", err)
	}

	p.Strict = false
	report, err := p.ProcessAll(context.Background(), frames)
	if err != nil {
		t.Fatalf("Lenient run failed: %v", err)
	}
	if report.FramesOut != 8 {
		t.Errorf("Expected 8 frames out, got %d", report.FramesOut)
	}
}

// TestSinkErrors verifies sink failures are reported
func TestSinkErrors(t *testing.T) {
	sink := &failingSink{after: 1}
	p := &Processor{Selection: models.AllQuadrants, Frames: sink, Summary: sink}

	outputs, err := p.ProcessFrame(createQuadFrame(4, 4, 0))
	if err == nil {
		t.Fatalf("Expected an error from the frame sink")
	}
	if len(outputs) != 1 {
		t.Errorf("Expected 1 delivered frame before the failure, got %d", len(outputs))
	}

	if _, err := p.ProcessSummary(models.ChannelCatalog{ChannelNames: []string{"DIC"}}); err == nil {
		t.Errorf("Expected an error from the metadata sink")
	}
}

// TestProcessAllCancelled verifies that a cancelled run reports the
// cancellation and processes nothing
func TestProcessAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &MemorySink{}
	p := &Processor{Selection: models.AllQuadrants, Frames: sink}
	frames := []models.SourceFrame{createQuadFrame(4, 4, 0), createQuadFrame(4, 4, 1)}

	report, err := p.ProcessAll(ctx, frames)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if report.FramesIn != 0 || report.FramesOut != 0 {
		t.Errorf("Expected nothing processed, got %d in and %d out", report.FramesIn, report.FramesOut)
	}
	if len(sink.Frames()) != 0 {
		t.Errorf("Expected no frames after cancellation, got %d", len(sink.Frames()))
	}
}

// TestChannelStats verifies statistics for both supported sample sizes
func TestChannelStats(t *testing.T) {
	s := ChannelStats(models.OutputFrame{Pix: []byte{0, 2, 4, 6}, BytesPerPixel: 1, NumComponents: 1})
	if s.Samples != 4 || s.Mean != 3 || s.Min != 0 || s.Max != 6 {
		t.Errorf("Unexpected 8-bit stats %+v", s)
	}
	if math.Abs(s.StdDev-math.Sqrt(5)) > 1e-9 {
		t.Errorf("Expected population std %.4f, got %.4f", math.Sqrt(5), s.StdDev)
	}

	s = ChannelStats(models.OutputFrame{Pix: []byte{0x01, 0x00, 0x03, 0x00}, BytesPerPixel: 2, NumComponents: 1})
	if s.Samples != 2 || s.Mean != 512 {
		t.Errorf("Unexpected 16-bit stats %+v", s)
	}

	// Opaque alpha must not pull the mean up
	rgba := []byte{10, 20, 30, 255, 40, 50, 60, 255}
	s = ChannelStats(models.OutputFrame{Pix: rgba, BytesPerPixel: 1, NumComponents: 4})
	if s.Samples != 6 || s.Mean != 35 || s.Max != 60 {
		t.Errorf("Unexpected RGBA stats %+v", s)
	}

	if s := ChannelStats(models.OutputFrame{Pix: []byte{1, 2, 3, 4}, BytesPerPixel: 4}); s.Samples != 0 {
		t.Errorf("Unsupported layouts should report no samples")
	}
}
