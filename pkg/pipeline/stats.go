package pipeline

import (
	"encoding/binary"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"quadview/internal/models"
)

// FrameStats holds intensity statistics of a single frame
type FrameStats struct {
	Samples int
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
}

// ChannelStats computes population statistics over every sample of f.
// One-byte and big-endian two-byte samples are understood; other layouts
// report zero samples. The alpha component of 4-component frames is left out.
func ChannelStats(f models.OutputFrame) FrameStats {
	values := samples(f)
	if len(values) == 0 {
		return FrameStats{}
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	return FrameStats{
		Samples: len(values),
		Mean:    mean,
		StdDev:  std,
		Min:     floats.Min(values),
		Max:     floats.Max(values),
	}
}

func samples(f models.OutputFrame) []float64 {
	switch f.BytesPerPixel {
	case 1:
		out := make([]float64, 0, len(f.Pix))
		for i, b := range f.Pix {
			if f.NumComponents == 4 && i%4 == 3 {
				continue
			}
			out = append(out, float64(b))
		}
		return out
	case 2:
		out := make([]float64, len(f.Pix)/2)
		for i := range out {
			out[i] = float64(binary.BigEndian.Uint16(f.Pix[2*i:]))
		}
		return out
	}
	return nil
}

// pooledMeanStdDev combines per-frame means weighted by sample count with
// the accumulated sum of squares into channel-wide statistics
func pooledMeanStdDev(means, weights []float64, sumSq, total float64) (float64, float64) {
	mean := stat.Mean(means, weights)
	variance := sumSq/total - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}
