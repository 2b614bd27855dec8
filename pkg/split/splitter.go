// Package split crops a quad-view frame into one frame per kept quadrant.
package split

import (
	"errors"
	"fmt"
	"image"
	"iter"

	"quadview/internal/models"
)

// ErrInvalidGeometry is returned in strict mode for frames that cannot be
// divided into four equal quadrants
var ErrInvalidGeometry = errors.New("invalid geometry")

// Splitter splits frames with an optional geometry check
type Splitter struct {
	// Strict rejects odd, empty, or inconsistent frames instead of
	// truncating them
	Strict bool
}

// Split validates the frame when s.Strict is set and returns the lazy
// sequence of output frames. No output is produced when validation fails.
func (s Splitter) Split(frame models.SourceFrame, sel models.QuadSelection) (iter.Seq[models.OutputFrame], error) {
	if s.Strict {
		if err := Validate(frame); err != nil {
			return nil, err
		}
	}
	return Split(frame, sel), nil
}

// Validate checks that frame divides into four equal quadrants and that the
// pixel buffer matches the declared geometry
func Validate(frame models.SourceFrame) error {
	switch {
	case frame.Width <= 0 || frame.Height <= 0:
		return fmt.Errorf("%w: frame is %dx%d", ErrInvalidGeometry, frame.Width, frame.Height)
	case frame.Width%2 != 0 || frame.Height%2 != 0:
		return fmt.Errorf("%w: odd frame dimensions %dx%d", ErrInvalidGeometry, frame.Width, frame.Height)
	case frame.BytesPerPixel <= 0 || frame.NumComponents <= 0:
		return fmt.Errorf("%w: %d bytes per pixel, %d components", ErrInvalidGeometry,
			frame.BytesPerPixel, frame.NumComponents)
	case len(frame.Pix) != frame.Stride()*frame.Height:
		return fmt.Errorf("%w: buffer holds %d bytes, %dx%d frame needs %d", ErrInvalidGeometry,
			len(frame.Pix), frame.Width, frame.Height, frame.Stride()*frame.Height)
	}
	return nil
}

// Split crops the kept quadrants of frame in the fixed quadrant order.
//
// Each quadrant is W/2 x H/2 pixels (truncating division, so the last row
// or column of an odd frame is dropped). The channel index of an output is
// the number of kept quadrants emitted before it, so indices are always
// 0..n-1 regardless of which quadrants are discarded.
//
// Parameters:
//   - frame: the source frame, never modified
//   - sel: the quadrants to keep
//
// Returns:
//   - A sequence of 0 to 4 output frames, each with its own pixel buffer
func Split(frame models.SourceFrame, sel models.QuadSelection) iter.Seq[models.OutputFrame] {
	return func(yield func(models.OutputFrame) bool) {
		width := halve(frame.Width)
		height := halve(frame.Height)

		channel := 0
		for _, spec := range models.Quadrants {
			if !sel.Has(spec.Quadrant) {
				continue
			}
			x, y := spec.Origin(width, height)
			out := models.OutputFrame{
				Pix:           crop(frame, x, y, width, height),
				Width:         width,
				Height:        height,
				BytesPerPixel: frame.BytesPerPixel,
				NumComponents: frame.NumComponents,
				Coords:        frame.Coords.WithChannel(channel),
				Metadata:      frame.Metadata,
				Quadrant:      spec.Quadrant,
			}
			channel++
			if !yield(out) {
				return
			}
		}
	}
}

// Collect drains a split sequence into a slice
func Collect(seq iter.Seq[models.OutputFrame]) []models.OutputFrame {
	var out []models.OutputFrame
	for f := range seq {
		out = append(out, f)
	}
	return out
}

// Rect returns the region of a width x height source frame that quadrant q
// is cropped from
func Rect(q models.Quadrant, width, height int) image.Rectangle {
	w, h := halve(width), halve(height)
	x, y := models.Quadrants[q].Origin(w, h)
	return image.Rect(x, y, x+w, y+h)
}

// halve divides a dimension by two, treating negative values as empty
func halve(n int) int {
	if n < 0 {
		return 0
	}
	return n / 2
}

// crop copies a w x h block starting at (x0, y0) out of the frame.
// Bytes beyond the end of a short buffer are left zero.
func crop(frame models.SourceFrame, x0, y0, w, h int) []byte {
	pixelSize := frame.BytesPerPixel * frame.NumComponents
	if pixelSize < 0 {
		pixelSize = 0
	}
	rowBytes := w * pixelSize
	stride := frame.Stride()
	out := make([]byte, rowBytes*h)
	if rowBytes == 0 {
		return out
	}

	for y := 0; y < h; y++ {
		start := (y0+y)*stride + x0*pixelSize
		if start >= len(frame.Pix) {
			break
		}
		end := min(start+rowBytes, len(frame.Pix))
		copy(out[y*rowBytes:(y+1)*rowBytes], frame.Pix[start:end])
	}

	return out
}
