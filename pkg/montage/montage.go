// Package montage renders the channels split from one frame side by side,
// as a quick preview of what the kept quadrants contain.
package montage

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"quadview/internal/models"
	"quadview/pkg/frameio"
)

// Gap is the number of blank columns between two channels
const Gap = 2

// Montage lays frames out left to right in channel order on a 16-bit
// grayscale canvas. Color frames are converted to gray.
func Montage(frames []models.OutputFrame) (*image.Gray16, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to preview")
	}

	width, height := 0, 0
	for i, f := range frames {
		if i > 0 {
			width += Gap
		}
		width += f.Width
		height = max(height, f.Height)
	}

	canvas := image.NewGray16(image.Rect(0, 0, width, height))
	x := 0
	for _, f := range frames {
		img, err := frameio.ToImage(f)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", f.Coords.Channel, err)
		}
		dst := image.Rect(x, 0, x+f.Width, f.Height)
		draw.Draw(canvas, dst, img, image.Point{}, draw.Src)
		x += f.Width + Gap
	}

	return canvas, nil
}

// Outline marks the border of every channel in the montage with white so
// empty channels remain visible
func Outline(canvas *image.Gray16, frames []models.OutputFrame) {
	white := color.Gray16{Y: 0xFFFF}
	x := 0
	for _, f := range frames {
		if f.Width == 0 || f.Height == 0 {
			x += f.Width + Gap
			continue
		}
		for dx := 0; dx < f.Width; dx++ {
			canvas.SetGray16(x+dx, 0, white)
			canvas.SetGray16(x+dx, f.Height-1, white)
		}
		for dy := 0; dy < f.Height; dy++ {
			canvas.SetGray16(x, dy, white)
			canvas.SetGray16(x+f.Width-1, dy, white)
		}
		x += f.Width + Gap
	}
}

// SaveMontage writes the outlined montage of frames to path as PNG
func SaveMontage(path string, frames []models.OutputFrame) error {
	canvas, err := Montage(frames)
	if err != nil {
		return err
	}
	Outline(canvas, frames)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create preview directory: %v", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create preview file: %v", err)
	}
	defer file.Close()

	if err := png.Encode(file, canvas); err != nil {
		return fmt.Errorf("failed to encode preview: %v", err)
	}
	return nil
}
