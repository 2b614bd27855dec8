// Package frameio converts between image files and raw frames and provides
// the file-backed sinks used by the command line tool.
package frameio

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/tiff"

	"quadview/internal/models"
)

// FromImage converts a decoded image into a source frame.
// Gray and Gray16 images keep their samples as stored (Gray16 is big-endian),
// RGBA and NRGBA images become 4 one-byte non-premultiplied components, and
// anything else is converted to 16-bit grayscale.
func FromImage(img image.Image, coords models.Coords, md models.Metadata) models.SourceFrame {
	b := img.Bounds()
	frame := models.SourceFrame{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Coords:   coords,
		Metadata: md,
	}

	switch m := img.(type) {
	case *image.Gray:
		frame.BytesPerPixel, frame.NumComponents = 1, 1
		frame.Pix = copyRows(m.Pix, m.Stride, m.PixOffset(b.Min.X, b.Min.Y), b.Dx(), b.Dy())
	case *image.Gray16:
		frame.BytesPerPixel, frame.NumComponents = 2, 1
		frame.Pix = copyRows(m.Pix, m.Stride, m.PixOffset(b.Min.X, b.Min.Y), b.Dx()*2, b.Dy())
	case *image.RGBA:
		// ToImage reads 4-component frames back as NRGBA
		nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), m, b.Min, draw.Src)
		frame.BytesPerPixel, frame.NumComponents = 1, 4
		frame.Pix = nrgba.Pix
	case *image.NRGBA:
		frame.BytesPerPixel, frame.NumComponents = 1, 4
		frame.Pix = copyRows(m.Pix, m.Stride, m.PixOffset(b.Min.X, b.Min.Y), b.Dx()*4, b.Dy())
	default:
		gray := image.NewGray16(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				gray.Set(x, y, color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)))
			}
		}
		frame.BytesPerPixel, frame.NumComponents = 2, 1
		frame.Pix = gray.Pix
	}

	return frame
}

// ToImage converts an output frame back into an image
func ToImage(f models.OutputFrame) (image.Image, error) {
	rect := image.Rect(0, 0, f.Width, f.Height)
	switch {
	case f.BytesPerPixel == 1 && f.NumComponents == 1:
		return &image.Gray{Pix: f.Pix, Stride: f.Width, Rect: rect}, nil
	case f.BytesPerPixel == 2 && f.NumComponents == 1:
		return &image.Gray16{Pix: f.Pix, Stride: f.Width * 2, Rect: rect}, nil
	case f.BytesPerPixel == 1 && f.NumComponents == 4:
		return &image.NRGBA{Pix: f.Pix, Stride: f.Width * 4, Rect: rect}, nil
	}
	return nil, fmt.Errorf("unsupported pixel layout: %d bytes x %d components",
		f.BytesPerPixel, f.NumComponents)
}

func copyRows(pix []byte, stride, offset, rowBytes, rows int) []byte {
	out := make([]byte, rowBytes*rows)
	for y := 0; y < rows; y++ {
		start := offset + y*stride
		copy(out[y*rowBytes:(y+1)*rowBytes], pix[start:start+rowBytes])
	}
	return out
}

// LoadImage decodes a TIFF, PNG or JPEG file
func LoadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		img, err = tiff.Decode(file)
	case ".png":
		img, err = png.Decode(file)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(file)
	default:
		return nil, fmt.Errorf("unsupported image type %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

// LoadDir loads every supported image in dir as a source frame.
// Files are ordered by the number in their name and numbered along the time
// axis in that order. Each frame's metadata records its file name.
func LoadDir(dir string) ([]models.SourceFrame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var imageFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".tif", ".tiff", ".png", ".jpg", ".jpeg":
			imageFiles = append(imageFiles, entry.Name())
		}
	}

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no images found in input directory %s", dir)
	}

	sort.SliceStable(imageFiles, func(i, j int) bool {
		numI := extractNumber(imageFiles[i])
		numJ := extractNumber(imageFiles[j])
		if numI != numJ {
			return numI < numJ
		}
		return imageFiles[i] < imageFiles[j]
	})

	frames := make([]models.SourceFrame, 0, len(imageFiles))
	for i, filename := range imageFiles {
		img, err := LoadImage(filepath.Join(dir, filename))
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", filename, err)
		}
		md := models.Metadata{"FileName": filename}
		frames = append(frames, FromImage(img, models.Coords{Time: i}, md))
	}

	return frames, nil
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	var digits strings.Builder
	for _, c := range base {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}

	if digits.Len() > 0 {
		if num, err := strconv.Atoi(digits.String()); err == nil {
			return num
		}
	}

	return 0
}
