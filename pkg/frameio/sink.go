package frameio

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/image/tiff"
	"gopkg.in/yaml.v3"

	"quadview/internal/models"
)

// DirSink writes each output frame as an image file in a directory.
// Every frame gets its own file, so PutFrame may be called concurrently.
type DirSink struct {
	dir     string
	format  string
	written atomic.Int64
}

// NewDirSink creates dir if needed. format is "tiff" or "png".
func NewDirSink(dir, format string) (*DirSink, error) {
	if format != "tiff" && format != "png" {
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &DirSink{dir: dir, format: format}, nil
}

// FrameName returns the file name used for a frame
func FrameName(c models.Coords, ext string) string {
	return fmt.Sprintf("t%04d_z%03d_p%03d_c%d.%s", c.Time, c.Z, c.Position, c.Channel, ext)
}

// PutFrame encodes f and writes it to the sink's directory
func (s *DirSink) PutFrame(f models.OutputFrame) error {
	img, err := ToImage(f)
	if err != nil {
		return err
	}

	ext := "tif"
	if s.format == "png" {
		ext = "png"
	}
	path := filepath.Join(s.dir, FrameName(f.Coords, ext))
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	if s.format == "png" {
		err = png.Encode(file, img)
	} else {
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate})
	}
	if err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	s.written.Add(1)
	return nil
}

// Written returns how many frames were stored
func (s *DirSink) Written() int {
	return int(s.written.Load())
}

// SummaryFile writes the dataset summary as YAML
type SummaryFile struct {
	Path string
}

// PutSummary replaces the summary file with cat
func (s SummaryFile) PutSummary(cat models.ChannelCatalog) error {
	data, err := yaml.Marshal(cat)
	if err != nil {
		return fmt.Errorf("error marshaling summary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("error creating summary directory: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0644); err != nil {
		return fmt.Errorf("error writing summary: %w", err)
	}
	return nil
}

// LoadSummary reads a summary written by SummaryFile
func LoadSummary(path string) (models.ChannelCatalog, error) {
	var cat models.ChannelCatalog
	data, err := os.ReadFile(path)
	if err != nil {
		return cat, err
	}
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return cat, fmt.Errorf("error parsing summary: %w", err)
	}
	return cat, nil
}
