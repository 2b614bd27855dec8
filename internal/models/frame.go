package models

import (
	"fmt"
	"math/bits"
	"strings"
)

// Axis names used in a channel catalog's axis order
const (
	AxisChannel  = "channel"
	AxisTime     = "time"
	AxisZ        = "z"
	AxisPosition = "position"
)

// Quadrant identifies one of the four regions of a quad-view frame.
// The numeric values follow the fixed processing order, which is not
// raster order: the bottom-left quadrant is processed second.
type Quadrant int

const (
	TopLeft Quadrant = iota
	BottomLeft
	TopRight
	BottomRight
)

// QuadrantSpec describes how one quadrant is located and labeled
type QuadrantSpec struct {
	Quadrant Quadrant

	// Name is the optical channel the quadrant carries
	Name string

	// Suffix is appended to the base channel name in the summary
	Suffix string

	// Key is the settings/profile key that toggles the quadrant
	Key string

	// Origin returns the top-left corner of the quadrant given the
	// halved frame dimensions
	Origin func(w, h int) (x, y int)
}

// Quadrants is the processing order shared by the splitter and the
// metadata remapper. Channel indices and channel names both follow it.
var Quadrants = [4]QuadrantSpec{
	{TopLeft, "blue", "_Blue", "keep_blue", func(w, h int) (int, int) { return 0, 0 }},
	{BottomLeft, "green", "_Green", "keep_green", func(w, h int) (int, int) { return 0, h }},
	{TopRight, "red", "_Red", "keep_red", func(w, h int) (int, int) { return w, 0 }},
	{BottomRight, "farRed", "_FarRed", "keep_farRed", func(w, h int) (int, int) { return w, h }},
}

// String returns the channel name of the quadrant
func (q Quadrant) String() string {
	if q < TopLeft || q > BottomRight {
		return fmt.Sprintf("Quadrant(%d)", int(q))
	}
	return Quadrants[q].Name
}

// QuadSelection is the set of quadrants kept as output channels
type QuadSelection uint8

const (
	// NoQuadrants discards every quadrant
	NoQuadrants QuadSelection = 0

	// AllQuadrants keeps every quadrant, the default configuration
	AllQuadrants QuadSelection = 1<<TopLeft | 1<<BottomLeft | 1<<TopRight | 1<<BottomRight
)

// NewSelection builds a selection from the four keep flags
func NewSelection(blue, green, red, farRed bool) QuadSelection {
	var s QuadSelection
	for q, keep := range [4]bool{blue, green, red, farRed} {
		if keep {
			s = s.With(Quadrant(q))
		}
	}
	return s
}

// Has reports whether q is kept
func (s QuadSelection) Has(q Quadrant) bool {
	return s&(1<<q) != 0
}

// With returns a copy of s that keeps q
func (s QuadSelection) With(q Quadrant) QuadSelection {
	return s | 1<<q
}

// Without returns a copy of s that discards q
func (s QuadSelection) Without(q Quadrant) QuadSelection {
	return s &^ (1 << q)
}

// Count returns how many quadrants are kept
func (s QuadSelection) Count() int {
	return bits.OnesCount8(uint8(s & AllQuadrants))
}

// Selected returns the kept quadrants in processing order
func (s QuadSelection) Selected() []QuadrantSpec {
	var out []QuadrantSpec
	for _, spec := range Quadrants {
		if s.Has(spec.Quadrant) {
			out = append(out, spec)
		}
	}
	return out
}

func (s QuadSelection) String() string {
	names := make([]string, 0, 4)
	for _, spec := range s.Selected() {
		names = append(names, spec.Name)
	}
	return "{" + strings.Join(names, ",") + "}"
}

// Coords locates a frame within a dataset
type Coords struct {
	Channel  int
	Time     int
	Z        int
	Position int
}

// WithChannel returns a copy of c with the channel index replaced
func (c Coords) WithChannel(ch int) Coords {
	c.Channel = ch
	return c
}

// Metadata is the per-frame payload carried along with the pixels.
// Output frames share the source's map; nothing here writes to it.
type Metadata map[string]string

// SourceFrame is one raw acquisition frame holding four quadrants
type SourceFrame struct {
	// Pix holds Height rows of Width*BytesPerPixel*NumComponents bytes
	Pix []byte

	Width  int
	Height int

	// BytesPerPixel and NumComponents describe the sample layout;
	// the splitter passes them through untouched
	BytesPerPixel int
	NumComponents int

	Coords   Coords
	Metadata Metadata
}

// Stride returns the number of bytes in one row
func (f SourceFrame) Stride() int {
	return f.Width * f.BytesPerPixel * f.NumComponents
}

// OutputFrame is one quadrant cropped out of a source frame
type OutputFrame struct {
	Pix []byte

	Width  int
	Height int

	BytesPerPixel int
	NumComponents int

	// Coords carries the sequential channel index among kept quadrants
	Coords   Coords
	Metadata Metadata

	// Quadrant is the region the pixels were cropped from
	Quadrant Quadrant
}

// ChannelCatalog is the dataset summary describing its channels
type ChannelCatalog struct {
	ChannelNames     []string `yaml:"channelNames"`
	AxisOrder        []string `yaml:"axisOrder"`
	IntendedChannels int      `yaml:"intendedChannels"`

	// ImageWidth and ImageHeight are 0 when unknown
	ImageWidth  int `yaml:"imageWidth,omitempty"`
	ImageHeight int `yaml:"imageHeight,omitempty"`
}

// Clone returns a deep copy of the catalog
func (c ChannelCatalog) Clone() ChannelCatalog {
	out := c
	if c.ChannelNames != nil {
		out.ChannelNames = append([]string(nil), c.ChannelNames...)
	}
	if c.AxisOrder != nil {
		out.AxisOrder = append([]string(nil), c.AxisOrder...)
	}
	return out
}

// SafeChannelName returns the i-th channel name, or a generated one
// when the name is missing or blank
func (c ChannelCatalog) SafeChannelName(i int) string {
	if i >= 0 && i < len(c.ChannelNames) && strings.TrimSpace(c.ChannelNames[i]) != "" {
		return c.ChannelNames[i]
	}
	return fmt.Sprintf("channel %d", i)
}
