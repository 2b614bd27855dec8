package frameio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/klauspost/compress/zstd"

	"quadview/internal/models"
)

// ErrBadArchive is returned when an archive stream cannot be decoded
var ErrBadArchive = errors.New("malformed frame archive")

var archiveMagic = [4]byte{'Q', 'V', 'A', '1'}

// Limits guarding the reader against corrupt lengths
const (
	maxArchiveString = 1 << 16
	maxArchivePixels = 1 << 30
)

// frameHeader is the fixed-size record preceding each frame's pixels
type frameHeader struct {
	Width, Height                int32
	BytesPerPixel, NumComponents int32
	Quadrant                     int32
	Channel, Time, Z, Position   int32
	PixLen                       uint32
	MetadataEntries              uint32
}

// ArchiveWriter appends output frames to a zstd-compressed stream.
// PutFrame may be called from several goroutines.
type ArchiveWriter struct {
	mu       sync.Mutex
	enc      *zstd.Encoder
	frames   int
	rawBytes int64
}

// NewArchiveWriter starts an archive on w. Close must be called to flush it.
func NewArchiveWriter(w io.Writer) (*ArchiveWriter, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	if _, err := enc.Write(archiveMagic[:]); err != nil {
		enc.Close()
		return nil, err
	}
	return &ArchiveWriter{enc: enc, rawBytes: int64(len(archiveMagic))}, nil
}

// PutFrame appends f to the archive
func (a *ArchiveWriter) PutFrame(f models.OutputFrame) error {
	keys := make([]string, 0, len(f.Metadata))
	for k := range f.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	hdr := frameHeader{
		Width:           int32(f.Width),
		Height:          int32(f.Height),
		BytesPerPixel:   int32(f.BytesPerPixel),
		NumComponents:   int32(f.NumComponents),
		Quadrant:        int32(f.Quadrant),
		Channel:         int32(f.Coords.Channel),
		Time:            int32(f.Coords.Time),
		Z:               int32(f.Coords.Z),
		Position:        int32(f.Coords.Position),
		PixLen:          uint32(len(f.Pix)),
		MetadataEntries: uint32(len(keys)),
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	cw := &countingWriter{w: a.enc}
	if err := binary.Write(cw, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("failed to write frame header: %w", err)
	}
	for _, k := range keys {
		if err := writeString(cw, k); err != nil {
			return err
		}
		if err := writeString(cw, f.Metadata[k]); err != nil {
			return err
		}
	}
	if _, err := cw.Write(f.Pix); err != nil {
		return fmt.Errorf("failed to write frame pixels: %w", err)
	}

	a.frames++
	a.rawBytes += cw.n
	return nil
}

// Frames returns the number of frames written so far
func (a *ArchiveWriter) Frames() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frames
}

// RawBytes returns the uncompressed size of the archive so far
func (a *ArchiveWriter) RawBytes() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rawBytes
}

// Close flushes the compressed stream. It does not close the underlying writer.
func (a *ArchiveWriter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enc.Close()
}

// ReadArchive decodes every frame in an archive stream
func ReadArchive(r io.Reader) ([]models.OutputFrame, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	br := bufio.NewReader(dec)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	if magic != archiveMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadArchive, magic[:])
	}

	var frames []models.OutputFrame
	for {
		var hdr frameHeader
		err := binary.Read(br, binary.LittleEndian, &hdr)
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: frame %d header: %v", ErrBadArchive, len(frames), err)
		}
		if hdr.PixLen > maxArchivePixels {
			return nil, fmt.Errorf("%w: frame %d claims %d bytes", ErrBadArchive, len(frames), hdr.PixLen)
		}

		var md models.Metadata
		if hdr.MetadataEntries > 0 {
			md = make(models.Metadata, hdr.MetadataEntries)
		}
		for i := uint32(0); i < hdr.MetadataEntries; i++ {
			k, err := readString(br)
			if err != nil {
				return nil, err
			}
			v, err := readString(br)
			if err != nil {
				return nil, err
			}
			md[k] = v
		}

		pix := make([]byte, hdr.PixLen)
		if _, err := io.ReadFull(br, pix); err != nil {
			return nil, fmt.Errorf("%w: frame %d pixels: %v", ErrBadArchive, len(frames), err)
		}

		frames = append(frames, models.OutputFrame{
			Pix:           pix,
			Width:         int(hdr.Width),
			Height:        int(hdr.Height),
			BytesPerPixel: int(hdr.BytesPerPixel),
			NumComponents: int(hdr.NumComponents),
			Coords: models.Coords{
				Channel:  int(hdr.Channel),
				Time:     int(hdr.Time),
				Z:        int(hdr.Z),
				Position: int(hdr.Position),
			},
			Metadata: md,
			Quadrant: models.Quadrant(hdr.Quadrant),
		})
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func writeString(w io.Writer, s string) error {
	if len(s) > maxArchiveString {
		return fmt.Errorf("metadata string of %d bytes is too long", len(s))
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", fmt.Errorf("%w: metadata length: %v", ErrBadArchive, err)
	}
	if n > maxArchiveString {
		return "", fmt.Errorf("%w: metadata string of %d bytes", ErrBadArchive, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: metadata string: %v", ErrBadArchive, err)
	}
	return string(buf), nil
}
