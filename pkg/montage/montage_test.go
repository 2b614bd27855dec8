package montage

import (
	"os"
	"path/filepath"
	"testing"

	"quadview/internal/models"
)

func grayFrame(width, height int, value byte, channel int) models.OutputFrame {
	pix := make([]byte, width*height)
	for i := range pix {
		pix[i] = value
	}
	return models.OutputFrame{
		Pix: pix, Width: width, Height: height,
		BytesPerPixel: 1, NumComponents: 1,
		Coords: models.Coords{Channel: channel},
	}
}

// TestMontage verifies that channels are placed left to right
func TestMontage(t *testing.T) {
	frames := []models.OutputFrame{grayFrame(3, 2, 0x10, 0), grayFrame(3, 2, 0x80, 1)}

	canvas, err := Montage(frames)
	if err != nil {
		t.Fatalf("Montage failed: %v", err)
	}

	b := canvas.Bounds()
	if b.Dx() != 3+Gap+3 || b.Dy() != 2 {
		t.Fatalf("Expected %dx2 canvas, got %dx%d", 6+Gap, b.Dx(), b.Dy())
	}

	// 8-bit gray v expands to 16-bit v*0x101
	if got := canvas.Gray16At(1, 1).Y; got != 0x1010 {
		t.Errorf("First channel: expected 0x1010, got %#x", got)
	}
	if got := canvas.Gray16At(3+Gap, 0).Y; got != 0x8080 {
		t.Errorf("Second channel: expected 0x8080, got %#x", got)
	}
	if got := canvas.Gray16At(3, 0).Y; got != 0 {
		t.Errorf("Gap should be blank, got %#x", got)
	}

	Outline(canvas, frames)
	if got := canvas.Gray16At(0, 0).Y; got != 0xFFFF {
		t.Errorf("Outline missing, got %#x", got)
	}

	if _, err := Montage(nil); err == nil {
		t.Errorf("Expected an error for an empty montage")
	}
}

// TestSaveMontage verifies the preview is written to disk
func TestSaveMontage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview", "frame.png")
	frames := []models.OutputFrame{grayFrame(4, 4, 1, 0)}

	if err := SaveMontage(path, frames); err != nil {
		t.Fatalf("SaveMontage failed: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("Preview file missing or empty: %v", err)
	}
}
