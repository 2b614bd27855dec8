package models

import (
	"testing"
)

// TestQuadrantOrder verifies the processing order and the labels attached to it
func TestQuadrantOrder(t *testing.T) {
	expected := []struct {
		q      Quadrant
		name   string
		suffix string
		key    string
		x, y   int
	}{
		{TopLeft, "blue", "_Blue", "keep_blue", 0, 0},
		{BottomLeft, "green", "_Green", "keep_green", 0, 5},
		{TopRight, "red", "_Red", "keep_red", 8, 0},
		{BottomRight, "farRed", "_FarRed", "keep_farRed", 8, 5},
	}

	for i, want := range expected {
		spec := Quadrants[i]
		if spec.Quadrant != want.q {
			t.Errorf("Position %d: expected quadrant %v, got %v", i, want.q, spec.Quadrant)
		}
		if spec.Name != want.name || spec.Suffix != want.suffix || spec.Key != want.key {
			t.Errorf("Position %d: unexpected labels %q %q %q", i, spec.Name, spec.Suffix, spec.Key)
		}
		x, y := spec.Origin(8, 5)
		if x != want.x || y != want.y {
			t.Errorf("Position %d: expected origin (%d,%d), got (%d,%d)", i, want.x, want.y, x, y)
		}
	}
}

// TestQuadSelection checks the set operations of a selection
func TestQuadSelection(t *testing.T) {
	if AllQuadrants.Count() != 4 {
		t.Errorf("AllQuadrants should keep 4 quadrants, got %d", AllQuadrants.Count())
	}
	if NoQuadrants.Count() != 0 {
		t.Errorf("NoQuadrants should keep nothing, got %d", NoQuadrants.Count())
	}

	s := NewSelection(false, true, true, false)
	if s.Count() != 2 {
		t.Fatalf("Expected 2 kept quadrants, got %d", s.Count())
	}
	if s.Has(TopLeft) || !s.Has(BottomLeft) || !s.Has(TopRight) || s.Has(BottomRight) {
		t.Errorf("Unexpected membership in %v", s)
	}

	selected := s.Selected()
	if len(selected) != 2 || selected[0].Quadrant != BottomLeft || selected[1].Quadrant != TopRight {
		t.Errorf("Selected quadrants out of order: %v", selected)
	}

	if got := s.With(TopLeft).Without(TopRight); got != NewSelection(true, true, false, false) {
		t.Errorf("With/Without produced %v", got)
	}

	if s.String() != "{green,red}" {
		t.Errorf("Expected {green,red}, got %s", s.String())
	}
	if NewSelection(true, true, true, true) != AllQuadrants {
		t.Errorf("All flags set should equal AllQuadrants")
	}
}

// TestCatalogClone verifies that a clone does not share slices with its source
func TestCatalogClone(t *testing.T) {
	c := ChannelCatalog{
		ChannelNames:     []string{"DIC"},
		AxisOrder:        []string{AxisTime, AxisChannel},
		IntendedChannels: 1,
	}
	clone := c.Clone()
	clone.ChannelNames[0] = "changed"
	clone.AxisOrder[0] = "changed"

	if c.ChannelNames[0] != "DIC" || c.AxisOrder[0] != AxisTime {
		t.Errorf("Clone shares storage with the original catalog")
	}
}

func TestSafeChannelName(t *testing.T) {
	c := ChannelCatalog{ChannelNames: []string{"GFP", " ", ""}}
	tests := map[int]string{
		0: "GFP",
		1: "channel 1",
		2: "channel 2",
		5: "channel 5",
	}
	for i, want := range tests {
		if got := c.SafeChannelName(i); got != want {
			t.Errorf("SafeChannelName(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestCoordsWithChannel(t *testing.T) {
	c := Coords{Channel: 3, Time: 7, Z: 2}
	d := c.WithChannel(1)
	if d.Channel != 1 || d.Time != 7 || d.Z != 2 {
		t.Errorf("Unexpected coords %+v", d)
	}
	if c.Channel != 3 {
		t.Errorf("WithChannel modified the receiver")
	}
}
