// Package remap rewrites a dataset's channel catalog to describe the
// output of a quad split.
package remap

import (
	"quadview/internal/models"
)

// RemapSummary derives the catalog that accompanies frames split with sel.
//
// Every original channel expands into one channel per kept quadrant, named
// base+suffix in the fixed quadrant order. The intended channel count is
// multiplied by the number of kept quadrants, known image dimensions are
// halved, and the channel axis is moved to the front of the axis order.
//
// A catalog without channel names is returned unchanged since there is no
// base name to expand. The input is never modified.
func RemapSummary(catalog models.ChannelCatalog, sel models.QuadSelection) models.ChannelCatalog {
	out := catalog.Clone()
	if len(catalog.ChannelNames) == 0 {
		return out
	}

	kept := sel.Selected()
	names := make([]string, 0, len(catalog.ChannelNames)*len(kept))
	for i := range catalog.ChannelNames {
		base := catalog.SafeChannelName(i)
		for _, spec := range kept {
			names = append(names, base+spec.Suffix)
		}
	}
	out.ChannelNames = names
	out.IntendedChannels = catalog.IntendedChannels * len(kept)

	if catalog.ImageWidth > 0 {
		out.ImageWidth = catalog.ImageWidth / 2
	}
	if catalog.ImageHeight > 0 {
		out.ImageHeight = catalog.ImageHeight / 2
	}

	out.AxisOrder = PromoteChannel(catalog.AxisOrder)
	return out
}

// PromoteChannel returns axes with the channel axis first and the other
// axes in their original relative order. Axis orders that already start
// with the channel axis, or that do not contain it, are returned as a copy
// without reordering.
func PromoteChannel(axes []string) []string {
	idx := -1
	for i, axis := range axes {
		if axis == models.AxisChannel {
			idx = i
			break
		}
	}
	if idx <= 0 {
		if axes == nil {
			return nil
		}
		return append([]string(nil), axes...)
	}

	out := make([]string, 0, len(axes))
	out = append(out, models.AxisChannel)
	out = append(out, axes[:idx]...)
	out = append(out, axes[idx+1:]...)
	return out
}
