// Package colormap builds the fixed lookup tables used to color anatomy and
// signal change. Tables are computed once and shared read-only.
package colormap

import (
	"math"
	"sync"
)

// Size is the number of entries in every lookup table
const Size = 256

// RGB is one greyscale table entry
type RGB struct {
	R, G, B uint8
}

// Overlay is one entry of an overlay table. Weight is the opacity of the
// overlay color over the underlying anatomy.
type Overlay struct {
	Weight  uint8
	R, G, B uint8
}

// RGBTable maps an intensity index to a color
type RGBTable [Size]RGB

// OverlayTable maps a change index to an opacity and color
type OverlayTable [Size]Overlay

// logval is a logarithmic ramp from 0 at i=0 to 255 at i=255
func logval(i int) float64 {
	v := 255 * (math.Log(float64(i+1)) / math.Log(256))
	return clamp(v)
}

// quad is (i/16)^2, the ramp shared by the overlay tables
func quad(i int) float64 {
	v := float64(i) / 16
	return v * v
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(255, v))
}

// channel truncates a clamped float channel to uint8
func channel(v float64) uint8 {
	return uint8(clamp(v))
}

// Greyscale returns the identity ramp used for unmodified anatomy
func Greyscale() RGBTable {
	var t RGBTable
	for i := range t {
		t[i] = RGB{R: uint8(i), G: uint8(i), B: uint8(i)}
	}
	return t
}

// Redscale returns the increase overlay. Opacity follows the log ramp while
// the color moves from red towards yellow as the change grows.
func Redscale() OverlayTable {
	var t OverlayTable
	for i := range t {
		t[i] = Overlay{
			Weight: channel(logval(i)),
			R:      255,
			G:      channel(quad(i) + 100),
			B:      0,
		}
	}
	return t
}

// ReverseGreenscale returns the decrease overlay. Low indices (the strongest
// decreases) are fully opaque and opacity falls off quadratically.
func ReverseGreenscale() OverlayTable {
	var t OverlayTable
	for i := range t {
		val := clamp(quad(i))
		t[i] = Overlay{
			Weight: channel(255 - val),
			R:      channel(128 - logval(i)/2),
			G:      255,
			B:      0,
		}
	}
	return t
}

// Tables groups the three lookup tables used by the renderer
type Tables struct {
	Grey     RGBTable
	Increase OverlayTable
	Decrease OverlayTable
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// Default returns the process-wide tables, building them on first use.
// Callers must not modify the returned value.
func Default() *Tables {
	defaultOnce.Do(func() {
		defaultTables = &Tables{
			Grey:     Greyscale(),
			Increase: Redscale(),
			Decrease: ReverseGreenscale(),
		}
	})
	return defaultTables
}
