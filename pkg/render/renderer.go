// Package render turns a change field into two colored views of the current
// scan: one highlighting signal increases and one highlighting decreases.
package render

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"mrichange/internal/models"
	"mrichange/pkg/colormap"
	"mrichange/pkg/parallel"
)

const stage = "render"

// decreaseClip is the upper clip bound of the decrease channel. It is 1 and
// not 0, so the band (0, 1] of small increases stays in the decrease range.
const decreaseClip = 1.0

// Renderer composites change overlays onto greyscale anatomy
type Renderer struct {
	tables *colormap.Tables
	exec   *parallel.Executor
}

// NewRenderer creates a renderer. Nil tables select colormap.Default() and a
// nil executor runs serially.
func NewRenderer(tables *colormap.Tables, exec *parallel.Executor) *Renderer {
	if tables == nil {
		tables = colormap.Default()
	}
	if exec == nil {
		exec = parallel.Serial
	}
	return &Renderer{tables: tables, exec: exec}
}

// Render produces the increase and decrease views. Both carry the current
// volume's transform.
func (r *Renderer) Render(current *models.Volume, change *models.ChangeField) (inc, dec *models.RGBVolume, err error) {
	if err := models.CheckSameShape(stage, current.Shape, change.Shape); err != nil {
		return nil, nil, err
	}
	if err := current.Check(); err != nil {
		return nil, nil, err
	}
	if len(change.Data) != len(current.Data) {
		return nil, nil, fmt.Errorf("%s: change field has %d voxels, volume has %d", stage, len(change.Data), len(current.Data))
	}

	base := r.baseAnatomy(current)

	incIdx, incFlat := r.channelIndices(change.Data, 0, math.Inf(1))
	decIdx, decFlat := r.channelIndices(change.Data, math.Inf(-1), decreaseClip)

	inc = models.NewRGBVolume(current.Shape, current.Transform, models.SeriesIncrease)
	dec = models.NewRGBVolume(current.Shape, current.Transform, models.SeriesDecrease)
	r.composite(inc, base, incIdx, &r.tables.Increase, incFlat)
	r.composite(dec, base, decIdx, &r.tables.Decrease, decFlat)
	return inc, dec, nil
}

// baseAnatomy min-max scales current to 0..255 and maps it through the grey
// table. A flat volume maps every voxel to index 0.
func (r *Renderer) baseAnatomy(current *models.Volume) []colormap.RGB {
	lo, hi := floats.Min(current.Data), floats.Max(current.Data)
	span := hi - lo

	base := make([]colormap.RGB, len(current.Data))
	r.exec.For(len(base), func(start, end int) {
		for i := start; i < end; i++ {
			idx := 0
			if span != 0 {
				idx = clampIndex(math.Round((current.Data[i] - lo) / span * 255))
			}
			base[i] = r.tables.Grey[idx]
		}
	})
	return base
}

// channelIndices clips change to [lo, hi], shifts it to start at 0, scales
// its maximum to 255 and truncates to table indices. flat is true when the
// clipped channel has no dynamic range.
func (r *Renderer) channelIndices(change []float64, lo, hi float64) (idx []uint8, flat bool) {
	clipped := make([]float64, len(change))
	r.exec.For(len(change), func(start, end int) {
		for i := start; i < end; i++ {
			clipped[i] = math.Max(lo, math.Min(hi, change[i]))
		}
	})

	cmin, cmax := floats.Min(clipped), floats.Max(clipped)
	span := cmax - cmin

	idx = make([]uint8, len(clipped))
	if span == 0 {
		return idx, true
	}
	r.exec.For(len(clipped), func(start, end int) {
		for i := start; i < end; i++ {
			idx[i] = uint8(clampIndex((clipped[i] - cmin) / span * 255))
		}
	})
	return idx, false
}

// composite blends each overlay color over the base color using the table's
// weight as opacity. A flat channel highlights nothing and leaves the base.
func (r *Renderer) composite(out *models.RGBVolume, base []colormap.RGB, idx []uint8, table *colormap.OverlayTable, flat bool) {
	r.exec.For(len(base), func(start, end int) {
		for i := start; i < end; i++ {
			b := base[i]
			o := i * 3
			if flat {
				out.Data[o], out.Data[o+1], out.Data[o+2] = b.R, b.G, b.B
				continue
			}
			ov := table[idx[i]]
			w := float64(ov.Weight)
			out.Data[o] = blend(w, ov.R, b.R)
			out.Data[o+1] = blend(w, ov.G, b.G)
			out.Data[o+2] = blend(w, ov.B, b.B)
		}
	})
}

// blend is w*over/255 + (255-w)*under/255, truncated to uint8
func blend(w float64, over, under uint8) uint8 {
	return uint8(w*float64(over)/255 + (255-w)*float64(under)/255)
}

// clampIndex truncates v into a table index
func clampIndex(v float64) int {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= colormap.Size-1:
		return colormap.Size - 1
	default:
		return int(v)
	}
}

// Render runs a serial renderer over the default tables
func Render(current *models.Volume, change *models.ChangeField) (inc, dec *models.RGBVolume, err error) {
	return NewRenderer(nil, nil).Render(current, change)
}
