package models

import "fmt"

// Shape is the (X, Y, Z) extent of a volume in voxels
type Shape struct {
	X, Y, Z int
}

// Len returns the number of voxels described by the shape
func (s Shape) Len() int {
	return s.X * s.Y * s.Z
}

// Valid reports whether every axis has a positive extent
func (s Shape) Valid() bool {
	return s.X > 0 && s.Y > 0 && s.Z > 0
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d, %d)", s.X, s.Y, s.Z)
}

// Transform is the voxel-to-world affine of a scan. It is carried through the
// comparison untouched so outputs line up with the current volume.
type Transform [4][4]float64

// IdentityTransform returns the 4x4 identity affine
func IdentityTransform() Transform {
	return Transform{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Volume represents one preprocessed scan
type Volume struct {
	// Data holds the intensities as a 1D array with X varying fastest
	Data []float64

	// Shape is the extent of the volume in voxels
	Shape Shape

	// Transform is the scan's orientation affine
	Transform Transform
}

// NewVolume allocates a zero-filled volume of the given shape
func NewVolume(shape Shape, xform Transform) *Volume {
	return &Volume{
		Data:      make([]float64, shape.Len()),
		Shape:     shape,
		Transform: xform,
	}
}

// Index converts voxel coordinates into an offset in Data
func (v *Volume) Index(x, y, z int) int {
	return z*v.Shape.X*v.Shape.Y + y*v.Shape.X + x
}

// At returns the intensity at (x, y, z)
func (v *Volume) At(x, y, z int) float64 {
	return v.Data[v.Index(x, y, z)]
}

// Set stores an intensity at (x, y, z)
func (v *Volume) Set(x, y, z int, val float64) {
	v.Data[v.Index(x, y, z)] = val
}

// Clone returns a deep copy of the volume
func (v *Volume) Clone() *Volume {
	out := &Volume{
		Data:      make([]float64, len(v.Data)),
		Shape:     v.Shape,
		Transform: v.Transform,
	}
	copy(out.Data, v.Data)
	return out
}

// Check verifies that Data matches Shape
func (v *Volume) Check() error {
	if !v.Shape.Valid() {
		return fmt.Errorf("invalid volume shape %s", v.Shape)
	}
	if len(v.Data) != v.Shape.Len() {
		return fmt.Errorf("volume data has %d voxels, shape %s needs %d", len(v.Data), v.Shape, v.Shape.Len())
	}
	return nil
}

// ChangeField is a signed voxel-wise difference between two volumes.
// Zero means no significant change; the sign gives the direction.
type ChangeField struct {
	Data  []float64
	Shape Shape
}

// NewChangeField allocates a zero-filled change field
func NewChangeField(shape Shape) *ChangeField {
	return &ChangeField{
		Data:  make([]float64, shape.Len()),
		Shape: shape,
	}
}

// Series tags the direction an RGB rendering highlights
type Series string

const (
	SeriesIncrease Series = "increase"
	SeriesDecrease Series = "decrease"
)

// RGBVolume is a rendered volume of shape (X, Y, Z, 3). The three channels of
// each voxel are stored next to each other.
type RGBVolume struct {
	Data      []uint8
	Shape     Shape
	Transform Transform
	Series    Series
}

// NewRGBVolume allocates a black RGB volume
func NewRGBVolume(shape Shape, xform Transform, series Series) *RGBVolume {
	return &RGBVolume{
		Data:      make([]uint8, shape.Len()*3),
		Shape:     shape,
		Transform: xform,
		Series:    series,
	}
}

// At returns the color of the voxel at (x, y, z)
func (v *RGBVolume) At(x, y, z int) (r, g, b uint8) {
	off := (z*v.Shape.X*v.Shape.Y + y*v.Shape.X + x) * 3
	return v.Data[off], v.Data[off+1], v.Data[off+2]
}
