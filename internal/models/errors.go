package models

import (
	"errors"
	"fmt"
)

// Sentinel values matched by the typed errors below through errors.Is
var (
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrDegenerateVolume = errors.New("degenerate volume")
	ErrNonFinite        = errors.New("non-finite voxel")
)

// ShapeMismatchError reports two volumes of one comparison with different extents
type ShapeMismatchError struct {
	Stage string
	Want  Shape
	Got   Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: shape mismatch: expected %s, got %s", e.Stage, e.Want, e.Got)
}

func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// DegenerateVolumeError reports a volume whose standard deviation is zero
type DegenerateVolumeError struct {
	Stage  string
	Volume string
}

func (e *DegenerateVolumeError) Error() string {
	return fmt.Sprintf("%s: %s volume has zero standard deviation", e.Stage, e.Volume)
}

func (e *DegenerateVolumeError) Is(target error) bool {
	return target == ErrDegenerateVolume
}

// NonFiniteError reports a NaN or infinite intensity in an input volume
type NonFiniteError struct {
	Stage  string
	Volume string
	Index  int
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("%s: %s volume has a non-finite value at voxel %d", e.Stage, e.Volume, e.Index)
}

func (e *NonFiniteError) Is(target error) bool {
	return target == ErrNonFinite
}

// CheckSameShape returns a ShapeMismatchError when b does not match a
func CheckSameShape(stage string, a, b Shape) error {
	if a != b {
		return &ShapeMismatchError{Stage: stage, Want: a, Got: b}
	}
	return nil
}
