package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolumeIndexing(t *testing.T) {
	v := NewVolume(Shape{X: 4, Y: 3, Z: 2}, IdentityTransform())
	require.Len(t, v.Data, 24)

	v.Set(3, 2, 1, 7.5)
	assert.Equal(t, 7.5, v.At(3, 2, 1))
	assert.Equal(t, 23, v.Index(3, 2, 1))
	assert.Equal(t, 1, v.Index(1, 0, 0), "x varies fastest")
}

func TestVolumeCloneIsIndependent(t *testing.T) {
	v := NewVolume(Shape{X: 2, Y: 2, Z: 2}, IdentityTransform())
	v.Data[0] = 1

	c := v.Clone()
	c.Data[0] = 2

	assert.Equal(t, 1.0, v.Data[0])
	assert.Equal(t, v.Shape, c.Shape)
}

func TestVolumeCheck(t *testing.T) {
	v := &Volume{Data: make([]float64, 7), Shape: Shape{X: 2, Y: 2, Z: 2}}
	assert.Error(t, v.Check())

	v.Data = make([]float64, 8)
	assert.NoError(t, v.Check())

	v.Shape = Shape{X: 0, Y: 2, Z: 2}
	assert.Error(t, v.Check())
}

func TestTypedErrors(t *testing.T) {
	err := CheckSameShape("compare", Shape{2, 2, 2}, Shape{2, 2, 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	var sm *ShapeMismatchError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &sm))
	assert.Equal(t, "compare", sm.Stage)
	assert.Equal(t, Shape{2, 2, 3}, sm.Got)

	assert.NoError(t, CheckSameShape("compare", Shape{2, 2, 2}, Shape{2, 2, 2}))

	deg := &DegenerateVolumeError{Stage: "normalize", Volume: "prior"}
	assert.ErrorIs(t, deg, ErrDegenerateVolume)
	assert.Contains(t, deg.Error(), "prior")

	nf := &NonFiniteError{Stage: "normalize", Volume: "current", Index: 4}
	assert.ErrorIs(t, nf, ErrNonFinite)
	assert.NotErrorIs(t, nf, ErrDegenerateVolume)
}

func TestRGBVolumeAt(t *testing.T) {
	v := NewRGBVolume(Shape{X: 2, Y: 1, Z: 1}, IdentityTransform(), SeriesIncrease)
	require.Len(t, v.Data, 6)
	v.Data[3], v.Data[4], v.Data[5] = 10, 20, 30

	r, g, b := v.At(1, 0, 0)
	assert.Equal(t, []uint8{10, 20, 30}, []uint8{r, g, b})
	assert.Equal(t, SeriesIncrease, v.Series)
}
