package change

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mrichange/internal/models"
	"mrichange/pkg/normalize"
	"mrichange/pkg/parallel"
)

// bandedPair builds a 4x4x4 prior with intensities 0..70 and a current scan
// carrying one edit per threshold rule.
func bandedPair() (current, prior *models.Volume) {
	shape := models.Shape{X: 4, Y: 4, Z: 4}
	prior = models.NewVolume(shape, models.IdentityTransform())
	for i := range prior.Data {
		prior.Data[i] = float64(i%8) * 10
	}
	current = prior.Clone()
	current.Data[8] -= 40  // below -1 std of current
	current.Data[9] += 30  // significant increase
	current.Data[18] -= 30 // significant decrease
	current.Data[27] += 2  // under the noise floor
	current.Data[36] += 90 // above the artifact ceiling
	current.Data[45] -= 10 // under the noise floor
	return current, prior
}

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()
	assert.Equal(t, Thresholds{MinVal: -1, MaxVal: 5, MinChange: 0.8, MaxChange: 3}, th)
	assert.NoError(t, th.Validate())
}

func TestThresholdsValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Thresholds)
	}{
		{"inverted values", func(th *Thresholds) { th.MinVal = 6 }},
		{"inverted change", func(th *Thresholds) { th.MinChange = 4 }},
		{"negative floor", func(th *Thresholds) { th.MinChange = -0.1 }},
		{"equal change bounds", func(th *Thresholds) { th.MaxChange = th.MinChange }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.mod(&th)
			assert.Error(t, th.Validate())
		})
	}
}

func TestCompareAppliesEveryRule(t *testing.T) {
	current, prior := bandedPair()

	change, err := Compare(current, prior, DefaultThresholds())
	require.NoError(t, err)
	require.Equal(t, current.Shape, change.Shape)

	for i, v := range change.Data {
		switch i {
		case 9:
			assert.Equal(t, 30.0, v, "increase kept with sign and magnitude")
		case 18:
			assert.Equal(t, -30.0, v, "decrease kept with sign and magnitude")
		default:
			assert.Zero(t, v, "voxel %d", i)
		}
	}
}

func TestComparePriorPlausibilityBounds(t *testing.T) {
	shape := models.Shape{X: 4, Y: 4, Z: 4}
	prior := models.NewVolume(shape, models.IdentityTransform())
	for i := range prior.Data {
		prior.Data[i] = float64(i%8) * 10
	}
	current := prior.Clone()

	// Current in range and change inside [floor, ceiling]; only the prior
	// lies outside its own bounds (pstd ~27.5, pLow ~-27.5, pHigh ~137.7).
	prior.Data[0] = -30
	current.Data[7] = 100
	prior.Data[7] = 150
	// Control voxel that passes every rule
	current.Data[9] = 40

	change, err := Compare(current, prior, DefaultThresholds())
	require.NoError(t, err)

	assert.Zero(t, change.Data[0], "prior below minVal*pstd")
	assert.Zero(t, change.Data[7], "prior above maxVal*pstd")
	assert.Equal(t, 30.0, change.Data[9])
	for i, v := range change.Data {
		if i != 9 {
			assert.Zero(t, v, "voxel %d", i)
		}
	}
}

func TestCompareIdenticalVolumesIsZero(t *testing.T) {
	current, _ := bandedPair()

	change, err := Compare(current, current.Clone(), DefaultThresholds())
	require.NoError(t, err)
	for i, v := range change.Data {
		assert.Zero(t, v, "voxel %d", i)
	}
}

func TestCompareConstantShiftAfterAlignment(t *testing.T) {
	shape := models.Shape{X: 2, Y: 2, Z: 2}
	prior := models.NewVolume(shape, models.IdentityTransform())
	copy(prior.Data, []float64{90, 92, 94, 96, 98, 100, 102, 104})
	current := prior.Clone()
	for i := range current.Data {
		current.Data[i] += 10
	}

	aligned, err := normalize.Align(prior, current)
	require.NoError(t, err)

	// Alignment absorbs the shift, leaving differences far below 0.8 std
	change, err := Compare(current, aligned, DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 8), change.Data)
}

func TestCompareShapeMismatch(t *testing.T) {
	current, _ := bandedPair()
	prior := models.NewVolume(models.Shape{X: 4, Y: 4, Z: 3}, models.IdentityTransform())

	_, err := Compare(current, prior, DefaultThresholds())
	require.ErrorIs(t, err, models.ErrShapeMismatch)

	var sm *models.ShapeMismatchError
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, "compare", sm.Stage)
}

func TestCompareDegenerate(t *testing.T) {
	current, prior := bandedPair()
	flat := models.NewVolume(current.Shape, models.IdentityTransform())

	_, err := Compare(flat, prior, DefaultThresholds())
	var dv *models.DegenerateVolumeError
	require.ErrorAs(t, err, &dv)
	assert.Equal(t, "current", dv.Volume)

	_, err = Compare(current, flat, DefaultThresholds())
	require.ErrorAs(t, err, &dv)
	assert.Equal(t, "prior", dv.Volume)
}

func TestCompareDoesNotMutateInputs(t *testing.T) {
	current, prior := bandedPair()
	c0, p0 := current.Clone(), prior.Clone()

	_, err := Compare(current, prior, DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, c0.Data, current.Data)
	assert.Equal(t, p0.Data, prior.Data)
}

func TestCompareParallelMatchesSerial(t *testing.T) {
	shape := models.Shape{X: 32, Y: 32, Z: 16}
	prior := models.NewVolume(shape, models.IdentityTransform())
	current := models.NewVolume(shape, models.IdentityTransform())
	for i := range prior.Data {
		prior.Data[i] = float64(i%50) * 2
		current.Data[i] = prior.Data[i] + float64(i%13) - 6
	}

	serial, err := NewExtractor(DefaultThresholds(), parallel.Serial).Compare(current, prior)
	require.NoError(t, err)
	par, err := NewExtractor(DefaultThresholds(), parallel.NewExecutor(8)).Compare(current, prior)
	require.NoError(t, err)
	assert.Equal(t, serial.Data, par.Data)
}

func TestCompareShortData(t *testing.T) {
	shape := models.Shape{X: 2, Y: 2, Z: 2}
	current := models.NewVolume(shape, models.IdentityTransform())
	copy(current.Data, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	prior := &models.Volume{Data: []float64{1, 2, 3, 4}, Shape: shape, Transform: models.IdentityTransform()}

	_, err := Compare(current, prior, DefaultThresholds())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prior")

	_, err = Compare(prior, current, DefaultThresholds())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "current")
}

func TestCompareRejectsInvalidThresholds(t *testing.T) {
	current, prior := bandedPair()
	th := DefaultThresholds()
	th.MinChange, th.MaxChange = 5, 1

	change, err := NewExtractor(th, nil).Compare(current, prior)
	require.Error(t, err)
	assert.Nil(t, change)
	assert.Contains(t, err.Error(), "invalid thresholds")
}
