// Package change extracts the signed, thresholded difference between a
// current scan and a prior scan already aligned to its intensity scale.
package change

import (
	"fmt"
	"math"

	"mrichange/internal/models"
	"mrichange/pkg/normalize"
	"mrichange/pkg/parallel"
)

const stage = "compare"

// Thresholds bound which voxel differences count as significant. Every value
// is a multiple of a volume's standard deviation.
type Thresholds struct {
	// MinVal is the lower signal plausibility bound
	MinVal float64 `yaml:"minVal"`

	// MaxVal is the upper signal plausibility bound
	MaxVal float64 `yaml:"maxVal"`

	// MinChange is the noise floor multiplier
	MinChange float64 `yaml:"minChange"`

	// MaxChange is the artifact ceiling multiplier
	MaxChange float64 `yaml:"maxChange"`
}

// DefaultThresholds returns the baseline thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinVal:    -1.0,
		MaxVal:    5.0,
		MinChange: 0.8,
		MaxChange: 3.0,
	}
}

// Validate rejects bounds that can never select a voxel
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"minVal": t.MinVal, "maxVal": t.MaxVal,
		"minChange": t.MinChange, "maxChange": t.MaxChange,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("threshold %s must be finite", name)
		}
	}
	if t.MinVal >= t.MaxVal {
		return fmt.Errorf("minVal (%g) must be below maxVal (%g)", t.MinVal, t.MaxVal)
	}
	if t.MinChange < 0 {
		return fmt.Errorf("minChange (%g) must not be negative", t.MinChange)
	}
	if t.MinChange >= t.MaxChange {
		return fmt.Errorf("minChange (%g) must be below maxChange (%g)", t.MinChange, t.MaxChange)
	}
	return nil
}

// Extractor computes change fields
type Extractor struct {
	thresholds Thresholds
	exec       *parallel.Executor
}

// NewExtractor creates an extractor. A nil executor runs serially.
func NewExtractor(thresholds Thresholds, exec *parallel.Executor) *Extractor {
	if exec == nil {
		exec = parallel.Serial
	}
	return &Extractor{thresholds: thresholds, exec: exec}
}

// Thresholds returns the bounds the extractor applies
func (e *Extractor) Thresholds() Thresholds {
	return e.thresholds
}

// Compare returns current - prior with every voxel zeroed where either
// signal lies outside [MinVal, MaxVal] of its own standard deviation, or where
// the difference magnitude lies outside [MinChange, MaxChange] of the
// current volume's standard deviation. Invalid thresholds and volumes whose
// data does not match their shape are errors.
func (e *Extractor) Compare(current, prior *models.Volume) (*models.ChangeField, error) {
	if err := e.thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid thresholds: %w", stage, err)
	}
	if err := models.CheckSameShape(stage, current.Shape, prior.Shape); err != nil {
		return nil, err
	}
	if err := current.Check(); err != nil {
		return nil, fmt.Errorf("%s: current %w", stage, err)
	}
	if err := prior.Check(); err != nil {
		return nil, fmt.Errorf("%s: prior %w", stage, err)
	}
	if err := normalize.CheckFinite(stage, "current", current.Data); err != nil {
		return nil, err
	}
	if err := normalize.CheckFinite(stage, "prior", prior.Data); err != nil {
		return nil, err
	}

	cm := normalize.VolumeMoments(current.Data)
	if normalize.Degenerate(current.Data, cm) {
		return nil, &models.DegenerateVolumeError{Stage: stage, Volume: "current"}
	}
	pm := normalize.VolumeMoments(prior.Data)
	if normalize.Degenerate(prior.Data, pm) {
		return nil, &models.DegenerateVolumeError{Stage: stage, Volume: "prior"}
	}

	t := e.thresholds
	cLow, cHigh := t.MinVal*cm.StdDev, t.MaxVal*cm.StdDev
	pLow, pHigh := t.MinVal*pm.StdDev, t.MaxVal*pm.StdDev
	floor, ceiling := t.MinChange*cm.StdDev, t.MaxChange*cm.StdDev

	out := models.NewChangeField(current.Shape)
	e.exec.For(len(current.Data), func(start, end int) {
		for i := start; i < end; i++ {
			c, p := current.Data[i], prior.Data[i]
			d := c - p
			mag := math.Abs(d)
			switch {
			case c < cLow, p < pLow, c > cHigh, p > pHigh:
			case mag < floor, mag > ceiling:
			default:
				out.Data[i] = d
			}
		}
	})
	return out, nil
}

// Compare runs a serial Extractor with the given thresholds
func Compare(current, prior *models.Volume, thresholds Thresholds) (*models.ChangeField, error) {
	return NewExtractor(thresholds, nil).Compare(current, prior)
}
