// Package normalize rescales one scan's intensity distribution onto another's
// so thresholds expressed in standard deviations are comparable between them.
package normalize

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"mrichange/internal/models"
	"mrichange/pkg/parallel"
)

const stage = "normalize"

// Moments holds the global population mean and standard deviation of a volume
type Moments struct {
	Mean   float64
	StdDev float64
}

// VolumeMoments computes the mean and population standard deviation over
// every voxel of data.
func VolumeMoments(data []float64) Moments {
	mean, std := stat.PopMeanStdDev(data, nil)
	return Moments{Mean: mean, StdDev: std}
}

// Degenerate reports whether a volume has no spread. A constant volume whose
// mean is not exactly representable can still produce a tiny non-zero
// deviation from rounding, so the value range is checked as well.
func Degenerate(data []float64, m Moments) bool {
	if len(data) == 0 || m.StdDev == 0 {
		return true
	}
	return floats.Min(data) == floats.Max(data)
}

// CheckFinite returns a NonFiniteError for the first NaN or infinite voxel
func CheckFinite(stage, name string, data []float64) error {
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &models.NonFiniteError{Stage: stage, Volume: name, Index: i}
		}
	}
	return nil
}

// Normalizer aligns the prior scan onto the current one
type Normalizer struct {
	exec *parallel.Executor
}

// NewNormalizer creates a normalizer that runs its elementwise pass on exec.
// A nil executor runs serially.
func NewNormalizer(exec *parallel.Executor) *Normalizer {
	if exec == nil {
		exec = parallel.Serial
	}
	return &Normalizer{exec: exec}
}

// Align re-expresses prior in current's intensity scale:
//
//	((prior - mean(prior)) / std(prior)) * std(current) + mean(current)
//
// The returned volume is newly allocated and keeps prior's transform.
func (n *Normalizer) Align(prior, current *models.Volume) (*models.Volume, error) {
	if err := models.CheckSameShape(stage, current.Shape, prior.Shape); err != nil {
		return nil, err
	}
	if err := current.Check(); err != nil {
		return nil, fmt.Errorf("%s: current %w", stage, err)
	}
	if err := prior.Check(); err != nil {
		return nil, fmt.Errorf("%s: prior %w", stage, err)
	}
	if err := CheckFinite(stage, "prior", prior.Data); err != nil {
		return nil, err
	}
	if err := CheckFinite(stage, "current", current.Data); err != nil {
		return nil, err
	}

	pm := VolumeMoments(prior.Data)
	if Degenerate(prior.Data, pm) {
		return nil, &models.DegenerateVolumeError{Stage: stage, Volume: "prior"}
	}
	cm := VolumeMoments(current.Data)

	out := models.NewVolume(prior.Shape, prior.Transform)
	n.exec.For(len(prior.Data), func(start, end int) {
		for i := start; i < end; i++ {
			out.Data[i] = ((prior.Data[i]-pm.Mean)/pm.StdDev)*cm.StdDev + cm.Mean
		}
	})
	return out, nil
}

// Align runs a serial Normalizer
func Align(prior, current *models.Volume) (*models.Volume, error) {
	return NewNormalizer(nil).Align(prior, current)
}
