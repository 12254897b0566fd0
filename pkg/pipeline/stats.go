package pipeline

import (
	"gonum.org/v1/gonum/stat"

	"mrichange/internal/models"
)

// ChangeStats summarizes a change field for the review log
type ChangeStats struct {
	// Increased and Decreased count voxels with a positive or negative change
	Increased int
	Decreased int

	// ChangedFraction is the share of all voxels with any change
	ChangedFraction float64

	// MaxIncrease is the largest positive change, MaxDecrease the most negative
	MaxIncrease float64
	MaxDecrease float64

	// CurrentStdDev is the scale every change threshold was measured in
	CurrentStdDev float64
}

// ComputeStats summarizes field relative to the current volume
func ComputeStats(current *models.Volume, field *models.ChangeField) ChangeStats {
	var s ChangeStats
	for _, v := range field.Data {
		switch {
		case v > 0:
			s.Increased++
			if v > s.MaxIncrease {
				s.MaxIncrease = v
			}
		case v < 0:
			s.Decreased++
			if v < s.MaxDecrease {
				s.MaxDecrease = v
			}
		}
	}
	if n := len(field.Data); n > 0 {
		s.ChangedFraction = float64(s.Increased+s.Decreased) / float64(n)
	}
	s.CurrentStdDev = stat.PopStdDev(current.Data, nil)
	return s
}
