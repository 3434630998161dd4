package periodization

import (
	"math"

	"github.com/2beens/trainload/internal/gymstats/training"
)

const (
	MinMultiplier = 0.4
	MaxMultiplier = 1.3

	// mesocycles longer than this end with a recovery week
	recoveryAfterWeeks = 3

	recoveryVolume    = 0.5
	recoveryIntensity = 0.7
)

// GenerateWeeks returns the weekly multipliers of a mesocycle with n weeks.
// The result only depends on its arguments.
func GenerateWeeks(periodizationType training.PeriodizationType, n int) ([]training.MesocycleWeek, error) {
	if n < 1 {
		return nil, training.NewValidationError("durationWeeks", "must be positive, got %d", n)
	}

	buildWeeks := n
	if n > recoveryAfterWeeks {
		buildWeeks = n - 1
	}

	var weeks []training.MesocycleWeek
	switch periodizationType {
	case training.PeriodizationLinear:
		weeks = linearWeeks(buildWeeks)
	case training.PeriodizationUndulating:
		weeks = undulatingWeeks(buildWeeks)
	case training.PeriodizationBlock:
		weeks = blockWeeks(buildWeeks)
	default:
		return nil, training.NewValidationError("type", "unknown periodization type %q", periodizationType)
	}

	if n > recoveryAfterWeeks {
		recoveryType := training.WeekTypeTaper
		if periodizationType == training.PeriodizationUndulating {
			recoveryType = training.WeekTypeDeload
		}
		weeks = append(weeks, training.MesocycleWeek{
			Type:                recoveryType,
			VolumeMultiplier:    recoveryVolume,
			IntensityMultiplier: recoveryIntensity,
		})
	}

	for i := range weeks {
		weeks[i].WeekNumber = i + 1
		weeks[i].VolumeMultiplier = clamp(weeks[i].VolumeMultiplier)
		weeks[i].IntensityMultiplier = clamp(weeks[i].IntensityMultiplier)
	}
	return weeks, nil
}

// linearWeeks ramps intensity from 0.75 to 1.05 while volume falls from
// 1.15 to 0.85.
func linearWeeks(n int) []training.MesocycleWeek {
	weeks := make([]training.MesocycleWeek, 0, n)
	for i := 0; i < n; i++ {
		progress := 0.0
		if n > 1 {
			progress = float64(i) / float64(n-1)
		}
		weekType := training.WeekTypeAccumulation
		if progress >= 0.5 {
			weekType = training.WeekTypeIntensification
		}
		weeks = append(weeks, training.MesocycleWeek{
			Type:                weekType,
			VolumeMultiplier:    1.15 - 0.3*progress,
			IntensityMultiplier: 0.75 + 0.3*progress,
		})
	}
	return weeks
}

// undulatingWeeks alternates high volume and high intensity weeks, with both
// wave crests rising slightly every two weeks.
func undulatingWeeks(n int) []training.MesocycleWeek {
	weeks := make([]training.MesocycleWeek, 0, n)
	for i := 0; i < n; i++ {
		wave := 0.025 * float64(i/2)
		if i%2 == 0 {
			weeks = append(weeks, training.MesocycleWeek{
				Type:                training.WeekTypeAccumulation,
				VolumeMultiplier:    1.1,
				IntensityMultiplier: 0.8 + wave,
			})
			continue
		}
		weeks = append(weeks, training.MesocycleWeek{
			Type:                training.WeekTypeIntensification,
			VolumeMultiplier:    0.85,
			IntensityMultiplier: 1.0 + wave,
		})
	}
	return weeks
}

type phase struct {
	weekType  training.WeekType
	volume    float64
	intensity float64
	weeks     int
}

// blockWeeks splits n into accumulation, intensification and peak phases,
// with multipliers flat inside a phase.
func blockWeeks(n int) []training.MesocycleWeek {
	accumulation := max(1, int(math.Round(float64(n)*0.45)))
	peak := n / 4
	if n >= 3 {
		peak = max(1, peak)
	}
	intensification := max(0, n-accumulation-peak)

	phases := []phase{
		{training.WeekTypeAccumulation, 1.2, 0.75, accumulation},
		{training.WeekTypeIntensification, 0.95, 0.9, intensification},
		{training.WeekTypePeak, 0.7, 1.05, peak},
	}

	weeks := make([]training.MesocycleWeek, 0, n)
	for _, p := range phases {
		for i := 0; i < p.weeks && len(weeks) < n; i++ {
			weeks = append(weeks, training.MesocycleWeek{
				Type:                p.weekType,
				VolumeMultiplier:    p.volume,
				IntensityMultiplier: p.intensity,
			})
		}
	}
	return weeks
}

// clamp bounds m to the allowed range and rounds away float noise.
func clamp(m float64) float64 {
	m = math.Max(MinMultiplier, math.Min(MaxMultiplier, m))
	return math.Round(m*1000) / 1000
}
