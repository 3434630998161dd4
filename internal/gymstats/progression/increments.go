package progression

import (
	"fmt"

	"github.com/2beens/trainload/internal/gymstats/training"
)

// IncrementTable maps an exercise class to the weight step (in kilos) used
// when a weight increase is suggested.
type IncrementTable map[training.ExerciseClass]float64

func DefaultIncrements() IncrementTable {
	return IncrementTable{
		training.ExerciseClassCompound:  2.5,
		training.ExerciseClassIsolation: 1.0,
	}
}

// IncrementTableFromConfig converts the raw config map, rejecting unknown classes.
func IncrementTableFromConfig(raw map[string]float64) (IncrementTable, error) {
	table := make(IncrementTable, len(raw))
	for class, inc := range raw {
		ec := training.ExerciseClass(class)
		if !ec.IsValid() {
			return nil, fmt.Errorf("unknown exercise class %q in increments", class)
		}
		if inc <= 0 {
			return nil, fmt.Errorf("increment for %s must be positive, got %v", class, inc)
		}
		table[ec] = inc
	}
	return table, nil
}

func (t IncrementTable) For(class training.ExerciseClass) (float64, error) {
	inc, ok := t[class]
	if !ok {
		return 0, training.NewValidationError("class", "no weight increment configured for %q", class)
	}
	return inc, nil
}
