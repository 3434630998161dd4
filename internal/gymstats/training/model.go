package training

import (
	"fmt"
	"time"
)

// SetRecord is a single logged set. Weight is stored in kilos.
type SetRecord struct {
	ID          int64     `json:"id"`
	Sequence    int       `json:"sequence"`
	Weight      float64   `json:"weight"`
	Reps        int       `json:"reps"`
	RPE         *float64  `json:"rpe,omitempty"`
	Type        SetType   `json:"type"`
	CompletedAt time.Time `json:"completedAt"`
}

func (s SetRecord) Validate() error {
	if s.Weight < 0 {
		return NewValidationError("weight", "must not be negative, got %v", s.Weight)
	}
	if s.Reps < 0 {
		return NewValidationError("reps", "must not be negative, got %d", s.Reps)
	}
	if s.RPE != nil && (*s.RPE < 1 || *s.RPE > 10) {
		return NewValidationError("rpe", "must be within [1, 10], got %v", *s.RPE)
	}
	if !s.Type.IsValid() {
		return NewValidationError("type", "unknown set type %q", s.Type)
	}
	return nil
}

// ExerciseLog is one exercise performed within a session.
type ExerciseLog struct {
	ID         int64       `json:"id"`
	ExerciseID string      `json:"exerciseId"`
	Position   int         `json:"position"`
	IsPR       bool        `json:"isPR"`
	Sets       []SetRecord `json:"sets"`
}

func (l ExerciseLog) WorkingSets() []SetRecord {
	working := make([]SetRecord, 0, len(l.Sets))
	for _, s := range l.Sets {
		if s.Type.IsWorking() {
			working = append(working, s)
		}
	}
	return working
}

// MaxWorkingWeight returns the heaviest working set weight, and false if
// the log has no working sets.
func (l ExerciseLog) MaxWorkingWeight() (float64, bool) {
	found := false
	var maxWeight float64
	for _, s := range l.Sets {
		if !s.Type.IsWorking() {
			continue
		}
		if !found || s.Weight > maxWeight {
			maxWeight = s.Weight
		}
		found = true
	}
	return maxWeight, found
}

// Validate checks the sets are numbered 1..n with no gaps.
func (l ExerciseLog) Validate() error {
	if l.ExerciseID == "" {
		return NewValidationError("exerciseId", "must not be empty")
	}
	for i, s := range l.Sets {
		if s.Sequence != i+1 {
			return NewValidationError(
				"sequence", "exercise %s: set %d has sequence %d", l.ExerciseID, i+1, s.Sequence,
			)
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("exercise %s set %d: %w", l.ExerciseID, s.Sequence, err)
		}
	}
	return nil
}

type WorkoutSession struct {
	ID          int64         `json:"id"`
	UserID      int64         `json:"userId"`
	StartedAt   time.Time     `json:"startedAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	Exercises   []ExerciseLog `json:"exercises"`
}

func (s WorkoutSession) IsCompleted() bool {
	return s.CompletedAt != nil
}

// Log returns the log for the given exercise, if performed in this session.
func (s WorkoutSession) Log(exerciseID string) (ExerciseLog, bool) {
	for _, l := range s.Exercises {
		if l.ExerciseID == exerciseID {
			return l, true
		}
	}
	return ExerciseLog{}, false
}

// TotalWorkingReps sums reps over all working sets of the session.
func (s WorkoutSession) TotalWorkingReps() int {
	total := 0
	for _, l := range s.Exercises {
		for _, set := range l.Sets {
			if set.Type.IsWorking() {
				total += set.Reps
			}
		}
	}
	return total
}

func (s WorkoutSession) Validate() error {
	if s.UserID <= 0 {
		return NewValidationError("userId", "must be positive")
	}
	if s.StartedAt.IsZero() {
		return NewValidationError("startedAt", "must be set")
	}
	if s.CompletedAt != nil && s.CompletedAt.Before(s.StartedAt) {
		return NewValidationError("completedAt", "before session start")
	}
	for _, l := range s.Exercises {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type ExerciseDefinition struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	MuscleGroup string        `json:"muscleGroup"`
	Class       ExerciseClass `json:"class"`
}

// DeloadWeek is a scheduled recovery interval [Start, End).
type DeloadWeek struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	Type      DeloadType `json:"type"`
	Reason    string     `json:"reason"`
	Completed bool       `json:"completed"`
	Skipped   bool       `json:"skipped"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (d DeloadWeek) Overlaps(start, end time.Time) bool {
	return Overlaps(d.Start, d.End, start, end)
}

// Covers reports whether t falls inside [Start, End).
func (d DeloadWeek) Covers(t time.Time) bool {
	return !t.Before(d.Start) && t.Before(d.End)
}

type Mesocycle struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"userId"`
	DurationWeeks int               `json:"durationWeeks"`
	Type          PeriodizationType `json:"type"`
	Goal          TrainingGoal      `json:"goal"`
	Status        MesocycleStatus   `json:"status"`
	// CurrentWeek is 0 until the mesocycle is started.
	CurrentWeek int             `json:"currentWeek"`
	StartDate   *time.Time      `json:"startDate,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	Weeks       []MesocycleWeek `json:"weeks"`
}

// Week returns the week with the given 1-based number.
func (m Mesocycle) Week(number int) (MesocycleWeek, bool) {
	for _, w := range m.Weeks {
		if w.WeekNumber == number {
			return w, true
		}
	}
	return MesocycleWeek{}, false
}

type MesocycleWeek struct {
	MesocycleID         int64    `json:"mesocycleId"`
	WeekNumber          int      `json:"weekNumber"`
	Type                WeekType `json:"type"`
	VolumeMultiplier    float64  `json:"volumeMultiplier"`
	IntensityMultiplier float64  `json:"intensityMultiplier"`
}

// MesocycleProgress is the mutable part of a mesocycle, used for
// compare-and-set updates.
type MesocycleProgress struct {
	Status      MesocycleStatus
	CurrentWeek int
}
