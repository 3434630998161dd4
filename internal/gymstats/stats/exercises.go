package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/2beens/trainload/internal/gymstats/training"
	"github.com/2beens/trainload/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// ExerciseHistory represents the history of an exercise
// so that, for each training day, we get the average kilos and reps per working set.
type ExerciseHistory struct {
	UserID      int64      `json:"userId"`
	ExerciseID  string     `json:"exerciseId"`
	MuscleGroup string     `json:"muscleGroup"`
	Days        []DayStats `json:"days"`
	Since       *time.Time `json:"since,omitempty"`
}

// DayStats aggregates the working sets of one calendar day.
type DayStats struct {
	Day      time.Time `json:"day"`
	AvgKilos float64   `json:"avgKilos"`
	AvgReps  float64   `json:"avgReps"`
	MaxKilos float64   `json:"maxKilos"`
	Volume   float64   `json:"volume"`
	Sets     int       `json:"sets"`
	Sessions int       `json:"sessions"`
}

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=stats_test

type historyReader interface {
	FetchSessions(ctx context.Context, params training.SessionParams) ([]training.WorkoutSession, error)
	GetExercise(ctx context.Context, exerciseID string) (*training.ExerciseDefinition, error)
	UserExists(ctx context.Context, userID int64) (bool, error)
}

type Exercises struct {
	reader historyReader
}

func NewExercisesStats(reader historyReader) *Exercises {
	return &Exercises{
		reader: reader,
	}
}

// ExerciseHistory returns per-day stats of completed sessions, oldest day first.
// A nil since means the whole history.
func (e *Exercises) ExerciseHistory(
	ctx context.Context,
	userID int64,
	exerciseID string,
	since *time.Time,
) (_ *ExerciseHistory, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stats.exerciseHistory")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))
	span.SetAttributes(attribute.String("exercise_id", exerciseID))

	if userID <= 0 {
		return nil, training.NewValidationError("userId", "must be positive, got %d", userID)
	}
	if exerciseID == "" {
		return nil, training.NewValidationError("exerciseId", "must not be empty")
	}

	exists, err := e.reader.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("user %d: %w", userID, training.ErrNotFound)
	}

	exercise, err := e.reader.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("get exercise %s: %w", exerciseID, err)
	}

	sessions, err := e.reader.FetchSessions(ctx, training.SessionParams{
		UserID:        userID,
		ExerciseID:    exerciseID,
		Since:         since,
		OnlyCompleted: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch sessions: %w", err)
	}

	type dayTotals struct {
		kilos    float64
		maxKilos float64
		reps     int
		volume   float64
		sets     int
		sessions int
	}
	day2totals := make(map[time.Time]*dayTotals)
	for _, session := range sessions {
		exLog, ok := session.Log(exerciseID)
		if !ok {
			continue
		}
		working := exLog.WorkingSets()
		if len(working) == 0 {
			continue
		}

		day := training.StartOfDay(session.StartedAt)
		totals, ok := day2totals[day]
		if !ok {
			totals = &dayTotals{}
			day2totals[day] = totals
		}
		totals.sessions++
		for _, set := range working {
			totals.kilos += set.Weight
			totals.reps += set.Reps
			totals.volume += set.Weight * float64(set.Reps)
			totals.sets++
			if set.Weight > totals.maxKilos {
				totals.maxKilos = set.Weight
			}
		}
	}

	history := &ExerciseHistory{
		UserID:      userID,
		ExerciseID:  exerciseID,
		MuscleGroup: exercise.MuscleGroup,
		Days:        make([]DayStats, 0, len(day2totals)),
		Since:       since,
	}
	for day, totals := range day2totals {
		history.Days = append(history.Days, DayStats{
			Day:      day,
			AvgKilos: totals.kilos / float64(totals.sets),
			AvgReps:  float64(totals.reps) / float64(totals.sets),
			MaxKilos: totals.maxKilos,
			Volume:   totals.volume,
			Sets:     totals.sets,
			Sessions: totals.sessions,
		})
	}
	sort.Slice(history.Days, func(i, j int) bool {
		return history.Days[i].Day.Before(history.Days[j].Day)
	})
	span.SetAttributes(attribute.Int("days", len(history.Days)))

	return history, nil
}
