package deload

import (
	"testing"
	"time"

	"github.com/2beens/trainload/internal/gymstats/training"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T {
	return &v
}

type loggedSet struct {
	exerciseID string
	weight     float64
	reps       int
	rpe        *float64
}

func completedSession(startedAt time.Time, sets ...loggedSet) training.WorkoutSession {
	completedAt := startedAt.Add(time.Hour)
	session := training.WorkoutSession{
		UserID:      1,
		StartedAt:   startedAt,
		CompletedAt: &completedAt,
	}
	logs := map[string]int{}
	for _, s := range sets {
		idx, ok := logs[s.exerciseID]
		if !ok {
			idx = len(session.Exercises)
			logs[s.exerciseID] = idx
			session.Exercises = append(session.Exercises, training.ExerciseLog{ExerciseID: s.exerciseID, Position: idx + 1})
		}
		exLog := &session.Exercises[idx]
		exLog.Sets = append(exLog.Sets, training.SetRecord{
			Sequence: len(exLog.Sets) + 1,
			Weight:   s.weight,
			Reps:     s.reps,
			RPE:      s.rpe,
			Type:     training.SetTypeWorking,
		})
	}
	return session
}

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

func TestConsecutiveWeeks(t *testing.T) {
	squat := loggedSet{exerciseID: "squat", weight: 100, reps: 5}
	sessions := []training.WorkoutSession{
		completedSession(daysAgo(1), squat),
		completedSession(daysAgo(3), squat),
		completedSession(daysAgo(8), squat),
		completedSession(daysAgo(20), squat),
		// gap in the fourth week
		completedSession(daysAgo(30), squat),
	}
	assert.Equal(t, 3, consecutiveWeeks(sessions, testNow, 8))
	assert.Equal(t, 2, consecutiveWeeks(sessions, testNow, 2))

	// nothing in the last seven days breaks the streak right away
	assert.Equal(t, 0, consecutiveWeeks(sessions[2:], testNow, 8))
	assert.Equal(t, 0, consecutiveWeeks(nil, testNow, 8))
}

func TestDaysSinceLastDeload(t *testing.T) {
	assert.Nil(t, daysSinceLastDeload(nil, testNow))

	deloads := []training.DeloadWeek{
		{Start: daysAgo(47), End: daysAgo(40), Completed: true},
		{Start: daysAgo(20), End: daysAgo(13), Skipped: true},
		{Start: daysAgo(100), End: daysAgo(93), Completed: true},
		// scheduled, not completed
		{Start: daysAgo(-5), End: daysAgo(-12)},
	}
	days := daysSinceLastDeload(deloads, testNow)
	require.NotNil(t, days)
	assert.Equal(t, 40, *days)

	assert.Nil(t, daysSinceLastDeload(deloads[1:2], testNow))
}

func TestRPETrend(t *testing.T) {
	rated := func(values ...float64) []training.WorkoutSession {
		sessions := make([]training.WorkoutSession, 0, len(values))
		for i, v := range values {
			sessions = append(sessions, completedSession(daysAgo(len(values)-i), loggedSet{exerciseID: "bench", weight: 80, reps: 8, rpe: ptr(v)}))
		}
		return sessions
	}

	trend, n := rpeTrend(rated(8.3, 8.3, 8.3, 8.3, 8.3, 8.3, 8.3))
	assert.Equal(t, 7, n)
	assert.Equal(t, 0.0, trend)

	trend, _ = rpeTrend(rated(6, 6, 7, 8, 9, 9))
	assert.InDelta(t, 3.0, trend, 1e-9)

	trend, _ = rpeTrend(rated(9, 8.5, 8, 7, 7))
	assert.InDelta(t, -2.0, trend, 1e-9)

	trend, n = rpeTrend(rated(6, 7, 8, 9))
	assert.Equal(t, 4, n)
	assert.Equal(t, 0.0, trend)

	// unrated and warm-up sets are ignored
	session := completedSession(daysAgo(1), loggedSet{exerciseID: "bench", weight: 80, reps: 8})
	session.Exercises[0].Sets = append(session.Exercises[0].Sets, training.SetRecord{
		Sequence: 2, Weight: 40, Reps: 10, RPE: ptr(3.0), Type: training.SetTypeWarmup,
	})
	_, n = rpeTrend([]training.WorkoutSession{session})
	assert.Equal(t, 0, n)
}

func TestDecliningSessions(t *testing.T) {
	withReps := func(totals ...int) []training.WorkoutSession {
		sessions := make([]training.WorkoutSession, 0, len(totals))
		for i, reps := range totals {
			sessions = append(sessions, completedSession(daysAgo(len(totals)-i), loggedSet{exerciseID: "row", weight: 60, reps: reps}))
		}
		return sessions
	}

	assert.Equal(t, 3, decliningSessions(withReps(50, 40, 40, 30, 35, 20)))
	// only the newest six sessions are compared
	assert.Equal(t, 1, decliningSessions(withReps(100, 10, 50, 50, 50, 50, 50, 40)))
	// exactly 90% is not a decline
	assert.Equal(t, 0, decliningSessions(withReps(50, 45)))
	assert.Equal(t, 0, decliningSessions(withReps(0, 0, 10)))
	assert.Equal(t, 0, decliningSessions(withReps(50)))
	assert.Equal(t, 0, decliningSessions(nil))
}

func TestPlateauedExercises(t *testing.T) {
	windowStart := testNow.Add(-3 * training.Week)
	sessions := []training.WorkoutSession{
		completedSession(daysAgo(36),
			loggedSet{exerciseID: "squat", weight: 100, reps: 5},
			loggedSet{exerciseID: "bench", weight: 80, reps: 5},
			loggedSet{exerciseID: "row", weight: 60, reps: 8},
		),
		completedSession(daysAgo(15),
			loggedSet{exerciseID: "squat", weight: 100, reps: 5},
			loggedSet{exerciseID: "bench", weight: 82.5, reps: 5},
			loggedSet{exerciseID: "row", weight: 60, reps: 8},
		),
		completedSession(daysAgo(8),
			loggedSet{exerciseID: "squat", weight: 100.0000001, reps: 5},
			loggedSet{exerciseID: "bench", weight: 82.5, reps: 5},
			loggedSet{exerciseID: "row", weight: 57.5, reps: 8},
		),
		completedSession(daysAgo(1),
			loggedSet{exerciseID: "squat", weight: 95, reps: 5},
			loggedSet{exerciseID: "bench", weight: 85, reps: 5},
		),
	}

	assert.Equal(t, []string{"squat"}, plateauedExercises(sessions, windowStart, 1e-6))
	assert.Empty(t, plateauedExercises(sessions[:2], windowStart, 1e-6))
}

func TestComputeMetrics_FiltersOutsideLookback(t *testing.T) {
	squat := loggedSet{exerciseID: "squat", weight: 100, reps: 5}
	open := completedSession(daysAgo(0), squat)
	open.CompletedAt = nil

	m := computeMetrics([]training.WorkoutSession{
		completedSession(daysAgo(1), squat),
		completedSession(daysAgo(2), squat),
		completedSession(daysAgo(70), squat),
		open,
	}, nil, metricsParams{now: testNow, lookbackWeeks: 8, plateauWindowWeeks: 3, tolerance: 1e-6})

	assert.Equal(t, 1, m.ConsecutiveWeeks)
	assert.Equal(t, 2, m.SessionsLast7Days)
	assert.Nil(t, m.DaysSinceLastDeload)
	assert.Empty(t, m.PlateauedExercises)
}
