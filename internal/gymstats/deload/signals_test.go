package deload_test

import (
	"testing"

	"github.com/2beens/trainload/internal/gymstats/deload"
	"github.com/2beens/trainload/internal/gymstats/training"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func signalByName(t *testing.T, name string) deload.Signal {
	t.Helper()
	for _, s := range deload.Signals {
		if s.Name == name {
			return s
		}
	}
	require.Failf(t, "signal not found", "signal %s", name)
	return deload.Signal{}
}

func TestSignals_Order(t *testing.T) {
	names := make([]string, 0, len(deload.Signals))
	for _, s := range deload.Signals {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		deload.SignalConsecutiveWeeks,
		deload.SignalTimeSinceDeload,
		deload.SignalRPETrend,
		deload.SignalDecliningReps,
		deload.SignalPlateaus,
	}, names)
}

func TestSignals_Points(t *testing.T) {
	testCases := []struct {
		signal  string
		metrics deload.Metrics
		points  int
	}{
		{deload.SignalConsecutiveWeeks, deload.Metrics{ConsecutiveWeeks: 3}, 0},
		{deload.SignalConsecutiveWeeks, deload.Metrics{ConsecutiveWeeks: 4}, 20},
		{deload.SignalConsecutiveWeeks, deload.Metrics{ConsecutiveWeeks: 5}, 20},
		{deload.SignalConsecutiveWeeks, deload.Metrics{ConsecutiveWeeks: 6}, 30},
		{deload.SignalConsecutiveWeeks, deload.Metrics{ConsecutiveWeeks: 8}, 30},

		{deload.SignalTimeSinceDeload, deload.Metrics{DaysSinceLastDeload: intPtr(35)}, 0},
		{deload.SignalTimeSinceDeload, deload.Metrics{DaysSinceLastDeload: intPtr(36)}, 15},
		{deload.SignalTimeSinceDeload, deload.Metrics{DaysSinceLastDeload: intPtr(56)}, 15},
		{deload.SignalTimeSinceDeload, deload.Metrics{DaysSinceLastDeload: intPtr(57)}, 25},
		{deload.SignalTimeSinceDeload, deload.Metrics{ConsecutiveWeeks: 3}, 0},
		{deload.SignalTimeSinceDeload, deload.Metrics{ConsecutiveWeeks: 4}, 20},
		{deload.SignalTimeSinceDeload, deload.Metrics{ConsecutiveWeeks: 8, DaysSinceLastDeload: intPtr(10)}, 0},

		{deload.SignalRPETrend, deload.Metrics{RatedSets: 5, RPETrend: 0.25}, 0},
		{deload.SignalRPETrend, deload.Metrics{RatedSets: 5, RPETrend: 0.26}, 10},
		{deload.SignalRPETrend, deload.Metrics{RatedSets: 5, RPETrend: 0.5}, 10},
		{deload.SignalRPETrend, deload.Metrics{RatedSets: 5, RPETrend: 0.51}, 20},
		{deload.SignalRPETrend, deload.Metrics{RatedSets: 4, RPETrend: 2}, 0},
		{deload.SignalRPETrend, deload.Metrics{RatedSets: 9, RPETrend: -1}, 0},

		{deload.SignalDecliningReps, deload.Metrics{DecliningSessions: 1}, 0},
		{deload.SignalDecliningReps, deload.Metrics{DecliningSessions: 2}, 10},
		{deload.SignalDecliningReps, deload.Metrics{DecliningSessions: 3}, 15},
		{deload.SignalDecliningReps, deload.Metrics{DecliningSessions: 5}, 15},

		{deload.SignalPlateaus, deload.Metrics{}, 0},
		{deload.SignalPlateaus, deload.Metrics{PlateauedExercises: []string{"squat"}}, 5},
		{deload.SignalPlateaus, deload.Metrics{PlateauedExercises: []string{"bench", "squat"}}, 5},
		{deload.SignalPlateaus, deload.Metrics{PlateauedExercises: []string{"bench", "row", "squat"}}, 10},
	}

	for _, tc := range testCases {
		score := signalByName(t, tc.signal).Evaluate(tc.metrics)
		assert.Equalf(t, tc.points, score.Points, "%s with %+v", tc.signal, tc.metrics)
		if score.Points > 0 {
			assert.NotEmpty(t, score.Reason)
		} else {
			assert.Empty(t, score.Reason)
		}
	}
}

func TestEvaluate_MonotonicPerSignal(t *testing.T) {
	base := deload.Metrics{
		ConsecutiveWeeks:    2,
		DaysSinceLastDeload: intPtr(20),
		RatedSets:           10,
		RPETrend:            0.1,
		DecliningSessions:   1,
	}
	confidence := func(m deload.Metrics) int {
		c, _, _ := deload.Evaluate(deload.Signals, m)
		return c
	}

	assertNonDecreasing := func(name string, mutate func(m *deload.Metrics, step int), steps int) {
		prev := -1
		for step := 0; step <= steps; step++ {
			m := base
			mutate(&m, step)
			c := confidence(m)
			assert.GreaterOrEqualf(t, c, prev, "%s at step %d", name, step)
			prev = c
		}
	}

	assertNonDecreasing("consecutive weeks", func(m *deload.Metrics, step int) { m.ConsecutiveWeeks = step }, 8)
	assertNonDecreasing("consecutive weeks without deload", func(m *deload.Metrics, step int) {
		m.DaysSinceLastDeload = nil
		m.ConsecutiveWeeks = step
	}, 8)
	assertNonDecreasing("days since deload", func(m *deload.Metrics, step int) { m.DaysSinceLastDeload = intPtr(step * 5) }, 20)
	assertNonDecreasing("rpe trend", func(m *deload.Metrics, step int) { m.RPETrend = float64(step) * 0.1 }, 10)
	assertNonDecreasing("declining", func(m *deload.Metrics, step int) { m.DecliningSessions = step }, 5)
	assertNonDecreasing("plateaus", func(m *deload.Metrics, step int) {
		m.PlateauedExercises = make([]string, step)
	}, 5)
}

func TestEvaluate_CappedAndRationale(t *testing.T) {
	confidence, scores, rationale := deload.Evaluate(deload.Signals, deload.Metrics{
		ConsecutiveWeeks:    8,
		DaysSinceLastDeload: intPtr(80),
		RatedSets:           12,
		RPETrend:            1.2,
		DecliningSessions:   4,
		PlateauedExercises:  []string{"bench", "row", "squat"},
	})
	assert.Equal(t, 100, confidence)
	require.Len(t, scores, 5)
	assert.Equal(t, 30, scores[0].Points)
	assert.Equal(t, 25, scores[1].Points)
	assert.Contains(t, rationale, "8 consecutive weeks")
	assert.Contains(t, rationale, "bench, row, squat")

	confidence, _, rationale = deload.Evaluate(deload.Signals, deload.Metrics{})
	assert.Equal(t, 0, confidence)
	assert.Contains(t, rationale, "Periodic recovery week")
}

func TestEvaluate_ExactBoundary(t *testing.T) {
	// 30 + 15 + 5
	confidence, _, _ := deload.Evaluate(deload.Signals, deload.Metrics{
		ConsecutiveWeeks:    6,
		DaysSinceLastDeload: intPtr(40),
		PlateauedExercises:  []string{"row"},
	})
	assert.Equal(t, 50, confidence)
}

func TestEvaluate_CustomSignals(t *testing.T) {
	always := deload.Signal{Name: "always", Evaluate: func(deload.Metrics) deload.Score {
		return deload.Score{Points: 7, Reason: "always"}
	}}
	confidence, scores, rationale := deload.Evaluate([]deload.Signal{always, always}, deload.Metrics{})
	assert.Equal(t, 14, confidence)
	assert.Len(t, scores, 2)
	assert.Equal(t, "always; always", rationale)
}

func TestSelectType(t *testing.T) {
	assert.Equal(t, training.DeloadTypeIntensityReduction, deload.SelectType(deload.Metrics{RPETrend: 0.6, SessionsLast7Days: 7}))
	assert.Equal(t, training.DeloadTypeIntensityReduction, deload.SelectType(deload.Metrics{DecliningSessions: 3}))
	assert.Equal(t, training.DeloadTypeActiveRecovery, deload.SelectType(deload.Metrics{RPETrend: 0.5, SessionsLast7Days: 6}))
	assert.Equal(t, training.DeloadTypeVolumeReduction, deload.SelectType(deload.Metrics{SessionsLast7Days: 5}))
	assert.Equal(t, training.DeloadTypeVolumeReduction, deload.SelectType(deload.Metrics{}))
}

func TestAdjustmentFor(t *testing.T) {
	testCases := []struct {
		deloadType     training.DeloadType
		weight, volume float64
	}{
		{training.DeloadTypeVolumeReduction, 1.0, 0.5},
		{training.DeloadTypeIntensityReduction, 0.8, 1.0},
		{training.DeloadTypeActiveRecovery, 0.6, 0.5},
	}
	for _, tc := range testCases {
		weight, volume := deload.AdjustmentFor(tc.deloadType)
		assert.Equal(t, tc.weight, weight, tc.deloadType)
		assert.Equal(t, tc.volume, volume, tc.deloadType)
	}
}
