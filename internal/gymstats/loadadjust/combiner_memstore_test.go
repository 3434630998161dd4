package loadadjust_test

import (
	"context"
	"testing"
	"time"

	"github.com/2beens/trainload/internal/gymstats/deload"
	"github.com/2beens/trainload/internal/gymstats/loadadjust"
	"github.com/2beens/trainload/internal/gymstats/memstore"
	"github.com/2beens/trainload/internal/gymstats/periodization"
	"github.com/2beens/trainload/internal/gymstats/progression"
	"github.com/2beens/trainload/internal/gymstats/training"
	"github.com/2beens/trainload/internal/lock"
	"github.com/2beens/trainload/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombiner_WithMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 7, 10, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := memstore.New()
	user, err := store.AddUser(ctx)
	require.NoError(t, err)

	metricsManager := metrics.NewTestManager()
	guard := lock.NewLocalGuard()
	planner := periodization.NewPlanner(periodization.PlannerParams{
		Store: store, Guard: guard, Config: periodization.DefaultConfig(), Metrics: metricsManager, Now: clock,
	})
	detector := deload.NewDetector(deload.DetectorParams{
		Reader: store, Store: store, Guard: guard, Config: deload.DefaultConfig(), Metrics: metricsManager, Now: clock,
	})
	engine := progression.NewEngine(store, progression.DefaultConfig(), metricsManager)
	combiner := loadadjust.NewCombiner(planner, detector, engine)

	mult, err := combiner.EffectiveMultiplier(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1.0, mult.Weight)
	assert.Equal(t, 1.0, mult.Volume)

	// a planned mesocycle is not active yet
	mesocycle, err := planner.CreateMesocycle(ctx, periodization.CreateParams{
		UserID: user, DurationWeeks: 6, Type: training.PeriodizationBlock, Goal: training.GoalHypertrophy,
	})
	require.NoError(t, err)
	_, err = detector.Schedule(ctx, deload.ScheduleParams{UserID: user, Start: now.AddDate(0, 0, -1), Type: training.DeloadTypeVolumeReduction})
	require.NoError(t, err)

	mult, err = combiner.EffectiveMultiplier(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1.0, mult.Weight)
	assert.Equal(t, 0.5, mult.Volume)
	assert.Nil(t, mult.Periodization)

	_, err = planner.Start(ctx, mesocycle.ID)
	require.NoError(t, err)
	mult, err = combiner.EffectiveMultiplier(ctx, user)
	require.NoError(t, err)
	week1 := mesocycle.Weeks[0]
	assert.InDelta(t, week1.IntensityMultiplier, mult.Weight, 1e-9)
	assert.InDelta(t, week1.VolumeMultiplier*0.5, mult.Volume, 1e-9)

	require.NoError(t, store.AddExercise(ctx, training.ExerciseDefinition{ID: "squat", Name: "Squat", Class: training.ExerciseClassCompound}))
	advice, err := combiner.Advise(ctx, progression.Request{UserID: user, ExerciseID: "squat"})
	require.NoError(t, err)
	assert.True(t, advice.Result.InsufficientData())
	assert.InDelta(t, mult.Volume, advice.Multiplier.Volume, 1e-9)
}
