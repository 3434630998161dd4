package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/2beens/trainload/internal/cache"
	"github.com/2beens/trainload/internal/gymstats/memstore"
	"github.com/2beens/trainload/internal/gymstats/training"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReader struct {
	training.HistoryReader
	getExerciseCalls int
}

func (r *countingReader) GetExercise(ctx context.Context, exerciseID string) (*training.ExerciseDefinition, error) {
	r.getExerciseCalls++
	return r.HistoryReader.GetExercise(ctx, exerciseID)
}

func TestExerciseCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	squat := training.ExerciseDefinition{ID: "squat", Name: "Back Squat", MuscleGroup: "legs", Class: training.ExerciseClassCompound}
	require.NoError(t, store.AddExercise(ctx, squat))

	reader := &countingReader{HistoryReader: store}
	exerciseCache := cache.NewExerciseCache(reader, 1<<20, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := exerciseCache.GetExercise(ctx, "squat")
		require.NoError(t, err)
		assert.Equal(t, squat, *got)
	}
	assert.Equal(t, 1, reader.getExerciseCalls)
	assert.Greater(t, exerciseCache.HitRate(), 0.5)

	assert.True(t, exerciseCache.Invalidate("squat"))
	_, err := exerciseCache.GetExercise(ctx, "squat")
	require.NoError(t, err)
	assert.Equal(t, 2, reader.getExerciseCalls)
}

func TestExerciseCache_NotFoundIsNotCached(t *testing.T) {
	ctx := context.Background()
	reader := &countingReader{HistoryReader: memstore.New()}
	exerciseCache := cache.NewExerciseCache(reader, 1<<20, time.Minute)

	_, err := exerciseCache.GetExercise(ctx, "missing")
	assert.ErrorIs(t, err, training.ErrNotFound)
	_, err = exerciseCache.GetExercise(ctx, "missing")
	assert.ErrorIs(t, err, training.ErrNotFound)
	assert.Equal(t, 2, reader.getExerciseCalls)
}

func TestExerciseCache_PassThrough(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	userID, err := store.AddUser(ctx)
	require.NoError(t, err)

	exerciseCache := cache.NewExerciseCache(store, 1<<20, time.Minute)
	exists, err := exerciseCache.UserExists(ctx, userID)
	require.NoError(t, err)
	assert.True(t, exists)

	sessions, err := exerciseCache.FetchSessions(ctx, training.SessionParams{UserID: userID})
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
