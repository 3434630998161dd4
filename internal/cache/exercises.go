package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2beens/trainload/internal/gymstats/training"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const exerciseKeyPrefix = "exercise::"

var _ training.HistoryReader = (*ExerciseCache)(nil)

// ExerciseCache is a read-through cache of exercise definitions in front of
// a HistoryReader. Sessions are never cached.
type ExerciseCache struct {
	reader training.HistoryReader
	cache  *freecache.Cache
	ttl    time.Duration
}

// NewExerciseCache creates the cache; freecache enforces a 512KB minimum size.
func NewExerciseCache(reader training.HistoryReader, sizeBytes int, ttl time.Duration) *ExerciseCache {
	return &ExerciseCache{
		reader: reader,
		cache:  freecache.NewCache(sizeBytes),
		ttl:    ttl,
	}
}

func (c *ExerciseCache) GetExercise(ctx context.Context, exerciseID string) (*training.ExerciseDefinition, error) {
	cacheKey := []byte(exerciseKeyPrefix + exerciseID)
	if exerciseBytes, err := c.cache.Get(cacheKey); err == nil {
		var exercise training.ExerciseDefinition
		unmarshalErr := json.Unmarshal(exerciseBytes, &exercise)
		if unmarshalErr == nil {
			log.Tracef("exercise %s found in cache", exerciseID)
			return &exercise, nil
		}
		log.Errorf("failed to unmarshal exercise %s from cache: %s", exerciseID, unmarshalErr)
	}

	exercise, err := c.reader.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	exerciseBytes, err := json.Marshal(exercise)
	if err != nil {
		return nil, fmt.Errorf("marshal exercise %s: %w", exerciseID, err)
	}
	if err := c.cache.Set(cacheKey, exerciseBytes, int(c.ttl.Seconds())); err != nil {
		log.Errorf("failed to cache exercise %s: %s", exerciseID, err)
	}
	return exercise, nil
}

// Invalidate drops a cached exercise, e.g. after its class changed.
func (c *ExerciseCache) Invalidate(exerciseID string) bool {
	return c.cache.Del([]byte(exerciseKeyPrefix + exerciseID))
}

func (c *ExerciseCache) FetchSessions(ctx context.Context, params training.SessionParams) ([]training.WorkoutSession, error) {
	return c.reader.FetchSessions(ctx, params)
}

func (c *ExerciseCache) UserExists(ctx context.Context, userID int64) (bool, error) {
	return c.reader.UserExists(ctx, userID)
}

func (c *ExerciseCache) HitRate() float64 {
	return c.cache.HitRate()
}
