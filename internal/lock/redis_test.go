package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/2beens/trainload/internal/gymstats/training"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisGuard(t *testing.T) (*RedisGuard, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	guard := NewRedisGuard(db, 5*time.Second)
	guard.newToken = func() (string, error) {
		return "token-1", nil
	}
	return guard, mock
}

func TestRedisGuard_LockAndUnlock(t *testing.T) {
	guard, mock := newTestRedisGuard(t)

	mock.ExpectSetNX(keyPrefix+"deload:7", "token-1", 5*time.Second).SetVal(true)
	mock.ExpectEval(releaseScript, []string{keyPrefix + "deload:7"}, "token-1").SetVal(int64(1))

	unlock, err := guard.Lock(context.Background(), "deload:7")
	require.NoError(t, err)
	require.NotNil(t, unlock)
	require.NoError(t, unlock(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRedisGuard_WaitsForTTL(t *testing.T) {
	db, _ := redismock.NewClientMock()
	guard := NewRedisGuard(db, 10*time.Second)
	assert.Equal(t, defaultRetryPeriod, guard.retryPeriod)
	assert.Equal(t, 201, guard.maxAttempts)
}

func TestRedisGuard_WaitsWhileHeld(t *testing.T) {
	guard, mock := newTestRedisGuard(t)
	guard.retryPeriod = time.Millisecond

	mock.ExpectSetNX(keyPrefix+"deload:1", "token-1", 5*time.Second).SetVal(false)
	mock.ExpectSetNX(keyPrefix+"deload:1", "token-1", 5*time.Second).SetVal(false)
	mock.ExpectSetNX(keyPrefix+"deload:1", "token-1", 5*time.Second).SetVal(true)
	mock.ExpectEval(releaseScript, []string{keyPrefix + "deload:1"}, "token-1").SetVal(int64(1))

	unlock, err := guard.Lock(context.Background(), "deload:1")
	require.NoError(t, err)
	require.NoError(t, unlock(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisGuard_Busy(t *testing.T) {
	guard, mock := newTestRedisGuard(t)
	guard.retryPeriod = time.Millisecond
	guard.maxAttempts = 3
	for i := 0; i < 3; i++ {
		mock.ExpectSetNX(keyPrefix+"mesocycle:7", "token-1", 5*time.Second).SetVal(false)
	}

	unlock, err := guard.Lock(context.Background(), "mesocycle:7")
	require.Error(t, err)
	assert.Nil(t, unlock)
	assert.ErrorIs(t, err, ErrLockBusy)
	assert.False(t, errors.Is(err, training.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisGuard_Busy_ContextDone(t *testing.T) {
	guard, mock := newTestRedisGuard(t)
	guard.retryPeriod = time.Hour
	mock.ExpectSetNX(keyPrefix+"deload:7", "token-1", 5*time.Second).SetVal(false)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := guard.Lock(ctx, "deload:7")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockBusy)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, errors.Is(err, training.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisGuard_RedisError(t *testing.T) {
	guard, mock := newTestRedisGuard(t)
	redisErr := errors.New("connection refused")
	mock.ExpectSetNX(keyPrefix+"deload:7", "token-1", 5*time.Second).SetErr(redisErr)

	_, err := guard.Lock(context.Background(), "deload:7")
	require.Error(t, err)
	assert.ErrorIs(t, err, redisErr)
	assert.False(t, errors.Is(err, training.ErrConflict))
}

func TestRedisGuard_UnlockAfterExpiry(t *testing.T) {
	guard, mock := newTestRedisGuard(t)
	mock.ExpectSetNX(keyPrefix+"deload:7", "token-1", 5*time.Second).SetVal(true)
	mock.ExpectEval(releaseScript, []string{keyPrefix + "deload:7"}, "token-1").SetVal(int64(0))

	unlock, err := guard.Lock(context.Background(), "deload:7")
	require.NoError(t, err)
	assert.ErrorIs(t, unlock(context.Background()), ErrLockLost)
}

func TestRedisGuard_TokenError(t *testing.T) {
	db, _ := redismock.NewClientMock()
	guard := NewRedisGuard(db, time.Second)
	guard.newToken = func() (string, error) {
		return "", errors.New("no entropy")
	}

	_, err := guard.Lock(context.Background(), "deload:7")
	require.Error(t, err)
	assert.ErrorContains(t, err, "generate lock token")
}
