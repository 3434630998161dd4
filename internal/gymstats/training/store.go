package training

import (
	"context"
	"time"
)

// SessionParams filters the session history. Zero values mean "no filter".
type SessionParams struct {
	UserID int64
	// ExerciseID restricts results to sessions containing the exercise, with
	// only that exercise's log attached.
	ExerciseID    string
	Since         *time.Time
	Until         *time.Time
	OnlyCompleted bool
	Limit         int
}

// HistoryReader is the read side of the workout history. Sessions are
// returned newest-first by start time; sets are ordered by sequence.
type HistoryReader interface {
	FetchSessions(ctx context.Context, params SessionParams) ([]WorkoutSession, error)
	GetExercise(ctx context.Context, exerciseID string) (*ExerciseDefinition, error)
	UserExists(ctx context.Context, userID int64) (bool, error)
}

// SessionWriter persists history records.
type SessionWriter interface {
	AddUser(ctx context.Context) (int64, error)
	AddExercise(ctx context.Context, exercise ExerciseDefinition) error
	// AddSession rejects a second open session for the same user with ErrConflict.
	AddSession(ctx context.Context, session WorkoutSession) (*WorkoutSession, error)
	CompleteSession(ctx context.Context, sessionID int64, completedAt time.Time) error
}

type DeloadStore interface {
	// CreateDeload fails with ErrConflict if any deload of the user overlaps
	// [deload.Start, deload.End). The check and the insert are atomic.
	CreateDeload(ctx context.Context, deload DeloadWeek) (*DeloadWeek, error)
	GetDeload(ctx context.Context, id int64) (*DeloadWeek, error)
	// ListDeloads returns the user's deloads ordered by start, newest first.
	ListDeloads(ctx context.Context, userID int64) ([]DeloadWeek, error)
	// ActiveDeload returns the non-skipped deload covering at, or ErrNotFound.
	ActiveDeload(ctx context.Context, userID int64, at time.Time) (*DeloadWeek, error)
	SetDeloadStatus(ctx context.Context, id int64, completed, skipped bool) error
}

type MesocycleStore interface {
	// CreateMesocycle stores the mesocycle together with its weeks. It fails
	// with ErrConflict when the user already has an active mesocycle.
	CreateMesocycle(ctx context.Context, mesocycle Mesocycle) (*Mesocycle, error)
	GetMesocycle(ctx context.Context, id int64) (*Mesocycle, error)
	// ActiveMesocycle returns ErrNotFound if the user has none.
	ActiveMesocycle(ctx context.Context, userID int64) (*Mesocycle, error)
	ListMesocycles(ctx context.Context, userID int64) ([]Mesocycle, error)
	// ActivateMesocycle moves a planned mesocycle to active with current week 1.
	// It fails with ErrConflict if another mesocycle of the user is active.
	ActivateMesocycle(ctx context.Context, id int64, startDate time.Time) error
	// UpdateMesocycleProgress is a compare-and-set: it fails with ErrConflict
	// when the stored progress no longer equals expect.
	UpdateMesocycleProgress(ctx context.Context, id int64, expect, next MesocycleProgress) error
	UpdateMesocycleWeek(ctx context.Context, week MesocycleWeek) error
}
