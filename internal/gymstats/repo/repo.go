package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/trainload/internal/gymstats/training"
	"github.com/2beens/trainload/internal/telemetry/tracing"
	"github.com/2beens/trainload/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// Repo is the postgres backed training history, deload and mesocycle store.
type Repo struct {
	db *pgxpool.Pool
}

var (
	_ training.HistoryReader  = (*Repo)(nil)
	_ training.SessionWriter  = (*Repo)(nil)
	_ training.DeloadStore    = (*Repo)(nil)
	_ training.MesocycleStore = (*Repo)(nil)
)

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// inUserTx runs fn in a transaction holding the user's advisory lock, so
// per-user check-then-write sequences cannot interleave. Statements after the
// lock must see rows committed while waiting for it, hence read committed.
func (r *Repo) inUserTx(ctx context.Context, userID int64, fn func(tx pgx.Tx) error) error {
	err := pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1);`, userID); err != nil {
			return fmt.Errorf("advisory lock: %w", err)
		}
		return fn(tx)
	})
	return mapError(err)
}

// mapError translates postgres constraint failures into training errors.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case pkg.IsUniqueViolationError(err),
		pkg.IsExclusionViolationError(err),
		pkg.IsSerializationFailureError(err):
		return fmt.Errorf("%w: %w", training.ErrConflict, err)
	case pkg.IsForeignKeyViolationError(err):
		return fmt.Errorf("%w: %w", training.ErrNotFound, err)
	default:
		return err
	}
}

func createdAtOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

func (r *Repo) AddUser(ctx context.Context) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.user.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var id int64
	if err := r.db.QueryRow(ctx, `INSERT INTO trainee DEFAULT VALUES RETURNING id;`).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert trainee: %w", err)
	}
	span.SetAttributes(attribute.Int64("user.id", id))

	return id, nil
}

func (r *Repo) UserExists(ctx context.Context, userID int64) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.user.exists")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user.id", userID))

	var exists bool
	if err := r.db.QueryRow(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM trainee WHERE id = $1);`,
		userID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("query trainee: %w", err)
	}
	return exists, nil
}

func (r *Repo) AddExercise(ctx context.Context, exercise training.ExerciseDefinition) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.exercise.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise.id", exercise.ID))

	if exercise.ID == "" {
		return training.NewValidationError("id", "must not be empty")
	}
	if !exercise.Class.IsValid() {
		return training.NewValidationError("class", "unknown exercise class %q", exercise.Class)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO exercise_type (id, name, muscle_group, class) VALUES ($1, $2, $3, $4);`,
		exercise.ID, exercise.Name, exercise.MuscleGroup, string(exercise.Class),
	)
	if err != nil {
		return fmt.Errorf("exercise %s: %w", exercise.ID, mapError(err))
	}
	return nil
}

func (r *Repo) GetExercise(ctx context.Context, exerciseID string) (_ *training.ExerciseDefinition, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.exercise.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise.id", exerciseID))

	var (
		exercise training.ExerciseDefinition
		class    string
	)
	err = r.db.QueryRow(
		ctx,
		`SELECT id, name, muscle_group, class FROM exercise_type WHERE id = $1;`,
		exerciseID,
	).Scan(&exercise.ID, &exercise.Name, &exercise.MuscleGroup, &class)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("exercise %s: %w", exerciseID, training.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query exercise: %w", err)
	}
	exercise.Class = training.ExerciseClass(class)

	return &exercise, nil
}
