package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/trainload/internal/gymstats/training"
	"github.com/2beens/trainload/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
)

func (r *Repo) AddSession(ctx context.Context, session training.WorkoutSession) (_ *training.WorkoutSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.session.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user.id", session.UserID))
	span.SetAttributes(attribute.Int("exercises", len(session.Exercises)))

	if err := session.Validate(); err != nil {
		return nil, err
	}

	stored := copySession(session)
	err = r.inUserTx(ctx, session.UserID, func(tx pgx.Tx) error {
		if err := tx.QueryRow(
			ctx,
			`INSERT INTO workout_session (user_id, started_at, completed_at) VALUES ($1, $2, $3) RETURNING id;`,
			stored.UserID, stored.StartedAt, stored.CompletedAt,
		).Scan(&stored.ID); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}

		for i := range stored.Exercises {
			exLog := &stored.Exercises[i]
			if err := tx.QueryRow(
				ctx,
				`INSERT INTO exercise_log (session_id, exercise_id, position, is_pr) VALUES ($1, $2, $3, $4) RETURNING id;`,
				stored.ID, exLog.ExerciseID, exLog.Position, exLog.IsPR,
			).Scan(&exLog.ID); err != nil {
				return fmt.Errorf("insert exercise log %s: %w", exLog.ExerciseID, err)
			}

			for j := range exLog.Sets {
				set := &exLog.Sets[j]
				if err := tx.QueryRow(
					ctx,
					`INSERT INTO set_record (log_id, sequence, weight, reps, rpe, set_type, completed_at)
						VALUES ($1, $2, $3, $4, $5, $6, $7)
					RETURNING id;`,
					exLog.ID, set.Sequence, set.Weight, set.Reps, set.RPE, string(set.Type), set.CompletedAt,
				).Scan(&set.ID); err != nil {
					return fmt.Errorf("insert set %d: %w", set.Sequence, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add session for user %d: %w", session.UserID, err)
	}
	span.SetAttributes(attribute.Int64("session.id", stored.ID))

	return &stored, nil
}

func (r *Repo) CompleteSession(ctx context.Context, sessionID int64, completedAt time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.session.complete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("session.id", sessionID))

	var (
		startedAt time.Time
		completed *time.Time
	)
	err = pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		err := tx.QueryRow(
			ctx,
			`SELECT started_at, completed_at FROM workout_session WHERE id = $1 FOR UPDATE;`,
			sessionID,
		).Scan(&startedAt, &completed)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("session %d: %w", sessionID, training.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if completed != nil {
			return fmt.Errorf("session %d already completed: %w", sessionID, training.ErrInvalidState)
		}
		if completedAt.Before(startedAt) {
			return training.NewValidationError("completedAt", "before session start")
		}

		_, err = tx.Exec(ctx, `UPDATE workout_session SET completed_at = $1 WHERE id = $2;`, completedAt, sessionID)
		return err
	})
	return mapError(err)
}

// FetchSessions loads the sessions first, then all of their logs and sets in
// a single joined query.
func (r *Repo) FetchSessions(ctx context.Context, params training.SessionParams) (_ []training.WorkoutSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.session.fetch")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user.id", params.UserID))
	span.SetAttributes(attribute.String("exercise.id", params.ExerciseID))
	span.SetAttributes(attribute.Bool("only-completed", params.OnlyCompleted))
	span.SetAttributes(attribute.Int("limit", params.Limit))
	if params.Since != nil {
		span.SetAttributes(attribute.String("since", params.Since.String()))
	}
	if params.Until != nil {
		span.SetAttributes(attribute.String("until", params.Until.String()))
	}

	rows, err := r.db.Query(
		ctx,
		`
			SELECT s.id, s.user_id, s.started_at, s.completed_at
			FROM workout_session s
			WHERE s.user_id = $1
				AND ($2::boolean IS FALSE OR s.completed_at IS NOT NULL)
				AND ($3::timestamptz IS NULL OR s.started_at >= $3)
				AND ($4::timestamptz IS NULL OR s.started_at <= $4)
				AND ($5::text = '' OR EXISTS (
					SELECT 1 FROM exercise_log l WHERE l.session_id = s.id AND l.exercise_id = $5
				))
			ORDER BY s.started_at DESC, s.id DESC
			LIMIT NULLIF($6::int, 0);`,
		params.UserID, params.OnlyCompleted, params.Since, params.Until, params.ExerciseID, params.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}

	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (training.WorkoutSession, error) {
		var s training.WorkoutSession
		err := row.Scan(&s.ID, &s.UserID, &s.StartedAt, &s.CompletedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect sessions: %w", err)
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	logs, err := r.fetchLogs(ctx, ids, params.ExerciseID)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].Exercises = logs[sessions[i].ID]
		if sessions[i].Exercises == nil {
			sessions[i].Exercises = []training.ExerciseLog{}
		}
	}
	span.SetAttributes(attribute.Int("sessions", len(sessions)))

	return sessions, nil
}

// fetchLogs returns the exercise logs (with ordered sets) keyed by session
// id. When exerciseID is set only the first log of that exercise is kept.
func (r *Repo) fetchLogs(ctx context.Context, sessionIDs []int64, exerciseID string) (map[int64][]training.ExerciseLog, error) {
	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				l.session_id, l.id, l.exercise_id, l.position, l.is_pr,
				sr.id, sr.sequence, sr.weight, sr.reps, sr.rpe, sr.set_type, sr.completed_at
			FROM exercise_log l
			LEFT JOIN set_record sr ON sr.log_id = l.id
			WHERE l.session_id = ANY($1)
				AND ($2::text = '' OR l.exercise_id = $2)
			ORDER BY l.session_id, l.position, l.id, sr.sequence;`,
		sessionIDs, exerciseID,
	)
	if err != nil {
		return nil, fmt.Errorf("query exercise logs: %w", err)
	}
	defer rows.Close()

	logs := make(map[int64][]training.ExerciseLog)
	for rows.Next() {
		var (
			sessionID   int64
			exLog       training.ExerciseLog
			setID       *int64
			sequence    *int
			weight      *float64
			reps        *int
			rpe         *float64
			setType     *string
			completedAt *time.Time
		)
		if err := rows.Scan(
			&sessionID, &exLog.ID, &exLog.ExerciseID, &exLog.Position, &exLog.IsPR,
			&setID, &sequence, &weight, &reps, &rpe, &setType, &completedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}

		sessionLogs := logs[sessionID]
		last := len(sessionLogs) - 1
		if last < 0 || sessionLogs[last].ID != exLog.ID {
			if exerciseID != "" && last >= 0 {
				// only the first log of the requested exercise
				continue
			}
			exLog.Sets = []training.SetRecord{}
			sessionLogs = append(sessionLogs, exLog)
			last++
		}
		if setID != nil {
			sessionLogs[last].Sets = append(sessionLogs[last].Sets, training.SetRecord{
				ID:          *setID,
				Sequence:    *sequence,
				Weight:      *weight,
				Reps:        *reps,
				RPE:         rpe,
				Type:        training.SetType(*setType),
				CompletedAt: *completedAt,
			})
		}
		logs[sessionID] = sessionLogs
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return logs, nil
}

func copySession(s training.WorkoutSession) training.WorkoutSession {
	c := s
	c.Exercises = make([]training.ExerciseLog, len(s.Exercises))
	for i, l := range s.Exercises {
		c.Exercises[i] = l
		c.Exercises[i].Sets = append([]training.SetRecord{}, l.Sets...)
	}
	return c
}
