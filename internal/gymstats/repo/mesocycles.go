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

const mesocycleColumns = `id, user_id, duration_weeks, type, goal, status, current_week, start_date, created_at`

func (r *Repo) CreateMesocycle(ctx context.Context, mesocycle training.Mesocycle) (_ *training.Mesocycle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.mesocycle.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user.id", mesocycle.UserID))
	span.SetAttributes(attribute.Int("weeks", mesocycle.DurationWeeks))

	stored := mesocycle
	stored.Weeks = append([]training.MesocycleWeek{}, mesocycle.Weeks...)
	stored.CreatedAt = createdAtOrNow(stored.CreatedAt)

	err = r.inUserTx(ctx, mesocycle.UserID, func(tx pgx.Tx) error {
		var activeID int64
		err := tx.QueryRow(
			ctx,
			`SELECT id FROM mesocycle WHERE user_id = $1 AND status = $2;`,
			mesocycle.UserID, string(training.MesocycleActive),
		).Scan(&activeID)
		switch {
		case err == nil:
			return fmt.Errorf("user %d has active mesocycle %d: %w", mesocycle.UserID, activeID, training.ErrConflict)
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("query active mesocycle: %w", err)
		}

		if err := tx.QueryRow(
			ctx,
			`INSERT INTO mesocycle (user_id, duration_weeks, type, goal, status, current_week, start_date, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id;`,
			stored.UserID, stored.DurationWeeks, string(stored.Type), string(stored.Goal),
			string(stored.Status), stored.CurrentWeek, stored.StartDate, stored.CreatedAt,
		).Scan(&stored.ID); err != nil {
			return fmt.Errorf("insert mesocycle: %w", err)
		}

		for i := range stored.Weeks {
			stored.Weeks[i].MesocycleID = stored.ID
		}
		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"mesocycle_week"},
			[]string{"mesocycle_id", "week_number", "week_type", "volume_multiplier", "intensity_multiplier"},
			pgx.CopyFromSlice(len(stored.Weeks), func(i int) ([]any, error) {
				w := stored.Weeks[i]
				return []any{w.MesocycleID, w.WeekNumber, string(w.Type), w.VolumeMultiplier, w.IntensityMultiplier}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy mesocycle weeks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create mesocycle for user %d: %w", mesocycle.UserID, err)
	}
	span.SetAttributes(attribute.Int64("mesocycle.id", stored.ID))

	return &stored, nil
}

func (r *Repo) GetMesocycle(ctx context.Context, id int64) (_ *training.Mesocycle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.mesocycle.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("mesocycle.id", id))

	mesocycles, err := r.queryMesocycles(ctx, `WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(mesocycles) != 1 {
		return nil, fmt.Errorf("mesocycle %d: %w", id, training.ErrNotFound)
	}
	return &mesocycles[0], nil
}

func (r *Repo) ActiveMesocycle(ctx context.Context, userID int64) (_ *training.Mesocycle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.mesocycle.active")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user.id", userID))

	mesocycles, err := r.queryMesocycles(
		ctx, `WHERE user_id = $1 AND status = $2`, userID, string(training.MesocycleActive),
	)
	if err != nil {
		return nil, err
	}
	if len(mesocycles) == 0 {
		return nil, fmt.Errorf("active mesocycle for user %d: %w", userID, training.ErrNotFound)
	}
	return &mesocycles[0], nil
}

func (r *Repo) ListMesocycles(ctx context.Context, userID int64) (_ []training.Mesocycle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.mesocycle.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user.id", userID))

	return r.queryMesocycles(ctx, `WHERE user_id = $1`, userID)
}

func (r *Repo) ActivateMesocycle(ctx context.Context, id int64, startDate time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.mesocycle.activate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("mesocycle.id", id))

	var userID int64
	err = r.db.QueryRow(ctx, `SELECT user_id FROM mesocycle WHERE id = $1;`, id).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("mesocycle %d: %w", id, training.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("query mesocycle owner: %w", err)
	}

	return r.inUserTx(ctx, userID, func(tx pgx.Tx) error {
		var status string
		if err := tx.QueryRow(
			ctx, `SELECT status FROM mesocycle WHERE id = $1 FOR UPDATE;`, id,
		).Scan(&status); err != nil {
			return fmt.Errorf("lock mesocycle: %w", err)
		}
		if training.MesocycleStatus(status) != training.MesocyclePlanned {
			return fmt.Errorf("mesocycle %d is %s: %w", id, status, training.ErrInvalidState)
		}

		var activeID int64
		err := tx.QueryRow(
			ctx,
			`SELECT id FROM mesocycle WHERE user_id = $1 AND status = $2;`,
			userID, string(training.MesocycleActive),
		).Scan(&activeID)
		switch {
		case err == nil:
			return fmt.Errorf("user %d has active mesocycle %d: %w", userID, activeID, training.ErrConflict)
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("query active mesocycle: %w", err)
		}

		_, err = tx.Exec(
			ctx,
			`UPDATE mesocycle SET status = $1, current_week = 1, start_date = $2 WHERE id = $3;`,
			string(training.MesocycleActive), startDate, id,
		)
		return err
	})
}

func (r *Repo) UpdateMesocycleProgress(ctx context.Context, id int64, expect, next training.MesocycleProgress) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.mesocycle.progress")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("mesocycle.id", id))
	span.SetAttributes(attribute.String("status", string(next.Status)))
	span.SetAttributes(attribute.Int("week", next.CurrentWeek))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE mesocycle SET status = $1, current_week = $2
			WHERE id = $3 AND status = $4 AND current_week = $5;`,
		string(next.Status), next.CurrentWeek, id, string(expect.Status), expect.CurrentWeek,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM mesocycle WHERE id = $1);`, id).Scan(&exists); err != nil {
		return fmt.Errorf("query mesocycle: %w", err)
	}
	if !exists {
		return fmt.Errorf("mesocycle %d: %w", id, training.ErrNotFound)
	}
	return fmt.Errorf("mesocycle %d changed concurrently: %w", id, training.ErrConflict)
}

func (r *Repo) UpdateMesocycleWeek(ctx context.Context, week training.MesocycleWeek) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.mesocycle.week.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("mesocycle.id", week.MesocycleID))
	span.SetAttributes(attribute.Int("week", week.WeekNumber))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE mesocycle_week SET week_type = $1, volume_multiplier = $2, intensity_multiplier = $3
			WHERE mesocycle_id = $4 AND week_number = $5;`,
		string(week.Type), week.VolumeMultiplier, week.IntensityMultiplier, week.MesocycleID, week.WeekNumber,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mesocycle %d week %d: %w", week.MesocycleID, week.WeekNumber, training.ErrNotFound)
	}
	return nil
}

// queryMesocycles loads the mesocycles matching where (newest first) with
// their weeks attached.
func (r *Repo) queryMesocycles(ctx context.Context, where string, args ...any) ([]training.Mesocycle, error) {
	rows, err := r.db.Query(ctx, `SELECT `+mesocycleColumns+` FROM mesocycle `+where+` ORDER BY id DESC;`, args...)
	if err != nil {
		return nil, fmt.Errorf("query mesocycles: %w", err)
	}
	mesocycles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (training.Mesocycle, error) {
		var (
			m                      training.Mesocycle
			mesoType, goal, status string
		)
		err := row.Scan(
			&m.ID, &m.UserID, &m.DurationWeeks, &mesoType, &goal, &status,
			&m.CurrentWeek, &m.StartDate, &m.CreatedAt,
		)
		m.Type = training.PeriodizationType(mesoType)
		m.Goal = training.TrainingGoal(goal)
		m.Status = training.MesocycleStatus(status)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect mesocycles: %w", err)
	}
	if len(mesocycles) == 0 {
		return mesocycles, nil
	}

	ids := make([]int64, len(mesocycles))
	for i, m := range mesocycles {
		ids[i] = m.ID
	}
	weekRows, err := r.db.Query(
		ctx,
		`SELECT mesocycle_id, week_number, week_type, volume_multiplier, intensity_multiplier
			FROM mesocycle_week
			WHERE mesocycle_id = ANY($1)
		ORDER BY mesocycle_id, week_number;`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("query mesocycle weeks: %w", err)
	}
	weeks, err := pgx.CollectRows(weekRows, func(row pgx.CollectableRow) (training.MesocycleWeek, error) {
		var (
			w        training.MesocycleWeek
			weekType string
		)
		err := row.Scan(&w.MesocycleID, &w.WeekNumber, &weekType, &w.VolumeMultiplier, &w.IntensityMultiplier)
		w.Type = training.WeekType(weekType)
		return w, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect mesocycle weeks: %w", err)
	}

	byID := make(map[int64][]training.MesocycleWeek, len(mesocycles))
	for _, w := range weeks {
		byID[w.MesocycleID] = append(byID[w.MesocycleID], w)
	}
	for i := range mesocycles {
		mesocycles[i].Weeks = byID[mesocycles[i].ID]
		if mesocycles[i].Weeks == nil {
			mesocycles[i].Weeks = []training.MesocycleWeek{}
		}
	}

	return mesocycles, nil
}
