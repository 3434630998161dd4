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

const deloadColumns = `id, user_id, start_at, end_at, type, reason, completed, skipped, created_at`

func (r *Repo) CreateDeload(ctx context.Context, deload training.DeloadWeek) (_ *training.DeloadWeek, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.deload.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user.id", deload.UserID))
	span.SetAttributes(attribute.String("deload.start", deload.Start.String()))

	if !deload.End.After(deload.Start) {
		return nil, training.NewValidationError("end", "must be after start")
	}
	deload.CreatedAt = createdAtOrNow(deload.CreatedAt)

	err = r.inUserTx(ctx, deload.UserID, func(tx pgx.Tx) error {
		var overlapping int64
		err := tx.QueryRow(
			ctx,
			`SELECT id FROM deload_week
				WHERE user_id = $1 AND tstzrange(start_at, end_at, '[)') && tstzrange($2, $3, '[)')
			LIMIT 1;`,
			deload.UserID, deload.Start, deload.End,
		).Scan(&overlapping)
		switch {
		case err == nil:
			return fmt.Errorf("overlaps deload %d: %w", overlapping, training.ErrConflict)
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("query overlapping deloads: %w", err)
		}

		// the exclusion constraint still guards writers outside this lock
		return tx.QueryRow(
			ctx,
			`INSERT INTO deload_week (user_id, start_at, end_at, type, reason, completed, skipped, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id;`,
			deload.UserID, deload.Start, deload.End, string(deload.Type), deload.Reason,
			deload.Completed, deload.Skipped, deload.CreatedAt,
		).Scan(&deload.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("create deload for user %d: %w", deload.UserID, err)
	}
	span.SetAttributes(attribute.Int64("deload.id", deload.ID))

	return &deload, nil
}

func (r *Repo) GetDeload(ctx context.Context, id int64) (_ *training.DeloadWeek, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.deload.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("deload.id", id))

	rows, err := r.db.Query(ctx, `SELECT `+deloadColumns+` FROM deload_week WHERE id = $1;`, id)
	if err != nil {
		return nil, fmt.Errorf("query deload: %w", err)
	}
	deload, err := pgx.CollectOneRow(rows, scanDeload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("deload %d: %w", id, training.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("collect deload: %w", err)
	}
	return &deload, nil
}

func (r *Repo) ListDeloads(ctx context.Context, userID int64) (_ []training.DeloadWeek, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.deload.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+deloadColumns+` FROM deload_week WHERE user_id = $1 ORDER BY start_at DESC, id DESC;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query deloads: %w", err)
	}
	deloads, err := pgx.CollectRows(rows, scanDeload)
	if err != nil {
		return nil, fmt.Errorf("collect deloads: %w", err)
	}
	return deloads, nil
}

func (r *Repo) ActiveDeload(ctx context.Context, userID int64, at time.Time) (_ *training.DeloadWeek, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.deload.active")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+deloadColumns+` FROM deload_week
			WHERE user_id = $1 AND NOT skipped AND start_at <= $2 AND end_at > $2
		LIMIT 1;`,
		userID, at,
	)
	if err != nil {
		return nil, fmt.Errorf("query active deload: %w", err)
	}
	deload, err := pgx.CollectOneRow(rows, scanDeload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("active deload for user %d: %w", userID, training.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("collect active deload: %w", err)
	}
	return &deload, nil
}

func (r *Repo) SetDeloadStatus(ctx context.Context, id int64, completed, skipped bool) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainload.deload.status")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("deload.id", id))
	span.SetAttributes(attribute.Bool("completed", completed))
	span.SetAttributes(attribute.Bool("skipped", skipped))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE deload_week SET completed = $1, skipped = $2 WHERE id = $3;`,
		completed, skipped, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deload %d: %w", id, training.ErrNotFound)
	}
	return nil
}

func scanDeload(row pgx.CollectableRow) (training.DeloadWeek, error) {
	var (
		d          training.DeloadWeek
		deloadType string
	)
	err := row.Scan(
		&d.ID, &d.UserID, &d.Start, &d.End, &deloadType, &d.Reason,
		&d.Completed, &d.Skipped, &d.CreatedAt,
	)
	d.Type = training.DeloadType(deloadType)
	return d, err
}
