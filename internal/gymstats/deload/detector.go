package deload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/trainload/internal/gymstats/training"
	"github.com/2beens/trainload/internal/telemetry/metrics"
	"github.com/2beens/trainload/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type historyReader interface {
	FetchSessions(ctx context.Context, params training.SessionParams) ([]training.WorkoutSession, error)
	UserExists(ctx context.Context, userID int64) (bool, error)
}

type deloadStore interface {
	CreateDeload(ctx context.Context, deload training.DeloadWeek) (*training.DeloadWeek, error)
	GetDeload(ctx context.Context, id int64) (*training.DeloadWeek, error)
	ListDeloads(ctx context.Context, userID int64) ([]training.DeloadWeek, error)
	ActiveDeload(ctx context.Context, userID int64, at time.Time) (*training.DeloadWeek, error)
	SetDeloadStatus(ctx context.Context, id int64, completed, skipped bool) error
}

// scheduleGuard serializes scheduling per user across processes.
type scheduleGuard interface {
	Lock(ctx context.Context, key string) (unlock func(context.Context) error, err error)
}

type Config struct {
	LookbackWeeks       int
	PlateauWindowWeeks  int
	ConfidenceThreshold int
	Tolerance           float64
}

func DefaultConfig() Config {
	return Config{
		LookbackWeeks:       8,
		PlateauWindowWeeks:  3,
		ConfidenceThreshold: 50,
		Tolerance:           1e-6,
	}
}

type Recommendation struct {
	UserID         int64               `json:"userId"`
	Needed         bool                `json:"needed"`
	Confidence     int                 `json:"confidence"`
	Type           training.DeloadType `json:"type"`
	SuggestedStart time.Time           `json:"suggestedStart"`
	Rationale      string              `json:"rationale"`
	Scores         []SignalScore       `json:"scores"`
	Metrics        Metrics             `json:"metrics"`
	EvaluatedAt    time.Time           `json:"evaluatedAt"`
}

type ScheduleParams struct {
	UserID int64
	Start  time.Time
	Type   training.DeloadType
	// Reason defaults to a type specific text when empty.
	Reason string
}

type DetectorParams struct {
	Reader  historyReader
	Store   deloadStore
	Guard   scheduleGuard
	Config  Config
	Metrics *metrics.Manager
	// Now defaults to time.Now.
	Now func() time.Time
}

type Detector struct {
	reader  historyReader
	store   deloadStore
	guard   scheduleGuard
	config  Config
	metrics *metrics.Manager
	now     func() time.Time
}

func NewDetector(params DetectorParams) *Detector {
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Detector{
		reader:  params.Reader,
		store:   params.Store,
		guard:   params.Guard,
		config:  params.Config,
		metrics: params.Metrics,
		now:     now,
	}
}

func (d *Detector) Evaluate(ctx context.Context, userID int64) (_ *Recommendation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "deload.evaluate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	if err := d.checkUser(ctx, userID); err != nil {
		return nil, err
	}

	now := d.now()
	since := now.Add(-time.Duration(d.config.LookbackWeeks) * training.Week)
	sessions, err := d.reader.FetchSessions(ctx, training.SessionParams{
		UserID:        userID,
		Since:         &since,
		Until:         &now,
		OnlyCompleted: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch sessions: %w", err)
	}
	deloads, err := d.store.ListDeloads(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list deloads: %w", err)
	}

	m := computeMetrics(sessions, deloads, metricsParams{
		now:                now,
		lookbackWeeks:      d.config.LookbackWeeks,
		plateauWindowWeeks: d.config.PlateauWindowWeeks,
		tolerance:          d.config.Tolerance,
	})
	confidence, scores, rationale := Evaluate(Signals, m)

	rec := &Recommendation{
		UserID:         userID,
		Needed:         confidence >= d.config.ConfidenceThreshold,
		Confidence:     confidence,
		Type:           SelectType(m),
		SuggestedStart: training.NextMonday(now),
		Rationale:      rationale,
		Scores:         scores,
		Metrics:        m,
		EvaluatedAt:    now,
	}

	d.metrics.CounterDeloadEvaluations.Inc()
	d.metrics.HistDeloadConfidence.Observe(float64(confidence))
	if rec.Needed {
		d.metrics.CounterDeloadsRecommended.WithLabelValues(rec.Type.String()).Inc()
	}
	span.SetAttributes(attribute.Int("confidence", confidence))

	log.WithFields(log.Fields{
		"user":       userID,
		"confidence": confidence,
		"needed":     rec.Needed,
		"type":       rec.Type,
	}).Debug("deload evaluated")

	return rec, nil
}

// SelectType picks the deload type, first matching rule wins.
func SelectType(m Metrics) training.DeloadType {
	switch {
	case m.RPETrend > 0.5 || m.DecliningSessions >= 3:
		return training.DeloadTypeIntensityReduction
	case m.SessionsLast7Days > 5:
		return training.DeloadTypeActiveRecovery
	default:
		return training.DeloadTypeVolumeReduction
	}
}

func DefaultReason(t training.DeloadType) string {
	switch t {
	case training.DeloadTypeIntensityReduction:
		return "Reduced intensity week to recover from accumulated fatigue"
	case training.DeloadTypeActiveRecovery:
		return "Active recovery week with light movement only"
	default:
		return "Reduced volume week to recover while keeping intensity"
	}
}

// Schedule creates a 7 day deload week starting at params.Start. Overlapping
// an existing deload of the user is an ErrConflict.
func (d *Detector) Schedule(ctx context.Context, params ScheduleParams) (_ *training.DeloadWeek, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "deload.schedule")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", params.UserID))

	if params.Start.IsZero() {
		return nil, training.NewValidationError("start", "must be set")
	}
	if !params.Type.IsValid() {
		return nil, training.NewValidationError("type", "unknown deload type %q", params.Type)
	}
	if err := d.checkUser(ctx, params.UserID); err != nil {
		return nil, err
	}

	reason := params.Reason
	if reason == "" {
		reason = DefaultReason(params.Type)
	}

	unlock, err := d.guard.Lock(ctx, fmt.Sprintf("deload:%d", params.UserID))
	if err != nil {
		return nil, fmt.Errorf("lock deload schedule: %w", err)
	}
	defer func() {
		if unlockErr := unlock(context.WithoutCancel(ctx)); unlockErr != nil {
			log.Warnf("release deload schedule lock for user %d: %s", params.UserID, unlockErr)
		}
	}()

	created, err := d.store.CreateDeload(ctx, training.DeloadWeek{
		UserID:    params.UserID,
		Start:     params.Start,
		End:       params.Start.Add(training.Week),
		Type:      params.Type,
		Reason:    reason,
		CreatedAt: d.now(),
	})
	if err != nil {
		if errors.Is(err, training.ErrConflict) {
			d.metrics.CounterSchedulingConflicts.WithLabelValues("deload").Inc()
			log.Warnf("deload for user %d at %s overlaps an existing one", params.UserID, params.Start.Format(time.DateOnly))
		}
		return nil, fmt.Errorf("create deload: %w", err)
	}

	d.metrics.CounterDeloadsScheduled.WithLabelValues(params.Type.String()).Inc()
	log.Debugf("deload %d scheduled for user %d: %s - %s", created.ID, created.UserID, created.Start, created.End)
	return created, nil
}

// Complete marks the deload week as done. Skipped weeks cannot be completed.
func (d *Detector) Complete(ctx context.Context, id int64) (_ *training.DeloadWeek, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "deload.complete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	return d.setStatus(ctx, id, true)
}

// Skip marks the deload week as skipped. Completed weeks cannot be skipped.
func (d *Detector) Skip(ctx context.Context, id int64) (_ *training.DeloadWeek, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "deload.skip")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	return d.setStatus(ctx, id, false)
}

func (d *Detector) setStatus(ctx context.Context, id int64, complete bool) (*training.DeloadWeek, error) {
	deload, err := d.store.GetDeload(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get deload %d: %w", id, err)
	}

	switch {
	case complete && deload.Completed, !complete && deload.Skipped:
		return deload, nil
	case complete && deload.Skipped:
		return nil, fmt.Errorf("deload %d was skipped: %w", id, training.ErrInvalidState)
	case !complete && deload.Completed:
		return nil, fmt.Errorf("deload %d was completed: %w", id, training.ErrInvalidState)
	case complete && d.now().Before(deload.Start):
		return nil, fmt.Errorf("deload %d has not started yet: %w", id, training.ErrInvalidState)
	}

	if err := d.store.SetDeloadStatus(ctx, id, complete, !complete); err != nil {
		return nil, fmt.Errorf("set deload %d status: %w", id, err)
	}
	deload.Completed = complete
	deload.Skipped = !complete
	return deload, nil
}

// History returns the user's deload weeks, newest first.
func (d *Detector) History(ctx context.Context, userID int64) (_ []training.DeloadWeek, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "deload.history")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := d.checkUser(ctx, userID); err != nil {
		return nil, err
	}
	return d.store.ListDeloads(ctx, userID)
}

// Adjustment is the load reduction of the deload week covering now.
type Adjustment struct {
	DeloadID         int64               `json:"deloadId"`
	Type             training.DeloadType `json:"type"`
	WeightMultiplier float64             `json:"weightMultiplier"`
	VolumeMultiplier float64             `json:"volumeMultiplier"`
}

// AdjustmentFor returns the fixed multipliers of a deload type.
func AdjustmentFor(t training.DeloadType) (weight, volume float64) {
	switch t {
	case training.DeloadTypeIntensityReduction:
		return 0.8, 1.0
	case training.DeloadTypeActiveRecovery:
		return 0.6, 0.5
	default:
		return 1.0, 0.5
	}
}

// CurrentAdjustment returns nil when no deload week covers now. Skipped
// weeks never apply.
func (d *Detector) CurrentAdjustment(ctx context.Context, userID int64) (_ *Adjustment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "deload.current_adjustment")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	active, err := d.store.ActiveDeload(ctx, userID, d.now())
	if errors.Is(err, training.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active deload: %w", err)
	}

	weight, volume := AdjustmentFor(active.Type)
	return &Adjustment{
		DeloadID:         active.ID,
		Type:             active.Type,
		WeightMultiplier: weight,
		VolumeMultiplier: volume,
	}, nil
}

func (d *Detector) checkUser(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return training.NewValidationError("userId", "must be positive, got %d", userID)
	}
	exists, err := d.reader.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return fmt.Errorf("user %d: %w", userID, training.ErrNotFound)
	}
	return nil
}
