package periodization

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

type mesocycleStore interface {
	CreateMesocycle(ctx context.Context, mesocycle training.Mesocycle) (*training.Mesocycle, error)
	GetMesocycle(ctx context.Context, id int64) (*training.Mesocycle, error)
	ActiveMesocycle(ctx context.Context, userID int64) (*training.Mesocycle, error)
	ListMesocycles(ctx context.Context, userID int64) ([]training.Mesocycle, error)
	ActivateMesocycle(ctx context.Context, id int64, startDate time.Time) error
	UpdateMesocycleProgress(ctx context.Context, id int64, expect, next training.MesocycleProgress) error
	UpdateMesocycleWeek(ctx context.Context, week training.MesocycleWeek) error
}

type activationGuard interface {
	Lock(ctx context.Context, key string) (unlock func(context.Context) error, err error)
}

type Config struct {
	MinWeeks int
	MaxWeeks int
}

func DefaultConfig() Config {
	return Config{
		MinWeeks: 2,
		MaxWeeks: 16,
	}
}

type CreateParams struct {
	UserID        int64
	DurationWeeks int
	Type          training.PeriodizationType
	Goal          training.TrainingGoal
}

type UpdateWeekParams struct {
	MesocycleID         int64
	WeekNumber          int
	VolumeMultiplier    float64
	IntensityMultiplier float64
	// Type keeps the current week type when empty.
	Type training.WeekType
}

// Parameters are the multipliers of the active mesocycle's current week.
type Parameters struct {
	MesocycleID         int64             `json:"mesocycleId"`
	WeekNumber          int               `json:"weekNumber"`
	WeekType            training.WeekType `json:"weekType"`
	VolumeMultiplier    float64           `json:"volumeMultiplier"`
	IntensityMultiplier float64           `json:"intensityMultiplier"`
}

type PlannerParams struct {
	Store   mesocycleStore
	Guard   activationGuard
	Config  Config
	Metrics *metrics.Manager
	// Now defaults to time.Now.
	Now func() time.Time
}

// Planner creates mesocycles and drives them through
// planned -> active -> completed, or cancelled.
type Planner struct {
	store   mesocycleStore
	guard   activationGuard
	config  Config
	metrics *metrics.Manager
	now     func() time.Time
}

func NewPlanner(params PlannerParams) *Planner {
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Planner{
		store:   params.Store,
		guard:   params.Guard,
		config:  params.Config,
		metrics: params.Metrics,
		now:     now,
	}
}

func (p *Planner) CreateMesocycle(ctx context.Context, params CreateParams) (_ *training.Mesocycle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "periodization.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", params.UserID))

	if params.UserID <= 0 {
		return nil, training.NewValidationError("userId", "must be positive, got %d", params.UserID)
	}
	if params.DurationWeeks < p.config.MinWeeks || params.DurationWeeks > p.config.MaxWeeks {
		return nil, training.NewValidationError(
			"durationWeeks", "must be within [%d, %d], got %d",
			p.config.MinWeeks, p.config.MaxWeeks, params.DurationWeeks,
		)
	}
	if !params.Goal.IsValid() {
		return nil, training.NewValidationError("goal", "unknown training goal %q", params.Goal)
	}
	weeks, err := GenerateWeeks(params.Type, params.DurationWeeks)
	if err != nil {
		return nil, err
	}

	unlock, err := p.lockUser(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	created, err := p.store.CreateMesocycle(ctx, training.Mesocycle{
		UserID:        params.UserID,
		DurationWeeks: params.DurationWeeks,
		Type:          params.Type,
		Goal:          params.Goal,
		Status:        training.MesocyclePlanned,
		CreatedAt:     p.now(),
		Weeks:         weeks,
	})
	if err != nil {
		p.countConflict(err)
		return nil, fmt.Errorf("create mesocycle: %w", err)
	}

	p.metrics.CounterMesocyclesCreated.WithLabelValues(params.Type.String()).Inc()
	log.Debugf("mesocycle %d created for user %d: %s, %d weeks", created.ID, created.UserID, created.Type, created.DurationWeeks)
	return created, nil
}

// Start activates a planned mesocycle at week 1.
func (p *Planner) Start(ctx context.Context, id int64) (_ *training.Mesocycle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "periodization.start")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	m, err := p.store.GetMesocycle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get mesocycle %d: %w", id, err)
	}
	if m.Status != training.MesocyclePlanned {
		return nil, fmt.Errorf("cannot start mesocycle %d in status %s: %w", id, m.Status, training.ErrInvalidState)
	}

	unlock, err := p.lockUser(ctx, m.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := p.store.ActivateMesocycle(ctx, id, p.now()); err != nil {
		p.countConflict(err)
		return nil, fmt.Errorf("activate mesocycle %d: %w", id, err)
	}

	p.metrics.CounterMesocycleTransitions.WithLabelValues("start").Inc()
	return p.store.GetMesocycle(ctx, id)
}

// Advance moves the current week pointer forward and returns the new week.
// It fails on the final week and on mesocycles that are not active.
func (p *Planner) Advance(ctx context.Context, id int64) (_ *training.MesocycleWeek, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "periodization.advance")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	m, err := p.store.GetMesocycle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get mesocycle %d: %w", id, err)
	}
	if m.Status != training.MesocycleActive {
		return nil, fmt.Errorf("cannot advance mesocycle %d in status %s: %w", id, m.Status, training.ErrInvalidState)
	}
	if m.CurrentWeek >= m.DurationWeeks {
		return nil, fmt.Errorf("mesocycle %d is at its final week %d: %w", id, m.CurrentWeek, training.ErrInvalidState)
	}

	next, ok := m.Week(m.CurrentWeek + 1)
	if !ok {
		return nil, fmt.Errorf("mesocycle %d week %d: %w", id, m.CurrentWeek+1, training.ErrNotFound)
	}
	if err := p.transition(ctx, m, training.MesocycleActive, next.WeekNumber, "advance"); err != nil {
		return nil, err
	}
	return &next, nil
}

// Complete finishes an active mesocycle that reached its final week.
func (p *Planner) Complete(ctx context.Context, id int64) (_ *training.Mesocycle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "periodization.complete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	m, err := p.store.GetMesocycle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get mesocycle %d: %w", id, err)
	}
	if m.Status != training.MesocycleActive {
		return nil, fmt.Errorf("cannot complete mesocycle %d in status %s: %w", id, m.Status, training.ErrInvalidState)
	}
	if m.CurrentWeek != m.DurationWeeks {
		return nil, fmt.Errorf(
			"mesocycle %d is at week %d of %d: %w",
			id, m.CurrentWeek, m.DurationWeeks, training.ErrInvalidState,
		)
	}

	if err := p.transition(ctx, m, training.MesocycleCompleted, m.CurrentWeek, "complete"); err != nil {
		return nil, err
	}
	m.Status = training.MesocycleCompleted
	return m, nil
}

func (p *Planner) Cancel(ctx context.Context, id int64) (_ *training.Mesocycle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "periodization.cancel")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	m, err := p.store.GetMesocycle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get mesocycle %d: %w", id, err)
	}
	if m.Status.IsFinal() {
		return nil, fmt.Errorf("cannot cancel mesocycle %d in status %s: %w", id, m.Status, training.ErrInvalidState)
	}

	if err := p.transition(ctx, m, training.MesocycleCancelled, m.CurrentWeek, "cancel"); err != nil {
		return nil, err
	}
	m.Status = training.MesocycleCancelled
	return m, nil
}

// UpdateWeek overrides the multipliers of a week that is not behind the
// current week pointer.
func (p *Planner) UpdateWeek(ctx context.Context, params UpdateWeekParams) (_ *training.MesocycleWeek, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "periodization.update_week")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validateMultiplier("volumeMultiplier", params.VolumeMultiplier); err != nil {
		return nil, err
	}
	if err := validateMultiplier("intensityMultiplier", params.IntensityMultiplier); err != nil {
		return nil, err
	}
	if params.Type != "" && !params.Type.IsValid() {
		return nil, training.NewValidationError("type", "unknown week type %q", params.Type)
	}

	m, err := p.store.GetMesocycle(ctx, params.MesocycleID)
	if err != nil {
		return nil, fmt.Errorf("get mesocycle %d: %w", params.MesocycleID, err)
	}
	if m.Status.IsFinal() {
		return nil, fmt.Errorf("mesocycle %d is %s: %w", m.ID, m.Status, training.ErrInvalidState)
	}
	week, ok := m.Week(params.WeekNumber)
	if !ok {
		return nil, fmt.Errorf("mesocycle %d week %d: %w", m.ID, params.WeekNumber, training.ErrNotFound)
	}
	if week.WeekNumber < m.CurrentWeek {
		return nil, fmt.Errorf("mesocycle %d week %d already passed: %w", m.ID, week.WeekNumber, training.ErrInvalidState)
	}

	week.VolumeMultiplier = params.VolumeMultiplier
	week.IntensityMultiplier = params.IntensityMultiplier
	if params.Type != "" {
		week.Type = params.Type
	}
	if err := p.store.UpdateMesocycleWeek(ctx, week); err != nil {
		return nil, fmt.Errorf("update mesocycle %d week %d: %w", m.ID, week.WeekNumber, err)
	}
	return &week, nil
}

func (p *Planner) Get(ctx context.Context, id int64) (_ *training.Mesocycle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "periodization.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	return p.store.GetMesocycle(ctx, id)
}

func (p *Planner) List(ctx context.Context, userID int64) (_ []training.Mesocycle, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "periodization.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	return p.store.ListMesocycles(ctx, userID)
}

// CurrentParameters returns nil when the user has no active mesocycle.
func (p *Planner) CurrentParameters(ctx context.Context, userID int64) (_ *Parameters, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "periodization.current_parameters")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	m, err := p.store.ActiveMesocycle(ctx, userID)
	if errors.Is(err, training.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active mesocycle: %w", err)
	}

	week, ok := m.Week(m.CurrentWeek)
	if !ok {
		return nil, fmt.Errorf("mesocycle %d week %d: %w", m.ID, m.CurrentWeek, training.ErrNotFound)
	}
	return &Parameters{
		MesocycleID:         m.ID,
		WeekNumber:          week.WeekNumber,
		WeekType:            week.Type,
		VolumeMultiplier:    week.VolumeMultiplier,
		IntensityMultiplier: week.IntensityMultiplier,
	}, nil
}

func (p *Planner) transition(ctx context.Context, m *training.Mesocycle, status training.MesocycleStatus, week int, operation string) error {
	expect := training.MesocycleProgress{Status: m.Status, CurrentWeek: m.CurrentWeek}
	next := training.MesocycleProgress{Status: status, CurrentWeek: week}
	if err := p.store.UpdateMesocycleProgress(ctx, m.ID, expect, next); err != nil {
		p.countConflict(err)
		return fmt.Errorf("%s mesocycle %d: %w", operation, m.ID, err)
	}

	p.metrics.CounterMesocycleTransitions.WithLabelValues(operation).Inc()
	log.WithFields(log.Fields{
		"mesocycle": m.ID,
		"from":      expect,
		"to":        next,
	}).Debug("mesocycle transition")
	return nil
}

func (p *Planner) lockUser(ctx context.Context, userID int64) (func(), error) {
	unlock, err := p.guard.Lock(ctx, fmt.Sprintf("mesocycle:%d", userID))
	if err != nil {
		return nil, fmt.Errorf("lock mesocycles of user %d: %w", userID, err)
	}
	return func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			log.Warnf("release mesocycle lock for user %d: %s", userID, err)
		}
	}, nil
}

func (p *Planner) countConflict(err error) {
	if errors.Is(err, training.ErrConflict) && !errors.Is(err, training.ErrInvalidState) {
		p.metrics.CounterSchedulingConflicts.WithLabelValues("mesocycle").Inc()
	}
}

func validateMultiplier(field string, m float64) error {
	if m < MinMultiplier || m > MaxMultiplier {
		return training.NewValidationError(field, "must be within [%v, %v], got %v", MinMultiplier, MaxMultiplier, m)
	}
	return nil
}
