package progression

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/2beens/trainload/internal/gymstats/training"
	"github.com/2beens/trainload/internal/telemetry/metrics"
	"github.com/2beens/trainload/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Rationale is the machine readable reason for a suggestion.
type Rationale string

const (
	RationaleIncrease         Rationale = "INCREASE"
	RationaleMaintain         Rationale = "MAINTAIN"
	RationaleDecrease         Rationale = "DECREASE"
	RationaleInsufficientData Rationale = "INSUFFICIENT_DATA"
)

func (r Rationale) String() string {
	return string(r)
}

type Config struct {
	// SessionsLookback is the number of most recent working performances analyzed per suggestion.
	SessionsLookback  int
	DefaultTargetReps int
	// LargeMissThreshold is the fraction below the target reps at which a
	// set counts as a large miss (0.2 -> 8 target reps, 6 performed).
	LargeMissThreshold float64
	// Tolerance absorbs unit conversion rounding in weight comparisons.
	Tolerance  float64
	Increments IncrementTable
}

func DefaultConfig() Config {
	return Config{
		SessionsLookback:   3,
		DefaultTargetReps:  8,
		LargeMissThreshold: 0.2,
		Tolerance:          1e-6,
		Increments:         DefaultIncrements(),
	}
}

type Request struct {
	UserID     int64  `json:"userId"`
	ExerciseID string `json:"exerciseId"`
	// TargetReps of 0 means the configured default.
	TargetReps int `json:"targetReps"`
}

type Suggestion struct {
	Weight           float64 `json:"weight"`
	TargetReps       int     `json:"targetReps"`
	PreviousWeight   float64 `json:"previousWeight"`
	Increment        float64 `json:"increment"`
	SessionsAnalyzed int     `json:"sessionsAnalyzed"`
}

// Result is either a suggestion or, with a nil Suggestion, the explicit
// INSUFFICIENT_DATA outcome.
type Result struct {
	UserID     int64       `json:"userId"`
	ExerciseID string      `json:"exerciseId"`
	Rationale  Rationale   `json:"rationale"`
	Suggestion *Suggestion `json:"suggestion,omitempty"`
}

func (r Result) InsufficientData() bool {
	return r.Suggestion == nil
}

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=progression_test

type historyReader interface {
	FetchSessions(ctx context.Context, params training.SessionParams) ([]training.WorkoutSession, error)
	GetExercise(ctx context.Context, exerciseID string) (*training.ExerciseDefinition, error)
	UserExists(ctx context.Context, userID int64) (bool, error)
}

// Engine suggests the next weight/rep target for an exercise using double
// progression over the most recent sessions.
type Engine struct {
	reader  historyReader
	config  Config
	metrics *metrics.Manager
}

func NewEngine(reader historyReader, config Config, metricsManager *metrics.Manager) *Engine {
	return &Engine{
		reader:  reader,
		config:  config,
		metrics: metricsManager,
	}
}

// performance is one session's working sets for the exercise.
type performance struct {
	startedAt time.Time
	weight    float64
	reps      []int
}

func (e *Engine) Suggest(ctx context.Context, req Request) (_ Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.suggest")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", req.UserID))
	span.SetAttributes(attribute.String("exercise_id", req.ExerciseID))

	targetReps, err := e.validate(req)
	if err != nil {
		return Result{}, err
	}

	exists, err := e.reader.UserExists(ctx, req.UserID)
	if err != nil {
		return Result{}, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return Result{}, fmt.Errorf("user %d: %w", req.UserID, training.ErrNotFound)
	}

	exercise, err := e.reader.GetExercise(ctx, req.ExerciseID)
	if err != nil {
		return Result{}, fmt.Errorf("get exercise %s: %w", req.ExerciseID, err)
	}
	increment, err := e.config.Increments.For(exercise.Class)
	if err != nil {
		return Result{}, err
	}

	performances, err := e.recentPerformances(ctx, req.UserID, req.ExerciseID)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		UserID:     req.UserID,
		ExerciseID: req.ExerciseID,
	}

	span.SetAttributes(attribute.Int("sessions_analyzed", len(performances)))
	if len(performances) == 0 {
		result.Rationale = RationaleInsufficientData
		e.record(result)
		return result, nil
	}

	last := performances[0]
	suggestion := &Suggestion{
		Weight:           last.weight,
		TargetReps:       targetReps,
		PreviousWeight:   last.weight,
		Increment:        increment,
		SessionsAnalyzed: len(performances),
	}

	switch {
	case len(performances) >= 2 && hitTarget(performances[0], targetReps) && hitTarget(performances[1], targetReps):
		result.Rationale = RationaleIncrease
		suggestion.Weight = last.weight + increment
	case e.largeMiss(last, targetReps):
		if last.weight-increment < -e.config.Tolerance {
			// nothing to take off (bodyweight, empty bar), keep the load
			result.Rationale = RationaleMaintain
		} else {
			result.Rationale = RationaleDecrease
			suggestion.Weight = max(0, last.weight-increment)
		}
	default:
		result.Rationale = RationaleMaintain
	}

	result.Suggestion = suggestion
	e.record(result)
	return result, nil
}

// recentPerformances returns the newest SessionsLookback performances.
// Sessions holding only warm-up sets are dropped after the fetch, so the
// store is asked for twice the lookback and the window doubles until enough
// performances are found or the history runs out.
func (e *Engine) recentPerformances(ctx context.Context, userID int64, exerciseID string) ([]performance, error) {
	lookback := e.config.SessionsLookback
	limit := 2 * lookback
	for {
		sessions, err := e.reader.FetchSessions(ctx, training.SessionParams{
			UserID:        userID,
			ExerciseID:    exerciseID,
			OnlyCompleted: true,
			Limit:         limit,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch sessions: %w", err)
		}

		performances := collectPerformances(sessions, exerciseID, lookback)
		if len(performances) >= lookback || len(sessions) < limit || limit <= 0 {
			return performances, nil
		}
		limit *= 2
	}
}

func (e *Engine) validate(req Request) (int, error) {
	if req.UserID <= 0 {
		return 0, training.NewValidationError("userId", "must be positive, got %d", req.UserID)
	}
	if req.ExerciseID == "" {
		return 0, training.NewValidationError("exerciseId", "must not be empty")
	}
	if req.TargetReps < 0 {
		return 0, training.NewValidationError("targetReps", "must be positive, got %d", req.TargetReps)
	}
	if req.TargetReps == 0 {
		return e.config.DefaultTargetReps, nil
	}
	return req.TargetReps, nil
}

func (e *Engine) record(result Result) {
	e.metrics.CounterSuggestions.WithLabelValues(result.Rationale.String()).Inc()

	entry := log.WithFields(log.Fields{
		"user":      result.UserID,
		"exercise":  result.ExerciseID,
		"rationale": result.Rationale,
	})
	if result.Suggestion != nil {
		entry = entry.WithField("weight", result.Suggestion.Weight)
	}
	entry.Debug("progression suggestion computed")
}

// largeMiss reports whether any working set fell short of the target by at
// least the configured fraction.
func (e *Engine) largeMiss(p performance, targetReps int) bool {
	limit := float64(targetReps) * (1 - e.config.LargeMissThreshold)
	for _, reps := range p.reps {
		if float64(reps) <= limit+e.config.Tolerance {
			return true
		}
	}
	return false
}

func hitTarget(p performance, targetReps int) bool {
	for _, reps := range p.reps {
		if reps < targetReps {
			return false
		}
	}
	return true
}

// collectPerformances returns up to limit newest-first performances of the
// exercise, skipping open sessions and sessions without working sets.
func collectPerformances(sessions []training.WorkoutSession, exerciseID string, limit int) []performance {
	sorted := make([]training.WorkoutSession, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.After(sorted[j].StartedAt)
	})

	performances := make([]performance, 0, len(sorted))
	for _, s := range sorted {
		if !s.IsCompleted() {
			continue
		}
		exLog, ok := s.Log(exerciseID)
		if !ok {
			continue
		}
		weight, ok := exLog.MaxWorkingWeight()
		if !ok {
			continue
		}

		p := performance{
			startedAt: s.StartedAt,
			weight:    weight,
		}
		for _, set := range exLog.WorkingSets() {
			p.reps = append(p.reps, set.Reps)
		}
		performances = append(performances, p)

		if limit > 0 && len(performances) == limit {
			break
		}
	}
	return performances
}
