package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/2beens/trainload/internal/gymstats/deload"
	"github.com/2beens/trainload/internal/gymstats/periodization"
	"github.com/2beens/trainload/internal/gymstats/progression"
	"github.com/2beens/trainload/internal/gymstats/training"
)

type command struct {
	usage string
	// run is nil for commands that do not need the wired components.
	run func(ctx context.Context, a *app, args []string) (any, error)
}

var commands = map[string]command{
	"migrate":            {usage: "apply the postgres schema migrations"},
	"suggest":            {usage: "next load for an exercise: -user -exercise [-target-reps]", run: runSuggest},
	"evaluate":           {usage: "deload necessity for a user: -user", run: runEvaluate},
	"schedule-deload":    {usage: "schedule a deload week: -user [-start YYYY-MM-DD] [-type] [-reason]", run: runScheduleDeload},
	"complete-deload":    {usage: "mark a deload week completed: -id", run: runCompleteDeload},
	"skip-deload":        {usage: "mark a deload week skipped: -id", run: runSkipDeload},
	"deload-history":     {usage: "list the deload weeks of a user: -user", run: runDeloadHistory},
	"create-mesocycle":   {usage: "plan a mesocycle: -user -weeks -type -goal", run: runCreateMesocycle},
	"start-mesocycle":    {usage: "start a planned mesocycle: -id", run: runStartMesocycle},
	"advance-mesocycle":  {usage: "move an active mesocycle to its next week: -id", run: runAdvanceMesocycle},
	"complete-mesocycle": {usage: "complete a mesocycle in its final week: -id", run: runCompleteMesocycle},
	"cancel-mesocycle":   {usage: "cancel a planned or active mesocycle: -id", run: runCancelMesocycle},
	"update-week":        {usage: "change future week parameters: -id -week -volume -intensity [-week-type]", run: runUpdateWeek},
	"mesocycles":         {usage: "list the mesocycles of a user: -user", run: runListMesocycles},
	"multiplier":         {usage: "effective load multiplier for the current week: -user", run: runMultiplier},
	"advise":             {usage: "suggestion next to the effective multiplier: -user -exercise [-target-reps]", run: runAdvise},
	"exercise-history":   {usage: "per-day working set stats: -user -exercise [-since YYYY-MM-DD]", run: runExerciseHistory},
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return training.NewValidationError(fs.Name(), "%s", err)
	}
	if fs.NArg() > 0 {
		return training.NewValidationError(fs.Name(), "unexpected arguments %v", fs.Args())
	}
	return nil
}

func requirePositive(field string, v int64) error {
	if v <= 0 {
		return training.NewValidationError(field, "required, must be positive")
	}
	return nil
}

// parseDate accepts YYYY-MM-DD (UTC midnight) or RFC 3339.
func parseDate(field, value string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, training.NewValidationError(field, "expected YYYY-MM-DD or RFC 3339, got %q", value)
	}
	return t, nil
}

func progressionRequest(name string, args []string) (progression.Request, error) {
	fs := newFlagSet(name)
	userID := fs.Int64("user", 0, "user id")
	exerciseID := fs.String("exercise", "", "exercise id")
	targetReps := fs.Int("target-reps", 0, "target reps (configured default when 0)")
	if err := parseFlags(fs, args); err != nil {
		return progression.Request{}, err
	}
	return progression.Request{
		UserID:     *userID,
		ExerciseID: *exerciseID,
		TargetReps: *targetReps,
	}, nil
}

func runSuggest(ctx context.Context, a *app, args []string) (any, error) {
	req, err := progressionRequest("suggest", args)
	if err != nil {
		return nil, err
	}
	return a.engine.Suggest(ctx, req)
}

func userFlag(name string, args []string) (int64, error) {
	fs := newFlagSet(name)
	userID := fs.Int64("user", 0, "user id")
	if err := parseFlags(fs, args); err != nil {
		return 0, err
	}
	return *userID, requirePositive("user", *userID)
}

func idFlag(name string, args []string) (int64, error) {
	fs := newFlagSet(name)
	id := fs.Int64("id", 0, "record id")
	if err := parseFlags(fs, args); err != nil {
		return 0, err
	}
	return *id, requirePositive("id", *id)
}

func runEvaluate(ctx context.Context, a *app, args []string) (any, error) {
	userID, err := userFlag("evaluate", args)
	if err != nil {
		return nil, err
	}
	return a.detector.Evaluate(ctx, userID)
}

// runScheduleDeload fills a missing start or type from a fresh evaluation.
func runScheduleDeload(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlagSet("schedule-deload")
	userID := fs.Int64("user", 0, "user id")
	start := fs.String("start", "", "first day, YYYY-MM-DD (next monday when empty)")
	deloadType := fs.String("type", "", "VOLUME_REDUCTION | INTENSITY_REDUCTION | ACTIVE_RECOVERY (recommended when empty)")
	reason := fs.String("reason", "", "free text reason")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	if err := requirePositive("user", *userID); err != nil {
		return nil, err
	}

	params := deload.ScheduleParams{
		UserID: *userID,
		Type:   training.DeloadType(*deloadType),
		Reason: *reason,
	}
	if *start != "" {
		t, err := parseDate("start", *start)
		if err != nil {
			return nil, err
		}
		params.Start = t
	}

	if params.Start.IsZero() || params.Type == "" {
		rec, err := a.detector.Evaluate(ctx, *userID)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %w", err)
		}
		if params.Start.IsZero() {
			params.Start = rec.SuggestedStart
		}
		if params.Type == "" {
			params.Type = rec.Type
		}
	}

	return a.detector.Schedule(ctx, params)
}

func runCompleteDeload(ctx context.Context, a *app, args []string) (any, error) {
	id, err := idFlag("complete-deload", args)
	if err != nil {
		return nil, err
	}
	return a.detector.Complete(ctx, id)
}

func runSkipDeload(ctx context.Context, a *app, args []string) (any, error) {
	id, err := idFlag("skip-deload", args)
	if err != nil {
		return nil, err
	}
	return a.detector.Skip(ctx, id)
}

func runDeloadHistory(ctx context.Context, a *app, args []string) (any, error) {
	userID, err := userFlag("deload-history", args)
	if err != nil {
		return nil, err
	}
	return a.detector.History(ctx, userID)
}

func runCreateMesocycle(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlagSet("create-mesocycle")
	userID := fs.Int64("user", 0, "user id")
	weeks := fs.Int("weeks", 0, "duration in weeks")
	periodizationType := fs.String("type", string(training.PeriodizationLinear), "LINEAR | UNDULATING | BLOCK")
	goal := fs.String("goal", string(training.GoalGeneral), "hypertrophy | strength | power | endurance | general")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	return a.planner.CreateMesocycle(ctx, periodization.CreateParams{
		UserID:        *userID,
		DurationWeeks: *weeks,
		Type:          training.PeriodizationType(*periodizationType),
		Goal:          training.TrainingGoal(*goal),
	})
}

func runStartMesocycle(ctx context.Context, a *app, args []string) (any, error) {
	id, err := idFlag("start-mesocycle", args)
	if err != nil {
		return nil, err
	}
	return a.planner.Start(ctx, id)
}

func runAdvanceMesocycle(ctx context.Context, a *app, args []string) (any, error) {
	id, err := idFlag("advance-mesocycle", args)
	if err != nil {
		return nil, err
	}
	return a.planner.Advance(ctx, id)
}

func runCompleteMesocycle(ctx context.Context, a *app, args []string) (any, error) {
	id, err := idFlag("complete-mesocycle", args)
	if err != nil {
		return nil, err
	}
	return a.planner.Complete(ctx, id)
}

func runCancelMesocycle(ctx context.Context, a *app, args []string) (any, error) {
	id, err := idFlag("cancel-mesocycle", args)
	if err != nil {
		return nil, err
	}
	return a.planner.Cancel(ctx, id)
}

func runUpdateWeek(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlagSet("update-week")
	id := fs.Int64("id", 0, "mesocycle id")
	week := fs.Int("week", 0, "week number")
	volume := fs.Float64("volume", 0, "volume multiplier")
	intensity := fs.Float64("intensity", 0, "intensity multiplier")
	weekType := fs.String("week-type", "", "week type (unchanged when empty)")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	return a.planner.UpdateWeek(ctx, periodization.UpdateWeekParams{
		MesocycleID:         *id,
		WeekNumber:          *week,
		VolumeMultiplier:    *volume,
		IntensityMultiplier: *intensity,
		Type:                training.WeekType(*weekType),
	})
}

func runListMesocycles(ctx context.Context, a *app, args []string) (any, error) {
	userID, err := userFlag("mesocycles", args)
	if err != nil {
		return nil, err
	}
	return a.planner.List(ctx, userID)
}

func runMultiplier(ctx context.Context, a *app, args []string) (any, error) {
	userID, err := userFlag("multiplier", args)
	if err != nil {
		return nil, err
	}
	return a.combiner.EffectiveMultiplier(ctx, userID)
}

func runAdvise(ctx context.Context, a *app, args []string) (any, error) {
	req, err := progressionRequest("advise", args)
	if err != nil {
		return nil, err
	}
	return a.combiner.Advise(ctx, req)
}

func runExerciseHistory(ctx context.Context, a *app, args []string) (any, error) {
	fs := newFlagSet("exercise-history")
	userID := fs.Int64("user", 0, "user id")
	exerciseID := fs.String("exercise", "", "exercise id")
	sinceFlag := fs.String("since", "", "first day, YYYY-MM-DD (whole history when empty)")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}

	var since *time.Time
	if *sinceFlag != "" {
		t, err := parseDate("since", *sinceFlag)
		if err != nil {
			return nil, err
		}
		since = &t
	}
	return a.stats.ExerciseHistory(ctx, *userID, *exerciseID, since)
}
