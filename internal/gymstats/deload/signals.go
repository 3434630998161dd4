package deload

import (
	"fmt"
	"strings"
)

// Score is the contribution of a single signal. Reason is empty when the
// signal scored nothing.
type Score struct {
	Points int    `json:"points"`
	Reason string `json:"reason,omitempty"`
}

// Signal is a pure evaluator of one fatigue indicator.
type Signal struct {
	Name     string
	Evaluate func(m Metrics) Score
}

// SignalScore is a Score tagged with the signal name.
type SignalScore struct {
	Name string `json:"name"`
	Score
}

const (
	SignalConsecutiveWeeks = "consecutive_weeks"
	SignalTimeSinceDeload  = "time_since_deload"
	SignalRPETrend         = "rpe_trend"
	SignalDecliningReps    = "declining_sessions"
	SignalPlateaus         = "plateaued_exercises"

	maxConfidence = 100

	genericRationale = "Periodic recovery week to consolidate recent training adaptations"
)

// Signals are evaluated in this order; the rationale follows it too.
var Signals = []Signal{
	{Name: SignalConsecutiveWeeks, Evaluate: scoreConsecutiveWeeks},
	{Name: SignalTimeSinceDeload, Evaluate: scoreTimeSinceDeload},
	{Name: SignalRPETrend, Evaluate: scoreRPETrend},
	{Name: SignalDecliningReps, Evaluate: scoreDecliningSessions},
	{Name: SignalPlateaus, Evaluate: scorePlateaus},
}

func scoreConsecutiveWeeks(m Metrics) Score {
	reason := fmt.Sprintf("%d consecutive weeks of training without a break", m.ConsecutiveWeeks)
	switch {
	case m.ConsecutiveWeeks >= 6:
		return Score{Points: 30, Reason: reason}
	case m.ConsecutiveWeeks >= 4:
		return Score{Points: 20, Reason: reason}
	default:
		return Score{}
	}
}

func scoreTimeSinceDeload(m Metrics) Score {
	if m.DaysSinceLastDeload == nil {
		if m.ConsecutiveWeeks >= 4 {
			return Score{Points: 20, Reason: "no deload on record after a sustained training streak"}
		}
		return Score{}
	}

	days := *m.DaysSinceLastDeload
	reason := fmt.Sprintf("%d days since the last deload", days)
	switch {
	case days > 56:
		return Score{Points: 25, Reason: reason}
	case days > 35:
		return Score{Points: 15, Reason: reason}
	default:
		return Score{}
	}
}

func scoreRPETrend(m Metrics) Score {
	if m.RatedSets < minRatedSets {
		return Score{}
	}
	reason := fmt.Sprintf("perceived effort (RPE) rising by %.2f", m.RPETrend)
	switch {
	case m.RPETrend > 0.5:
		return Score{Points: 20, Reason: reason}
	case m.RPETrend > 0.25:
		return Score{Points: 10, Reason: reason}
	default:
		return Score{}
	}
}

func scoreDecliningSessions(m Metrics) Score {
	reason := fmt.Sprintf("total reps dropped in %d recent sessions", m.DecliningSessions)
	switch {
	case m.DecliningSessions >= 3:
		return Score{Points: 15, Reason: reason}
	case m.DecliningSessions >= 2:
		return Score{Points: 10, Reason: reason}
	default:
		return Score{}
	}
}

func scorePlateaus(m Metrics) Score {
	n := len(m.PlateauedExercises)
	reason := fmt.Sprintf("%d plateaued exercises (%s)", n, strings.Join(m.PlateauedExercises, ", "))
	switch {
	case n >= 3:
		return Score{Points: 10, Reason: reason}
	case n >= 1:
		return Score{Points: 5, Reason: reason}
	default:
		return Score{}
	}
}

// Evaluate runs signals over m and returns the capped confidence, the
// per-signal scores and the combined rationale.
func Evaluate(signals []Signal, m Metrics) (int, []SignalScore, string) {
	total := 0
	scores := make([]SignalScore, 0, len(signals))
	var reasons []string
	for _, s := range signals {
		score := s.Evaluate(m)
		scores = append(scores, SignalScore{Name: s.Name, Score: score})
		if score.Points > 0 {
			total += score.Points
			reasons = append(reasons, score.Reason)
		}
	}

	rationale := genericRationale
	if len(reasons) > 0 {
		rationale = strings.Join(reasons, "; ")
	}
	return min(maxConfidence, total), scores, rationale
}
