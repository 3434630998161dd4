package deload

import (
	"sort"
	"time"

	"github.com/2beens/trainload/internal/gymstats/training"
)

// Metrics are the raw training indicators the signals are scored from.
type Metrics struct {
	ConsecutiveWeeks int `json:"consecutiveWeeks"`
	// DaysSinceLastDeload is nil when the user never completed a deload.
	DaysSinceLastDeload *int     `json:"daysSinceLastDeload,omitempty"`
	RPETrend            float64  `json:"rpeTrend"`
	RatedSets           int      `json:"ratedSets"`
	DecliningSessions   int      `json:"decliningSessions"`
	PlateauedExercises  []string `json:"plateauedExercises"`
	SessionsLast7Days   int      `json:"sessionsLast7Days"`
}

const (
	minRatedSets        = 5
	decliningWindow     = 6
	plateauMinSessions  = 3
	decliningRepsFactor = 0.9
)

type metricsParams struct {
	now                time.Time
	lookbackWeeks      int
	plateauWindowWeeks int
	tolerance          float64
}

// computeMetrics derives the indicators from completed sessions (any order)
// and the user's deload history.
func computeMetrics(sessions []training.WorkoutSession, deloads []training.DeloadWeek, p metricsParams) Metrics {
	chronological := make([]training.WorkoutSession, 0, len(sessions))
	lookbackStart := p.now.Add(-time.Duration(p.lookbackWeeks) * training.Week)
	for _, s := range sessions {
		if !s.IsCompleted() || s.StartedAt.Before(lookbackStart) || s.StartedAt.After(p.now) {
			continue
		}
		chronological = append(chronological, s)
	}
	sort.SliceStable(chronological, func(i, j int) bool {
		return chronological[i].StartedAt.Before(chronological[j].StartedAt)
	})

	trend, rated := rpeTrend(chronological)
	return Metrics{
		ConsecutiveWeeks:    consecutiveWeeks(chronological, p.now, p.lookbackWeeks),
		DaysSinceLastDeload: daysSinceLastDeload(deloads, p.now),
		RPETrend:            trend,
		RatedSets:           rated,
		DecliningSessions:   decliningSessions(chronological),
		PlateauedExercises:  plateauedExercises(chronological, p.now.Add(-time.Duration(p.plateauWindowWeeks)*training.Week), p.tolerance),
		SessionsLast7Days:   sessionsSince(chronological, p.now.Add(-training.Week)),
	}
}

// consecutiveWeeks scans rolling 7-day windows backwards from now and stops
// at the first window without a session.
func consecutiveWeeks(sessions []training.WorkoutSession, now time.Time, maxWeeks int) int {
	weeks := 0
	for weeks < maxWeeks {
		end := now.Add(-time.Duration(weeks) * training.Week)
		start := end.Add(-training.Week)
		found := false
		for _, s := range sessions {
			if s.StartedAt.After(start) && !s.StartedAt.After(end) {
				found = true
				break
			}
		}
		if !found {
			break
		}
		weeks++
	}
	return weeks
}

// daysSinceLastDeload is measured from the end of the latest completed deload.
func daysSinceLastDeload(deloads []training.DeloadWeek, now time.Time) *int {
	var last *training.DeloadWeek
	for i := range deloads {
		d := deloads[i]
		if !d.Completed || d.Skipped || d.Start.After(now) {
			continue
		}
		if last == nil || d.End.After(last.End) {
			last = &deloads[i]
		}
	}
	if last == nil {
		return nil
	}
	days := max(0, training.DaysBetween(last.End, now))
	return &days
}

// rpeTrend returns the mean RPE of the last third of rated working sets minus
// the mean of the first third, and the number of rated sets. Fewer than
// minRatedSets yields a zero trend.
func rpeTrend(chronological []training.WorkoutSession) (float64, int) {
	var ratings []float64
	for _, s := range chronological {
		for _, l := range s.Exercises {
			for _, set := range l.Sets {
				if set.Type.IsWorking() && set.RPE != nil {
					ratings = append(ratings, *set.RPE)
				}
			}
		}
	}
	if len(ratings) < minRatedSets {
		return 0, len(ratings)
	}

	third := len(ratings) / 3
	return mean(ratings[len(ratings)-third:]) - mean(ratings[:third]), len(ratings)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// decliningSessions counts, within the newest decliningWindow sessions, those
// whose total working reps dropped below 90% of the preceding session.
func decliningSessions(chronological []training.WorkoutSession) int {
	window := chronological
	if len(window) > decliningWindow {
		window = window[len(window)-decliningWindow:]
	}
	if len(window) < 2 {
		return 0
	}

	declining := 0
	for i := 1; i < len(window); i++ {
		prev := window[i-1].TotalWorkingReps()
		if prev == 0 {
			continue
		}
		if float64(window[i].TotalWorkingReps()) < decliningRepsFactor*float64(prev) {
			declining++
		}
	}
	return declining
}

// plateauedExercises returns, sorted, the exercises whose session max working
// weight did not beat the running best for plateauMinSessions consecutive
// sessions started after windowStart.
func plateauedExercises(chronological []training.WorkoutSession, windowStart time.Time, tolerance float64) []string {
	type progress struct {
		best   float64
		seen   bool
		streak int
	}

	byExercise := make(map[string]*progress)
	for _, s := range chronological {
		for _, l := range s.Exercises {
			weight, ok := l.MaxWorkingWeight()
			if !ok {
				continue
			}

			p, ok := byExercise[l.ExerciseID]
			if !ok {
				p = &progress{}
				byExercise[l.ExerciseID] = p
			}
			switch {
			case !p.seen:
				p.best = weight
				p.seen = true
			case weight > p.best+tolerance:
				p.best = weight
				p.streak = 0
			case s.StartedAt.After(windowStart):
				p.streak++
			}
		}
	}

	plateaued := make([]string, 0)
	for exerciseID, p := range byExercise {
		if p.streak >= plateauMinSessions {
			plateaued = append(plateaued, exerciseID)
		}
	}
	sort.Strings(plateaued)
	return plateaued
}

func sessionsSince(chronological []training.WorkoutSession, since time.Time) int {
	count := 0
	for _, s := range chronological {
		if s.StartedAt.After(since) {
			count++
		}
	}
	return count
}
