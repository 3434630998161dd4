package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterSuggestions          *prometheus.CounterVec
	CounterDeloadEvaluations    prometheus.Counter
	CounterDeloadsRecommended   *prometheus.CounterVec
	CounterDeloadsScheduled     *prometheus.CounterVec
	CounterSchedulingConflicts  *prometheus.CounterVec
	CounterMesocyclesCreated    *prometheus.CounterVec
	CounterMesocycleTransitions *prometheus.CounterVec

	// histograms
	HistDeloadConfidence prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("trainload", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("trainload", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterSuggestions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "progression_suggestions",
		Help:      "The total number of progression suggestions, by rationale",
	}, []string{"rationale"})
	counterDeloadEvaluations := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "deload_evaluations",
		Help:      "The total number of deload necessity evaluations",
	})
	counterDeloadsRecommended := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "deloads_recommended",
		Help:      "The total number of evaluations that recommended a deload, by type",
	}, []string{"type"})
	counterDeloadsScheduled := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "deloads_scheduled",
		Help:      "The total number of scheduled deload weeks, by type",
	}, []string{"type"})
	counterSchedulingConflicts := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "scheduling_conflicts",
		Help:      "The total number of rejected schedule/activate calls",
	}, []string{"kind"})
	counterMesocyclesCreated := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "mesocycles_created",
		Help:      "The total number of created mesocycles, by periodization type",
	}, []string{"type"})
	counterMesocycleTransitions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "mesocycle_transitions",
		Help:      "The total number of mesocycle state transitions, by operation",
	}, []string{"operation"})

	histDeloadConfidence := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			Name:      "deload_confidence",
			Help:      "Distribution of computed deload confidence scores",
		},
	)

	return &Manager{
		CounterSuggestions:          counterSuggestions,
		CounterDeloadEvaluations:    counterDeloadEvaluations,
		CounterDeloadsRecommended:   counterDeloadsRecommended,
		CounterDeloadsScheduled:     counterDeloadsScheduled,
		CounterSchedulingConflicts:  counterSchedulingConflicts,
		CounterMesocyclesCreated:    counterMesocyclesCreated,
		CounterMesocycleTransitions: counterMesocycleTransitions,
		HistDeloadConfidence:        histDeloadConfidence,
	}
}
