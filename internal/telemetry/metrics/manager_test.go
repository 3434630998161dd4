package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func familiesByName(t *testing.T, reg prometheus.Gatherer) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}
	return byName
}

func TestNewManager(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()

	m.CounterSuggestions.WithLabelValues("INCREASE").Inc()
	m.CounterSuggestions.WithLabelValues("INCREASE").Inc()
	m.CounterSuggestions.WithLabelValues("MAINTAIN").Inc()
	m.CounterDeloadEvaluations.Inc()
	m.HistDeloadConfidence.Observe(65)
	m.HistDeloadConfidence.Observe(5)

	families := familiesByName(t, reg)

	suggestions := families["trainload_test_progression_suggestions"]
	require.NotNil(t, suggestions)
	assert.Equal(t, dto.MetricType_COUNTER, suggestions.GetType())
	require.Len(t, suggestions.GetMetric(), 2)
	byRationale := map[string]float64{}
	for _, metric := range suggestions.GetMetric() {
		require.Len(t, metric.GetLabel(), 1)
		byRationale[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"INCREASE": 2, "MAINTAIN": 1}, byRationale)

	confidence := families["trainload_test_deload_confidence"]
	require.NotNil(t, confidence)
	require.Len(t, confidence.GetMetric(), 1)
	hist := confidence.GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(2), hist.GetSampleCount())
	assert.Equal(t, 70.0, hist.GetSampleSum())
	assert.Len(t, hist.GetBucket(), 11)

	// vectors without observations are not exported
	assert.NotContains(t, families, "trainload_test_deloads_scheduled")
}

func TestNewManager_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewManager("trainload", "cli", reg)
	assert.Panics(t, func() {
		NewManager("trainload", "cli", reg)
	})
}

func TestSetupPrometheus(t *testing.T) {
	reg := SetupPrometheus()
	families := familiesByName(t, reg)
	assert.Contains(t, families, "go_goroutines")
	assert.Contains(t, families, "go_build_info")
}
