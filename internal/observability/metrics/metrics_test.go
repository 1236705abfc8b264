package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func counterWithLabel(mf *dto.MetricFamily, name, value string) float64 {
	for _, metric := range mf.GetMetric() {
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == name && lp.GetValue() == value {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestConversationMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConversationMetrics(reg)

	m.ObserveTurn("visitor", "freeform")
	m.ObserveTurn("visitor", "freeform")
	m.ObserveGeneration("ok", 0.7)
	m.ObserveGeneration("error", 30)
	m.InterviewStarted()
	m.ObserveLeadSave(true)
	m.ObserveLeadSave(false)
	m.SetActiveSessions(4)
	m.ObserveObserverError("email")

	families := gather(t, reg)

	assert.Equal(t, 2.0, counterWithLabel(families["leadchat_conversation_turns_total"], "speaker", "visitor"))
	assert.Equal(t, 1.0, counterWithLabel(families["leadchat_generation_requests_total"], "outcome", "error"))
	assert.Equal(t, uint64(2), families["leadchat_generation_latency_seconds"].GetMetric()[0].GetHistogram().GetSampleCount())
	assert.Equal(t, 1.0, families["leadchat_interview_started_total"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 1.0, counterWithLabel(families["leadchat_leads_saves_total"], "status", "failed"))
	assert.Equal(t, 4.0, families["leadchat_webchat_active_sessions"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 1.0, counterWithLabel(families["leadchat_leads_observer_errors_total"], "observer", "email"))
}

func TestConversationMetricsNilSafe(t *testing.T) {
	var m *ConversationMetrics
	m.ObserveTurn("assistant", "interviewing")
	m.ObserveGeneration("ok", 0.1)
	m.InterviewStarted()
	m.ObserveLeadSave(true)
	m.SetActiveSessions(1)
	m.ObserveObserverError("nats")
}
