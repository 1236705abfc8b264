package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for chat sessions.
type ConversationMetrics struct {
	turnsTotal         *prometheus.CounterVec
	generationTotal    *prometheus.CounterVec
	generationLatency  prometheus.Histogram
	interviewsStarted  prometheus.Counter
	leadSavesTotal     *prometheus.CounterVec
	activeSessions     prometheus.Gauge
	observerErrorTotal *prometheus.CounterVec
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Turns appended to session transcripts",
		}, []string{"speaker", "mode"}),
		generationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "generation",
			Name:      "requests_total",
			Help:      "Text generation calls by outcome",
		}, []string{"outcome"}),
		generationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadchat",
			Subsystem: "generation",
			Name:      "latency_seconds",
			Help:      "Latency of text generation calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		interviewsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "interview",
			Name:      "started_total",
			Help:      "Interviews started after a trigger",
		}),
		leadSavesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "leads",
			Name:      "saves_total",
			Help:      "Completed interviews handed to the lead store",
		}, []string{"status"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "leadchat",
			Subsystem: "webchat",
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory",
		}),
		observerErrorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "leads",
			Name:      "observer_errors_total",
			Help:      "Failures in post-save lead observers",
		}, []string{"observer"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.turnsTotal,
		m.generationTotal,
		m.generationLatency,
		m.interviewsStarted,
		m.leadSavesTotal,
		m.activeSessions,
		m.observerErrorTotal,
	)
	return m
}

func (m *ConversationMetrics) ObserveTurn(speaker, mode string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(speaker, mode).Inc()
}

// ObserveGeneration records one gateway call. outcome is "ok", "error" or "empty".
func (m *ConversationMetrics) ObserveGeneration(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.generationTotal.WithLabelValues(outcome).Inc()
	m.generationLatency.Observe(seconds)
}

func (m *ConversationMetrics) InterviewStarted() {
	if m == nil {
		return
	}
	m.interviewsStarted.Inc()
}

func (m *ConversationMetrics) ObserveLeadSave(ok bool) {
	if m == nil {
		return
	}
	status := "saved"
	if !ok {
		status = "failed"
	}
	m.leadSavesTotal.WithLabelValues(status).Inc()
}

func (m *ConversationMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func (m *ConversationMetrics) ObserveObserverError(observer string) {
	if m == nil {
		return
	}
	m.observerErrorTotal.WithLabelValues(observer).Inc()
}
