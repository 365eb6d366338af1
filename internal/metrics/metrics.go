package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	llmRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_builder_llm_requests_total",
			Help: "LLM generation requests by prompt kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	llmDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campaign_builder_llm_request_duration_seconds",
			Help:    "LLM generation latency by prompt kind",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"kind"},
	)

	extractions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_builder_extractions_total",
			Help: "Keyword payload extractions by outcome",
		},
		[]string{"outcome"},
	)

	pageFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_builder_page_fetches_total",
			Help: "SEO page fetches by outcome",
		},
		[]string{"outcome"},
	)

	sessionActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_builder_session_actions_total",
			Help: "Planner session actions by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	registerOnce sync.Once
)

// Outcome labels
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Init registers every collector with reg. Must be called once at startup.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(llmRequests, llmDuration, extractions, pageFetches, sessionActions)
	})
}

// ObserveLLMRequest records one LLM call.
func ObserveLLMRequest(kind string, err error, d time.Duration) {
	llmRequests.WithLabelValues(kind, outcome(err)).Inc()
	llmDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordExtraction records one payload extraction attempt.
func RecordExtraction(err error) {
	extractions.WithLabelValues(outcome(err)).Inc()
}

// RecordPageFetch records one page fetch.
func RecordPageFetch(err error) {
	pageFetches.WithLabelValues(outcome(err)).Inc()
}

// RecordSessionAction records one planner action.
func RecordSessionAction(action string, err error) {
	sessionActions.WithLabelValues(action, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
