// Package metrics expone contadores e histogramas del motor de evaluacion.
// Todos los metodos aceptan receptor nil para que los tests no necesiten registrar nada.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Rondas de orquestacion por accion emitida (ask_question / final_result)
	Rounds *prometheus.CounterVec

	// Commits por motivo: early_stop, clarification, question_budget, bank_exhausted
	Commits *prometheus.CounterVec

	ClarifyRounds prometheus.Counter

	// Secciones del reporte degradadas a placeholder
	SectionFailures *prometheus.CounterVec

	ReportLatency prometheus.Histogram

	MarketFetchLatency *prometheus.HistogramVec

	ActiveSessions prometheus.Gauge
}

// New registra las metricas en reg. Con reg nil usa el registry global.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Rounds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pathforge_orchestrate_rounds_total",
			Help: "Orchestration rounds by emitted action",
		}, []string{"action"}),

		Commits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pathforge_commits_total",
			Help: "Committed assessments by commit reason",
		}, []string{"reason"}),

		ClarifyRounds: f.NewCounter(prometheus.CounterOpts{
			Name: "pathforge_clarify_rounds_total",
			Help: "Clarification questions issued to break near-ties",
		}),

		SectionFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pathforge_report_section_failures_total",
			Help: "Report sections replaced by an unavailable placeholder",
		}, []string{"section"}),

		ReportLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pathforge_report_duration_seconds",
			Help:    "Duration of final report assembly",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		MarketFetchLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pathforge_market_fetch_duration_seconds",
			Help:    "Duration of market data lookups by source",
			Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"source"}),

		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "pathforge_active_sessions",
			Help: "Assessment sessions currently held in memory",
		}),
	}
}

func (m *Metrics) IncRound(action string) {
	if m != nil {
		m.Rounds.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) IncCommit(reason string) {
	if m != nil {
		m.Commits.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncClarify() {
	if m != nil {
		m.ClarifyRounds.Inc()
	}
}

func (m *Metrics) IncSectionFailure(section string) {
	if m != nil {
		m.SectionFailures.WithLabelValues(section).Inc()
	}
}

func (m *Metrics) ObserveReportLatency(d time.Duration) {
	if m != nil {
		m.ReportLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveMarketFetch(source string, d time.Duration) {
	if m != nil {
		m.MarketFetchLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

func (m *Metrics) SetActiveSessions(n int) {
	if m != nil {
		m.ActiveSessions.Set(float64(n))
	}
}
