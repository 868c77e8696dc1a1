package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncRound("ask_question")
		m.IncCommit("early_stop")
		m.IncClarify()
		m.IncSectionFailure("market_intelligence")
		m.ObserveReportLatency(time.Millisecond)
		m.ObserveMarketFetch("catalog", time.Millisecond)
		m.SetActiveSessions(3)
	})
}

func TestMetricsRecordOnOwnRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncRound("ask_question")
	m.IncRound("ask_question")
	m.IncRound("final_result")
	m.IncCommit("clarification")
	m.IncClarify()
	m.SetActiveSessions(4)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Rounds.WithLabelValues("ask_question")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Rounds.WithLabelValues("final_result")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Commits.WithLabelValues("clarification")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ClarifyRounds), 1e-9)
	assert.InDelta(t, 4, testutil.ToFloat64(m.ActiveSessions), 1e-9)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewTwiceOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
