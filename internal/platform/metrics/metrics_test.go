package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"assembly/contexts/assembly/voting-engine/domain/entities"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCounters(t *testing.T) {
	m := NewPrometheus()
	m.BallotAdmitted(entities.ChoiceYes)
	m.BallotAdmitted(entities.ChoiceYes)
	m.BallotAdmitted(entities.ChoiceNo)
	m.BallotRejected("already_voted")
	m.BallotReplayed("duplicate")
	m.OutboxPublished("ballot.accepted")
	m.OutboxPublishFailed("ballot.accepted")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ballotsAdmitted.WithLabelValues("YES")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ballotsAdmitted.WithLabelValues("NO")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ballotsRejected.WithLabelValues("already_voted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ballotsReplayed.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outboxPublished.WithLabelValues("ballot.accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outboxFailed.WithLabelValues("ballot.accepted")))
}

func TestPrometheusHandlerExposesVotingSeries(t *testing.T) {
	m := NewPrometheus()
	m.BallotAdmitted(entities.ChoiceNo)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `assembly_voting_ballots_admitted_total{choice="NO"} 1`)
}
