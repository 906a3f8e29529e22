package grammarbot_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-grammarbot/pkg/grammarbot"
)

func TestPrometheusRecorder(t *testing.T) {
	t.Parallel()

	fixture := loadFixture(t)
	var calls atomic.Int32
	reg := prom.NewRegistry()
	rec := grammarbot.NewPrometheusRecorder(reg)

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}
		_, _ = w.Write(fixture)
	},
		grammarbot.WithRecorder(rec),
		grammarbot.WithRetryPolicy(grammarbot.NewPolicy(grammarbot.BackoffFixed, time.Millisecond, time.Millisecond, 1)),
	)

	_, err := client.Check(context.Background(), sampleText)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	series := map[string]int{}
	for _, mf := range families {
		names = append(names, mf.GetName())
		series[mf.GetName()] = len(mf.GetMetric())
	}
	assert.ElementsMatch(t, []string{
		"grammarbot_requests_total",
		"grammarbot_request_duration_seconds",
		"grammarbot_retries_total",
		"grammarbot_matches",
	}, names)

	// one series per status code
	assert.Equal(t, 2, series["grammarbot_requests_total"])
	assert.Equal(t, 1, series["grammarbot_retries_total"])

	for _, mf := range families {
		if mf.GetName() != "grammarbot_retries_total" {
			continue
		}
		assert.InDelta(t, 1, mf.GetMetric()[0].GetCounter().GetValue(), 0)
	}
}

func TestNoopRecorder(t *testing.T) {
	t.Parallel()

	var rec grammarbot.Recorder = grammarbot.NoopRecorder{}
	rec.ObserveRequest("200", time.Second)
	rec.IncRetry()
	rec.ObserveMatches(3)
}
