package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Event("callback")
	m.Event("callback")
	m.Search("ok", 300*time.Millisecond)
	m.Search("cached", 0)
	m.Feedback(true)
	m.Feedback(false)
	m.Feedback(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("callback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchesTotal.WithLabelValues("cached")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedbackTotal.WithLabelValues("like")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FeedbackTotal.WithLabelValues("dislike")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SearchLatency))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Event("text")
		m.Search("error", time.Second)
		m.Feedback(true)
	})
}
