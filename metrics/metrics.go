// Package metrics exposes the bot's Prometheus metrics. A nil *Metrics is a
// valid no-op recorder.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"airbnb-bot/utils"
)

const namespace = "airbnb_bot"

type Metrics struct {
	Registry      *prometheus.Registry
	EventsTotal   *prometheus.CounterVec
	SearchesTotal *prometheus.CounterVec
	FeedbackTotal *prometheus.CounterVec
	SearchLatency prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound chat events handled, by kind.",
		}, []string{"kind"}),
		SearchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Listing searches, by outcome.",
		}, []string{"outcome"}),
		FeedbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_total",
			Help:      "Feedback events, by label.",
		}, []string{"label"}),
		SearchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_latency_seconds",
			Help:      "Latency of provider searches.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 40},
		}),
	}

	registry.MustRegister(
		m.EventsTotal,
		m.SearchesTotal,
		m.FeedbackTotal,
		m.SearchLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Event(kind string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(kind).Inc()
}

// Search records one search outcome: "ok", "empty", "cached" or "error".
func (m *Metrics) Search(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	if outcome != "cached" {
		m.SearchLatency.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) Feedback(liked bool) {
	if m == nil {
		return
	}
	label := "dislike"
	if liked {
		label = "like"
	}
	m.FeedbackTotal.WithLabelValues(label).Inc()
}

// Serve exposes /metrics on addr until ctx is done. An empty addr disables it.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *utils.Logger) error {
	if m == nil || addr == "" {
		logger.Info("[metrics] METRICS_ADDR not configured, metrics server will not start")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("[metrics] serving /metrics on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
