package aisvc

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alloyapp/alloy/core/assistant"
)

type instrumentedModel struct {
	next     assistant.Model
	provider string
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Instrument counts and times the calls made to next.
func Instrument(next assistant.Model, provider string, reg prometheus.Registerer) (assistant.Model, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "alloy",
		Subsystem: "ai",
		Name:      "requests_total",
		Help:      "Calls made to the generative model, by provider and outcome.",
	}, []string{"provider", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "alloy",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Latency of calls made to the generative model.",
		Buckets:   []float64{.25, .5, 1, 2, 4, 8, 16, 32, 64},
	}, []string{"provider"})

	var err error
	if requests, err = registerCounter(reg, requests); err != nil {
		return nil, err
	}
	if duration, err = registerHistogram(reg, duration); err != nil {
		return nil, err
	}
	return &instrumentedModel{next: next, provider: provider, requests: requests, duration: duration}, nil
}

func (m *instrumentedModel) SendTurn(ctx context.Context, history []assistant.Turn, prompt string) (string, error) {
	start := time.Now()
	reply, err := m.next.SendTurn(ctx, history, prompt)
	m.duration.WithLabelValues(m.provider).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.requests.WithLabelValues(m.provider, outcome).Inc()
	return reply, err
}

func registerCounter(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec), nil
		}
		return nil, err
	}
	return c, nil
}

func registerHistogram(reg prometheus.Registerer, h *prometheus.HistogramVec) (*prometheus.HistogramVec, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.HistogramVec), nil
		}
		return nil, err
	}
	return h, nil
}
