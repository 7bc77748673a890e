// Package metrics exposes batch counters for prometheus
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics holds the collectors for one process
type Metrics struct {
	registry *prometheus.Registry

	Items        *prometheus.CounterVec
	Writes       *prometheus.CounterVec
	ItemDuration *prometheus.HistogramVec
	InFlight     prometheus.Gauge
}

// New registers the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dutyscrape_items_total",
				Help: "Items processed, by strategy and extraction outcome",
			},
			[]string{"strategy", "outcome"},
		),
		Writes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dutyscrape_writes_total",
				Help: "Store writes, by target and result",
			},
			[]string{"target", "result"},
		),
		ItemDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dutyscrape_item_duration_seconds",
				Help:    "Wall time per item including the write",
				Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"strategy"},
		),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dutyscrape_batch_remaining_items",
			Help: "Items left in the current batch",
		}),
	}
	m.registry.MustRegister(m.Items, m.Writes, m.ItemDuration, m.InFlight)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveItem records one finished item
func (m *Metrics) ObserveItem(strategy, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Items.WithLabelValues(strategy, outcome).Inc()
	m.ItemDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// ObserveWrite records one store write
func (m *Metrics) ObserveWrite(target string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Writes.WithLabelValues(target, result).Inc()
}

// SetRemaining updates the remaining-items gauge
func (m *Metrics) SetRemaining(n int) {
	if m == nil {
		return
	}
	m.InFlight.Set(float64(n))
}

// Serve exposes /metrics on addr until ctx is done
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
