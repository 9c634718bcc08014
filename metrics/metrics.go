// Package metrics provides Prometheus metrics for the crystal reader and bonding.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kyberd/events"
)

var (
	readerPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kyberd",
		Subsystem: "reader",
		Name:      "polls_total",
		Help:      "Reader queries, by whether a tag was present",
	}, []string{"present"})

	readerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "kyberd",
		Subsystem: "reader",
		Name:      "state",
		Help:      "1 for the current reader lifecycle state",
	}, []string{"state"})

	crystalsSeen = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kyberd",
		Subsystem: "crystal",
		Name:      "seen_total",
		Help:      "Crystals that arrived in the reader field",
	})

	crystalBonds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kyberd",
		Subsystem: "crystal",
		Name:      "bonds_total",
		Help:      "Crystals bonded, by preset name",
	}, []string{"preset"})

	applyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kyberd",
		Subsystem: "crystal",
		Name:      "apply_failures_total",
		Help:      "Failed apply steps, by step",
	}, []string{"step"})

	mainPower = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "kyberd",
		Subsystem: "blade",
		Name:      "on",
		Help:      "1 while the main output is on",
	})
)

var readerStates = []string{"uninitialized", "active", "sleeping"}

// Subscribe keeps the metrics current from bus events.
// Returns a function that removes every subscription.
func Subscribe(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.ReaderPolled) {
			if e.Present {
				readerPolls.WithLabelValues("true").Inc()
			} else {
				readerPolls.WithLabelValues("false").Inc()
			}
		}),
		bus.Subscribe(func(e events.CrystalBonded) {
			crystalsSeen.Inc()
			crystalBonds.WithLabelValues(e.PresetName).Inc()
		}),
		bus.Subscribe(func(e events.ApplyFailed) {
			applyFailures.WithLabelValues(e.Step).Inc()
		}),
		bus.Subscribe(func(e events.ReaderStateChanged) {
			SetReaderState(e.State)
		}),
		bus.Subscribe(func(e events.PowerChanged) {
			if e.On {
				mainPower.Set(1)
			} else {
				mainPower.Set(0)
			}
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// SetReaderState marks state as the current reader state.
func SetReaderState(state string) {
	for _, s := range readerStates {
		if s == state {
			readerState.WithLabelValues(s).Set(1)
		} else {
			readerState.WithLabelValues(s).Set(0)
		}
	}
}

// HTTPHandler returns the Prometheus metrics HTTP handler.
func HTTPHandler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", HTTPHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("Metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
