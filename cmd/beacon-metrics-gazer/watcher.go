package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dapplion/beacon-metrics-gazer/pkg/aggregate"
	"github.com/dapplion/beacon-metrics-gazer/pkg/beacon"
	"github.com/dapplion/beacon-metrics-gazer/pkg/slog"
)

type ParticipationWatcher struct {
	provider   beacon.Provider
	aggregator *aggregate.Aggregator
	logger     *zap.SugaredLogger

	pollInterval time.Duration
	// dump receives a table after every successful poll, when set
	dump io.Writer

	// prometheus:
	PollErrorsMetric    prometheus.Counter
	LastPollEpochMetric prometheus.Gauge
}

func NewParticipationWatcher(
	provider beacon.Provider, aggregator *aggregate.Aggregator, pollInterval time.Duration, dump io.Writer,
) *ParticipationWatcher {
	logger := slog.Get()
	watcher := ParticipationWatcher{
		provider:     provider,
		aggregator:   aggregator,
		logger:       logger,
		pollInterval: pollInterval,
		dump:         dump,
		PollErrorsMetric: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "beacon_gazer_poll_errors_total",
			Help: "Number of poll cycles skipped because participation could not be fetched",
		}),
		LastPollEpochMetric: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "beacon_gazer_last_poll_epoch",
			Help: "Epoch of the last successful poll",
		}),
	}
	// register
	logger.Info("Registering participation watcher metrics:")
	for _, collector := range []prometheus.Collector{watcher.PollErrorsMetric, watcher.LastPollEpochMetric} {
		if err := prometheus.Register(collector); err != nil {
			var (
				alreadyRegisteredErr *prometheus.AlreadyRegisteredError
				duplicateErr         = strings.Contains(err.Error(), "duplicate metrics collector registration attempted")
			)
			if errors.As(err, &alreadyRegisteredErr) || duplicateErr {
				continue
			} else {
				logger.Fatal(fmt.Errorf("failed to register collector: %w", err))
			}
		}
	}
	return &watcher
}

// Run polls once right away, then once per interval until ctx is cancelled. Polls never overlap:
// a tick that fires during a slow poll is dropped by the ticker.
func (w *ParticipationWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Infof("Starting participation watcher, running every %v", w.pollInterval)
	w.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping participation watcher")
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll runs one cycle. Any failure skips the cycle and leaves the published snapshot in place.
func (w *ParticipationWatcher) poll(ctx context.Context) {
	start := time.Now()
	participation, err := w.provider.GetParticipation(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.PollErrorsMetric.Inc()
		w.logger.Warnf("Failed to fetch participation, keeping previous snapshot: %v", err)
		return
	}

	snapshot := w.aggregator.Update(participation)
	w.LastPollEpochMetric.Set(float64(snapshot.Epoch))
	w.logger.Infof(
		"Published epoch %v participation of %v validators in %v groups (took %v)",
		snapshot.Epoch, len(participation.Records), len(snapshot.Groups), time.Since(start),
	)

	if w.dump != nil {
		WriteSnapshotTable(w.dump, snapshot)
	}
}
