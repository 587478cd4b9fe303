package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dapplion/beacon-metrics-gazer/pkg/aggregate"
	"github.com/dapplion/beacon-metrics-gazer/pkg/beacon"
	"github.com/dapplion/beacon-metrics-gazer/pkg/ranges"
	"github.com/dapplion/beacon-metrics-gazer/pkg/slog"
)

const shutdownTimeout = 5 * time.Second

func main() {
	slog.Init()
	logger := slog.Get()

	if err := NewApp().Run(os.Args); err != nil {
		logger.Fatal(err)
	}
	_ = slog.Sync()
}

func NewApp() *cli.App {
	return &cli.App{
		Name:                      "beacon-metrics-gazer",
		Usage:                     "Export beacon chain participation of labeled validator index ranges",
		ArgsUsage:                 "[beacon-url]",
		Flags:                     exporterFlags(),
		DisableSliceFlagSeparator: true,
		Action: func(c *cli.Context) error {
			config, err := NewExporterConfigFromCLI(c)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, config)
		},
	}
}

func run(ctx context.Context, config *ExporterConfig) error {
	logger := slog.Get()

	table, err := ranges.Load(ctx, &http.Client{Timeout: config.HttpTimeout}, config.Ranges, config.RangesFile)
	if err != nil {
		return err
	}
	logger.Infof("Loaded %d ranges with %d labels", table.Len(), len(table.Labels()))

	client, err := beacon.NewClient(ctx, beacon.ClientConfig{
		URL: config.BeaconURL, Timeout: config.HttpTimeout, Headers: config.BeaconHeaders,
	})
	if err != nil {
		return err
	}

	store := aggregate.NewStore()
	var dump io.Writer
	if config.Dump {
		dump = os.Stderr
	}
	watcher := NewParticipationWatcher(client, aggregate.NewAggregator(table, store), config.PollInterval, dump)
	prometheus.MustRegister(NewParticipationCollector(store))

	server := &http.Server{Addr: config.ListenAddress, Handler: newHandler()}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		watcher.Run(ctx)
		return nil
	})
	group.Go(func() error {
		logger.Infof("listening on %s", config.ListenAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server failed: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func newHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintln(w, "beacon-metrics-gazer: participation metrics are served at /metrics")
	})
	return mux
}
