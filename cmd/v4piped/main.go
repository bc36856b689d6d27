// Command v4piped is the process entrypoint: load a config file, start one
// pipeline per configured section, serve Prometheus metrics, and shut down
// cleanly on signal. Wiring order (logger -> config -> validate -> start
// subsystems -> serve -> signal shutdown) follows the ambient stack's own
// cmd/proxy entrypoint.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/coholabs/v4pipe/config"
	"github.com/coholabs/v4pipe/logging"
	"github.com/coholabs/v4pipe/metrics"
	"github.com/coholabs/v4pipe/registry"
)

var (
	configPath  = flag.String("config", "config/v4pipe.yaml", "path to the pipeline configuration file")
	logLevel    = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	production  = flag.Bool("production", false, "use JSON production logging instead of console")
	metricsAddr = flag.String("metrics-addr", ":9090", "address to serve /metrics on")
)

func main() {
	flag.Parse()

	if err := logging.InitLogger(*logLevel, *production); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	logging.Info("starting v4piped", zap.String("config_path", *configPath))

	paramsList, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal("failed to load configuration", zap.Error(err))
	}

	reg := registry.Default()
	started := make([]string, 0, len(paramsList))
	for _, params := range paramsList {
		if err := reg.Start(params); err != nil {
			logging.Error("failed to start pipeline", zap.String("pipeline", params.Name), zap.Error(err))
			continue
		}
		started = append(started, params.Name)
		logging.Info("pipeline started", zap.String("pipeline", params.Name))
	}

	if len(started) == 0 {
		logging.Fatal("no pipeline started, exiting")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: *metricsAddr, Handler: mux}

	go func() {
		logging.Info("serving metrics", zap.String("addr", *metricsAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("metrics server stopped", zap.Error(err))
		}
	}()

	stopReporting := make(chan struct{})
	go reportMetrics(reg, started, stopReporting)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	close(stopReporting)

	logging.Info("shutdown signal received, stopping pipelines")
	for _, name := range started {
		if err := reg.Stop(name); err != nil {
			logging.Warn("failed to stop pipeline", zap.String("pipeline", name), zap.Error(err))
		}
	}

	_ = server.Close()

	logging.Info("shutdown complete")
}

// reportMetrics polls each running pipeline's stats every second and
// pushes them into the metrics package, until stop is closed.
func reportMetrics(reg *registry.Registry, names []string, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, name := range names {
				stats, err := reg.Stats(name)
				if err != nil {
					continue
				}
				metrics.Report(metrics.Snapshot{
					Name:            name,
					FramesCaptured:  stats.FramesCaptured,
					FramesDelivered: stats.FramesDelivered,
					LostFrames:      stats.LostFrames,
					ListenerCount:   stats.ListenerCount,
				})
				if state, err := reg.State(name); err == nil {
					metrics.SetPipelineState(name, int(state))
				}
			}
		}
	}
}
