package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/longregen/gepa-optimize/internal/config"
	"github.com/longregen/gepa-optimize/internal/events"
	"github.com/longregen/gepa-optimize/internal/gatewayimpl"
	"github.com/longregen/gepa-optimize/internal/gepa"
	"github.com/longregen/gepa-optimize/internal/metrics"
	gepaotel "github.com/longregen/gepa-optimize/pkg/otel"
)

func newRunCmd() *cobra.Command {
	var (
		configPath   string
		suitePath    string
		eventLogPath string
		otlpEndpoint string
		metricsAddr  string
		environment  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a GEPA optimization over a tool/test-case suite",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(cmd.Context(), runOpts{
				configPath:   configPath,
				suitePath:    suitePath,
				eventLogPath: eventLogPath,
				otlpEndpoint: otlpEndpoint,
				metricsAddr:  metricsAddr,
				environment:  environment,
			})
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a run config YAML file")
	cmd.Flags().StringVar(&suitePath, "suite", "", "path to a tool/test-case suite YAML file (required)")
	cmd.Flags().StringVar(&eventLogPath, "events-out", "events.gepa", "path to write the durable event log")
	cmd.Flags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "OTLP HTTP endpoint for traces/logs; empty disables export")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus /metrics on; empty disables")
	cmd.Flags().StringVar(&environment, "environment", "development", "deployment environment tag for tracing")
	_ = cmd.MarkFlagRequired("suite")

	return cmd
}

type runOpts struct {
	configPath   string
	suitePath    string
	eventLogPath string
	otlpEndpoint string
	metricsAddr  string
	environment  string
}

func runOptimize(ctx context.Context, opts runOpts) error {
	otelInit, err := gepaotel.Init(gepaotel.Config{
		ServiceName:  "gepa-optimize",
		Environment:  opts.environment,
		OTLPEndpoint: opts.otlpEndpoint,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() { _ = otelInit.Shutdown(context.Background()) }()
	logger := otelInit.Logger

	fileCfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	tools, testCases, err := config.LoadSuite(opts.suitePath)
	if err != nil {
		return err
	}

	gateway := gatewayimpl.New(fileCfg.Gateway.BaseURL, fileCfg.APIKeyOrFatal(),
		gatewayimpl.WithTimeout(fileCfg.Gateway.Timeout))

	logFile, err := os.Create(opts.eventLogPath)
	if err != nil {
		return fmt.Errorf("create event log %s: %w", opts.eventLogPath, err)
	}
	defer logFile.Close()

	writerRunID, err := gonanoid.New(12)
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	writer := events.NewWriter(logFile, writerRunID)

	registry := prometheus.NewRegistry()
	sink := metrics.NewSink(registry)
	emitter := metrics.MultiEmitter{writer, sink, loggingEmitter{logger: logger}}

	var metricsServer *http.Server
	if opts.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: opts.metricsAddr, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer metricsServer.Close()
	}

	scheduler := gepa.NewScheduler(gateway, emitter)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		scheduler.Cancel()
	}()

	logger.Info("starting optimization run", "suite", opts.suitePath, "tools", len(tools), "test_cases", len(testCases))

	result, err := scheduler.Run(sigCtx, tools, testCases, fileCfg.ToRunConfig())
	if flushErr := writer.Flush(); flushErr != nil {
		logger.Error("flush event log", "error", flushErr)
	}
	if err != nil {
		return fmt.Errorf("optimization run failed: %w", err)
	}

	logger.Info("optimization run complete",
		"status", result.Run.Status,
		"budget_consumed", result.Run.BudgetConsumed,
		"archive_size", result.Archive.Size())

	return nil
}

// loggingEmitter adapts the structured logger into a gepa.Emitter so
// every progress event also lands in the configured log sink.
type loggingEmitter struct {
	logger *slog.Logger
}

func (l loggingEmitter) Emit(e gepa.Event) {
	l.logger.Info(string(e.Type), "payload", e.Payload)
}
