package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/colinzyang/m6APrediction/internal/cfg"
	"github.com/colinzyang/m6APrediction/internal/metrics"
	"github.com/colinzyang/m6APrediction/internal/model"
	"github.com/colinzyang/m6APrediction/internal/predict"
	"github.com/colinzyang/m6APrediction/internal/report"
	"github.com/colinzyang/m6APrediction/internal/server"
	"github.com/colinzyang/m6APrediction/internal/storage"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	classifier := selectClassifier(c, mw)

	var reporter *report.Reporter
	if c.ReportPath != "" {
		reporter = report.NewReporter(c.ReportPath)
	}

	srv := server.New(classifier, c.Threshold, m, store, reporter, c.ListenPort)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("scoring server failed")
			stop()
		}
	}()

	startMetricsServer(ctx, c.MetricsPort)

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("scoring server shutdown failed")
	}
}

// selectClassifier picks the classifier for this deployment: a remote
// scoring service when configured, otherwise the local ONNX sidecar,
// otherwise the heuristic fallback so the API stays up in degraded mode.
func selectClassifier(c cfg.Settings, mw *metrics.Wrapper) predict.Classifier {
	if c.ScoringURL != "" {
		log.Info().Str("scoring_url", c.ScoringURL).Msg("using remote scoring service")
		return model.NewRemote(c.ScoringURL, c.RESTTimeout)
	}

	sidecar, err := model.NewSidecar(c.ModelPath, mw, c.SidecarTimeout)
	if err != nil {
		log.Warn().Err(err).Str("model_path", c.ModelPath).
			Msg("ONNX sidecar unavailable, falling back to heuristic scoring")
		return model.Heuristic{Metrics: mw}
	}
	return sidecar
}

func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	if err := os.MkdirAll(c.DataPath, 0o755); err != nil {
		log.Warn().Err(err).Str("data_path", c.DataPath).Msg("failed to create data directory, persistence disabled")
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Str("data_path", c.DataPath).Msg("failed to open prediction store, persistence disabled")
		return nil
	}
	return store
}

func startMetricsServer(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting metrics server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Msg("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
