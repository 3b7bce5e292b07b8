package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"m6apred/internal/cfg"
	"m6apred/internal/metrics"
	"m6apred/internal/model"
	"m6apred/internal/predict"
	"m6apred/internal/report"
	"m6apred/internal/schema"
	"m6apred/internal/server"
	"m6apred/internal/storage"
	"m6apred/internal/table"
)

func main() {
	serve := flag.Bool("serve", false, "run the HTTP prediction server instead of batch mode")
	input := flag.String("input", "", "input CSV path (overrides config)")
	output := flag.String("output", "", "output CSV path (overrides config)")
	flag.Parse()

	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if *input != "" {
		c.InputPath = *input
	}
	if *output != "" {
		c.OutputPath = *output
	}

	setLogLevel(c.LogLevel)

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	backend, name, metadata := buildModel(c, mw)
	predictor := predict.New(backend,
		predict.WithThreshold(c.Threshold),
		predict.WithMetrics(mw),
	)

	log.Info().
		Str("backend", name).
		Float64("threshold", c.Threshold).
		Str("schema", schema.Version).
		Msg("predictor ready")

	if *serve {
		runServer(c, predictor, name, metadata, store, mw)
		return
	}
	runBatch(c, predictor, store, mw)
}

func setLogLevel(level string) {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		l = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(l)
}

// initializeStorage opens the prediction log when DATA_PATH is configured.
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
		return nil
	}
	return store
}

// buildModel selects the model backend: an explicit remote service wins,
// then the local ONNX artifact, then the heuristic fallback.
func buildModel(c cfg.Settings, mw *metrics.Wrapper) (predict.Model, string, *model.Metadata) {
	if c.RemoteModelURL != "" {
		log.Info().Str("url", c.RemoteModelURL).Msg("using remote model backend")
		return model.NewRemote(c.RemoteModelURL, c.PredictTimeout), "remote", nil
	}

	onnx, err := model.NewONNX(c.ModelPath, mw, c.PredictTimeout)
	if err == nil {
		return onnx, "onnx", onnx.Metadata()
	}
	log.Warn().Err(err).Str("model_path", c.ModelPath).Msg("ONNX model unavailable, using heuristic fallback")
	return model.NewHeuristic(), "heuristic", nil
}

func runBatch(c cfg.Settings, predictor *predict.Predictor, store *storage.Store, mw *metrics.Wrapper) {
	if c.InputPath == "" {
		log.Fatal().Msg("batch mode requires an input CSV (flag -input or INPUT_PATH)")
	}
	if c.OutputPath == "" {
		log.Fatal().Msg("batch mode requires an output CSV (flag -output or OUTPUT_PATH)")
	}

	in, err := table.ReadCSVFile(c.InputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load input table")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	out, err := predictor.Batch(ctx, in)
	if err != nil {
		var schemaErr *predict.SchemaError
		if errors.As(err, &schemaErr) {
			log.Fatal().Strs("missing", schemaErr.Missing).Msg("input table does not match the feature schema")
		}
		log.Fatal().Err(err).Msg("batch prediction failed")
	}

	if err := out.WriteCSVFile(c.OutputPath); err != nil {
		log.Fatal().Err(err).Msg("failed to write output table")
	}

	if summary, err := report.Summarize(out); err == nil {
		log.Info().
			Int("rows", summary.Rows).
			Int("positives", summary.Positives).
			Float64("positive_rate", summary.PositiveRate).
			Float64("mean_prob", summary.MeanProb).
			Float64("median_prob", summary.MedianProb).
			Msg("batch summary")
	}

	if store != nil {
		persistBatch(store, out, mw)
	}
}

// persistBatch logs every scored row to the prediction store.
func persistBatch(store *storage.Store, out *table.Table, mw *metrics.Wrapper) {
	seqs := out.Column(schema.ColDNA5mer)
	probs := out.Column(schema.ColPredictedProb)
	statuses := out.Column(schema.ColPredictedStatus)
	rnaTypes := out.Column(schema.ColRNAType)
	rnaRegions := out.Column(schema.ColRNARegion)
	gc := out.Column(schema.ColGCContent)
	cons := out.Column(schema.ColConservation)

	stored := 0
	for i := 0; i < out.NumRows(); i++ {
		rec := storage.PredictionRecord{
			Timestamp: time.Now(),
			DNA5mer:   seqs.Strings[i],
			RNAType:   rnaTypes.Strings[i],
			RNARegion: rnaRegions.Strings[i],
			Prob:      probs.Floats[i],
			Status:    statuses.Strings[i],
			Source:    "batch",
		}
		rec.GCContent, _ = strconv.ParseFloat(gc.CellString(i), 64)
		rec.Conservation, _ = strconv.ParseFloat(cons.CellString(i), 64)

		if err := store.StorePrediction(rec); err != nil {
			mw.StorageErrorsInc()
			log.Warn().Err(err).Int("row", i).Msg("failed to persist prediction record")
			continue
		}
		stored++
	}
	log.Info().Int("stored", stored).Msg("prediction records persisted")
}

func runServer(c cfg.Settings, predictor *predict.Predictor, backend string, metadata *model.Metadata, store *storage.Store, mw *metrics.Wrapper) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startMetricsServer(ctx, c.MetricsPort)

	srv := server.New(predictor, backend, metadata, store, mw, c.ServerPort)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("prediction server failed")
			cancel()
		}
	}()

	waitForShutdown(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server shutdown incomplete")
	}
	log.Info().Msg("shutdown complete")
}

// startMetricsServer exposes Prometheus metrics on its own port.
func startMetricsServer(ctx context.Context, port int) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := srv.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func waitForShutdown(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}
}
