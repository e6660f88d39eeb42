package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/torosent/freehit/internal/auth"
	"github.com/torosent/freehit/internal/catalog"
	"github.com/torosent/freehit/internal/config"
	"github.com/torosent/freehit/internal/llm/gemini"
	"github.com/torosent/freehit/internal/logging"
	"github.com/torosent/freehit/internal/metrics"
	"github.com/torosent/freehit/internal/output"
	"github.com/torosent/freehit/internal/prompt"
	"github.com/torosent/freehit/internal/runner"
	"github.com/torosent/freehit/internal/store"
	"github.com/torosent/freehit/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

// newDefaultCredentials is replaced in tests.
var newDefaultCredentials = func(ctx context.Context) (auth.Provider, error) {
	return auth.NewDefaultCredentialsProvider(ctx, auth.GenerativeLanguageScope)
}

func runProbe(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.NewLoader().Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	entries, ok := catalogFor(cfg.Provider)
	if !ok {
		fmt.Fprintf(stdout, "%s provider is not implemented yet.\n", cfg.Provider)
		return nil
	}

	runID := ulid.Make().String()
	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("run_id", runID))
	defer func() { _ = logger.Sync() }()

	tp, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	registry, err := catalog.NewRegistry(entries)
	if err != nil {
		return err
	}

	authProvider, err := newAuthProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer authProvider.Close()

	factory, err := gemini.NewFactory(gemini.Options{
		BaseURL:    cfg.BaseURL,
		APIVersion: cfg.APIVersion,
		Auth:       authProvider,
		Timeout:    cfg.Timeout,
	})
	if err != nil {
		return err
	}

	prompts := prompt.Random
	if cfg.Seed != 0 {
		prompts = prompt.NewGenerator(cfg.Seed, nil).Next
	}

	snapshots := store.NewCSV(cfg.OutputDir, string(cfg.Provider))
	collector := metrics.NewCollector()

	r, err := runner.New(runner.Options{
		Registry:       registry,
		Factory:        factory,
		Store:          snapshots,
		Prompts:        prompts,
		Provider:       string(cfg.Provider),
		Threshold:      cfg.Threshold,
		OnError:        runner.ErrorPolicy(cfg.OnError),
		ErrorBackoff:   cfg.ErrorBackoff,
		ResetOnSuccess: cfg.ResetOnSuccess,
		SelfTest:       cfg.SelfTest,
		MaxInvocations: cfg.MaxInvocations,
		RatePerMinute:  cfg.Rate,
		Logger:         logger,
		Tracer:         tp.Tracer(),
		Collector:      collector,
	})
	if err != nil {
		return err
	}

	logger.Info("run started",
		zap.String("provider", string(cfg.Provider)),
		zap.Int("models", registry.Len()),
		zap.Int("active_models", registry.ActiveCount()),
		zap.Int("threshold", cfg.Threshold),
		zap.String("snapshot", snapshots.Path()),
		zap.Bool("tracing", tp.Enabled()),
	)

	var progress *output.ProgressReporter
	if cfg.Progress && !cfg.JSONOutput {
		progress = output.NewProgressReporter(collector, progressInterval, stderr)
		progress.Start()
	}

	result, runErr := r.Run(ctx)
	if progress != nil {
		progress.Stop()
	}

	report := output.Report{
		RunID:        runID,
		Provider:     string(cfg.Provider),
		Result:       result,
		Stats:        collector.Stats(result.Duration),
		Snapshot:     registry.Snapshot(),
		SnapshotPath: snapshots.Path(),
	}
	if runErr != nil {
		report.Error = runErr.Error()
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(stdout, report); err != nil {
			return err
		}
	} else {
		output.PrintReport(stdout, report)
	}
	return runErr
}

// newAuthProvider prefers an API key and falls back to application default
// credentials.
func newAuthProvider(ctx context.Context, cfg *config.Config) (auth.Provider, error) {
	if cfg.APIKey != "" {
		return auth.NewAPIKeyProvider(cfg.APIKey)
	}
	provider, err := newDefaultCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("no API key (set %s) and application default credentials unavailable: %w", config.EnvGeminiAPIKey, err)
	}
	return provider, nil
}
