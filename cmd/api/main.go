package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"clipforge/internal/adapter/repo"
	"clipforge/internal/http/handlers"
	httpapi "clipforge/internal/http/httpapi"
	"clipforge/internal/infra"
	"clipforge/internal/pipeline"
	"clipforge/internal/planner"
	"clipforge/internal/providers/render"
	"clipforge/internal/providers/video"
	"clipforge/internal/registry"
	"clipforge/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// Job persistence is optional: without DATABASE_URL the registry runs
	// purely in memory.
	var store *repo.JobStorePG
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		store = repo.NewJobStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare schema")
		}
	}

	fileStore, err := storage.NewFileStore(cfg.StorageDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open artifact storage")
	}

	var reg *registry.Registry
	if store != nil {
		reg = registry.New(store, logger)
	} else {
		reg = registry.New(nil, logger)
	}
	if err := reg.Restore(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to restore jobs")
	}

	generator, err := video.NewClient(video.Options{
		APIKey:  cfg.VideoAPIKey,
		BaseURL: cfg.VideoBaseURL,
		Model:   cfg.VideoModel,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize video provider")
	}

	var renderer render.Renderer
	if cfg.RenderBaseURL != "" {
		client, err := render.NewClient(render.Options{BaseURL: cfg.RenderBaseURL, Logger: &logger})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize render client")
		}
		renderer = client
	} else {
		local, err := render.NewLocal(fileStore)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize local renderer")
		}
		renderer = local
	}

	pl := planner.New(cfg.TargetSegmentSeconds, cfg.MaxDurationSeconds)
	seqGen := pipeline.NewSequenceGenerator(generator, pipeline.GeneratorConfig{
		Fanout:          cfg.SegmentFanout,
		Retries:         cfg.SegmentRetries,
		RetryBaseDelay:  cfg.SegmentRetryDelay,
		CallTimeout:     cfg.SegmentCallTimeout,
		PreferReference: cfg.PreferStyleReference,
	}, logger)
	runner := pipeline.NewRunner(reg, pl, seqGen, pipeline.NewAssembler(renderer), pipeline.NewFormatter(renderer), logger)

	app := handlers.NewApp(runner, reg, fileStore, logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}

	// Let in-flight jobs observe shutdown before exiting.
	done := make(chan struct{})
	go func() {
		runner.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn().Msg("jobs still running at shutdown deadline")
	}
	logger.Info().Msg("server stopped")
}
