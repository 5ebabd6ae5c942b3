package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"reelcraft/internal/adapter/repo"
	"reelcraft/internal/credits"
	"reelcraft/internal/http/handlers"
	httpapi "reelcraft/internal/http/httpapi"
	"reelcraft/internal/infra"
	"reelcraft/internal/pipeline"
	"reelcraft/internal/providers/fal"
	"reelcraft/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	jobs := repo.NewJobRepository(dbpool)
	creditStore := repo.NewCreditStore(dbpool)
	modelConfigs := repo.NewModelConfigRepository(dbpool)
	ledger := credits.NewLedger(creditStore, logger)

	var store storage.Gateway
	if cfg.UseObjectStorage() {
		store, err = storage.NewObjectStore(storage.ObjectStoreOptions{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			PublicURL: cfg.StoragePublicURL,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object storage")
		}
	} else {
		store, err = storage.NewFileStore(cfg.StoragePath, cfg.StoragePublicURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init filesystem storage")
		}
		logger.Warn().Str("path", cfg.StoragePath).Msg("no S3 endpoint configured, using local storage")
	}

	falClient := fal.NewClient(fal.Options{
		BaseURL:      cfg.FalBaseURL,
		APIKey:       cfg.FalAPIKey,
		PollInterval: cfg.FalPollInterval,
	})
	switchboard := pipeline.NewSwitchboard(modelConfigs, logger, fal.Invokers(falClient)...)
	executor := pipeline.NewExecutor(store, logger, cfg.StageRetries)
	orchestrator := pipeline.NewOrchestrator(jobs, ledger, switchboard, executor, logger)

	queueCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()
	queue := pipeline.NewAdmissionQueue(queueCtx, orchestrator.Run, logger, pipeline.QueueOptions{
		Concurrency:       cfg.QueueConcurrency,
		StartsPerInterval: cfg.QueueStartsPerSecond,
	})

	// Jobs stranded in processing by a previous crash fail and refund
	// before any new work starts.
	if swept, err := pipeline.SweepStaleJobs(ctx, jobs, ledger, cfg.StaleJobTimeout, logger); err != nil {
		logger.Error().Err(err).Msg("stale job sweep failed")
	} else if swept > 0 {
		logger.Warn().Int("swept", swept).Msg("failed stale jobs from previous run")
	}

	app := handlers.NewApp(jobs, ledger, store, queue, logger, cfg.CreditsPerJob)
	var handler http.Handler = httpapi.NewRouter(app)
	if !cfg.UseObjectStorage() {
		// Local storage needs the service itself to serve the files.
		mux := http.NewServeMux()
		mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StoragePath))))
		mux.Handle("/", handler)
		handler = mux
	}

	server := infra.NewHTTPServer(":"+cfg.Port, handler, infra.HTTPTimeouts{
		Read:  cfg.HTTPReadTimeout,
		Write: cfg.HTTPWriteTimeout,
		Idle:  cfg.HTTPIdleTimeout,
	})

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
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

	// Let in-flight jobs finish. Dropped backlog entries stay pending in
	// storage; deleting such a job refunds it.
	queue.Pause()
	queue.Clear()
	queue.WaitForIdle()
	logger.Info().Msg("server stopped")
}
