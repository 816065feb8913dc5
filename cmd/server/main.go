package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"fliqk/internal/ai"
	"fliqk/internal/composer"
	"fliqk/internal/config"
	"fliqk/internal/db"
	"fliqk/internal/export"
	"fliqk/internal/jobs"
	"fliqk/internal/logging"
	"fliqk/internal/meta"
	"fliqk/internal/metrics"
	"fliqk/internal/models"
	"fliqk/internal/server"
	"fliqk/internal/storage"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	logger, flush, err := logging.Init(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer flush()

	yamlCfg, err := config.LoadYAMLConfig()
	if err != nil {
		logger.Fatal("failed to load config file", zap.Error(err))
	}

	// Initialize database
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("migrations completed")

	bootstrapTokens(ctx, database, yamlCfg, logger)
	metrics.Init(database)

	// Page fetching and LLM analysis
	fetcher := meta.NewFetcher(cfg.FetchTimeout, cfg.FetchUserAgent)
	fetcher.AllowPrivate = cfg.FetchPrivateIPs

	llmCfg := ai.Config{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.OpenAIModel,
		BaseURL:    cfg.OpenAIBaseURL,
		MaxTokens:  cfg.LLMMaxTokens,
		RatePerSec: cfg.LLMRatePerSec,
	}
	var completer ai.Completer
	if cfg.IsLLMEnabled() {
		c, err := ai.NewOpenAICompleter(llmCfg)
		if err != nil {
			logger.Fatal("failed to create LLM client", zap.Error(err))
		}
		completer = c
	} else {
		logger.Warn("OPENAI_API_KEY not set, analysis falls back to page metadata")
	}

	// Media uploads
	var uploader storage.Uploader
	if cfg.IsMediaEnabled() {
		store, err := storage.NewMinioStore(storage.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MediaPublicURL,
		})
		if err != nil {
			logger.Fatal("failed to create media store", zap.Error(err))
		}
		if err := store.EnsureBucket(ctx); err != nil {
			logger.Fatal("failed to prepare media bucket", zap.Error(err))
		}
		uploader = store
	} else {
		logger.Info("media uploads disabled, MINIO_ENDPOINT not set")
	}

	exporter, err := export.NewRenderer()
	if err != nil {
		logger.Fatal("failed to load export templates", zap.Error(err))
	}

	composerService := composer.NewService(database, logger.Named("composer"))

	// Background thumbnail refresher
	if cfg.ThumbnailRefreshInterval > 0 {
		refresher := jobs.NewThumbnailRefresher(database, fetcher,
			cfg.ThumbnailRefreshInterval, cfg.ThumbnailRetryAge, logger.Named("thumbnails"))
		go refresher.Start(ctx)
	}

	srv := server.New(cfg, logger)
	srv.RegisterRoutes(server.Deps{
		Store:     database,
		YAML:      yamlCfg,
		Fetcher:   fetcher,
		Analyzer:  ai.NewAnalyzer(completer, logger.Named("analyzer")),
		Suggester: ai.NewSuggester(completer, ai.OpenAIFactory(llmCfg), logger.Named("suggester")),
		Composer:  composerService,
		Uploader:  uploader,
		Exporter:  exporter,
	})

	// Graceful shutdown
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	cancel()
	if err := srv.Shutdown(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	composerService.Wait()
	logger.Info("server exited")
}

// bootstrapTokens creates the invite tokens listed in the config file, so a fresh
// install has a way in.
func bootstrapTokens(ctx context.Context, database *db.DB, yamlCfg *config.YAMLConfig, logger *zap.Logger) {
	for _, t := range yamlCfg.BootstrapTokens() {
		role := t.Role
		if role == "" {
			role = models.RoleUser
		}
		if !models.IsValidRole(role) {
			logger.Warn("skipping bootstrap token with invalid role", zap.String("role", role))
			continue
		}
		created, err := database.EnsureInviteToken(ctx, t.Token, role)
		if err != nil {
			logger.Error("failed to create bootstrap token", zap.Error(err))
			continue
		}
		if created {
			logger.Info("bootstrap token created", zap.String("role", role))
		}
	}
}
