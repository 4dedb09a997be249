package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/design"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/credentials"
	"server/internal/infra/geoip"
	"server/internal/middleware"
	"server/internal/providers/homedesign"
	"server/internal/providers/replicate"
	"server/internal/providers/translate"
	"server/internal/providers/vision"
	"server/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	creds := credentials.NewStore(runner)

	hdToken := strings.TrimSpace(cfg.HomeDesignAPIToken)
	if hdToken == "" {
		if token, err := creds.HomeDesignToken(ctx); err == nil {
			hdToken = token
		} else if !infra.IsNoRows(err) {
			logger.Warn().Err(err).Msg("failed to load homedesign token from store")
		}
	}
	primary := homedesign.NewClient(homedesign.Options{
		APIToken: hdToken,
		BaseURL:  cfg.HomeDesignBaseURL,
		Logger:   &logger,
	})
	if !primary.HasCredentials() {
		logger.Warn().Msg("homedesign token missing, generations will fail over or error")
	}

	var fallback design.Generator
	repToken := strings.TrimSpace(cfg.ReplicateAPIToken)
	if repToken == "" {
		if token, err := creds.ReplicateToken(ctx); err == nil {
			repToken = token
		}
	}
	if repToken != "" {
		fallback = replicate.NewClient(replicate.Options{
			APIToken: repToken,
			BaseURL:  cfg.ReplicateBaseURL,
			Logger:   &logger,
		})
	}

	store, staticDir := buildStore(cfg, logger)
	pipeline := design.NewRunner(design.RunnerOptions{
		Records:    repo.NewDesignRepository(pool),
		Orch:       design.NewOrchestrator(primary, fallback, &logger),
		Persister:  design.NewArtifactPersister(design.ArtifactPersisterOptions{Store: store, Logger: &logger}),
		Translator: translate.New(translate.Options{LibreBaseURL: cfg.TranslateBaseURL, Logger: &logger}),
		Logger:     &logger,
	})

	var lookup middleware.CountryLookup
	if cfg.GeoIPDBPath != "" {
		resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
		if err != nil {
			logger.Warn().Err(err).Msg("geoip database unavailable, country detection uses headers only")
		} else if resolver != nil {
			if closer, ok := resolver.(io.Closer); ok {
				defer func() {
					_ = closer.Close()
				}()
			}
			lookup = resolver.CountryCode
		}
	}

	app := &handlers.App{
		Logger:   &logger,
		Designs:  repo.NewDesignRepository(pool),
		Rooms:    repo.NewRoomRepository(pool),
		Projects: repo.NewProjectRepository(pool),
		Runner:   pipeline,
		Analyzer: vision.NewOpenAIAnalyzer(vision.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			OnFallback: func(reason string, err error) {
				logger.Warn().Err(err).Str("reason", reason).Msg("vision fallback")
			},
		}),
		Provider: primary.Name(),
		Inline:   cfg.WorkerInline,
	}

	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimitPerMin,
		CountryLookup:  lookup,
		StaticDir:      staticDir,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
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
	logger.Info().Msg("server stopped")
}

// buildStore selects HTTP object storage when an upload endpoint is
// configured, otherwise a local directory served under /static/.
func buildStore(cfg *infra.Config, logger infra.Logger) (storage.ObjectStore, string) {
	if cfg.StorageUploadURL != "" {
		store, err := storage.NewHTTPStore(storage.HTTPStoreOptions{
			UploadBaseURL: cfg.StorageUploadURL,
			PublicBaseURL: cfg.StorageBaseURL,
			Token:         cfg.StorageToken,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure object storage")
		}
		return store, ""
	}

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	store, err := storage.NewFileStore(storagePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure file storage")
	}
	return store, storagePath
}
