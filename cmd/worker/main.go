package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/design"
	"server/internal/domain"
	"server/internal/infra"
	"server/internal/infra/credentials"
	"server/internal/providers/homedesign"
	"server/internal/providers/replicate"
	"server/internal/providers/translate"
	"server/internal/sqlinline"
	"server/internal/storage"
)

const claimPollInterval = 2 * time.Second

var errNoDesignAvailable = errors.New("no pending design")

type designWorker struct {
	ctx      context.Context
	runner   *infra.SQLRunner
	pipeline *design.Runner
	logger   infra.Logger
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	creds := credentials.NewStore(runner)

	hdToken := strings.TrimSpace(cfg.HomeDesignAPIToken)
	if hdToken == "" {
		if token, err := creds.HomeDesignToken(ctx); err == nil {
			hdToken = token
		} else if !infra.IsNoRows(err) {
			logger.Warn().Err(err).Msg("worker: failed to load homedesign token from store")
		}
	}
	primary := homedesign.NewClient(homedesign.Options{
		APIToken: hdToken,
		BaseURL:  cfg.HomeDesignBaseURL,
		Logger:   &logger,
	})

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

	store := buildStore(cfg, logger)
	pipeline := design.NewRunner(design.RunnerOptions{
		Records:    repo.NewDesignRepository(pool),
		Orch:       design.NewOrchestrator(primary, fallback, &logger),
		Persister:  design.NewArtifactPersister(design.ArtifactPersisterOptions{Store: store, Logger: &logger}),
		Translator: translate.New(translate.Options{LibreBaseURL: cfg.TranslateBaseURL, Logger: &logger}),
		Logger:     &logger,
	})

	worker := &designWorker{ctx: ctx, runner: runner, pipeline: pipeline, logger: logger}
	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func buildStore(cfg *infra.Config, logger infra.Logger) storage.ObjectStore {
	if cfg.StorageUploadURL != "" {
		store, err := storage.NewHTTPStore(storage.HTTPStoreOptions{
			UploadBaseURL: cfg.StorageUploadURL,
			PublicBaseURL: cfg.StorageBaseURL,
			Token:         cfg.StorageToken,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: failed to configure object storage")
		}
		return store
	}
	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	store, err := storage.NewFileStore(storagePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure file storage")
	}
	return store
}

func (w *designWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		task, err := w.claim()
		if err != nil {
			if errors.Is(err, errNoDesignAvailable) {
				time.Sleep(claimPollInterval)
				continue
			}
			w.logger.Error().Err(err).Msg("worker: claim failed")
			time.Sleep(claimPollInterval)
			continue
		}

		w.pipeline.Run(w.ctx, task)
	}
}

// claim pulls the oldest PENDING design, moving it to PROCESSING in the
// same statement so concurrent workers never double-claim.
func (w *designWorker) claim() (design.Task, error) {
	row := w.runner.QueryRow(w.ctx, sqlinline.QWorkerClaimDesign)
	var (
		id       string
		roomID   string
		prompt   string
		provider string
		metadata []byte
	)
	if err := row.Scan(&id, &roomID, &prompt, &provider, &metadata); err != nil {
		if infra.IsNoRows(err) {
			return design.Task{}, errNoDesignAvailable
		}
		return design.Task{}, err
	}

	var spec design.TaskSpec
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &spec); err != nil {
			w.logger.Error().Err(err).Str("design_id", id).Msg("worker: bad task metadata")
		}
	}
	req := spec.Request()
	if req.Image.IsZero() && roomID != "" {
		if imageURL, roomType, err := w.roomImage(roomID); err == nil {
			req.Image.URL = imageURL
			if req.RoomType == "" {
				req.RoomType = roomType
			}
		} else {
			w.logger.Warn().Err(err).Str("design_id", id).Msg("worker: room image lookup failed")
		}
	}

	return design.Task{
		DesignID: id,
		Request:  req,
		Style:    spec.DesignStyle,
		RoomType: req.RoomType,
		Claimed:  true,
	}, nil
}

func (w *designWorker) roomImage(roomID string) (string, string, error) {
	row := w.runner.QueryRow(w.ctx, sqlinline.QSelectRoomImage, roomID)
	var imageURL, roomType string
	if err := row.Scan(&imageURL, &roomType); err != nil {
		return "", "", err
	}
	return imageURL, domain.RoomType(roomType).ProviderLabel(), nil
}
