package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/zopapami/artgallery/internal/config"
	"github.com/zopapami/artgallery/internal/db"
	"github.com/zopapami/artgallery/internal/repository"
	"github.com/zopapami/artgallery/internal/service"
	"github.com/zopapami/artgallery/internal/storage"
)

type App struct {
	Cfg            *config.Config
	DB             *sqlx.DB
	Storage        storage.Storage
	Files          *storage.FilesystemStorage // set for the filesystem driver only
	ArtworkService *service.ArtworkService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = db.Close(database)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a := &App{
		Cfg: cfg,
		DB:  database,
	}

	// Storage
	switch cfg.StorageDriver {
	case config.StorageS3:
		s3Storage, err := storage.NewFromConfig(ctx, cfg)
		if err != nil {
			_ = db.Close(database)
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		a.Storage = s3Storage
	case config.StorageFilesystem:
		files, err := storage.NewFilesystemStorage(cfg.StorageDir, cfg.AppURL)
		if err != nil {
			_ = db.Close(database)
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		a.Storage = files
		a.Files = files
	default:
		_ = db.Close(database)
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	// Services
	artworkRepository := repository.NewArtworkRepository(database)
	previewCache := service.NewPreviewCache(cfg.PreviewCacheSize, cfg.PreviewCacheTTL)
	a.ArtworkService = service.NewArtworkService(artworkRepository, a.Storage, previewCache)

	return a, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
