package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/zopapami/artgallery/internal/app"
	"github.com/zopapami/artgallery/internal/client"
	"github.com/zopapami/artgallery/internal/config"
	"github.com/zopapami/artgallery/internal/logger"
	"github.com/zopapami/artgallery/internal/model"
	"github.com/zopapami/artgallery/internal/service"
)

// Gallery is what the record commands need. The local app service and the
// REST client both provide it.
type Gallery interface {
	List(ctx context.Context) ([]*model.Artwork, error)
	Create(ctx context.Context, draft model.Draft, upload *service.Upload) (*model.Artwork, error)
	RemoveAll(ctx context.Context) (int64, error)
}

type opener func(ctx context.Context, remote string) (Gallery, func(), error)

type connectFunc func(cmd *cobra.Command) (Gallery, func(), error)

func RootCmd() *cobra.Command {
	return newRootCmd(open)
}

func newRootCmd(open opener) *cobra.Command {
	var (
		remote  string
		verbose bool
	)

	root := &cobra.Command{
		Use:          "gallery",
		Short:        "Manage the artwork gallery",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logger.New(cmd.ErrOrStderr(), verbose))
		},
	}
	root.PersistentFlags().StringVar(&remote, "remote", "", "base URL of a running gallery server, e.g. http://localhost:8090")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	connect := func(cmd *cobra.Command) (Gallery, func(), error) {
		return open(cmd.Context(), remote)
	}

	root.AddCommand(listCmd(connect))
	root.AddCommand(createCmd(connect))
	root.AddCommand(removeAllCmd(connect))
	root.AddCommand(importCmd(connect))
	root.AddCommand(MigrateCmd())
	return root
}

// open talks to a server when remote is set, otherwise it opens the
// database and object store configured in the environment.
func open(ctx context.Context, remote string) (Gallery, func(), error) {
	if remote != "" {
		return remoteGallery{client: client.New(remote)}, func() {}, nil
	}

	cfg := config.Load()
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open gallery: %w", err)
	}
	return a.ArtworkService, func() {
		closeErr := a.Close()
		if closeErr != nil {
			slog.Error("failed to close app", "error", closeErr)
		}
	}, nil
}

type remoteGallery struct {
	client *client.Client
}

func (g remoteGallery) List(ctx context.Context) ([]*model.Artwork, error) {
	return g.client.All(ctx)
}

func (g remoteGallery) Create(ctx context.Context, draft model.Draft, upload *service.Upload) (*model.Artwork, error) {
	return g.client.CreateArtwork(ctx, draft, upload)
}

func (g remoteGallery) RemoveAll(ctx context.Context) (int64, error) {
	return g.client.DeleteAll(ctx)
}
