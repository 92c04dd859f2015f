package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zopapami/artgallery/internal/model"
	"github.com/zopapami/artgallery/internal/service"
)

func listCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List artworks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			artworks, err := g.List(cmd.Context())
			if err != nil {
				return err
			}
			return printArtworks(cmd.OutOrStdout(), artworks)
		},
	}
}

func createCmd(connect connectFunc) *cobra.Command {
	var (
		draft model.Draft
		image string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Upload an image and create its artwork record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			upload, closeFile, err := openUpload(image)
			if err != nil {
				return err
			}
			defer closeFile()

			g, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			created, err := g.Create(cmd.Context(), draft, upload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %q\n", created.ID, created.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&draft.Title, "title", "", "artwork title (required)")
	cmd.Flags().StringVar(&draft.Artist, "artist", "", "artist name")
	cmd.Flags().IntVar(&draft.Year, "year", 0, "year the artwork was made")
	cmd.Flags().StringVar(&draft.Category, "category", "", "collection")
	cmd.Flags().StringVar(&draft.Description, "description", "", "description, markdown allowed")
	cmd.Flags().StringVar(&image, "image", "", "image file to upload (required)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

// purger is implemented by the local service only; a remote server keeps
// its object store to itself.
type purger interface {
	PurgeAll(ctx context.Context) (int64, int, error)
}

func removeAllCmd(connect connectFunc) *cobra.Command {
	var (
		yes    bool
		images bool
	)

	cmd := &cobra.Command{
		Use:   "remove-all",
		Short: "Delete every artwork record",
		Long:  "Delete every artwork record. Stored images are kept unless --images is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to remove all artworks without --yes")
			}

			g, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			if !images {
				n, err := g.RemoveAll(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d artworks\n", n)
				return nil
			}

			p, ok := g.(purger)
			if !ok {
				return errors.New("--images needs direct access to the object store, drop --remote")
			}
			n, purged, err := p.PurgeAll(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d artworks and %d images\n", n, purged)
			return err
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the removal, there is no undo")
	cmd.Flags().BoolVar(&images, "images", false, "also delete the stored image files")
	return cmd
}

// openUpload opens an image file for the create sequence
func openUpload(path string) (*service.Upload, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open image: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("image %s is a directory", path)
	}

	upload := &service.Upload{
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Size:        info.Size(),
		Body:        f,
	}
	return upload, func() { _ = f.Close() }, nil
}

func printArtworks(w io.Writer, artworks []*model.Artwork) error {
	if len(artworks) == 0 {
		_, err := fmt.Fprintln(w, "no artworks")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tARTIST\tYEAR\tCOLLECTION\tIMAGE")
	for _, a := range artworks {
		year := ""
		if a.Year != 0 {
			year = strconv.Itoa(a.Year)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", a.ID, a.Title, a.Artist, year, a.Category, a.ImageURL)
	}
	return tw.Flush()
}
