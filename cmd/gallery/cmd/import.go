package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zopapami/artgallery/internal/client"
	"github.com/zopapami/artgallery/internal/markdown"
	"github.com/zopapami/artgallery/internal/model"
)

const (
	importRetries    = 5
	defaultRetryWait = time.Second
)

// frontMatter is the YAML header of an import file. The markdown body
// becomes the description; image is relative to the file.
type frontMatter struct {
	Title    string `yaml:"title"`
	Artist   string `yaml:"artist"`
	Year     int    `yaml:"year"`
	Category string `yaml:"category"`
	Image    string `yaml:"image"`
}

func importCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "import DIR",
		Short: "Create an artwork for every markdown file in DIR",
		Long: `Each *.md file carries YAML front matter with title, artist, year,
category and image. The body becomes the description. Files are imported
one by one; a failing file does not stop the others.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, done, err := connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			n, err := importDir(cmd.Context(), g, args[0], cmd.OutOrStdout())
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d artworks\n", n)
			return err
		},
	}
}

func importDir(ctx context.Context, g Gallery, dir string, out io.Writer) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(files)

	parser := markdown.NewParser()

	var (
		imported int
		errs     []error
	)
	for _, file := range files {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		created, err := importFile(ctx, g, parser, file)
		if err != nil {
			slog.Warn("import failed", "file", file, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(file), err))
			continue
		}
		imported++
		fmt.Fprintf(out, "%s -> %s %q\n", filepath.Base(file), created.ID, created.Title)
	}

	return imported, errors.Join(errs...)
}

func importFile(ctx context.Context, g Gallery, parser *markdown.Parser, file string) (*model.Artwork, error) {
	source, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var meta frontMatter
	body, err := parser.DecodeFrontmatter(source, &meta)
	if err != nil {
		return nil, fmt.Errorf("invalid front matter: %w", err)
	}
	if strings.TrimSpace(meta.Image) == "" {
		return nil, errors.New("front matter has no image")
	}

	image := meta.Image
	if !filepath.IsAbs(image) {
		image = filepath.Join(filepath.Dir(file), image)
	}

	draft := model.Draft{
		Title:       meta.Title,
		Artist:      meta.Artist,
		Year:        meta.Year,
		Category:    meta.Category,
		Description: string(body),
	}

	for attempt := 0; ; attempt++ {
		created, err := createFrom(ctx, g, draft, image)
		wait, limited := client.RetryAfter(err)
		if !limited || attempt == importRetries {
			return created, err
		}
		if wait <= 0 {
			wait = defaultRetryWait
		}

		slog.Info("server is rate limiting, waiting", "file", filepath.Base(file), "wait", wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// createFrom opens the image afresh, since a rejected attempt may have
// consumed part of it
func createFrom(ctx context.Context, g Gallery, draft model.Draft, image string) (*model.Artwork, error) {
	upload, closeFile, err := openUpload(image)
	if err != nil {
		return nil, err
	}
	defer closeFile()

	return g.Create(ctx, draft, upload)
}
