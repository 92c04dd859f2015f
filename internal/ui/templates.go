package ui

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strconv"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
	"github.com/zopapami/artgallery/internal/ctxkeys"
)

// Meta is the per-request data every full page needs
type Meta struct {
	AppName   string
	Title     string
	Path      string
	CSRFToken string
	Nonce     string
	MaxUpload int64
}

// PageData is what a page template executes against
type PageData struct {
	Meta Meta
	Data any
}

// Funcs returns the helpers shared by all templates
func Funcs() template.FuncMap {
	return template.FuncMap{
		"cn": func(classes ...string) string {
			return twmerge.Merge(classes...)
		},
		"when": func(cond bool, class string) string {
			if cond {
				return class
			}
			return ""
		},
		"year": func(y int) string {
			if y == 0 {
				return ""
			}
			return strconv.Itoa(y)
		},
		"artworkURL": func(id string) string {
			return "/admin/artworks/" + url.PathEscape(id)
		},
		"previewURL": func(id string) string {
			return "/admin/artworks/" + url.PathEscape(id) + "/preview"
		},
	}
}

// Fragment renders one named template of t as a component
func Fragment(t *template.Template, name string, data any) templ.Component {
	tmpl := t.Lookup(name)
	if tmpl == nil {
		return templ.ComponentFunc(func(context.Context, io.Writer) error {
			return fmt.Errorf("template %q not defined", name)
		})
	}
	return templ.FromGoHTML(tmpl, data)
}

// Page renders the "layout" template of t with request meta filled in
func Page(t *template.Template, title string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Fragment(t, "layout", PageData{Meta: MetaFrom(ctx, title), Data: data}).Render(ctx, w)
	})
}

func MetaFrom(ctx context.Context, title string) Meta {
	meta := Meta{
		AppName:   "Gallery",
		Title:     title,
		Path:      ctxkeys.URLPath(ctx),
		CSRFToken: ctxkeys.CSRFToken(ctx),
		Nonce:     templ.GetNonce(ctx),
	}
	if cfg := ctxkeys.Config(ctx); cfg != nil {
		meta.AppName = cfg.AppName
		meta.MaxUpload = cfg.UploadMaxBytes
	}
	return meta
}
