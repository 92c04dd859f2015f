package pages

import (
	"embed"
	"html/template"

	"github.com/a-h/templ"
	"github.com/zopapami/artgallery/internal/model"
	"github.com/zopapami/artgallery/internal/service"
	"github.com/zopapami/artgallery/internal/ui"
)

//go:embed templates/*.html
var templatesFS embed.FS

var (
	base     = template.Must(template.New("base").Funcs(ui.Funcs()).ParseFS(templatesFS, "templates/layout.html", "templates/partials.html"))
	gallery  = mustPage("templates/gallery.html")
	detail   = mustPage("templates/detail.html")
	notFound = mustPage("templates/notfound.html")
)

func mustPage(file string) *template.Template {
	return template.Must(template.Must(base.Clone()).ParseFS(templatesFS, file))
}

// FormState is the new-artwork form as last submitted
type FormState struct {
	Draft model.Draft
	Error string
}

// GalleryPage is the full admin page. Preview belongs to the active
// artwork and may be nil; Alert reports a failure to load the list.
type GalleryPage struct {
	View    *GalleryView
	Form    FormState
	Preview *service.Preview
	Alert   string
}

func Gallery(p GalleryPage) templ.Component {
	if p.View == nil {
		p.View = NewGalleryView(nil)
	}
	return ui.Page(gallery, "Artworks", p)
}

// Grid is the list of artwork tiles, swapped into #gallery-grid
func Grid(view *GalleryView) templ.Component {
	return ui.Fragment(base, "grid", view)
}

// ArtworkForm is the modal form; a zero FormState is the empty draft
func ArtworkForm(form FormState) templ.Component {
	return ui.Fragment(base, "artwork-form", form)
}

func Preview(preview *service.Preview) templ.Component {
	return ui.Fragment(base, "preview", preview)
}

// PreviewEmpty is the preview pane with nothing hovered
func PreviewEmpty() templ.Component {
	return ui.Fragment(base, "preview-empty", nil)
}

func ArtworkDetail(preview *service.Preview) templ.Component {
	return ui.Page(detail, preview.Artwork.Title, preview)
}

// ArtworkDetailContent is the detail page without the layout, swapped into
// #page when a tile is double-clicked
func ArtworkDetailContent(preview *service.Preview) templ.Component {
	return ui.Fragment(detail, "content", ui.PageData{Data: preview})
}

func NotFound() templ.Component {
	return ui.Page(notFound, "Not found", nil)
}
