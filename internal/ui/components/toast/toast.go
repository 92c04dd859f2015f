package toast

import (
	"embed"
	"html/template"

	"github.com/a-h/templ"
	"github.com/zopapami/artgallery/internal/ui"
)

type Variant string

const (
	VariantDefault Variant = "default"
	VariantSuccess Variant = "success"
	VariantError   Variant = "error"
	VariantInfo    Variant = "info"
)

// Props configures a toast
type Props struct {
	Title       string
	Description string
	Variant     Variant
	Dismissible bool
}

//go:embed toast.html
var templateFS embed.FS

var tmpl = template.Must(template.New("toast").
	Funcs(ui.Funcs()).
	Funcs(template.FuncMap{"variantClass": variantClass}).
	ParseFS(templateFS, "toast.html"))

func variantClass(v Variant) string {
	switch v {
	case VariantSuccess:
		return "border-green-500 bg-green-50"
	case VariantError:
		return "border-red-500 bg-red-50"
	case VariantInfo:
		return "border-blue-500 bg-blue-50"
	default:
		return ""
	}
}

func Toast(p Props) templ.Component {
	if p.Variant == "" {
		p.Variant = VariantDefault
	}
	return ui.Fragment(tmpl, "toast", p)
}

// Success and Error are shorthands for the common cases
func Success(title, description string) templ.Component {
	return Toast(Props{Title: title, Description: description, Variant: VariantSuccess, Dismissible: true})
}

func Error(title, description string) templ.Component {
	return Toast(Props{Title: title, Description: description, Variant: VariantError, Dismissible: true})
}
