package markdown

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/frontmatter"
)

var frontmatterDelim = []byte("---")

type Parser struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			&frontmatter.Extender{},
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithXHTML(),
		),
	)

	return &Parser{
		md:     md,
		policy: bluemonday.UGCPolicy(),
	}
}

func (p *Parser) Parse(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := p.md.Convert(source, &buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render converts an artwork description to sanitised HTML.
// Raw HTML in the source never reaches the page.
func (p *Parser) Render(source string) (template.HTML, error) {
	if source == "" {
		return "", nil
	}
	out, err := p.Parse([]byte(source))
	if err != nil {
		return "", err
	}
	//nolint:gosec // G203: output is sanitised by bluemonday
	return template.HTML(p.policy.SanitizeBytes(out)), nil
}

// DecodeFrontmatter decodes the YAML front matter of source into dst and
// returns the markdown body that follows it.
func (p *Parser) DecodeFrontmatter(source []byte, dst any) ([]byte, error) {
	context := parser.NewContext()
	p.md.Parser().Parse(text.NewReader(source), parser.WithContext(context))

	data := frontmatter.Get(context)
	if data == nil {
		return bytes.TrimSpace(source), nil
	}
	if err := data.Decode(dst); err != nil {
		return nil, err
	}
	return body(source), nil
}

// body strips a leading "---" delimited block
func body(source []byte) []byte {
	rest, ok := bytes.CutPrefix(bytes.TrimLeft(source, "\ufeff"), frontmatterDelim)
	if !ok {
		return bytes.TrimSpace(source)
	}
	for len(rest) > 0 {
		line, next, _ := bytes.Cut(rest, []byte("\n"))
		rest = next
		if bytes.Equal(bytes.TrimSpace(line), frontmatterDelim) {
			return bytes.TrimSpace(rest)
		}
	}
	return nil
}
