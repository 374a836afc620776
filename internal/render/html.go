package render

import (
	stdhtml "html"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/ppiankov/intelbench/internal/model"
)

// HTML renders the markdown report as a standalone HTML page
func (r *Renderer) HTML(p *model.Project) []byte {
	md := []byte(r.Markdown(p))

	// Parsers are single-use
	mdParser := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)

	opts := html.RendererOptions{
		// Raw HTML and unsafe link schemes are dropped
		Flags: html.CommonFlags | html.CompletePage | html.HrefTargetBlank | html.SkipHTML | html.Safelink,
		Title: stdhtml.EscapeString(p.Name),
		Head:  []byte(htmlStyle),
	}

	return markdown.ToHTML(md, mdParser, html.NewRenderer(opts))
}

// RenderHTML writes the HTML report to path
func (r *Renderer) RenderHTML(p *model.Project, path string) error {
	return writeFile(path, r.HTML(p))
}

const htmlStyle = `<style>
body { font-family: system-ui, sans-serif; max-width: 960px; margin: 2em auto; color: #1e293b; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #cbd5e1; padding: 4px 8px; text-align: left; }
th { background: #f1f5f9; }
blockquote { color: #475569; border-left: 3px solid #94a3b8; margin-left: 0; padding-left: 1em; }
</style>
`
