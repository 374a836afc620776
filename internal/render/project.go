package render

import (
	"bytes"

	"github.com/ppiankov/intelbench/internal/model"
)

// JSON encodes the project document in its import/export shape
func (r *Renderer) JSON(p *model.Project) ([]byte, error) {
	return marshalIndent(p)
}

// RenderJSON writes the project document to path
func (r *Renderer) RenderJSON(p *model.Project, path string) error {
	data, err := r.JSON(p)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// Project renders p in format f
func (r *Renderer) Project(p *model.Project, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return r.JSON(p)
	case FormatMarkdown:
		return []byte(r.Markdown(p)), nil
	case FormatHTML:
		return r.HTML(p), nil
	case FormatXLSX:
		var buf bytes.Buffer
		if err := r.WriteXLSX(p, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, errUnknownFormat(f)
	}
}

// RenderProject writes p to path in format f
func (r *Renderer) RenderProject(p *model.Project, f Format, path string) error {
	switch f {
	case FormatJSON:
		return r.RenderJSON(p, path)
	case FormatMarkdown:
		return r.RenderMarkdown(p, path)
	case FormatHTML:
		return r.RenderHTML(p, path)
	case FormatXLSX:
		return r.RenderXLSX(p, path)
	default:
		return errUnknownFormat(f)
	}
}
