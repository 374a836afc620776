// Package render turns projects and indicator lists into export documents.
package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ppiankov/intelbench/internal/score"
)

// Renderer writes project reports in the supported formats
type Renderer struct {
	includeFooter bool
	scorer        *score.Scorer
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{
		includeFooter: includeFooter,
		scorer:        score.NewScorer(),
	}
}

// Format is a project export format
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatXLSX     Format = "xlsx"
)

// ParseFormat accepts a format name or common alias
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json, md, html or xlsx)", s)
	}
}

// Extension returns the file extension for the format, without the dot
func (f Format) Extension() string {
	return string(f)
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_ ]`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

// SanitizeFilename strips characters outside [a-zA-Z0-9-_ ] and turns
// whitespace runs into dashes
func SanitizeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return whitespaceRun.ReplaceAllString(name, "-")
}

// DefaultFilename is the export file name for a project
func DefaultFilename(projectName string, f Format) string {
	base := SanitizeFilename(projectName)
	if base == "" || strings.Trim(base, "-") == "" {
		base = "project"
	}
	return base + "." + f.Extension()
}

// writeFile writes data, creating parent directories as needed
func writeFile(path string, data []byte) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

// marshalIndent is the JSON encoding used by every JSON export
func marshalIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal JSON: %w", err)
	}
	return data, nil
}

func errUnknownFormat(f Format) error {
	return fmt.Errorf("unknown export format %q", f)
}
