package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/intelbench/internal/cache"
	"github.com/ppiankov/intelbench/internal/extract"
	"github.com/ppiankov/intelbench/internal/model"
)

// ErrInputTooLarge is returned when input exceeds the configured size cap
var ErrInputTooLarge = errors.New("input exceeds size limit")

const (
	kindText = "text"
	kindHTML = "html"
)

// Extractor runs IOC extraction over raw text or HTML, with an optional
// result cache in front of the engine
type Extractor struct {
	engine        *extract.IOCExtractor
	cache         cache.Cache
	stripHTML     bool
	maxInputBytes int64
	logger        *slog.Logger
}

// NewExtractor creates an extractor configured from cfg. A nil cache disables caching.
func NewExtractor(cfg *model.Config, c cache.Cache, logger *slog.Logger) *Extractor {
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		engine:        extract.NewIOCExtractor(),
		cache:         c,
		stripHTML:     cfg.Extraction.StripHTML,
		maxInputBytes: cfg.Extraction.MaxInputBytes,
		logger:        logger,
	}
}

// Extract treats input as HTML when the extractor is configured to strip HTML
func (e *Extractor) Extract(ctx context.Context, input string) (model.ExtractionResult, error) {
	if e.stripHTML {
		return e.ExtractHTML(ctx, input)
	}
	return e.ExtractText(ctx, input)
}

// ExtractText extracts indicators from plain text
func (e *Extractor) ExtractText(ctx context.Context, text string) (model.ExtractionResult, error) {
	return e.run(ctx, kindText, text, func() (string, error) { return text, nil })
}

// ExtractHTML extracts indicators from the visible text of an HTML document
func (e *Extractor) ExtractHTML(ctx context.Context, htmlContent string) (model.ExtractionResult, error) {
	return e.run(ctx, kindHTML, htmlContent, func() (string, error) {
		return extract.VisibleText(htmlContent)
	})
}

// ExtractReader reads all of r (bounded by the size cap) and extracts from it
func (e *Extractor) ExtractReader(ctx context.Context, r io.Reader, asHTML bool) (model.ExtractionResult, error) {
	data, err := e.readLimited(r)
	if err != nil {
		return model.ExtractionResult{}, err
	}
	if asHTML || e.stripHTML {
		return e.ExtractHTML(ctx, string(data))
	}
	return e.ExtractText(ctx, string(data))
}

// ExtractFile extracts from a file. .html and .htm files are always stripped.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (model.ExtractionResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.ExtractionResult{}, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	return e.ExtractReader(ctx, f, isHTMLPath(path))
}

func (e *Extractor) run(ctx context.Context, kind, input string, prepare func() (string, error)) (model.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return model.ExtractionResult{}, err
	}
	if e.maxInputBytes > 0 && int64(len(input)) > e.maxInputBytes {
		return model.ExtractionResult{}, fmt.Errorf("%w: %d > %d bytes", ErrInputTooLarge, len(input), e.maxInputBytes)
	}

	key := cache.Key(kind, input)
	if data, ok := e.cache.Get(key); ok {
		var cached model.ExtractionResult
		if err := json.Unmarshal(data, &cached); err == nil {
			e.logger.Debug("extraction cache hit", "kind", kind, "iocs", len(cached.IOCs))
			return cached, nil
		}
		_ = e.cache.Delete(key)
	}

	text, err := prepare()
	if err != nil {
		return model.ExtractionResult{}, fmt.Errorf("prepare %s input: %w", kind, err)
	}

	result := e.engine.Extract(text)
	e.logger.Debug("extracted indicators", "kind", kind, "iocs", len(result.IOCs), "duplicates", result.Duplicates)

	if data, err := json.Marshal(result); err == nil {
		if err := e.cache.Set(key, data, 0); err != nil {
			e.logger.Warn("cache write failed", "error", err)
		}
	}

	return result, nil
}

func (e *Extractor) readLimited(r io.Reader) ([]byte, error) {
	if e.maxInputBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		return data, nil
	}

	// One byte past the cap tells an exact fit from an overflow
	data, err := io.ReadAll(io.LimitReader(r, e.maxInputBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if int64(len(data)) > e.maxInputBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrInputTooLarge, e.maxInputBytes)
	}
	return data, nil
}

func isHTMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}
