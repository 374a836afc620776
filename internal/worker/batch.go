package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/intelbench/internal/model"
)

// Extractor defines the interface for extracting indicators from a file
type Extractor interface {
	ExtractFile(ctx context.Context, path string) (model.ExtractionResult, error)
}

// ExtractJob represents a single-file extraction job
type ExtractJob struct {
	Path      string
	Extractor Extractor
}

// Execute executes the extraction job
func (j *ExtractJob) Execute(ctx context.Context) Result {
	result, err := j.Extractor.ExtractFile(ctx, j.Path)
	if err != nil {
		return &FileResult{Path: j.Path, Error: err}
	}
	return &FileResult{Path: j.Path, Result: result}
}

// FileResult represents the outcome of extracting one file
type FileResult struct {
	Path   string
	Result model.ExtractionResult
	Error  error
}

// GetError returns the error from the extraction
func (r *FileResult) GetError() error {
	return r.Error
}

// BatchExtractor extracts indicators from many files concurrently
type BatchExtractor struct {
	extractor   Extractor
	concurrency int
}

// NewBatchExtractor creates a new batch extractor
func NewBatchExtractor(extractor Extractor, concurrency int) *BatchExtractor {
	return &BatchExtractor{
		extractor:   extractor,
		concurrency: concurrency,
	}
}

// ProcessFiles extracts from each path and returns results in input order.
// Paths not started before ctx is cancelled are reported with ctx's error.
func (b *BatchExtractor) ProcessFiles(ctx context.Context, paths []string) []*FileResult {
	if len(paths) == 0 {
		return []*FileResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, path := range paths {
		if !pool.Submit(&ExtractJob{Path: path, Extractor: b.extractor}) {
			break
		}
	}

	byPath := make(map[string]*FileResult, len(paths))
	for _, result := range pool.Wait() {
		fr := result.(*FileResult)
		byPath[fr.Path] = fr
	}

	fileResults := make([]*FileResult, 0, len(paths))
	for _, path := range paths {
		fr, ok := byPath[path]
		if !ok {
			fr = &FileResult{Path: path, Error: contextErr(ctx)}
		}
		fileResults = append(fileResults, fr)
	}

	return fileResults
}

// ProcessList reads paths from a list file and processes them concurrently
func (b *BatchExtractor) ProcessList(ctx context.Context, listPath string) ([]*FileResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}

	return b.ProcessFiles(ctx, paths), nil
}

// ReadPathsFromFile reads file paths from a file (one per line)
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}

func contextErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return context.Canceled
}
