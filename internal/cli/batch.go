package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/intelbench/internal/cache"
	"github.com/ppiankov/intelbench/internal/pipeline"
	"github.com/ppiankov/intelbench/internal/render"
	"github.com/ppiankov/intelbench/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// iocBatchCmd represents the ioc batch command
var iocBatchCmd = &cobra.Command{
	Use:   "batch <list>",
	Short: "Extract indicators from many files in parallel",
	Long: `Batch extracts indicators from every file named in a list:
- Read file paths from the list (one per line, # for comments)
- Extract files in parallel with a configurable worker count
- Write one indicator file per input to the output directory

Example:
  intelbench ioc batch reports.txt
  intelbench ioc batch reports.txt --concurrency 8 --output-dir ./iocs --format csv`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	iocCmd.AddCommand(iocBatchCmd)

	iocBatchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: config concurrency.workers)")
	iocBatchCmd.Flags().StringVar(&outputDir, "output-dir", "./intelbench-iocs", "output directory for indicator files")
	iocBatchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	iocBatchCmd.Flags().StringVar(&iocFormat, "format", "text", "output format (text, csv, json)")
	iocBatchCmd.Flags().BoolVar(&iocDefang, "defang", false, "output indicators defanged")
	iocBatchCmd.Flags().BoolVar(&iocHTML, "html", false, "treat every input as HTML")
	iocBatchCmd.Flags().BoolVar(&iocNoCache, "no-cache", false, "disable the extraction cache")
}

func runBatch(cmd *cobra.Command, args []string) error {
	list := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := extractionConfig(cmd)
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	format, err := render.ParseIOCFormat(iocFormat)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  intelbench Batch Extraction\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input list:   %s\n", list)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Format:       %s\n", format)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	extractor := pipeline.NewExtractor(cfg, cache.New(cfg.Cache), logger)
	batch := worker.NewBatchExtractor(extractor, cfg.Concurrency.Workers)

	results, err := batch.ProcessList(ctx, list)
	if err != nil {
		return fmt.Errorf("process list: %w", err)
	}

	successCount := 0
	failureCount := 0
	total := 0
	names := make(map[string]int)

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		extraction := result.Result
		extraction.SelectAll()
		outPath := filepath.Join(outputDir, batchOutputName(result.Path, format, names))

		if err := render.WriteIOCs(outPath, extraction.Selected(), format, cfg.Output.Defanged); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, err)
			continue
		}

		successCount++
		total += len(extraction.IOCs)
		fmt.Fprintf(os.Stderr, "✓ %s (%d indicators)\n", result.Path, len(extraction.IOCs))
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:       %d files\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:     %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:    %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Indicators:  %d\n", total)
	fmt.Fprintf(os.Stderr, "  Output:      %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d files failed", failureCount)
	}
	return nil
}

// batchOutputName derives a unique output file name from an input path
func batchOutputName(path string, format render.IOCFormat, used map[string]int) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = render.SanitizeFilename(base)
	if strings.Trim(base, "-") == "" {
		base = "iocs"
	}

	used[base]++
	if n := used[base]; n > 1 {
		base += "-" + strconv.Itoa(n)
	}
	return base + "." + format.Extension()
}
