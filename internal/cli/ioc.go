package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/intelbench/internal/cache"
	"github.com/ppiankov/intelbench/internal/extract"
	"github.com/ppiankov/intelbench/internal/model"
	"github.com/ppiankov/intelbench/internal/pipeline"
	"github.com/ppiankov/intelbench/internal/render"
	"github.com/spf13/cobra"
)

var (
	iocHTML    bool
	iocDefang  bool
	iocFormat  string
	iocOut     string
	iocTypes   []string
	iocNoCache bool
	defangType string
)

// iocCmd groups indicator commands
var iocCmd = &cobra.Command{
	Use:   "ioc",
	Short: "Extract, defang and refang indicators of compromise",
}

var iocExtractCmd = &cobra.Command{
	Use:   "extract [file|-]",
	Short: "Extract indicators from a report",
	Long: `Extract IPv4/IPv6 addresses, domains, URLs, email addresses, MD5/SHA1/SHA256
hashes and CVE ids from text. Defanged input (hxxp, [.], [at], [:], [/]) is
recognized; duplicates are removed case- and defang-insensitively.

Reads stdin when no file (or "-") is given.

Example:
  intelbench ioc extract report.txt
  intelbench ioc extract report.html --defang --format csv --out iocs.csv
  cat report.txt | intelbench ioc extract --types ipv4,domain`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIOCExtract,
}

var iocRefangCmd = &cobra.Command{
	Use:   "refang <text...>",
	Short: "Convert defanged indicators back to their live form",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, arg := range args {
			fmt.Println(extract.Refang(arg))
		}
	},
}

var iocDefangCmd = &cobra.Command{
	Use:   "defang <value...>",
	Short: "Render indicators in their safe, defanged form",
	Long: `Defang live indicators of the given type. Hashes and CVE ids are never defanged.

Example:
  intelbench ioc defang --type url https://evil.com/payload
  intelbench ioc defang --type domain evil.com bad.org`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := model.ParseIOCType(defangType)
		if err != nil {
			return err
		}
		for _, arg := range args {
			fmt.Println(extract.FormatIOC(arg, t, true))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(iocCmd)
	iocCmd.AddCommand(iocExtractCmd, iocRefangCmd, iocDefangCmd)

	iocExtractCmd.Flags().BoolVar(&iocHTML, "html", false, "treat input as HTML and extract from visible text only")
	iocExtractCmd.Flags().BoolVar(&iocDefang, "defang", false, "output indicators defanged")
	iocExtractCmd.Flags().StringVar(&iocFormat, "format", "text", "output format (text, csv, json)")
	iocExtractCmd.Flags().StringVar(&iocOut, "out", "", "output path (default: stdout)")
	iocExtractCmd.Flags().StringSliceVar(&iocTypes, "types", nil, "only output these types (e.g. ipv4,domain)")
	iocExtractCmd.Flags().BoolVar(&iocNoCache, "no-cache", false, "disable the extraction cache")

	iocDefangCmd.Flags().StringVar(&defangType, "type", "", "indicator type (ipv4, domain, url, email, ...)")
	_ = iocDefangCmd.MarkFlagRequired("type")
}

// extractionConfig applies extraction flags over the loaded config
func extractionConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("html") {
		cfg.Extraction.StripHTML = iocHTML
	}
	if cmd.Flags().Changed("defang") {
		cfg.Output.Defanged = iocDefang
	}
	if iocNoCache {
		cfg.Cache.Enabled = false
	}
	return cfg, nil
}

func runIOCExtract(cmd *cobra.Command, args []string) error {
	cfg, err := extractionConfig(cmd)
	if err != nil {
		return err
	}

	format, err := render.ParseIOCFormat(iocFormat)
	if err != nil {
		return err
	}

	types, err := parseIOCTypes(iocTypes)
	if err != nil {
		return err
	}

	extractor := pipeline.NewExtractor(cfg, cache.New(cfg.Cache), logger)
	ctx := context.Background()

	var result model.ExtractionResult
	if len(args) == 0 || args[0] == "-" {
		result, err = extractor.ExtractReader(ctx, os.Stdin, cfg.Extraction.StripHTML)
	} else {
		result, err = extractor.ExtractFile(ctx, args[0])
	}
	if err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}

	if len(types) > 0 {
		result.SelectTypes(types...)
	} else {
		result.SelectAll()
	}
	selected := result.Selected()

	if verbose {
		printExtractionSummary(result, len(selected))
	}

	if iocOut == "" {
		data, err := render.IOCs(selected, format, cfg.Output.Defanged)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := render.WriteIOCs(iocOut, selected, format, cfg.Output.Defanged); err != nil {
		return fmt.Errorf("write indicators: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %d indicators to %s\n", len(selected), iocOut)
	return nil
}

func parseIOCTypes(names []string) ([]model.IOCType, error) {
	var types []model.IOCType
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		t, err := model.ParseIOCType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func printExtractionSummary(result model.ExtractionResult, selected int) {
	counts := result.CountByType()
	types := make([]model.IOCType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	fmt.Fprintf(os.Stderr, "✓ Found %d indicators (%d duplicates removed)\n", len(result.IOCs), result.Duplicates)
	for _, t := range types {
		fmt.Fprintf(os.Stderr, "    %-8s %d\n", t.Label(), counts[t])
	}
	fmt.Fprintf(os.Stderr, "✓ Selected %d\n\n", selected)
}
