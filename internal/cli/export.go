package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ppiankov/intelbench/internal/model"
	"github.com/ppiankov/intelbench/internal/render"
	"github.com/ppiankov/intelbench/internal/workbench"
	"github.com/spf13/cobra"
)

var (
	exportFormat   string
	exportOut      string
	exportNoFooter bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <project>",
	Short: "Export a project report",
	Long: `Export a project as JSON, a Markdown report, a standalone HTML page or an
XLSX workbook (one sheet per matrix and checklist).

Without --out the report is written to a file named after the project in the
current directory; --out - writes to stdout.

Example:
  intelbench export "Sandworm attribution" --format md
  intelbench export proj-sandworm --format xlsx --out sandworm.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md", "export format (json, md, html, xlsx)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (default: <project-name>.<ext>)")
	exportCmd.Flags().BoolVar(&exportNoFooter, "no-footer", false, "disable footer in Markdown and HTML reports")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	includeFooter := cfg.Output.IncludeFooter && !exportNoFooter

	return withProject(args[0], func(ctx context.Context, svc *workbench.Service, p *model.Project) error {
		renderer := render.NewRenderer(includeFooter)

		if exportOut == "-" {
			data, err := renderer.Project(p, format)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		}

		path := exportOut
		if path == "" {
			path = render.DefaultFilename(p.Name, format)
		}
		if err := renderer.RenderProject(p, format, path); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Exported %q to %s\n", p.Name, path)
		return nil
	})
}
