package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/ppiankov/intelbench/internal/model"
	"github.com/ppiankov/intelbench/internal/workbench"
	"github.com/spf13/cobra"
)

var (
	projectDescription string
	projectName        string
	projectOut         string
	historyLimit       int
)

// projectCmd groups project commands
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage analysis projects",
}

var projectNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create an empty project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(context.Background(), func(ctx context.Context, svc *workbench.Service) error {
			p, err := svc.CreateProject(ctx, args[0], projectDescription)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Created project %q\n", p.Name)
			fmt.Println(p.ID)
			return nil
		})
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(context.Background(), func(ctx context.Context, svc *workbench.Service) error {
			projects, err := svc.ListProjects(ctx)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintf(os.Stderr, "No projects. Create one with 'intelbench project new' or load 'intelbench project sample'.\n")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tMATRICES\tCHECKLISTS\tUPDATED")
			for _, p := range projects {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", p.ID, p.Name, len(p.ACHMatrices), len(p.BiasChecklists), p.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		})
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <project>",
	Short: "Show a project overview",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(context.Background(), func(ctx context.Context, svc *workbench.Service) error {
			p, err := resolveProject(ctx, svc, args[0])
			if err != nil {
				return err
			}
			printProject(os.Stdout, p)
			return nil
		})
	},
}

var projectRenameCmd = &cobra.Command{
	Use:   "rename <project>",
	Short: "Change a project's name or description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var update workbench.ProjectUpdate
		if cmd.Flags().Changed("name") {
			update.Name = &projectName
		}
		if cmd.Flags().Changed("description") {
			update.Description = &projectDescription
		}
		if update.Name == nil && update.Description == nil {
			return fmt.Errorf("nothing to change: pass --name and/or --description")
		}

		return withService(context.Background(), func(ctx context.Context, svc *workbench.Service) error {
			p, err := resolveProject(ctx, svc, args[0])
			if err != nil {
				return err
			}
			if _, err := svc.UpdateProject(ctx, p.ID, update); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Updated project %s\n", p.ID)
			return nil
		})
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <project>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(context.Background(), func(ctx context.Context, svc *workbench.Service) error {
			p, err := resolveProject(ctx, svc, args[0])
			if err != nil {
				return err
			}
			if err := svc.DeleteProject(ctx, p.ID); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Deleted project %q (%s)\n", p.Name, p.ID)
			return nil
		})
	},
}

var projectSampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Load the bundled sample project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(context.Background(), func(ctx context.Context, svc *workbench.Service) error {
			p, err := svc.LoadSample(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Sample project %q available\n", p.Name)
			fmt.Println(p.ID)
			return nil
		})
	},
}

var projectImportCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Import a project from JSON",
	Long: `Import a project document. Invalid hypotheses, evidence, biases and ratings
are dropped; a project with the same id is replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args[0])
		if err != nil {
			return err
		}

		return withService(context.Background(), func(ctx context.Context, svc *workbench.Service) error {
			p, replaced, err := svc.ImportProject(ctx, data)
			if err != nil {
				return err
			}
			verb := "Imported"
			if replaced {
				verb = "Replaced"
			}
			fmt.Fprintf(os.Stderr, "✓ %s project %q\n", verb, p.Name)
			fmt.Println(p.ID)
			return nil
		})
	},
}

var projectHistoryCmd = &cobra.Command{
	Use:   "history <project>",
	Short: "List archived versions of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(context.Background(), func(ctx context.Context, svc *workbench.Service) error {
			p, err := resolveProject(ctx, svc, args[0])
			if err != nil {
				return err
			}
			versions, err := svc.ProjectVersions(ctx, p.ID, historyLimit)
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				fmt.Fprintf(os.Stderr, "No earlier versions of %q\n", p.Name)
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tNAME\tMATRICES\tCHECKLISTS\tUPDATED")
			for i, v := range versions {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", i+1, v.Name, len(v.ACHMatrices), len(v.BiasChecklists), v.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		})
	},
}

var projectExportCmd = &cobra.Command{
	Use:   "export <project>",
	Short: "Export a project as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(context.Background(), func(ctx context.Context, svc *workbench.Service) error {
			p, err := resolveProject(ctx, svc, args[0])
			if err != nil {
				return err
			}
			data, err := svc.ExportProject(ctx, p.ID)
			if err != nil {
				return err
			}
			return writeOutput(projectOut, append(data, '\n'))
		})
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectNewCmd, projectListCmd, projectShowCmd, projectRenameCmd,
		projectDeleteCmd, projectSampleCmd, projectImportCmd, projectExportCmd, projectHistoryCmd)

	projectNewCmd.Flags().StringVar(&projectDescription, "description", "", "project description")
	projectRenameCmd.Flags().StringVar(&projectName, "name", "", "new name")
	projectRenameCmd.Flags().StringVar(&projectDescription, "description", "", "new description")
	projectExportCmd.Flags().StringVar(&projectOut, "out", "", "output path (default: stdout)")
	projectHistoryCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum versions to list (0 = all)")
}

func printProject(w io.Writer, p *model.Project) {
	fmt.Fprintf(w, "%s  (%s)\n", p.Name, p.ID)
	if p.Description != "" {
		fmt.Fprintf(w, "  %s\n", p.Description)
	}
	fmt.Fprintf(w, "  created %s, updated %s\n\n", p.CreatedAt.Format("2006-01-02 15:04"), p.UpdatedAt.Format("2006-01-02 15:04"))

	fmt.Fprintf(w, "ACH matrices (%d)\n", len(p.ACHMatrices))
	for i, m := range p.ACHMatrices {
		fmt.Fprintf(w, "  %d. %s  [%d hypotheses, %d evidence]  %s\n", i+1, m.Name, len(m.Hypotheses), len(m.Evidence), m.ID)
	}

	fmt.Fprintf(w, "\nBias checklists (%d)\n", len(p.BiasChecklists))
	for i, c := range p.BiasChecklists {
		fmt.Fprintf(w, "  %d. %s  [%d/%d reviewed]  %s\n", i+1, c.Name, c.Reviewed(), len(c.Biases), c.ID)
	}

	fmt.Fprintf(w, "\nDiamond events (%d)\n", len(p.DiamondEvents))
	for i := range p.DiamondEvents {
		e := &p.DiamondEvents[i]
		fmt.Fprintf(w, "  %d. %s  [%s, %d/4 vertices]  %s\n", i+1, e.Name, e.Meta.Phase.Label(), e.FillStatus().Count(), e.ID)
	}
}

// readInput reads a file, or stdin for "-"
func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes to path, or stdout when path is empty
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", path)
	return nil
}
