package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ppiankov/intelbench/internal/bias"
	"github.com/ppiankov/intelbench/internal/model"
	"github.com/ppiankov/intelbench/internal/workbench"
	"github.com/spf13/cobra"
)

// biasCmd groups cognitive bias checklist commands
var biasCmd = &cobra.Command{
	Use:   "bias",
	Short: "Cognitive bias checklists",
	Long: `Review a project against a catalogue of twelve cognitive, analytical and
social biases. Each checklist tracks which biases were reviewed and the
mitigation notes recorded for them.`,
}

var biasAddCmd = &cobra.Command{
	Use:   "add <project> <name>",
	Short: "Add a checklist seeded from the bias catalogue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProject(args[0], func(ctx context.Context, svc *workbench.Service, p *model.Project) error {
			c, err := svc.CreateChecklist(ctx, p.ID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Added checklist %q with %d biases\n", c.Name, len(c.Biases))
			fmt.Println(c.ID)
			return nil
		})
	},
}

var biasDeleteCmd = &cobra.Command{
	Use:   "delete <project> <checklist>",
	Short: "Delete a checklist",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withChecklist(args[0], args[1], func(ctx context.Context, svc *workbench.Service, p *model.Project, c *model.BiasChecklist) error {
			if err := svc.DeleteChecklist(ctx, p.ID, c.ID); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Deleted checklist %q\n", c.Name)
			return nil
		})
	},
}

var biasCheckCmd = &cobra.Command{
	Use:   "check <project> <checklist> <bias>",
	Short: "Toggle whether a bias has been reviewed",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withChecklist(args[0], args[1], func(ctx context.Context, svc *workbench.Service, p *model.Project, c *model.BiasChecklist) error {
			b, err := resolveBias(c, args[2])
			if err != nil {
				return err
			}
			checked, err := svc.ToggleBias(ctx, p.ID, c.ID, b.ID)
			if err != nil {
				return err
			}
			state := "unchecked"
			if checked {
				state = "reviewed"
			}
			fmt.Fprintf(os.Stderr, "✓ %s: %s\n", b.Name, state)
			return nil
		})
	},
}

var biasNoteCmd = &cobra.Command{
	Use:   "note <project> <checklist> <bias> <notes>",
	Short: "Set the mitigation notes of a bias",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withChecklist(args[0], args[1], func(ctx context.Context, svc *workbench.Service, p *model.Project, c *model.BiasChecklist) error {
			b, err := resolveBias(c, args[2])
			if err != nil {
				return err
			}
			if err := svc.SetBiasNotes(ctx, p.ID, c.ID, b.ID, args[3]); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Updated notes for %s\n", b.Name)
			return nil
		})
	},
}

var biasShowCmd = &cobra.Command{
	Use:   "show [project] [checklist]",
	Short: "Show checklist progress, or the catalogue when no project is given",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return printCatalogue(os.Stdout)
		}
		return withProject(args[0], func(ctx context.Context, svc *workbench.Service, p *model.Project) error {
			checklists := p.BiasChecklists
			if len(args) == 2 {
				c, err := resolveChecklist(p, args[1])
				if err != nil {
					return err
				}
				checklists = []model.BiasChecklist{*c}
			}
			if len(checklists) == 0 {
				fmt.Fprintf(os.Stderr, "No checklists in %q. Add one with 'intelbench bias add'.\n", p.Name)
				return nil
			}
			for i := range checklists {
				if i > 0 {
					fmt.Println()
				}
				printChecklist(os.Stdout, &checklists[i])
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(biasCmd)
	biasCmd.AddCommand(biasAddCmd, biasDeleteCmd, biasCheckCmd, biasNoteCmd, biasShowCmd)
}

func withChecklist(projectRef, checklistRef string, fn func(ctx context.Context, svc *workbench.Service, p *model.Project, c *model.BiasChecklist) error) error {
	return withProject(projectRef, func(ctx context.Context, svc *workbench.Service, p *model.Project) error {
		c, err := resolveChecklist(p, checklistRef)
		if err != nil {
			return err
		}
		return fn(ctx, svc, p, c)
	})
}

func printChecklist(w io.Writer, c *model.BiasChecklist) {
	fmt.Fprintf(w, "%s  [%d/%d reviewed]\n", c.Name, c.Reviewed(), len(c.Biases))
	for i, b := range c.Biases {
		box := "[ ]"
		if b.Checked {
			box = "[x]"
		}
		fmt.Fprintf(w, "  %2d. %s %s (%s)\n", i+1, box, b.Name, b.Category)
		if b.MitigationNotes != "" {
			fmt.Fprintf(w, "        %s\n", b.MitigationNotes)
		}
	}
}

func printCatalogue(w io.Writer) error {
	defs, err := bias.Definitions()
	if err != nil {
		return err
	}
	for _, d := range defs {
		fmt.Fprintf(w, "%-22s %-11s %s\n", d.ID, d.Category, d.Name)
		fmt.Fprintf(w, "    %s\n", d.Description)
		if d.DefaultMitigation != "" {
			fmt.Fprintf(w, "    Mitigation: %s\n", d.DefaultMitigation)
		}
	}
	return nil
}
