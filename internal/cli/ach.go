package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ppiankov/intelbench/internal/model"
	"github.com/ppiankov/intelbench/internal/score"
	"github.com/ppiankov/intelbench/internal/workbench"
	"github.com/spf13/cobra"
)

var (
	achName        string
	achDescription string
	achSource      string
	achCredibility string
	achRelevance   string
	achJSON        bool
)

// achCmd groups Analysis of Competing Hypotheses commands
var achCmd = &cobra.Command{
	Use:   "ach",
	Short: "Analysis of Competing Hypotheses matrices",
	Long: `Build ACH matrices: hypotheses as columns, evidence as rows, each cell rated
C (consistent), I (inconsistent), N (neutral) or NA (not applicable).

Hypotheses are ranked by weighted inconsistency: only I cells count, weighted
by the evidence's credibility and relevance. The lowest score is preferred.

Matrices, hypotheses and evidence may be referred to by id, by 1-based
position, or by name (evidence by description).`,
}

var achMatrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Add, rename or delete matrices",
}

var achMatrixAddCmd = &cobra.Command{
	Use:   "add <project> <name>",
	Short: "Add an empty matrix",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProject(args[0], func(ctx context.Context, svc *workbench.Service, p *model.Project) error {
			m, err := svc.CreateMatrix(ctx, p.ID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Added matrix %q\n", m.Name)
			fmt.Println(m.ID)
			return nil
		})
	},
}

var achMatrixRenameCmd = &cobra.Command{
	Use:   "rename <project> <matrix> <name>",
	Short: "Rename a matrix",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMatrix(args[0], args[1], func(ctx context.Context, svc *workbench.Service, p *model.Project, m *model.ACHMatrix) error {
			if err := svc.RenameMatrix(ctx, p.ID, m.ID, args[2]); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Renamed matrix %q to %q\n", m.Name, args[2])
			return nil
		})
	},
}

var achMatrixDeleteCmd = &cobra.Command{
	Use:   "delete <project> <matrix>",
	Short: "Delete a matrix",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMatrix(args[0], args[1], func(ctx context.Context, svc *workbench.Service, p *model.Project, m *model.ACHMatrix) error {
			if err := svc.DeleteMatrix(ctx, p.ID, m.ID); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Deleted matrix %q\n", m.Name)
			return nil
		})
	},
}

var achHypothesisCmd = &cobra.Command{
	Use:     "hypothesis",
	Aliases: []string{"hyp"},
	Short:   "Add, update or remove hypotheses",
}

var achHypothesisAddCmd = &cobra.Command{
	Use:   "add <project> <matrix> <name>",
	Short: "Add a hypothesis column",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMatrix(args[0], args[1], func(ctx context.Context, svc *workbench.Service, p *model.Project, m *model.ACHMatrix) error {
			h, err := svc.AddHypothesis(ctx, p.ID, m.ID, args[2], achDescription)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Added hypothesis %q\n", h.Name)
			fmt.Println(h.ID)
			return nil
		})
	},
}

var achHypothesisUpdateCmd = &cobra.Command{
	Use:   "update <project> <matrix> <hypothesis>",
	Short: "Change a hypothesis's name or description",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var update workbench.HypothesisUpdate
		if cmd.Flags().Changed("name") {
			update.Name = &achName
		}
		if cmd.Flags().Changed("description") {
			update.Description = &achDescription
		}
		if update.Name == nil && update.Description == nil {
			return fmt.Errorf("nothing to change: pass --name and/or --description")
		}

		return withMatrix(args[0], args[1], func(ctx context.Context, svc *workbench.Service, p *model.Project, m *model.ACHMatrix) error {
			h, err := resolveHypothesis(m, args[2])
			if err != nil {
				return err
			}
			if err := svc.UpdateHypothesis(ctx, p.ID, m.ID, h.ID, update); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Updated hypothesis %s\n", h.ID)
			return nil
		})
	},
}

var achHypothesisRemoveCmd = &cobra.Command{
	Use:   "remove <project> <matrix> <hypothesis>",
	Short: "Remove a hypothesis and its ratings",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMatrix(args[0], args[1], func(ctx context.Context, svc *workbench.Service, p *model.Project, m *model.ACHMatrix) error {
			h, err := resolveHypothesis(m, args[2])
			if err != nil {
				return err
			}
			if err := svc.RemoveHypothesis(ctx, p.ID, m.ID, h.ID); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Removed hypothesis %q\n", h.Name)
			return nil
		})
	},
}

var achEvidenceCmd = &cobra.Command{
	Use:     "evidence",
	Aliases: []string{"ev"},
	Short:   "Add, update or remove evidence",
}

var achEvidenceAddCmd = &cobra.Command{
	Use:   "add <project> <matrix> <description>",
	Short: "Add an evidence row",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := workbench.EvidenceInput{
			Description: args[2],
			Source:      achSource,
			Credibility: model.ParseLevel(achCredibility),
			Relevance:   model.ParseLevel(achRelevance),
		}

		return withMatrix(args[0], args[1], func(ctx context.Context, svc *workbench.Service, p *model.Project, m *model.ACHMatrix) error {
			e, err := svc.AddEvidence(ctx, p.ID, m.ID, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Added evidence (credibility %s, relevance %s)\n", e.Credibility, e.Relevance)
			fmt.Println(e.ID)
			return nil
		})
	},
}

var achEvidenceUpdateCmd = &cobra.Command{
	Use:   "update <project> <matrix> <evidence>",
	Short: "Change an evidence row",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var update workbench.EvidenceUpdate
		if cmd.Flags().Changed("description") {
			update.Description = &achDescription
		}
		if cmd.Flags().Changed("source") {
			update.Source = &achSource
		}
		if cmd.Flags().Changed("credibility") {
			l := model.ParseLevel(achCredibility)
			update.Credibility = &l
		}
		if cmd.Flags().Changed("relevance") {
			l := model.ParseLevel(achRelevance)
			update.Relevance = &l
		}
		if update == (workbench.EvidenceUpdate{}) {
			return fmt.Errorf("nothing to change: pass --description, --source, --credibility or --relevance")
		}

		return withMatrix(args[0], args[1], func(ctx context.Context, svc *workbench.Service, p *model.Project, m *model.ACHMatrix) error {
			e, err := resolveEvidence(m, args[2])
			if err != nil {
				return err
			}
			if err := svc.UpdateEvidence(ctx, p.ID, m.ID, e.ID, update); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Updated evidence %s\n", e.ID)
			return nil
		})
	},
}

var achEvidenceRemoveCmd = &cobra.Command{
	Use:   "remove <project> <matrix> <evidence>",
	Short: "Remove an evidence row and its ratings",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMatrix(args[0], args[1], func(ctx context.Context, svc *workbench.Service, p *model.Project, m *model.ACHMatrix) error {
			e, err := resolveEvidence(m, args[2])
			if err != nil {
				return err
			}
			if err := svc.RemoveEvidence(ctx, p.ID, m.ID, e.ID); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Removed evidence %s\n", e.ID)
			return nil
		})
	},
}

var achRateCmd = &cobra.Command{
	Use:   "rate <project> <matrix> <evidence> <hypothesis> <C|I|N|NA>",
	Short: "Rate one matrix cell",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		rating := model.Rating(strings.ToUpper(strings.TrimSpace(args[4])))
		if !rating.Valid() {
			return fmt.Errorf("%w: %q (want C, I, N or NA)", workbench.ErrInvalidRating, args[4])
		}

		return withCell(args, func(ctx context.Context, svc *workbench.Service, p *model.Project, m *model.ACHMatrix, e model.Evidence, h model.Hypothesis) error {
			if err := svc.SetRating(ctx, p.ID, m.ID, e.ID, h.ID, rating); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ %s / %s: %s\n", h.Name, e.ID, score.RatingLabel(rating))
			return nil
		})
	},
}

var achCycleCmd = &cobra.Command{
	Use:   "cycle <project> <matrix> <evidence> <hypothesis>",
	Short: "Advance a cell through NA, C, I, N",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCell(args, func(ctx context.Context, svc *workbench.Service, p *model.Project, m *model.ACHMatrix, e model.Evidence, h model.Hypothesis) error {
			next, err := svc.CycleRating(ctx, p.ID, m.ID, e.ID, h.ID)
			if err != nil {
				return err
			}
			fmt.Println(next)
			return nil
		})
	},
}

var achScoreCmd = &cobra.Command{
	Use:   "score <project> [matrix]",
	Short: "Score a matrix, or every matrix in a project",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProject(args[0], func(ctx context.Context, svc *workbench.Service, p *model.Project) error {
			matrices := p.ACHMatrices
			if len(args) == 2 {
				m, err := resolveMatrix(p, args[1])
				if err != nil {
					return err
				}
				matrices = []model.ACHMatrix{*m}
			}

			results := make(map[string]score.MatrixScore, len(matrices))
			for _, m := range matrices {
				s, err := svc.Score(ctx, p.ID, m.ID)
				if err != nil {
					return err
				}
				results[m.ID] = s
			}

			if achJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			for i := range matrices {
				if i > 0 {
					fmt.Println()
				}
				printMatrixScore(os.Stdout, &matrices[i], results[matrices[i].ID])
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(achCmd)
	achCmd.AddCommand(achMatrixCmd, achHypothesisCmd, achEvidenceCmd, achRateCmd, achCycleCmd, achScoreCmd)
	achMatrixCmd.AddCommand(achMatrixAddCmd, achMatrixRenameCmd, achMatrixDeleteCmd)
	achHypothesisCmd.AddCommand(achHypothesisAddCmd, achHypothesisUpdateCmd, achHypothesisRemoveCmd)
	achEvidenceCmd.AddCommand(achEvidenceAddCmd, achEvidenceUpdateCmd, achEvidenceRemoveCmd)

	achHypothesisAddCmd.Flags().StringVar(&achDescription, "description", "", "hypothesis description")
	achHypothesisUpdateCmd.Flags().StringVar(&achName, "name", "", "new name")
	achHypothesisUpdateCmd.Flags().StringVar(&achDescription, "description", "", "new description")

	for _, c := range []*cobra.Command{achEvidenceAddCmd, achEvidenceUpdateCmd} {
		c.Flags().StringVar(&achSource, "source", "", "where the evidence came from")
		c.Flags().StringVar(&achCredibility, "credibility", "Medium", "source credibility (High, Medium, Low)")
		c.Flags().StringVar(&achRelevance, "relevance", "Medium", "relevance to the question (High, Medium, Low)")
	}
	achEvidenceUpdateCmd.Flags().StringVar(&achDescription, "description", "", "new description")

	achScoreCmd.Flags().BoolVar(&achJSON, "json", false, "print scores as JSON")
}

func withProject(ref string, fn func(ctx context.Context, svc *workbench.Service, p *model.Project) error) error {
	return withService(context.Background(), func(ctx context.Context, svc *workbench.Service) error {
		p, err := resolveProject(ctx, svc, ref)
		if err != nil {
			return err
		}
		return fn(ctx, svc, p)
	})
}

func withMatrix(projectRef, matrixRef string, fn func(ctx context.Context, svc *workbench.Service, p *model.Project, m *model.ACHMatrix) error) error {
	return withProject(projectRef, func(ctx context.Context, svc *workbench.Service, p *model.Project) error {
		m, err := resolveMatrix(p, matrixRef)
		if err != nil {
			return err
		}
		return fn(ctx, svc, p, m)
	})
}

// withCell resolves <project> <matrix> <evidence> <hypothesis> from args
func withCell(args []string, fn func(ctx context.Context, svc *workbench.Service, p *model.Project, m *model.ACHMatrix, e model.Evidence, h model.Hypothesis) error) error {
	return withMatrix(args[0], args[1], func(ctx context.Context, svc *workbench.Service, p *model.Project, m *model.ACHMatrix) error {
		e, err := resolveEvidence(m, args[2])
		if err != nil {
			return err
		}
		h, err := resolveHypothesis(m, args[3])
		if err != nil {
			return err
		}
		return fn(ctx, svc, p, m, e, h)
	})
}

func printMatrixScore(w io.Writer, m *model.ACHMatrix, s score.MatrixScore) {
	fmt.Fprintf(w, "%s\n\n", m.Name)
	if len(m.Hypotheses) == 0 {
		fmt.Fprintln(w, "  (no hypotheses)")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "#\tEVIDENCE\tCRED.\tREL.")
	for i := range m.Hypotheses {
		fmt.Fprintf(tw, "\tH%d", i+1)
	}
	fmt.Fprintln(tw, "\tDIAG.")

	diag := make(map[string]float64, len(s.Diagnosticity))
	for _, d := range s.Diagnosticity {
		diag[d.EvidenceID] = d.StdDev
	}

	for i, e := range m.Evidence {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s", i+1, truncate(e.Description, 40), e.Credibility, e.Relevance)
		for _, h := range m.Hypotheses {
			fmt.Fprintf(tw, "\t%s", m.Ratings.Get(e.ID, h.ID))
		}
		fmt.Fprintf(tw, "\t%.2f\n", diag[e.ID])
	}
	_ = tw.Flush()

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tHYPOTHESIS\tSCORE\tNORMALIZED\t")
	for i, h := range m.Hypotheses {
		marker := ""
		if h.ID == s.Preferred {
			marker = "★ preferred"
		}
		fmt.Fprintf(tw, "H%d\t%s\t%g\t%d\t%s\n", i+1, h.Name, s.Scores[h.ID], s.Normalized[h.ID], marker)
	}
	_ = tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
