package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ppiankov/intelbench/internal/model"
	"github.com/ppiankov/intelbench/internal/workbench"
	"github.com/spf13/cobra"
)

var diamondOut string

// diamondCmd groups Diamond Model event commands
var diamondCmd = &cobra.Command{
	Use:   "diamond",
	Short: "Diamond Model intrusion events",
	Long: `Map intrusion events onto the Diamond Model. Each event has four vertices
(adversary, capability, infrastructure, victim) plus meta features: kill chain
phase, confidence and source reliability.

Vertex and meta commands only change the fields whose flags are given.`,
}

var diamondAddCmd = &cobra.Command{
	Use:   "add <project> <name>",
	Short: "Add an empty event",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProject(args[0], func(ctx context.Context, svc *workbench.Service, p *model.Project) error {
			e, err := svc.CreateEvent(ctx, p.ID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Added event %q\n", e.Name)
			fmt.Println(e.ID)
			return nil
		})
	},
}

var diamondRenameCmd = &cobra.Command{
	Use:   "rename <project> <event> <name>",
	Short: "Rename an event",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEvent(args[0], args[1], func(ctx context.Context, svc *workbench.Service, p *model.Project, e *model.DiamondEvent) error {
			if err := svc.RenameEvent(ctx, p.ID, e.ID, args[2]); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Renamed event to %q\n", strings.TrimSpace(args[2]))
			return nil
		})
	},
}

var diamondDeleteCmd = &cobra.Command{
	Use:   "delete <project> <event>",
	Short: "Delete an event",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEvent(args[0], args[1], func(ctx context.Context, svc *workbench.Service, p *model.Project, e *model.DiamondEvent) error {
			if err := svc.DeleteEvent(ctx, p.ID, e.ID); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Deleted event %q\n", e.Name)
			return nil
		})
	},
}

var diamondShowCmd = &cobra.Command{
	Use:   "show <project> [event]",
	Short: "List events with vertex fill status, or show one event",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProject(args[0], func(ctx context.Context, svc *workbench.Service, p *model.Project) error {
			if len(args) == 2 {
				e, err := resolveEvent(p, args[1])
				if err != nil {
					return err
				}
				printEvent(os.Stdout, e)
				return nil
			}
			if len(p.DiamondEvents) == 0 {
				fmt.Fprintf(os.Stderr, "No events in %q. Add one with 'intelbench diamond add'.\n", p.Name)
				return nil
			}
			return printEvents(os.Stdout, p.DiamondEvents)
		})
	},
}

var diamondAdversaryCmd = &cobra.Command{
	Use:   "adversary <project> <event>",
	Short: "Update the adversary vertex",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := workbench.AdversaryUpdate{
			Name:                  flagValue(cmd, "name"),
			Aliases:               flagValue(cmd, "aliases"),
			Motivation:            flagValue(cmd, "motivation"),
			AttributionConfidence: flagValue(cmd, "attribution"),
		}
		return updateEvent(args, func(ctx context.Context, svc *workbench.Service, projectID, eventID string) (model.DiamondEvent, error) {
			return svc.UpdateAdversary(ctx, projectID, eventID, u)
		})
	},
}

var diamondCapabilityCmd = &cobra.Command{
	Use:   "capability <project> <event>",
	Short: "Update the capability vertex",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := workbench.CapabilityUpdate{
			Malware:    flagValue(cmd, "malware"),
			Tools:      flagValue(cmd, "tools"),
			Techniques: flagValue(cmd, "techniques"),
			AttackIDs:  flagValue(cmd, "attack-ids"),
		}
		return updateEvent(args, func(ctx context.Context, svc *workbench.Service, projectID, eventID string) (model.DiamondEvent, error) {
			return svc.UpdateCapability(ctx, projectID, eventID, u)
		})
	},
}

var diamondInfrastructureCmd = &cobra.Command{
	Use:   "infrastructure <project> <event>",
	Short: "Update the infrastructure vertex",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := workbench.InfrastructureUpdate{
			C2Servers:        flagValue(cmd, "c2"),
			Domains:          flagValue(cmd, "domains"),
			IPs:              flagValue(cmd, "ips"),
			HostingProviders: flagValue(cmd, "hosting"),
		}
		return updateEvent(args, func(ctx context.Context, svc *workbench.Service, projectID, eventID string) (model.DiamondEvent, error) {
			return svc.UpdateInfrastructure(ctx, projectID, eventID, u)
		})
	},
}

var diamondVictimCmd = &cobra.Command{
	Use:   "victim <project> <event>",
	Short: "Update the victim vertex",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := workbench.VictimUpdate{
			Organization: flagValue(cmd, "organization"),
			Sector:       flagValue(cmd, "sector"),
			Geography:    flagValue(cmd, "geography"),
			Impact:       flagValue(cmd, "impact"),
		}
		return updateEvent(args, func(ctx context.Context, svc *workbench.Service, projectID, eventID string) (model.DiamondEvent, error) {
			return svc.UpdateVictim(ctx, projectID, eventID, u)
		})
	},
}

var diamondMetaCmd = &cobra.Command{
	Use:   "meta <project> <event>",
	Short: "Update phase, confidence, source reliability, timestamp or notes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := workbench.MetaUpdate{
			Timestamp: flagValue(cmd, "timestamp"),
			Notes:     flagValue(cmd, "notes"),
		}
		if v := flagValue(cmd, "phase"); v != nil {
			phase := model.KillChainPhase(strings.ToLower(strings.TrimSpace(*v)))
			u.Phase = &phase
		}
		if v := flagValue(cmd, "confidence"); v != nil {
			c := parseConfidence(*v)
			u.Confidence = &c
		}
		if v := flagValue(cmd, "reliability"); v != nil {
			r := model.SourceReliability(strings.ToUpper(strings.TrimSpace(*v)))
			u.SourceReliability = &r
		}
		return updateEvent(args, func(ctx context.Context, svc *workbench.Service, projectID, eventID string) (model.DiamondEvent, error) {
			return svc.UpdateMeta(ctx, projectID, eventID, u)
		})
	},
}

var diamondExportCmd = &cobra.Command{
	Use:   "export <project>",
	Short: "Export a project's events as a JSON array",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProject(args[0], func(ctx context.Context, svc *workbench.Service, p *model.Project) error {
			data, err := svc.ExportEvents(ctx, p.ID)
			if err != nil {
				return err
			}
			return writeOutput(diamondOut, append(data, '\n'))
		})
	},
}

var diamondImportCmd = &cobra.Command{
	Use:   "import <project> <file|->",
	Short: "Replace a project's events with a JSON array",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args[1])
		if err != nil {
			return err
		}
		return withProject(args[0], func(ctx context.Context, svc *workbench.Service, p *model.Project) error {
			n, err := svc.ImportEvents(ctx, p.ID, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Imported %d events into %q\n", n, p.Name)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(diamondCmd)
	diamondCmd.AddCommand(diamondAddCmd, diamondRenameCmd, diamondDeleteCmd, diamondShowCmd,
		diamondAdversaryCmd, diamondCapabilityCmd, diamondInfrastructureCmd, diamondVictimCmd, diamondMetaCmd,
		diamondExportCmd, diamondImportCmd)

	f := diamondAdversaryCmd.Flags()
	f.String("name", "", "adversary name")
	f.String("aliases", "", "known aliases")
	f.String("motivation", "", "motivation")
	f.String("attribution", "", "attribution confidence")

	f = diamondCapabilityCmd.Flags()
	f.String("malware", "", "malware families")
	f.String("tools", "", "tools")
	f.String("techniques", "", "techniques")
	f.String("attack-ids", "", "MITRE ATT&CK technique ids")

	f = diamondInfrastructureCmd.Flags()
	f.String("c2", "", "C2 servers")
	f.String("domains", "", "domains")
	f.String("ips", "", "IP addresses")
	f.String("hosting", "", "hosting providers")

	f = diamondVictimCmd.Flags()
	f.String("organization", "", "victim organization")
	f.String("sector", "", "sector")
	f.String("geography", "", "geography")
	f.String("impact", "", "impact")

	f = diamondMetaCmd.Flags()
	f.String("timestamp", "", "when the event happened, as reported")
	f.String("phase", "", "kill chain phase: "+joinPhases())
	f.String("confidence", "", "Confirmed, Probable, Possible or Doubtful")
	f.String("reliability", "", "source reliability grade A to F")
	f.String("notes", "", "analyst notes")

	diamondExportCmd.Flags().StringVar(&diamondOut, "out", "", "output path (default: stdout)")
}

func withEvent(projectRef, eventRef string, fn func(ctx context.Context, svc *workbench.Service, p *model.Project, e *model.DiamondEvent) error) error {
	return withProject(projectRef, func(ctx context.Context, svc *workbench.Service, p *model.Project) error {
		e, err := resolveEvent(p, eventRef)
		if err != nil {
			return err
		}
		return fn(ctx, svc, p, e)
	})
}

// updateEvent resolves <project> <event>, applies update and prints the result
func updateEvent(args []string, update func(ctx context.Context, svc *workbench.Service, projectID, eventID string) (model.DiamondEvent, error)) error {
	return withEvent(args[0], args[1], func(ctx context.Context, svc *workbench.Service, p *model.Project, e *model.DiamondEvent) error {
		updated, err := update(ctx, svc, p.ID, e.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Updated event %q (%d/4 vertices filled)\n", updated.Name, updated.FillStatus().Count())
		return nil
	})
}

// flagValue returns the flag value when it was given on the command line, nil otherwise
func flagValue(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil
	}
	return &v
}

// parseConfidence matches a grade case-insensitively; unknown input is passed
// through so the service can reject it
func parseConfidence(s string) model.Confidence {
	s = strings.TrimSpace(s)
	for _, c := range model.Confidences {
		if strings.EqualFold(string(c), s) {
			return c
		}
	}
	return model.Confidence(s)
}

func joinPhases() string {
	names := make([]string, len(model.KillChainPhases))
	for i, p := range model.KillChainPhases {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func printEvents(w io.Writer, events []model.DiamondEvent) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tPHASE\tCONF.\tSRC\tADV\tCAP\tINF\tVIC\tID")
	for i := range events {
		e := &events[i]
		fill := e.FillStatus()
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", i+1, e.Name,
			e.Meta.Phase.Label(), e.Meta.Confidence, e.Meta.SourceReliability,
			mark(fill.Adversary), mark(fill.Capability), mark(fill.Infrastructure), mark(fill.Victim), e.ID)
	}
	return tw.Flush()
}

func printEvent(w io.Writer, e *model.DiamondEvent) {
	fill := e.FillStatus()
	fmt.Fprintf(w, "%s  (%s)\n", e.Name, e.ID)
	fmt.Fprintf(w, "  phase %s, confidence %s, source %s (%s)\n",
		e.Meta.Phase.Label(), e.Meta.Confidence, e.Meta.SourceReliability, e.Meta.SourceReliability.Label())
	if e.Meta.Timestamp != "" {
		fmt.Fprintf(w, "  timestamp %s\n", e.Meta.Timestamp)
	}
	if e.Meta.Notes != "" {
		fmt.Fprintf(w, "  notes %s\n", e.Meta.Notes)
	}

	a, c, i, v := e.Adversary, e.Capability, e.Infrastructure, e.Victim
	printVertex(w, "Adversary", fill.Adversary, "name", a.Name, "aliases", a.Aliases, "motivation", a.Motivation, "attribution", a.AttributionConfidence)
	printVertex(w, "Capability", fill.Capability, "malware", c.Malware, "tools", c.Tools, "techniques", c.Techniques, "attack ids", c.AttackIDs)
	printVertex(w, "Infrastructure", fill.Infrastructure, "c2", i.C2Servers, "domains", i.Domains, "ips", i.IPs, "hosting", i.HostingProviders)
	printVertex(w, "Victim", fill.Victim, "organization", v.Organization, "sector", v.Sector, "geography", v.Geography, "impact", v.Impact)
}

// printVertex prints a vertex header and its non-blank fields, given as label/value pairs
func printVertex(w io.Writer, title string, filled bool, pairs ...string) {
	fmt.Fprintf(w, "\n  [%s] %s\n", mark(filled), title)
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) != "" {
			fmt.Fprintf(w, "      %-13s %s\n", pairs[i]+":", pairs[i+1])
		}
	}
}

func mark(filled bool) string {
	if filled {
		return "x"
	}
	return " "
}
