package render

import (
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/intelbench/internal/model"
)

const (
	maxDescriptionRunes = 80
	maxNotesRunes       = 100
)

// Markdown renders the human-readable project report
func (r *Renderer) Markdown(p *model.Project) string {
	var b strings.Builder

	b.WriteString("# " + escapeCell(p.Name) + "\n\n")
	if p.Description != "" {
		b.WriteString("> " + escapeCell(p.Description) + "\n\n")
	}
	b.WriteString("**Created:** " + formatTime(p.CreatedAt) + "\n")
	b.WriteString("**Updated:** " + formatTime(p.UpdatedAt) + "\n\n")

	for i := range p.ACHMatrices {
		r.writeMatrix(&b, &p.ACHMatrices[i])
	}

	for i := range p.BiasChecklists {
		writeChecklist(&b, &p.BiasChecklists[i])
	}

	if len(p.DiamondEvents) > 0 {
		b.WriteString("## Diamond Model\n\n")
		for i := range p.DiamondEvents {
			writeEvent(&b, &p.DiamondEvents[i])
		}
	}

	if r.includeFooter {
		b.WriteString("---\n\n*Generated by intelbench*\n")
	}

	return b.String()
}

// RenderMarkdown writes the markdown report to path
func (r *Renderer) RenderMarkdown(p *model.Project, path string) error {
	return writeFile(path, []byte(r.Markdown(p)))
}

func (r *Renderer) writeMatrix(b *strings.Builder, m *model.ACHMatrix) {
	b.WriteString("## ACH Matrix: " + escapeCell(m.Name) + "\n\n")

	result := r.scorer.Calculate(*m)

	names := make([]string, len(m.Hypotheses))
	separators := make([]string, len(m.Hypotheses))
	for i, h := range m.Hypotheses {
		names[i] = escapeCell(h.Name)
		separators[i] = "---"
	}
	b.WriteString("| Evidence | Source | Cred. | " + strings.Join(names, " | ") + " |\n")
	b.WriteString("| --- | --- | --- | " + strings.Join(separators, " | ") + " |\n")

	for _, e := range m.Evidence {
		ratings := make([]string, len(m.Hypotheses))
		for i, h := range m.Hypotheses {
			ratings[i] = string(m.Ratings.Get(e.ID, h.ID))
		}
		desc := truncateCell(escapeCell(e.Description), maxDescriptionRunes)
		b.WriteString("| " + desc + " | " + escapeCell(e.Source) + " | " + escapeCell(string(e.Credibility)) +
			" | " + strings.Join(ratings, " | ") + " |\n")
	}
	b.WriteString("\n")

	b.WriteString("### Inconsistency Scores\n\n")
	for _, h := range m.Hypotheses {
		line := "- **" + escapeCell(h.Name) + ":** " + formatScore(result.Scores[h.ID])
		if h.ID == result.Preferred {
			line += " ⭐ **PREFERRED**"
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	b.WriteString("*Legend: C = Consistent, I = Inconsistent, N = Neutral, NA = Not Applicable*\n")
	b.WriteString("*Scoring: I = +2, N = 0, C = -1 (weighted by credibility × relevance)*\n\n")
}

func writeChecklist(b *strings.Builder, c *model.BiasChecklist) {
	b.WriteString("## Bias Checklist: " + escapeCell(c.Name) + "\n\n")
	b.WriteString("**Progress:** " + strconv.Itoa(c.Reviewed()) + "/" + strconv.Itoa(len(c.Biases)) + " reviewed\n\n")
	b.WriteString("| Bias | Category | Reviewed | Mitigation Notes |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, bias := range c.Biases {
		status := "⬜"
		if bias.Checked {
			status = "✅"
		}
		notes := truncateCell(escapeCell(bias.MitigationNotes), maxNotesRunes)
		b.WriteString("| " + escapeCell(bias.Name) + " | " + escapeCell(bias.Category) + " | " + status + " | " + notes + " |\n")
	}
	b.WriteString("\n")
}

func writeEvent(b *strings.Builder, e *model.DiamondEvent) {
	b.WriteString("### Event: " + escapeCell(e.Name) + "\n\n")
	b.WriteString("**Phase:** " + escapeCell(e.Meta.Phase.Label()) +
		" · **Confidence:** " + escapeCell(string(e.Meta.Confidence)) +
		" · **Source:** " + escapeCell(string(e.Meta.SourceReliability)) + " (" + escapeCell(e.Meta.SourceReliability.Label()) + ")\n")
	if ts := escapeCell(e.Meta.Timestamp); ts != "" {
		b.WriteString("**Timestamp:** " + ts + "\n")
	}
	b.WriteString("\n")

	fill := e.FillStatus()
	a, c, i, v := e.Adversary, e.Capability, e.Infrastructure, e.Victim
	b.WriteString("| Vertex | Filled | Details |\n")
	b.WriteString("| --- | --- | --- |\n")
	writeVertexRow(b, "Adversary", fill.Adversary, "Name", a.Name, "Aliases", a.Aliases, "Motivation", a.Motivation, "Attribution", a.AttributionConfidence)
	writeVertexRow(b, "Capability", fill.Capability, "Malware", c.Malware, "Tools", c.Tools, "Techniques", c.Techniques, "ATT&CK", c.AttackIDs)
	writeVertexRow(b, "Infrastructure", fill.Infrastructure, "C2", i.C2Servers, "Domains", i.Domains, "IPs", i.IPs, "Hosting", i.HostingProviders)
	writeVertexRow(b, "Victim", fill.Victim, "Organization", v.Organization, "Sector", v.Sector, "Geography", v.Geography, "Impact", v.Impact)
	b.WriteString("\n")

	if notes := escapeCell(e.Meta.Notes); notes != "" {
		b.WriteString("**Notes:** " + notes + "\n\n")
	}
}

// writeVertexRow joins the non-blank label/value pairs of a vertex into one cell
func writeVertexRow(b *strings.Builder, vertex string, filled bool, pairs ...string) {
	status := "⬜"
	if filled {
		status = "✅"
	}
	var details []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if value := escapeCell(pairs[i+1]); value != "" {
			details = append(details, escapeCell(pairs[i])+": "+value)
		}
	}
	b.WriteString("| " + vertex + " | " + status + " | " + strings.Join(details, "; ") + " |\n")
}

// Angle brackets and ampersands are backslash-escaped so user text never
// reaches the HTML report as markup or entities.
var cellReplacer = strings.NewReplacer(
	"|", `\|`, "<", `\<`, ">", `\>`, "&", `\&`,
	"\r\n", " ", "\n", " ",
)

// escapeCell makes a value safe inside a markdown table cell, heading or quote
func escapeCell(s string) string {
	return strings.TrimSpace(cellReplacer.Replace(s))
}

// truncateCell cuts an escaped cell to n runes without leaving a dangling
// escape backslash at the end
func truncateCell(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	runes = runes[:n]

	trailing := 0
	for i := len(runes) - 1; i >= 0 && runes[i] == '\\'; i-- {
		trailing++
	}
	if trailing%2 == 1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
