package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/intelbench/internal/model"
)

const (
	summarySheet          = "Summary"
	diamondSheet          = "Diamond Model"
	maxSheetName          = 31
	firstHypothesisColumn = 5 // after Evidence, Source, Cred., Rel.
)

// XLSX builds a workbook with a summary sheet, one sheet per matrix, one per
// checklist and a Diamond Model sheet when the project has events.
// The caller owns the returned file and must Close it.
func (r *Renderer) XLSX(p *model.Project) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	w := &sheetWriter{f: f, bold: bold, used: map[string]bool{strings.ToLower(summarySheet): true}}
	w.summary(p)

	for i := range p.ACHMatrices {
		m := &p.ACHMatrices[i]
		w.matrix(w.newSheet("ACH "+m.Name), m, r)
	}
	for i := range p.BiasChecklists {
		c := &p.BiasChecklists[i]
		w.checklist(w.newSheet("Bias "+c.Name), c)
	}
	if len(p.DiamondEvents) > 0 {
		w.diamond(w.newSheet(diamondSheet), p.DiamondEvents)
	}

	if w.err != nil {
		_ = f.Close()
		return nil, w.err
	}
	return f, nil
}

// RenderXLSX writes the workbook to path
func (r *Renderer) RenderXLSX(p *model.Project, path string) error {
	f, err := r.XLSX(p)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := ensureDir(path); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// WriteXLSX streams the workbook to w
func (r *Renderer) WriteXLSX(p *model.Project, w io.Writer) error {
	f, err := r.XLSX(p)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, err = f.WriteTo(w)
	return err
}

// sheetWriter keeps the first error so the layout code reads top to bottom
type sheetWriter struct {
	f    *excelize.File
	bold int
	used map[string]bool
	err  error
}

func (w *sheetWriter) set(sheet string, col, row int, value any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellValue(sheet, cell, value)
}

func (w *sheetWriter) header(sheet string, row int, values ...string) {
	for i, v := range values {
		w.set(sheet, i+1, row, v)
	}
	if w.err != nil || len(values) == 0 {
		return
	}
	start, _ := excelize.CoordinatesToCellName(1, row)
	end, _ := excelize.CoordinatesToCellName(len(values), row)
	w.err = w.f.SetCellStyle(sheet, start, end, w.bold)
}

// newSheet adds a sheet with a valid, unique name derived from name
func (w *sheetWriter) newSheet(name string) string {
	base := sheetName(name)
	candidate := base
	for n := 2; w.used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	w.used[strings.ToLower(candidate)] = true

	if w.err == nil {
		_, w.err = w.f.NewSheet(candidate)
	}
	return candidate
}

func (w *sheetWriter) summary(p *model.Project) {
	w.header(summarySheet, 1, "Project", p.Name)
	w.set(summarySheet, 1, 2, "Description")
	w.set(summarySheet, 2, 2, p.Description)
	w.set(summarySheet, 1, 3, "Created")
	w.set(summarySheet, 2, 3, formatTime(p.CreatedAt))
	w.set(summarySheet, 1, 4, "Updated")
	w.set(summarySheet, 2, 4, formatTime(p.UpdatedAt))
	w.set(summarySheet, 1, 5, "ACH matrices")
	w.set(summarySheet, 2, 5, len(p.ACHMatrices))
	w.set(summarySheet, 1, 6, "Bias checklists")
	w.set(summarySheet, 2, 6, len(p.BiasChecklists))
	w.set(summarySheet, 1, 7, "Diamond events")
	w.set(summarySheet, 2, 7, len(p.DiamondEvents))
	if w.err == nil {
		w.err = w.f.SetColWidth(summarySheet, "A", "A", 18)
	}
	if w.err == nil {
		w.err = w.f.SetColWidth(summarySheet, "B", "B", 80)
	}
}

func (w *sheetWriter) matrix(sheet string, m *model.ACHMatrix, r *Renderer) {
	result := r.scorer.Calculate(*m)

	headers := []string{"Evidence", "Source", "Cred.", "Rel."}
	for _, h := range m.Hypotheses {
		headers = append(headers, h.Name)
	}
	headers = append(headers, "Diagnosticity")
	w.header(sheet, 1, headers...)

	diag := make(map[string]float64, len(result.Diagnosticity))
	for _, d := range result.Diagnosticity {
		diag[d.EvidenceID] = d.StdDev
	}

	row := 2
	for _, e := range m.Evidence {
		w.set(sheet, 1, row, e.Description)
		w.set(sheet, 2, row, e.Source)
		w.set(sheet, 3, row, string(e.Credibility))
		w.set(sheet, 4, row, string(e.Relevance))
		for i, h := range m.Hypotheses {
			w.set(sheet, firstHypothesisColumn+i, row, string(m.Ratings.Get(e.ID, h.ID)))
		}
		w.set(sheet, firstHypothesisColumn+len(m.Hypotheses), row, diag[e.ID])
		row++
	}

	row++
	w.header(sheet, row, "Score")
	w.header(sheet, row+1, "Normalized")
	for i, h := range m.Hypotheses {
		w.set(sheet, firstHypothesisColumn+i, row, result.Scores[h.ID])
		w.set(sheet, firstHypothesisColumn+i, row+1, result.Normalized[h.ID])
	}
	if result.Preferred != "" {
		w.header(sheet, row+2, "Preferred")
		if idx := m.HypothesisIndex(result.Preferred); idx >= 0 {
			w.set(sheet, 2, row+2, m.Hypotheses[idx].Name)
		}
	}

	if w.err == nil {
		w.err = w.f.SetColWidth(sheet, "A", "A", 60)
	}
	if w.err == nil {
		w.err = w.f.SetColWidth(sheet, "B", "B", 24)
	}
}

func (w *sheetWriter) checklist(sheet string, c *model.BiasChecklist) {
	w.header(sheet, 1, "Bias", "Category", "Reviewed", "Mitigation Notes")
	for i, b := range c.Biases {
		row := i + 2
		w.set(sheet, 1, row, b.Name)
		w.set(sheet, 2, row, b.Category)
		w.set(sheet, 3, row, b.Checked)
		w.set(sheet, 4, row, b.MitigationNotes)
	}
	w.header(sheet, len(c.Biases)+3, "Progress")
	w.set(sheet, 2, len(c.Biases)+3, fmt.Sprintf("%d/%d reviewed", c.Reviewed(), len(c.Biases)))
	if w.err == nil {
		w.err = w.f.SetColWidth(sheet, "A", "A", 24)
	}
	if w.err == nil {
		w.err = w.f.SetColWidth(sheet, "D", "D", 80)
	}
}

var diamondHeaders = []string{
	"Event", "Phase", "Confidence", "Source", "Timestamp",
	"Adversary", "Aliases", "Motivation", "Attribution",
	"Malware", "Tools", "Techniques", "ATT&CK IDs",
	"C2 Servers", "Domains", "IPs", "Hosting",
	"Organization", "Sector", "Geography", "Impact",
	"Vertices Filled", "Notes",
}

// diamond writes one row per event
func (w *sheetWriter) diamond(sheet string, events []model.DiamondEvent) {
	w.header(sheet, 1, diamondHeaders...)
	for i := range events {
		e := &events[i]
		a, c, inf, v := e.Adversary, e.Capability, e.Infrastructure, e.Victim
		values := []any{
			e.Name, e.Meta.Phase.Label(), string(e.Meta.Confidence), string(e.Meta.SourceReliability), e.Meta.Timestamp,
			a.Name, a.Aliases, a.Motivation, a.AttributionConfidence,
			c.Malware, c.Tools, c.Techniques, c.AttackIDs,
			inf.C2Servers, inf.Domains, inf.IPs, inf.HostingProviders,
			v.Organization, v.Sector, v.Geography, v.Impact,
			fmt.Sprintf("%d/4", e.FillStatus().Count()), e.Meta.Notes,
		}
		for col, value := range values {
			w.set(sheet, col+1, i+2, value)
		}
	}
	if w.err == nil {
		w.err = w.f.SetColWidth(sheet, "A", "A", 30)
	}
}

// sheetName drops characters excel forbids in sheet names and caps the length
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return -1
		}
		return r
	}, name)
	name = strings.Trim(strings.TrimSpace(name), "'")
	if name == "" {
		name = "Sheet"
	}
	return truncateRunes(name, maxSheetName)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}
