package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/intelbench/internal/model"
	"github.com/ppiankov/intelbench/internal/workbench"
)

var errAmbiguous = errors.New("ambiguous reference")

// resolveRef finds an item by exact id, then by 1-based position, then by
// case-insensitive name. A name shared by several items is rejected.
func resolveRef[T any](kind, ref string, items []T, id, name func(T) string) (int, error) {
	ref = strings.TrimSpace(ref)
	for i, item := range items {
		if id(item) == ref {
			return i, nil
		}
	}

	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(items) {
		return n - 1, nil
	}

	found := -1
	for i, item := range items {
		if strings.EqualFold(name(item), ref) {
			if found >= 0 {
				return -1, fmt.Errorf("%w: more than one %s named %q, use the id", errAmbiguous, kind, ref)
			}
			found = i
		}
	}
	if found < 0 {
		return -1, fmt.Errorf("%s not found: %s", kind, ref)
	}
	return found, nil
}

func resolveProject(ctx context.Context, svc *workbench.Service, ref string) (*model.Project, error) {
	if p, err := svc.GetProject(ctx, ref); err == nil {
		return p, nil
	}

	projects, err := svc.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	i, err := resolveRef("project", ref, projects,
		func(p model.Project) string { return p.ID },
		func(p model.Project) string { return p.Name })
	if err != nil {
		return nil, err
	}
	return &projects[i], nil
}

func resolveMatrix(p *model.Project, ref string) (*model.ACHMatrix, error) {
	i, err := resolveRef("matrix", ref, p.ACHMatrices,
		func(m model.ACHMatrix) string { return m.ID },
		func(m model.ACHMatrix) string { return m.Name })
	if err != nil {
		return nil, err
	}
	return &p.ACHMatrices[i], nil
}

func resolveHypothesis(m *model.ACHMatrix, ref string) (model.Hypothesis, error) {
	i, err := resolveRef("hypothesis", ref, m.Hypotheses,
		func(h model.Hypothesis) string { return h.ID },
		func(h model.Hypothesis) string { return h.Name })
	if err != nil {
		return model.Hypothesis{}, err
	}
	return m.Hypotheses[i], nil
}

func resolveEvidence(m *model.ACHMatrix, ref string) (model.Evidence, error) {
	i, err := resolveRef("evidence", ref, m.Evidence,
		func(e model.Evidence) string { return e.ID },
		func(e model.Evidence) string { return e.Description })
	if err != nil {
		return model.Evidence{}, err
	}
	return m.Evidence[i], nil
}

func resolveChecklist(p *model.Project, ref string) (*model.BiasChecklist, error) {
	i, err := resolveRef("checklist", ref, p.BiasChecklists,
		func(c model.BiasChecklist) string { return c.ID },
		func(c model.BiasChecklist) string { return c.Name })
	if err != nil {
		return nil, err
	}
	return &p.BiasChecklists[i], nil
}

func resolveBias(c *model.BiasChecklist, ref string) (model.CognitiveBias, error) {
	i, err := resolveRef("bias", ref, c.Biases,
		func(b model.CognitiveBias) string { return b.ID },
		func(b model.CognitiveBias) string { return b.Name })
	if err != nil {
		return model.CognitiveBias{}, err
	}
	return c.Biases[i], nil
}

func resolveEvent(p *model.Project, ref string) (*model.DiamondEvent, error) {
	i, err := resolveRef("diamond event", ref, p.DiamondEvents,
		func(e model.DiamondEvent) string { return e.ID },
		func(e model.DiamondEvent) string { return e.Name })
	if err != nil {
		return nil, err
	}
	return &p.DiamondEvents[i], nil
}
