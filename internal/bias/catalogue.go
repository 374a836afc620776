// Package bias holds the cognitive bias catalogue used by checklists.
package bias

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/intelbench/internal/model"
)

//go:embed biases.yaml
var catalogueYAML []byte

// Category groups related biases
type Category string

const (
	CategoryCognitive  Category = "Cognitive"
	CategoryAnalytical Category = "Analytical"
	CategorySocial     Category = "Social"
)

// Definition is one catalogue entry
type Definition struct {
	ID                string   `yaml:"id"`
	Name              string   `yaml:"name"`
	Category          Category `yaml:"category"`
	Description       string   `yaml:"description"`
	DefaultMitigation string   `yaml:"default_mitigation"`
}

var (
	loadOnce    sync.Once
	definitions []Definition
	loadErr     error
)

// Definitions returns the catalogue in display order
func Definitions() ([]Definition, error) {
	loadOnce.Do(func() {
		definitions, loadErr = parse(catalogueYAML)
	})
	if loadErr != nil {
		return nil, loadErr
	}
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out, nil
}

// Lookup returns the definition with the given id
func Lookup(id string) (Definition, bool) {
	defs, err := Definitions()
	if err != nil {
		return Definition{}, false
	}
	for _, d := range defs {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// DefaultBiases returns a fresh unchecked entry per definition, with the
// default mitigation as the initial notes
func DefaultBiases() ([]model.CognitiveBias, error) {
	defs, err := Definitions()
	if err != nil {
		return nil, err
	}

	biases := make([]model.CognitiveBias, 0, len(defs))
	for _, d := range defs {
		biases = append(biases, model.CognitiveBias{
			ID:              d.ID,
			Name:            d.Name,
			Description:     d.Description,
			Category:        string(d.Category),
			Checked:         false,
			MitigationNotes: d.DefaultMitigation,
		})
	}
	return biases, nil
}

func parse(data []byte) ([]Definition, error) {
	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse bias catalogue: %w", err)
	}

	seen := make(map[string]bool, len(defs))
	for i, d := range defs {
		if d.ID == "" || d.Name == "" {
			return nil, fmt.Errorf("bias catalogue entry %d: id and name are required", i)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("bias catalogue: duplicate id %q", d.ID)
		}
		seen[d.ID] = true

		switch d.Category {
		case CategoryCognitive, CategoryAnalytical, CategorySocial:
		default:
			return nil, fmt.Errorf("bias catalogue: %s has unknown category %q", d.ID, d.Category)
		}
	}
	return defs, nil
}
