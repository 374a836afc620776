package bias

import (
	"strings"
	"testing"
)

func TestDefinitions(t *testing.T) {
	defs, err := Definitions()
	if err != nil {
		t.Fatalf("Expected catalogue to load, got %v", err)
	}

	if len(defs) != 12 {
		t.Fatalf("Expected 12 definitions, got %d", len(defs))
	}
	if defs[0].ID != "bias-anchoring" {
		t.Errorf("Expected anchoring first, got %s", defs[0].ID)
	}
	if defs[11].ID != "bias-proportionality" {
		t.Errorf("Expected proportionality last, got %s", defs[11].ID)
	}

	counts := map[Category]int{}
	for _, d := range defs {
		counts[d.Category]++
		if d.DefaultMitigation == "" {
			t.Errorf("Expected %s to carry a default mitigation", d.ID)
		}
		if strings.HasSuffix(d.DefaultMitigation, "\n") {
			t.Errorf("Expected %s mitigation without trailing newline", d.ID)
		}
	}

	expected := map[Category]int{CategoryCognitive: 6, CategoryAnalytical: 4, CategorySocial: 2}
	for cat, n := range expected {
		if counts[cat] != n {
			t.Errorf("Expected %d %s biases, got %d", n, cat, counts[cat])
		}
	}
}

func TestDefinitions_ReturnsCopy(t *testing.T) {
	defs, _ := Definitions()
	defs[0].Name = "mutated"

	again, _ := Definitions()
	if again[0].Name != "Anchoring" {
		t.Errorf("Expected catalogue to be immutable, got %q", again[0].Name)
	}
}

func TestDefaultBiases(t *testing.T) {
	biases, err := DefaultBiases()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, b := range biases {
		if b.Checked {
			t.Errorf("Expected %s unchecked", b.ID)
		}
		def, ok := Lookup(b.ID)
		if !ok {
			t.Fatalf("Expected %s in catalogue", b.ID)
		}
		if b.MitigationNotes != def.DefaultMitigation {
			t.Errorf("Expected default mitigation for %s", b.ID)
		}
		if b.Category != string(def.Category) {
			t.Errorf("Expected category %s, got %s", def.Category, b.Category)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, ok := Lookup("bias-nonexistent"); ok {
		t.Error("Expected unknown id to miss")
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		desc string
		doc  string
	}{
		{"missing name", "- id: a\n  category: Social\n"},
		{"duplicate id", "- id: a\n  name: A\n  category: Social\n- id: a\n  name: B\n  category: Social\n"},
		{"unknown category", "- id: a\n  name: A\n  category: Emotional\n"},
		{"not a list", "id: a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if _, err := parse([]byte(tt.doc)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}
