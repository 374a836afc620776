package cli

import (
	"errors"
	"testing"

	"github.com/ppiankov/intelbench/internal/model"
)

func testMatrix() *model.ACHMatrix {
	return &model.ACHMatrix{
		ID: "m1",
		Hypotheses: []model.Hypothesis{
			{ID: "h-a", Name: "State actor"},
			{ID: "h-b", Name: "Criminal group"},
			{ID: "h-c", Name: "criminal group"},
		},
		Evidence: []model.Evidence{
			{ID: "e-1", Description: "Wiper shares code with KillDisk"},
		},
		Ratings: model.Ratings{},
	}
}

func TestResolveHypothesis(t *testing.T) {
	m := testMatrix()

	tests := []struct {
		name    string
		ref     string
		wantID  string
		wantErr bool
	}{
		{"by id", "h-b", "h-b", false},
		{"by position", "1", "h-a", false},
		{"by name case-insensitive", "STATE ACTOR", "h-a", false},
		{"position out of range", "4", "", true},
		{"unknown", "nation", "", true},
		{"ambiguous name", "Criminal Group", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := resolveHypothesis(m, tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", h)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h.ID != tt.wantID {
				t.Errorf("expected %s, got %s", tt.wantID, h.ID)
			}
		})
	}
}

func TestResolveRef_Ambiguous(t *testing.T) {
	_, err := resolveHypothesis(testMatrix(), "criminal group")
	if !errors.Is(err, errAmbiguous) {
		t.Errorf("expected errAmbiguous, got %v", err)
	}
}

func TestResolveRef_IDBeatsPosition(t *testing.T) {
	items := []model.Hypothesis{{ID: "2", Name: "x"}, {ID: "1", Name: "y"}}
	i, err := resolveRef("hypothesis", "1", items,
		func(h model.Hypothesis) string { return h.ID },
		func(h model.Hypothesis) string { return h.Name })
	if err != nil {
		t.Fatal(err)
	}
	if i != 1 {
		t.Errorf("expected exact id match at index 1, got %d", i)
	}
}

func TestResolveEvidenceAndBias(t *testing.T) {
	m := testMatrix()
	e, err := resolveEvidence(m, "wiper shares code with killdisk")
	if err != nil || e.ID != "e-1" {
		t.Errorf("expected e-1, got %+v (%v)", e, err)
	}

	c := &model.BiasChecklist{Biases: []model.CognitiveBias{{ID: "anchoring", Name: "Anchoring Bias"}}}
	b, err := resolveBias(c, "anchoring")
	if err != nil || b.Name != "Anchoring Bias" {
		t.Errorf("expected anchoring, got %+v (%v)", b, err)
	}
}

func TestBatchOutputName(t *testing.T) {
	used := make(map[string]int)

	if got := batchOutputName("reports/apt 28.html", "csv", used); got != "apt-28.csv" {
		t.Errorf("expected apt-28.csv, got %s", got)
	}
	if got := batchOutputName("other/apt 28.txt", "csv", used); got != "apt-28-2.csv" {
		t.Errorf("expected apt-28-2.csv, got %s", got)
	}
	if got := batchOutputName("???.txt", "text", used); got != "iocs.txt" {
		t.Errorf("expected iocs.txt, got %s", got)
	}
}

func TestParseIOCTypes(t *testing.T) {
	types, err := parseIOCTypes([]string{"IPv4", " domain", ""})
	if err != nil {
		t.Fatal(err)
	}
	if len(types) != 2 || types[0] != model.IOCIPv4 || types[1] != model.IOCDomain {
		t.Errorf("unexpected types %v", types)
	}

	if _, err := parseIOCTypes([]string{"stix"}); err == nil {
		t.Error("expected error for unknown type")
	}
}
