package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/ppiankov/intelbench/internal/model"
)

func TestResolveEvent(t *testing.T) {
	p := &model.Project{DiamondEvents: []model.DiamondEvent{
		{ID: "d-1", Name: "Grid intrusion"},
		{ID: "d-2", Name: "Wiper"},
	}}

	e, err := resolveEvent(p, "wiper")
	if err != nil {
		t.Fatalf("expected match by name, got %v", err)
	}
	if e.ID != "d-2" {
		t.Errorf("expected d-2, got %s", e.ID)
	}

	e, err = resolveEvent(p, "1")
	if err != nil || e.ID != "d-1" {
		t.Errorf("expected d-1 by position, got %+v, %v", e, err)
	}

	if _, err := resolveEvent(p, "ghost"); err == nil {
		t.Error("expected error for unknown event")
	}
}

func TestFlagValue(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().String("name", "", "")
	cmd.Flags().String("aliases", "", "")
	if err := cmd.Flags().Parse([]string{"--name", ""}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	if v := flagValue(cmd, "name"); v == nil || *v != "" {
		t.Errorf("expected explicit empty value, got %v", v)
	}
	if v := flagValue(cmd, "aliases"); v != nil {
		t.Errorf("expected nil for unset flag, got %q", *v)
	}
}

func TestParseConfidence(t *testing.T) {
	if got := parseConfidence(" probable "); got != model.ConfidenceProbable {
		t.Errorf("expected Probable, got %q", got)
	}
	if got := parseConfidence("certain"); got.Valid() {
		t.Errorf("expected unknown grade to stay invalid, got %q", got)
	}
}

func TestPrintEvent(t *testing.T) {
	e := &model.DiamondEvent{ID: "d-1", Name: "Grid intrusion", Meta: model.NewDiamondMeta()}
	e.Adversary.Name = "Sandworm"
	e.Meta.Phase = model.PhaseC2

	var buf bytes.Buffer
	printEvent(&buf, e)
	out := buf.String()

	for _, want := range []string{
		"Grid intrusion  (d-1)",
		"phase Command & Control, confidence Possible, source C (Fairly reliable)",
		"[x] Adversary",
		"name:         Sandworm",
		"[ ] Victim",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "aliases:") {
		t.Errorf("expected blank fields to be omitted, got:\n%s", out)
	}
}
