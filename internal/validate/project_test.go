package validate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/intelbench/internal/model"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestNormalizer() *Normalizer {
	return NewNormalizerWithClock(func() time.Time { return fixedNow })
}

func decode(t *testing.T, doc string) any {
	t.Helper()
	var raw any
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	return raw
}

func TestNormalize_DropsDanglingRatings(t *testing.T) {
	doc := `{
		"id": "p1",
		"name": "Phishing wave",
		"achMatrices": [{
			"id": "m1",
			"name": "Attribution",
			"hypotheses": [{"id": "h1", "name": "APT"}],
			"evidence": [{"id": "e1", "description": "spoofed sender", "credibility": "High", "relevance": "Low"}],
			"ratings": {
				"e1": {"h1": "C", "h-deleted": "I"},
				"e-deleted": {"h1": "I"}
			}
		}]
	}`

	project, err := newTestNormalizer().Normalize(decode(t, doc))
	require.NoError(t, err)
	require.Len(t, project.ACHMatrices, 1)

	m := project.ACHMatrices[0]
	assert.Equal(t, model.Ratings{
		{EvidenceID: "e1", HypothesisID: "h1"}: model.RatingConsistent,
	}, m.Ratings)
	assert.Equal(t, model.LevelHigh, m.Evidence[0].Credibility)
	assert.Equal(t, model.LevelLow, m.Evidence[0].Relevance)
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		desc string
		doc  string
	}{
		{"missing id", `{"name": "x"}`},
		{"blank id", `{"id": "   ", "name": "x"}`},
		{"numeric id", `{"id": 7, "name": "x"}`},
		{"missing name", `{"id": "p1"}`},
		{"empty name", `{"id": "p1", "name": ""}`},
		{"array document", `[{"id": "p1", "name": "x"}]`},
		{"string document", `"p1"`},
		{"null document", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			project, err := newTestNormalizer().Normalize(decode(t, tt.doc))
			assert.ErrorIs(t, err, ErrInvalidProject)
			assert.Nil(t, project)
		})
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	project, err := newTestNormalizer().Parse([]byte(`{"id": "p1",`))
	assert.ErrorIs(t, err, ErrInvalidProject)
	assert.Nil(t, project)
}

func TestNormalize_Defaults(t *testing.T) {
	project, err := newTestNormalizer().Normalize(decode(t, `{"id": " p1 ", "name": " Case "}`))
	require.NoError(t, err)

	assert.Equal(t, "p1", project.ID)
	assert.Equal(t, "Case", project.Name)
	assert.Equal(t, "", project.Description)
	assert.Equal(t, fixedNow, project.CreatedAt)
	assert.Equal(t, fixedNow, project.UpdatedAt)
	assert.NotNil(t, project.ACHMatrices)
	assert.Empty(t, project.ACHMatrices)
	assert.NotNil(t, project.BiasChecklists)
}

func TestNormalize_Timestamps(t *testing.T) {
	doc := `{
		"id": "p1", "name": "x",
		"createdAt": "2024-01-15T10:00:00.000Z",
		"updatedAt": "last tuesday"
	}`

	project, err := newTestNormalizer().Normalize(decode(t, doc))
	require.NoError(t, err)

	assert.True(t, project.CreatedAt.Equal(time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, fixedNow, project.UpdatedAt)
}

func TestNormalize_FiltersInvalidElements(t *testing.T) {
	doc := `{
		"id": "p1", "name": "x",
		"achMatrices": [
			{"id": "m1", "name": "kept"},
			{"id": "m2"},
			"not an object",
			{"id": "m1", "name": "duplicate"}
		],
		"biasChecklists": [
			{"id": "c1", "name": "Review", "biases": [
				{"id": "b1", "name": "Anchoring", "checked": true, "mitigationNotes": "seek more data"},
				{"id": "b2", "name": "Groupthink", "checked": "yes"},
				{"name": "no id"}
			]},
			{"name": "no id"}
		]
	}`

	project, err := newTestNormalizer().Normalize(decode(t, doc))
	require.NoError(t, err)

	require.Len(t, project.ACHMatrices, 1)
	assert.Equal(t, "kept", project.ACHMatrices[0].Name)
	assert.Empty(t, project.ACHMatrices[0].Ratings)

	require.Len(t, project.BiasChecklists, 1)
	biases := project.BiasChecklists[0].Biases
	require.Len(t, biases, 2)
	assert.True(t, biases[0].Checked)
	assert.Equal(t, "seek more data", biases[0].MitigationNotes)
	assert.False(t, biases[1].Checked)
}

func TestNormalize_MatrixContents(t *testing.T) {
	doc := `{
		"id": "p1", "name": "x",
		"achMatrices": [{
			"id": "m1", "name": "m",
			"hypotheses": [
				{"id": "h1", "name": "Insider"},
				{"id": "h2"},
				{"id": "h3", "name": "Criminal", "description": "ransomware crew"},
				{"id": "h1", "name": "Repeated"}
			],
			"evidence": [
				{"id": "e1", "credibility": "Extreme", "relevance": 3},
				{"description": "no id"},
				{"id": "e2", "source": "sandbox", "credibility": "Low"}
			],
			"ratings": {
				"e1": {"h1": "I", "h3": "X"},
				"e2": {"h1": "NA", "h3": 1, "h2": "C"}
			}
		}]
	}`

	project, err := newTestNormalizer().Normalize(decode(t, doc))
	require.NoError(t, err)

	m := project.ACHMatrices[0]
	require.Len(t, m.Hypotheses, 2)
	assert.Equal(t, "h1", m.Hypotheses[0].ID)
	assert.Equal(t, "Insider", m.Hypotheses[0].Name)
	assert.Equal(t, "ransomware crew", m.Hypotheses[1].Description)

	require.Len(t, m.Evidence, 2)
	assert.Equal(t, model.LevelMedium, m.Evidence[0].Credibility)
	assert.Equal(t, model.LevelMedium, m.Evidence[0].Relevance)
	assert.Equal(t, "sandbox", m.Evidence[1].Source)
	assert.Equal(t, model.LevelLow, m.Evidence[1].Credibility)

	assert.Equal(t, model.Ratings{
		{EvidenceID: "e1", HypothesisID: "h1"}: model.RatingInconsistent,
		{EvidenceID: "e2", HypothesisID: "h1"}: model.RatingNotApplicable,
	}, m.Ratings)
}

func TestNormalize_RatingsReferenceAcceptedIDs(t *testing.T) {
	doc := `{
		"id": "p1", "name": "x",
		"achMatrices": [{
			"id": "m1", "name": "m",
			"hypotheses": [{"id": "h1", "name": "a"}, {"id": "h2", "name": "b"}],
			"evidence": [{"id": "e1"}, {"id": "e2"}],
			"ratings": {"e1": {"h1": "C", "h2": "I", "h9": "N"}, "e2": "garbage", "e9": {"h1": "C"}}
		}]
	}`

	project, err := newTestNormalizer().Normalize(decode(t, doc))
	require.NoError(t, err)

	m := project.ACHMatrices[0]
	for key := range m.Ratings {
		assert.GreaterOrEqual(t, m.EvidenceIndex(key.EvidenceID), 0, "dangling evidence %s", key.EvidenceID)
		assert.GreaterOrEqual(t, m.HypothesisIndex(key.HypothesisID), 0, "dangling hypothesis %s", key.HypothesisID)
	}
	assert.Len(t, m.Ratings, 2)
}

func TestParseProject_RoundTrip(t *testing.T) {
	original := model.Project{
		ID:   "p1",
		Name: "Round trip",
		ACHMatrices: []model.ACHMatrix{{
			ID:         "m1",
			Name:       "m",
			Hypotheses: []model.Hypothesis{{ID: "h1", Name: "a"}},
			Evidence:   []model.Evidence{{ID: "e1", Credibility: model.LevelHigh, Relevance: model.LevelHigh}},
			Ratings:    model.Ratings{{EvidenceID: "e1", HypothesisID: "h1"}: model.RatingNeutral},
			CreatedAt:  fixedNow,
			UpdatedAt:  fixedNow,
		}},
		BiasChecklists: []model.BiasChecklist{},
		CreatedAt:      fixedNow,
		UpdatedAt:      fixedNow,
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	project, err := ParseProject(data)
	require.NoError(t, err)
	assert.Equal(t, original.ACHMatrices[0].Ratings, project.ACHMatrices[0].Ratings)
	assert.True(t, original.CreatedAt.Equal(project.CreatedAt))
}

func TestNormalize_DiamondEvents(t *testing.T) {
	doc := `{
		"id": "p1",
		"name": "Case",
		"diamondEvents": [
			{
				"id": "d1",
				"name": " Grid intrusion ",
				"adversary": {"name": "Sandworm", "aliases": 7},
				"infrastructure": {"ips": "203.0.113.7"},
				"meta": {"phase": "c2", "confidence": "certain", "sourceReliability": "B", "notes": "n"},
				"createdAt": "2026-01-02T03:04:05Z"
			},
			{"id": "d1", "name": "duplicate"},
			{"id": "d2"},
			"garbage"
		]
	}`

	project, err := newTestNormalizer().Normalize(decode(t, doc))
	require.NoError(t, err)
	require.Len(t, project.DiamondEvents, 1)

	e := project.DiamondEvents[0]
	assert.Equal(t, "Grid intrusion", e.Name)
	assert.Equal(t, "Sandworm", e.Adversary.Name)
	assert.Equal(t, "", e.Adversary.Aliases, "non-string field is dropped")
	assert.Equal(t, "203.0.113.7", e.Infrastructure.IPs)
	assert.Equal(t, model.PhaseC2, e.Meta.Phase)
	assert.Equal(t, model.ConfidencePossible, e.Meta.Confidence, "unknown grade falls back")
	assert.Equal(t, model.ReliabilityB, e.Meta.SourceReliability)
	assert.Equal(t, "n", e.Meta.Notes)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), e.CreatedAt.UTC())
	assert.Equal(t, fixedNow, e.UpdatedAt)
}

func TestNormalize_NoDiamondEvents(t *testing.T) {
	project, err := newTestNormalizer().Normalize(decode(t, `{"id": "p1", "name": "Case"}`))
	require.NoError(t, err)
	assert.Empty(t, project.DiamondEvents)
}

func TestParseEvents(t *testing.T) {
	n := newTestNormalizer()

	events, err := n.ParseEvents([]byte(`[{"id": "d1", "name": "a"}, {"id": "d2", "name": "b", "meta": {}}]`))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.NewDiamondMeta(), events[1].Meta)

	empty, err := n.ParseEvents([]byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = n.ParseEvents([]byte(`{"id": "d1", "name": "a"}`))
	assert.ErrorIs(t, err, ErrInvalidEvents)

	_, err = n.ParseEvents([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidEvents)
}
