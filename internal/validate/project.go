package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/intelbench/internal/model"
)

var (
	// ErrInvalidProject is returned when a document cannot be turned into a project
	ErrInvalidProject = errors.New("invalid project")
	// ErrInvalidEvents is returned when a Diamond event import is not a JSON array
	ErrInvalidEvents = errors.New("invalid diamond events")
)

// Normalizer coerces externally supplied project documents into the model.
// Anything that is not structurally required is repaired instead of rejected.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a normalizer stamping missing timestamps with the wall clock
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewNormalizerWithClock creates a normalizer with an injected clock
func NewNormalizerWithClock(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// ParseProject decodes and normalizes a JSON project document
func ParseProject(data []byte) (*model.Project, error) {
	return NewNormalizer().Parse(data)
}

// NormalizeProject normalizes an already decoded document
func NormalizeProject(raw any) (*model.Project, error) {
	return NewNormalizer().Normalize(raw)
}

// Parse decodes data and normalizes the result
func (n *Normalizer) Parse(data []byte) (*model.Project, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	return n.Normalize(raw)
}

// Normalize validates raw (as produced by encoding/json into an any) and
// rebuilds a project from it. Only the project id and name are mandatory.
func (n *Normalizer) Normalize(raw any) (*model.Project, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: document is not an object", ErrInvalidProject)
	}

	id, ok := requiredString(obj, "id")
	if !ok {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidProject)
	}
	name, ok := requiredString(obj, "name")
	if !ok {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidProject)
	}

	now := n.now()
	project := &model.Project{
		ID:             id,
		Name:           name,
		Description:    optionalString(obj, "description"),
		ACHMatrices:    []model.ACHMatrix{},
		BiasChecklists: []model.BiasChecklist{},
		CreatedAt:      timestamp(obj, "createdAt", now),
		UpdatedAt:      timestamp(obj, "updatedAt", now),
	}

	seen := make(map[string]bool)
	for _, item := range array(obj, "achMatrices") {
		if m, ok := n.normalizeMatrix(item, now); ok && !seen[m.ID] {
			seen[m.ID] = true
			project.ACHMatrices = append(project.ACHMatrices, m)
		}
	}

	seen = make(map[string]bool)
	for _, item := range array(obj, "biasChecklists") {
		if c, ok := normalizeChecklist(item, now); ok && !seen[c.ID] {
			seen[c.ID] = true
			project.BiasChecklists = append(project.BiasChecklists, c)
		}
	}

	seen = make(map[string]bool)
	for _, item := range array(obj, "diamondEvents") {
		if e, ok := normalizeEvent(item, now); ok && !seen[e.ID] {
			seen[e.ID] = true
			project.DiamondEvents = append(project.DiamondEvents, e)
		}
	}

	return project, nil
}

// ParseEvents decodes a JSON array of Diamond events and normalizes each
// element. Elements without an id or name are dropped, as are repeated ids.
func (n *Normalizer) ParseEvents(data []byte) ([]model.DiamondEvent, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvents, err)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: document is not an array", ErrInvalidEvents)
	}

	now := n.now()
	events := make([]model.DiamondEvent, 0, len(items))
	seen := make(map[string]bool)
	for _, item := range items {
		if e, ok := normalizeEvent(item, now); ok && !seen[e.ID] {
			seen[e.ID] = true
			events = append(events, e)
		}
	}
	return events, nil
}

func (n *Normalizer) normalizeMatrix(raw any, now time.Time) (model.ACHMatrix, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return model.ACHMatrix{}, false
	}
	id, ok := requiredString(obj, "id")
	if !ok {
		return model.ACHMatrix{}, false
	}
	name, ok := requiredString(obj, "name")
	if !ok {
		return model.ACHMatrix{}, false
	}

	matrix := model.ACHMatrix{
		ID:         id,
		Name:       name,
		Hypotheses: []model.Hypothesis{},
		Evidence:   []model.Evidence{},
		Ratings:    model.Ratings{},
		CreatedAt:  timestamp(obj, "createdAt", now),
		UpdatedAt:  timestamp(obj, "updatedAt", now),
	}

	hypothesisIDs := make(map[string]bool)
	for _, item := range array(obj, "hypotheses") {
		h, ok := normalizeHypothesis(item)
		if !ok || hypothesisIDs[h.ID] {
			continue
		}
		hypothesisIDs[h.ID] = true
		matrix.Hypotheses = append(matrix.Hypotheses, h)
	}

	evidenceIDs := make(map[string]bool)
	for _, item := range array(obj, "evidence") {
		e, ok := normalizeEvidence(item)
		if !ok || evidenceIDs[e.ID] {
			continue
		}
		evidenceIDs[e.ID] = true
		matrix.Evidence = append(matrix.Evidence, e)
	}

	// Rebuilt from the accepted rows and columns only; the incoming map is
	// never copied wholesale.
	ratings, _ := obj["ratings"].(map[string]any)
	for _, e := range matrix.Evidence {
		row, ok := ratings[e.ID].(map[string]any)
		if !ok {
			continue
		}
		for _, h := range matrix.Hypotheses {
			value, ok := row[h.ID].(string)
			if !ok {
				continue
			}
			if r := model.Rating(value); r.Valid() {
				matrix.Ratings.Set(e.ID, h.ID, r)
			}
		}
	}

	return matrix, true
}

func normalizeHypothesis(raw any) (model.Hypothesis, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return model.Hypothesis{}, false
	}
	id, ok := requiredString(obj, "id")
	if !ok {
		return model.Hypothesis{}, false
	}
	name, ok := requiredString(obj, "name")
	if !ok {
		return model.Hypothesis{}, false
	}
	return model.Hypothesis{
		ID:          id,
		Name:        name,
		Description: optionalString(obj, "description"),
	}, true
}

func normalizeEvidence(raw any) (model.Evidence, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return model.Evidence{}, false
	}
	id, ok := requiredString(obj, "id")
	if !ok {
		return model.Evidence{}, false
	}
	return model.Evidence{
		ID:          id,
		Description: optionalString(obj, "description"),
		Source:      optionalString(obj, "source"),
		Credibility: level(obj, "credibility"),
		Relevance:   level(obj, "relevance"),
	}, true
}

func normalizeChecklist(raw any, now time.Time) (model.BiasChecklist, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return model.BiasChecklist{}, false
	}
	id, ok := requiredString(obj, "id")
	if !ok {
		return model.BiasChecklist{}, false
	}
	name, ok := requiredString(obj, "name")
	if !ok {
		return model.BiasChecklist{}, false
	}

	checklist := model.BiasChecklist{
		ID:        id,
		Name:      name,
		Biases:    []model.CognitiveBias{},
		CreatedAt: timestamp(obj, "createdAt", now),
		UpdatedAt: timestamp(obj, "updatedAt", now),
	}

	seen := make(map[string]bool)
	for _, item := range array(obj, "biases") {
		b, ok := normalizeBias(item)
		if !ok || seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		checklist.Biases = append(checklist.Biases, b)
	}

	return checklist, true
}

func normalizeBias(raw any) (model.CognitiveBias, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return model.CognitiveBias{}, false
	}
	id, ok := requiredString(obj, "id")
	if !ok {
		return model.CognitiveBias{}, false
	}
	name, ok := requiredString(obj, "name")
	if !ok {
		return model.CognitiveBias{}, false
	}
	checked, _ := obj["checked"].(bool)
	return model.CognitiveBias{
		ID:              id,
		Name:            name,
		Description:     optionalString(obj, "description"),
		Category:        optionalString(obj, "category"),
		Checked:         checked,
		MitigationNotes: optionalString(obj, "mitigationNotes"),
	}, true
}

func normalizeEvent(raw any, now time.Time) (model.DiamondEvent, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return model.DiamondEvent{}, false
	}
	id, ok := requiredString(obj, "id")
	if !ok {
		return model.DiamondEvent{}, false
	}
	name, ok := requiredString(obj, "name")
	if !ok {
		return model.DiamondEvent{}, false
	}

	adversary := object(obj, "adversary")
	capability := object(obj, "capability")
	infra := object(obj, "infrastructure")
	victim := object(obj, "victim")
	meta := object(obj, "meta")

	event := model.DiamondEvent{
		ID:   id,
		Name: name,
		Adversary: model.AdversaryVertex{
			Name:                  optionalString(adversary, "name"),
			Aliases:               optionalString(adversary, "aliases"),
			Motivation:            optionalString(adversary, "motivation"),
			AttributionConfidence: optionalString(adversary, "attributionConfidence"),
		},
		Capability: model.CapabilityVertex{
			Malware:    optionalString(capability, "malware"),
			Tools:      optionalString(capability, "tools"),
			Techniques: optionalString(capability, "techniques"),
			AttackIDs:  optionalString(capability, "attackIds"),
		},
		Infrastructure: model.InfrastructureVertex{
			C2Servers:        optionalString(infra, "c2Servers"),
			Domains:          optionalString(infra, "domains"),
			IPs:              optionalString(infra, "ips"),
			HostingProviders: optionalString(infra, "hostingProviders"),
		},
		Victim: model.VictimVertex{
			Organization: optionalString(victim, "organization"),
			Sector:       optionalString(victim, "sector"),
			Geography:    optionalString(victim, "geography"),
			Impact:       optionalString(victim, "impact"),
		},
		Meta:      model.NewDiamondMeta(),
		CreatedAt: timestamp(obj, "createdAt", now),
		UpdatedAt: timestamp(obj, "updatedAt", now),
	}

	event.Meta.Timestamp = optionalString(meta, "timestamp")
	event.Meta.Notes = optionalString(meta, "notes")
	if phase := model.KillChainPhase(optionalString(meta, "phase")); phase.Valid() {
		event.Meta.Phase = phase
	}
	if c := model.Confidence(optionalString(meta, "confidence")); c.Valid() {
		event.Meta.Confidence = c
	}
	if r := model.SourceReliability(optionalString(meta, "sourceReliability")); r.Valid() {
		event.Meta.SourceReliability = r
	}

	return event, true
}

// requiredString returns the trimmed string at key, false when it is missing,
// not a string or blank
func requiredString(obj map[string]any, key string) (string, bool) {
	s, ok := obj[key].(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func optionalString(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// object returns the nested object at key; lookups on the nil result are safe
func object(obj map[string]any, key string) map[string]any {
	o, _ := obj[key].(map[string]any)
	return o
}

func array(obj map[string]any, key string) []any {
	a, _ := obj[key].([]any)
	return a
}

func level(obj map[string]any, key string) model.Level {
	s, _ := obj[key].(string)
	if l := model.Level(s); l.Valid() {
		return l
	}
	return model.LevelMedium
}

func timestamp(obj map[string]any, key string, fallback time.Time) time.Time {
	s, ok := obj[key].(string)
	if !ok {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fallback
	}
	return t
}
