package model

import "time"

// Project is the persisted unit of analysis: the document that is imported,
// exported and stored as one JSON blob
type Project struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	ACHMatrices    []ACHMatrix     `json:"achMatrices"`
	BiasChecklists []BiasChecklist `json:"biasChecklists"`
	DiamondEvents  []DiamondEvent  `json:"diamondEvents,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ACHMatrix aggregates hypotheses (columns), evidence (rows) and the sparse
// rating cells. Every rating key must reference an existing row and column.
type ACHMatrix struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Hypotheses []Hypothesis `json:"hypotheses"`
	Evidence   []Evidence   `json:"evidence"`
	Ratings    Ratings      `json:"ratings"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// BiasChecklist tracks which cognitive biases the analyst has reviewed
type BiasChecklist struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Biases    []CognitiveBias `json:"biases"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// CognitiveBias is one checklist entry
type CognitiveBias struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	Checked         bool   `json:"checked"`
	MitigationNotes string `json:"mitigationNotes"`
}

// Reviewed returns how many biases are checked
func (c *BiasChecklist) Reviewed() int {
	n := 0
	for _, b := range c.Biases {
		if b.Checked {
			n++
		}
	}
	return n
}

// Matrix returns a pointer to the matrix with the given id, or nil
func (p *Project) Matrix(id string) *ACHMatrix {
	for i := range p.ACHMatrices {
		if p.ACHMatrices[i].ID == id {
			return &p.ACHMatrices[i]
		}
	}
	return nil
}

// Checklist returns a pointer to the checklist with the given id, or nil
func (p *Project) Checklist(id string) *BiasChecklist {
	for i := range p.BiasChecklists {
		if p.BiasChecklists[i].ID == id {
			return &p.BiasChecklists[i]
		}
	}
	return nil
}

// HypothesisIndex returns the column index of a hypothesis, or -1
func (m *ACHMatrix) HypothesisIndex(id string) int {
	for i, h := range m.Hypotheses {
		if h.ID == id {
			return i
		}
	}
	return -1
}

// EvidenceIndex returns the row index of an evidence item, or -1
func (m *ACHMatrix) EvidenceIndex(id string) int {
	for i, e := range m.Evidence {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// RemoveHypothesis deletes a column and every rating that referenced it
func (m *ACHMatrix) RemoveHypothesis(id string) bool {
	idx := m.HypothesisIndex(id)
	if idx < 0 {
		return false
	}
	m.Hypotheses = append(m.Hypotheses[:idx:idx], m.Hypotheses[idx+1:]...)
	m.Ratings.DeleteHypothesis(id)
	return true
}

// RemoveEvidence deletes a row and every rating that referenced it
func (m *ACHMatrix) RemoveEvidence(id string) bool {
	idx := m.EvidenceIndex(id)
	if idx < 0 {
		return false
	}
	m.Evidence = append(m.Evidence[:idx:idx], m.Evidence[idx+1:]...)
	m.Ratings.DeleteEvidence(id)
	return true
}

// Clone returns a deep copy of the matrix
func (m ACHMatrix) Clone() ACHMatrix {
	out := m
	out.Hypotheses = append([]Hypothesis(nil), m.Hypotheses...)
	out.Evidence = append([]Evidence(nil), m.Evidence...)
	if m.Ratings != nil {
		out.Ratings = m.Ratings.Clone()
	}
	return out
}

// Clone returns a deep copy of the project
func (p Project) Clone() Project {
	out := p
	out.ACHMatrices = make([]ACHMatrix, len(p.ACHMatrices))
	for i, m := range p.ACHMatrices {
		out.ACHMatrices[i] = m.Clone()
	}
	out.BiasChecklists = make([]BiasChecklist, len(p.BiasChecklists))
	for i, c := range p.BiasChecklists {
		c.Biases = append([]CognitiveBias(nil), c.Biases...)
		out.BiasChecklists[i] = c
	}
	if p.DiamondEvents != nil {
		out.DiamondEvents = append([]DiamondEvent(nil), p.DiamondEvents...)
	}
	return out
}
