package model

import (
	"encoding/json"
	"sort"
)

// Rating is the consistency of one evidence row with one hypothesis
type Rating string

const (
	RatingConsistent    Rating = "C"
	RatingInconsistent  Rating = "I"
	RatingNeutral       Rating = "N"
	RatingNotApplicable Rating = "NA"
)

// Valid reports whether r is one of C, I, N or NA
func (r Rating) Valid() bool {
	switch r {
	case RatingConsistent, RatingInconsistent, RatingNeutral, RatingNotApplicable:
		return true
	default:
		return false
	}
}

// RatingKey addresses a single matrix cell
type RatingKey struct {
	EvidenceID   string
	HypothesisID string
}

// Ratings is the sparse cell map of a matrix. A missing key means NA.
// On the wire it is the nested {evidenceId: {hypothesisId: rating}} object.
type Ratings map[RatingKey]Rating

// Lookup returns the stored rating for a cell and whether one was set
func (r Ratings) Lookup(evidenceID, hypothesisID string) (Rating, bool) {
	rating, ok := r[RatingKey{EvidenceID: evidenceID, HypothesisID: hypothesisID}]
	return rating, ok
}

// Get returns the rating for a cell, NA when unset
func (r Ratings) Get(evidenceID, hypothesisID string) Rating {
	if rating, ok := r.Lookup(evidenceID, hypothesisID); ok {
		return rating
	}
	return RatingNotApplicable
}

// Set stores a rating for a cell
func (r Ratings) Set(evidenceID, hypothesisID string, rating Rating) {
	r[RatingKey{EvidenceID: evidenceID, HypothesisID: hypothesisID}] = rating
}

// ForEvidence returns the ratings of one evidence row keyed by hypothesis id
func (r Ratings) ForEvidence(evidenceID string) map[string]Rating {
	row := make(map[string]Rating)
	for k, v := range r {
		if k.EvidenceID == evidenceID {
			row[k.HypothesisID] = v
		}
	}
	return row
}

// DeleteEvidence drops every cell of an evidence row
func (r Ratings) DeleteEvidence(evidenceID string) {
	for k := range r {
		if k.EvidenceID == evidenceID {
			delete(r, k)
		}
	}
}

// DeleteHypothesis drops every cell of a hypothesis column
func (r Ratings) DeleteHypothesis(hypothesisID string) {
	for k := range r {
		if k.HypothesisID == hypothesisID {
			delete(r, k)
		}
	}
}

// Clone returns an independent copy
func (r Ratings) Clone() Ratings {
	out := make(Ratings, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Keys returns the cell keys ordered by evidence id, then hypothesis id
func (r Ratings) Keys() []RatingKey {
	keys := make([]RatingKey, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].EvidenceID != keys[j].EvidenceID {
			return keys[i].EvidenceID < keys[j].EvidenceID
		}
		return keys[i].HypothesisID < keys[j].HypothesisID
	})
	return keys
}

// MarshalJSON encodes the nested wire shape
func (r Ratings) MarshalJSON() ([]byte, error) {
	nested := make(map[string]map[string]Rating)
	for k, v := range r {
		row, ok := nested[k.EvidenceID]
		if !ok {
			row = make(map[string]Rating)
			nested[k.EvidenceID] = row
		}
		row[k.HypothesisID] = v
	}
	return json.Marshal(nested)
}

// UnmarshalJSON decodes the nested wire shape. Values are not checked here;
// untrusted documents go through validate.NormalizeProject.
func (r *Ratings) UnmarshalJSON(data []byte) error {
	var nested map[string]map[string]Rating
	if err := json.Unmarshal(data, &nested); err != nil {
		return err
	}
	out := make(Ratings)
	for evidenceID, row := range nested {
		for hypothesisID, rating := range row {
			out.Set(evidenceID, hypothesisID, rating)
		}
	}
	*r = out
	return nil
}
