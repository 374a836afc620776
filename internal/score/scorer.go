package score

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/ppiankov/intelbench/internal/model"
)

// Scorer ranks the hypotheses of an ACH matrix by weighted inconsistency
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// MatrixScore is the full scoring breakdown of one matrix
type MatrixScore struct {
	Scores        map[string]float64      `json:"scores"`               // Raw inconsistency score per hypothesis id
	Normalized    map[string]int          `json:"normalized"`           // 0 = most supported, 100 = most contradicted
	Preferred     string                  `json:"preferred,omitempty"`  // Hypothesis with the lowest score
	Diagnosticity []EvidenceDiagnosticity `json:"diagnosticity"`        // Per-row discriminating power
}

// EvidenceDiagnosticity describes how strongly one evidence row separates the hypotheses
type EvidenceDiagnosticity struct {
	EvidenceID string  `json:"evidence_id"`
	StdDev     float64 `json:"std_dev"` // Population std-dev of the row's weighted contributions
}

// Calculate computes scores, normalized scores, the preferred hypothesis and
// evidence diagnosticity in one pass
func (s *Scorer) Calculate(m model.ACHMatrix) MatrixScore {
	scores := s.ScoreAll(m)
	preferred, _ := s.FindPreferred(m)
	return MatrixScore{
		Scores:        scores,
		Normalized:    normalizeScores(scores),
		Preferred:     preferred,
		Diagnosticity: s.Diagnosticity(m),
	}
}

// Score returns the weighted inconsistency score of one hypothesis.
// Lower is better supported; unset cells contribute nothing.
func (s *Scorer) Score(m model.ACHMatrix, hypothesisID string) float64 {
	total := 0.0
	for _, e := range m.Evidence {
		rating, ok := m.Ratings.Lookup(e.ID, hypothesisID)
		if !ok {
			continue
		}
		total += Contribution(rating, e)
	}
	return total
}

// ScoreAll returns one score per hypothesis
func (s *Scorer) ScoreAll(m model.ACHMatrix) map[string]float64 {
	scores := make(map[string]float64, len(m.Hypotheses))
	for _, h := range m.Hypotheses {
		scores[h.ID] = s.Score(m, h.ID)
	}
	return scores
}

// FindPreferred returns the hypothesis with the strictly lowest score.
// Ties go to the earliest hypothesis in column order.
func (s *Scorer) FindPreferred(m model.ACHMatrix) (string, bool) {
	if len(m.Hypotheses) == 0 {
		return "", false
	}

	scores := s.ScoreAll(m)
	minScore := math.Inf(1)
	preferred := ""
	found := false

	for _, h := range m.Hypotheses {
		if sc := scores[h.ID]; sc < minScore {
			minScore = sc
			preferred = h.ID
			found = true
		}
	}

	return preferred, found
}

// Normalize maps raw scores onto 0-100. When every score is equal each
// hypothesis gets 50.
func (s *Scorer) Normalize(m model.ACHMatrix) map[string]int {
	return normalizeScores(s.ScoreAll(m))
}

func normalizeScores(scores map[string]float64) map[string]int {
	normalized := make(map[string]int, len(scores))
	if len(scores) == 0 {
		return normalized
	}

	minScore, maxScore := math.Inf(1), math.Inf(-1)
	for _, v := range scores {
		minScore = math.Min(minScore, v)
		maxScore = math.Max(maxScore, v)
	}

	spread := maxScore - minScore
	for id, v := range scores {
		if spread == 0 {
			normalized[id] = 50
			continue
		}
		normalized[id] = int(math.Round((v - minScore) / spread * 100))
	}

	return normalized
}

// Diagnosticity returns, for each evidence row in order, the population
// standard deviation of its weighted contributions across all hypotheses.
// A row rated the same way everywhere scores 0.
func (s *Scorer) Diagnosticity(m model.ACHMatrix) []EvidenceDiagnosticity {
	out := make([]EvidenceDiagnosticity, 0, len(m.Evidence))
	for _, e := range m.Evidence {
		row := make(stats.Float64Data, 0, len(m.Hypotheses))
		for _, h := range m.Hypotheses {
			rating, ok := m.Ratings.Lookup(e.ID, h.ID)
			if !ok {
				row = append(row, 0)
				continue
			}
			row = append(row, Contribution(rating, e))
		}

		sd, err := stats.StandardDeviationPopulation(row)
		if err != nil {
			sd = 0
		}
		out = append(out, EvidenceDiagnosticity{EvidenceID: e.ID, StdDev: sd})
	}
	return out
}

// CycleRating advances a cell through NA -> C -> I -> N -> NA.
// An empty or unknown rating counts as NA.
func CycleRating(current model.Rating) model.Rating {
	switch current {
	case model.RatingConsistent:
		return model.RatingInconsistent
	case model.RatingInconsistent:
		return model.RatingNeutral
	case model.RatingNeutral:
		return model.RatingNotApplicable
	default:
		return model.RatingConsistent
	}
}

// RatingLabel returns the display label of a rating
func RatingLabel(r model.Rating) string {
	switch r {
	case model.RatingConsistent:
		return "Consistent"
	case model.RatingInconsistent:
		return "Inconsistent"
	case model.RatingNeutral:
		return "Neutral"
	default:
		return "N/A"
	}
}
