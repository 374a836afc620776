package score

import "github.com/ppiankov/intelbench/internal/model"

// Rating weights: consistent evidence lowers a hypothesis' inconsistency
// score, inconsistent evidence raises it twice as hard
var ratingWeights = map[model.Rating]float64{
	model.RatingConsistent:    -1,
	model.RatingInconsistent:  2,
	model.RatingNeutral:       0,
	model.RatingNotApplicable: 0,
}

var credibilityWeights = map[model.Level]float64{
	model.LevelHigh:   3,
	model.LevelMedium: 2,
	model.LevelLow:    1,
}

var relevanceWeights = map[model.Level]float64{
	model.LevelHigh:   1.5,
	model.LevelMedium: 1.0,
	model.LevelLow:    0.5,
}

const (
	fallbackCredibility = 1.0
	fallbackRelevance   = 1.0
)

// RatingWeight returns the numeric value of a rating (0 for unknown values)
func RatingWeight(r model.Rating) float64 {
	return ratingWeights[r]
}

// CredibilityWeight returns the credibility multiplier, 1 for unknown grades
func CredibilityWeight(l model.Level) float64 {
	if w, ok := credibilityWeights[l]; ok {
		return w
	}
	return fallbackCredibility
}

// RelevanceWeight returns the relevance multiplier, 1.0 for unknown grades
func RelevanceWeight(l model.Level) float64 {
	if w, ok := relevanceWeights[l]; ok {
		return w
	}
	return fallbackRelevance
}

// Contribution is the weighted value of one rated cell
func Contribution(r model.Rating, e model.Evidence) float64 {
	return RatingWeight(r) * CredibilityWeight(e.Credibility) * RelevanceWeight(e.Relevance)
}
