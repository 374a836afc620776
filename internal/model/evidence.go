package model

// Evidence is a row of an ACH matrix: an item of information weighed against
// every hypothesis
type Evidence struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Source      string `json:"source"`      // Where the item came from (report, feed, analyst)
	Credibility Level  `json:"credibility"` // How far the source can be trusted
	Relevance   Level  `json:"relevance"`   // How much the item bears on the question
}

// Hypothesis is a column of an ACH matrix
type Hypothesis struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Level is a qualitative High/Medium/Low grade used for credibility and relevance
type Level string

const (
	LevelHigh   Level = "High"
	LevelMedium Level = "Medium"
	LevelLow    Level = "Low"
)

// Valid reports whether l is one of the three known grades
func (l Level) Valid() bool {
	switch l {
	case LevelHigh, LevelMedium, LevelLow:
		return true
	default:
		return false
	}
}

// ParseLevel maps a case-insensitive grade name to a Level, defaulting to Medium
func ParseLevel(s string) Level {
	switch s {
	case "High", "high", "HIGH", "h", "H":
		return LevelHigh
	case "Low", "low", "LOW", "l", "L":
		return LevelLow
	default:
		return LevelMedium
	}
}
