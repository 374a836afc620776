package extract

import (
	"github.com/ppiankov/intelbench/internal/model"
)

// IOCExtractor finds typed indicators of compromise in unstructured text
type IOCExtractor struct {
	patterns []Pattern
}

// NewIOCExtractor creates an extractor over the standard pattern registry
func NewIOCExtractor() *IOCExtractor {
	return &IOCExtractor{patterns: registry}
}

// Extract runs one extraction pass. Patterns are applied in registry order;
// a match touching any offset claimed by an earlier match is dropped whole.
// Matches that repeat an earlier value of the same type (ignoring case and
// defang style) are counted as duplicates and claim nothing. Output follows
// registry order, then left-to-right position.
func (e *IOCExtractor) Extract(text string) model.ExtractionResult {
	result := model.ExtractionResult{IOCs: []model.ExtractedIOC{}}
	if text == "" {
		return result
	}

	taken := newClaimed(len(text))
	seen := make(map[string]bool)

	for _, p := range e.patterns {
		for _, loc := range p.Regex.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			if taken.any(start, end) {
				continue
			}

			raw := text[start:end]
			key := dedupKey(p.Type, raw)
			if seen[key] {
				result.Duplicates++
				continue
			}
			seen[key] = true

			taken.claim(start, end)
			result.IOCs = append(result.IOCs, model.ExtractedIOC{
				Value: raw,
				Type:  p.Type,
			})
		}
	}

	return result
}
