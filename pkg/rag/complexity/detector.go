package complexity

import (
	"regexp"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"docchat-be/pkg/store"
)

// Token and question-mark thresholds above which a single-topic query is
// still answered with sections.
const (
	DefaultTokenThreshold        = 60
	DefaultQuestionMarkThreshold = 1
)

var enumerationMarkers = regexp.MustCompile(`(?i)\b(first(ly)?|second(ly)?|third(ly)?|on one hand|on the other hand)\b|(^|\n)\s*\d+[.)]\s`)

// Detector classifies a query as simple prose or a sectioned answer.
// Classification is deterministic: same query, same class.
type Detector struct {
	tokenizer      *tiktoken.Tiktoken
	tokenThreshold int
}

func NewDetector(tokenThreshold int) *Detector {
	if tokenThreshold <= 0 {
		tokenThreshold = DefaultTokenThreshold
	}
	// cl100k_base covers the GPT-4 family; word count is the fallback
	// when the encoding cannot be loaded offline.
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		enc = nil
	}
	return &Detector{
		tokenizer:      enc,
		tokenThreshold: tokenThreshold,
	}
}

// Classify returns structured when the query was decomposed into several
// sub-queries, or when a single query is long, multi-question, or
// explicitly enumerates topics.
func (d *Detector) Classify(query string, subQueryCount int) store.ComplexityClass {
	if subQueryCount > 1 {
		return store.ComplexityStructured
	}
	if strings.Count(query, "?") > DefaultQuestionMarkThreshold {
		return store.ComplexityStructured
	}
	if d.countTokens(query) > d.tokenThreshold {
		return store.ComplexityStructured
	}
	if enumerationMarkers.MatchString(query) {
		return store.ComplexityStructured
	}
	return store.ComplexitySimple
}

func (d *Detector) countTokens(text string) int {
	if d.tokenizer != nil {
		return len(d.tokenizer.Encode(text, nil, nil))
	}
	return len(strings.Fields(text))
}
