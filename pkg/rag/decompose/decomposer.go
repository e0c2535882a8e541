package decompose

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"docchat-be/internal/constant"
	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/logger"
	"docchat-be/pkg/llm"
	"docchat-be/pkg/store"
)

// Splitting heuristics. The coordinating-conjunction split only fires
// when the conjunction introduces a fresh interrogative clause, so
// "cats and dogs" stays whole while "what is X and what is Y" splits.
var (
	questionBoundary  = regexp.MustCompile(`[^?]*\?`)
	conjunctionSplit  = regexp.MustCompile(`(?i)\s+(?:and|or|also)\s+((?:what|who|how|when|where|why|which)(?:'s|s)?\b|is\s|are\s|do\s|does\s|did\s|can\s|could\s|should\s|will\s)`)
	numberedItemSplit = regexp.MustCompile(`(?m)(?:^|\n)\s*\d+[.)]\s+`)

	webSignals      = regexp.MustCompile(`(?i)\b(news|recent(ly)?|latest|today|tonight|current(ly)?|weather|price|stock|happening)\b`)
	documentSignals = regexp.MustCompile(`(?i)\b(chapter|document|file|page|pdf|upload(ed)?|notes?|section|paper|report)\b`)
)

// Decomposer splits a raw query into its distinct information needs. The
// heuristic result is deterministic; the optional LLM hint can only
// merge fragments the model judges same-concept, and any hint failure
// falls back to the heuristic result. Decompose never returns an empty
// list and never fails.
type Decomposer struct {
	llmProvider llm.LLMProvider // nil disables the merge hint
	hintTimeout time.Duration
	logger      logger.ILogger
}

func NewDecomposer(llmProvider llm.LLMProvider, hintTimeout time.Duration, sysLogger logger.ILogger) *Decomposer {
	if hintTimeout <= 0 {
		hintTimeout = 10 * time.Second
	}
	return &Decomposer{
		llmProvider: llmProvider,
		hintTimeout: hintTimeout,
		logger:      sysLogger,
	}
}

func (d *Decomposer) Decompose(ctx context.Context, query string, history []*entity.ChatTurn) []store.SubQuery {
	query = strings.TrimSpace(query)
	if query == "" {
		return []store.SubQuery{{Text: query}}
	}

	fragments := d.splitFragments(query)
	if len(fragments) > 1 && d.llmProvider != nil {
		fragments = d.mergeSameConcept(ctx, fragments)
	}
	if len(fragments) == 0 {
		fragments = []string{query}
	}

	subQueries := make([]store.SubQuery, len(fragments))
	for i, fragment := range fragments {
		subQueries[i] = store.SubQuery{
			Text:  fragment,
			Hints: toolHints(fragment),
		}
	}

	d.logger.Debug("decompose", "Query decomposed", map[string]interface{}{
		"fragments": len(subQueries),
		"history":   len(history),
	})

	return subQueries
}

// splitFragments applies the deterministic boundaries: numbered
// enumerations, multiple question marks, then coordinating conjunctions
// introducing a new interrogative clause.
func (d *Decomposer) splitFragments(query string) []string {
	var fragments []string

	items := splitNumbered(query)
	for _, item := range items {
		for _, question := range splitQuestions(item) {
			fragments = append(fragments, splitConjunctions(question)...)
		}
	}

	cleaned := make([]string, 0, len(fragments))
	for _, f := range fragments {
		f = strings.TrimSpace(f)
		// A fragment too short to stand alone rejoins its predecessor.
		if len(strings.Fields(f)) < 2 {
			if n := len(cleaned); n > 0 && f != "" {
				cleaned[n-1] = cleaned[n-1] + " " + f
			}
			continue
		}
		cleaned = append(cleaned, f)
	}
	return cleaned
}

func splitNumbered(query string) []string {
	locs := numberedItemSplit.FindAllStringIndex(query, -1)
	// A single numbered item is a formatting quirk, not an enumeration.
	if len(locs) < 2 {
		return []string{query}
	}
	var parts []string
	prev := 0
	for _, loc := range locs {
		if head := strings.TrimSpace(query[prev:loc[0]]); head != "" {
			parts = append(parts, head)
		}
		prev = loc[1]
	}
	if tail := strings.TrimSpace(query[prev:]); tail != "" {
		parts = append(parts, tail)
	}
	return parts
}

func splitQuestions(text string) []string {
	if strings.Count(text, "?") < 2 {
		return []string{text}
	}
	questions := questionBoundary.FindAllString(text, -1)
	if rest := questionBoundary.ReplaceAllString(text, ""); strings.TrimSpace(rest) != "" {
		questions = append(questions, rest)
	}
	return questions
}

func splitConjunctions(text string) []string {
	loc := conjunctionSplit.FindStringSubmatchIndex(text)
	if loc == nil {
		return []string{text}
	}
	head := text[:loc[0]]
	tail := text[loc[2]:] // keep the interrogative that opens the new clause
	return append([]string{head}, splitConjunctions(tail)...)
}

// mergeSameConcept asks the LLM collaborator, pairwise, whether adjacent
// fragments address the same concept. Only an exact MERGE reply joins a
// pair; errors and timeouts keep the heuristic split (fail-open).
func (d *Decomposer) mergeSameConcept(ctx context.Context, fragments []string) []string {
	merged := []string{fragments[0]}
	for _, next := range fragments[1:] {
		prev := merged[len(merged)-1]
		if d.shouldMerge(ctx, prev, next) {
			merged[len(merged)-1] = prev + " and " + next
		} else {
			merged = append(merged, next)
		}
	}
	return merged
}

func (d *Decomposer) shouldMerge(ctx context.Context, a, b string) bool {
	hintCtx, cancel := context.WithTimeout(ctx, d.hintTimeout)
	defer cancel()

	prompt := fmt.Sprintf(constant.DecomposeMergeHintPrompt, a, b)
	reply, err := d.llmProvider.Generate(hintCtx, prompt, llm.WithTemperature(0), llm.WithMaxTokens(4))
	if err != nil {
		d.logger.Warn("decompose", "Merge hint failed, keeping heuristic split", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}
	return strings.EqualFold(strings.TrimSpace(reply), "MERGE")
}

// toolHints tags a fragment with the tools its wording calls for. No
// signal means no restriction.
func toolHints(fragment string) []store.Tool {
	web := webSignals.MatchString(fragment)
	doc := documentSignals.MatchString(fragment)
	switch {
	case web && !doc:
		return []store.Tool{store.ToolWeb}
	case doc && !web:
		return []store.Tool{store.ToolDocument}
	default:
		return nil
	}
}
