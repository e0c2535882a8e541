package compose

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"docchat-be/internal/constant"
	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/logger"
	"docchat-be/pkg/llm"
	"docchat-be/pkg/store"
)

// Result is the composed answer plus the source lists describing what
// was actually cited, not what was fetched.
type Result struct {
	Text            string
	DocumentSources []entity.DocumentSource
	WebSources      []entity.WebSource
}

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// Composer builds the grounded prompt, invokes the LLM and post-processes
// the reply: invalid citation indices are stripped, and the output source
// lists mirror only the evidence the answer referenced.
type Composer struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
	callTimeout time.Duration
}

func NewComposer(llmProvider llm.LLMProvider, sysLogger logger.ILogger, callTimeout time.Duration) *Composer {
	if callTimeout <= 0 {
		callTimeout = 120 * time.Second
	}
	return &Composer{
		llmProvider: llmProvider,
		logger:      sysLogger,
		callTimeout: callTimeout,
	}
}

func (c *Composer) Compose(
	ctx context.Context,
	query string,
	history []*entity.ChatTurn,
	bundle *store.ContextBundle,
	subQueries []store.SubQuery,
	complexity store.ComplexityClass,
	images [][]byte,
	modelId string,
) (*Result, error) {
	messages := c.buildMessages(query, history, bundle, subQueries, complexity, images)

	options := []llm.Option{llm.WithTemperature(0.3)}
	if modelId != "" {
		options = append(options, llm.WithModel(modelId))
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	reply, err := c.llmProvider.Chat(callCtx, messages, options...)
	if err != nil {
		// GenerationError propagates untouched; the caller must not
		// persist any part of this turn.
		return nil, err
	}

	text, cited := c.stripInvalidCitations(reply, bundle)
	result := &Result{Text: text}
	for _, flatIdx := range cited {
		item := bundle.Flattened[flatIdx]
		switch item.Kind {
		case store.KindDocument:
			result.DocumentSources = append(result.DocumentSources, entity.DocumentSource{
				Filename: item.Filename,
				Page:     item.Page,
				Excerpt:  item.Excerpt,
			})
		case store.KindWeb:
			result.WebSources = append(result.WebSources, entity.WebSource{
				Title: item.Title,
				URL:   item.URL,
			})
		}
	}

	c.logger.Info("compose", "Answer composed", map[string]interface{}{
		"complexity":       string(complexity),
		"document_sources": len(result.DocumentSources),
		"web_sources":      len(result.WebSources),
	})
	return result, nil
}

// buildMessages assembles: system instructions + evidence + formatting
// directive, prior turns verbatim with their roles, then the query with
// any image payloads.
func (c *Composer) buildMessages(
	query string,
	history []*entity.ChatTurn,
	bundle *store.ContextBundle,
	subQueries []store.SubQuery,
	complexity store.ComplexityClass,
	images [][]byte,
) []llm.Message {
	var system strings.Builder
	system.WriteString(constant.BaseSystemPrompt)
	system.WriteString("\n\n")

	if !bundle.Empty() {
		system.WriteString(constant.GroundingInstructions)
		system.WriteString("\n\n")
		writeEvidence(&system, bundle, subQueries)
	}

	if complexity == store.ComplexityStructured {
		topics := make([]string, len(subQueries))
		for i, sq := range subQueries {
			topics[i] = "- " + sq.Text
		}
		fmt.Fprintf(&system, constant.StructuredFormatDirective, strings.Join(topics, "\n"))
	} else {
		system.WriteString(constant.SimpleFormatDirective)
	}

	messages := []llm.Message{{Role: "system", Content: system.String()}}
	for _, turn := range history {
		role := "user"
		if turn.Role == constant.ChatRoleAssistant {
			role = "assistant"
		}
		messages = append(messages, llm.Message{
			Role:    role,
			Content: turn.Content,
			Images:  turn.Images,
		})
	}
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: query,
		Images:  images,
	})
	return messages
}

// writeEvidence lists the excerpts grouped by sub-query, numbered by
// their flattened index so citation numbering is stable.
func writeEvidence(sb *strings.Builder, bundle *store.ContextBundle, subQueries []store.SubQuery) {
	flatIndex := make(map[string]int, len(bundle.Flattened))
	for i, item := range bundle.Flattened {
		flatIndex[item.Key()] = i
	}

	sb.WriteString("<evidence>\n")
	for idx := range subQueries {
		items := bundle.BySubQuery[idx]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(sb, "Sub-topic %d: %s\n", idx+1, subQueries[idx].Text)
		for _, item := range items {
			n := flatIndex[item.Key()] + 1
			if item.Kind == store.KindDocument {
				fmt.Fprintf(sb, "[%d] %s (page %d): %s\n", n, item.Filename, item.Page, item.Excerpt)
			} else {
				fmt.Fprintf(sb, "[%d] %s (%s): %s\n", n, item.Title, item.URL, item.Snippet)
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("</evidence>\n\n")
}

// stripInvalidCitations removes references to indices outside the bundle
// and returns the zero-based flattened indices actually cited, in first
// citation order.
func (c *Composer) stripInvalidCitations(text string, bundle *store.ContextBundle) (string, []int) {
	var cited []int
	seen := make(map[int]bool)

	cleaned := citationPattern.ReplaceAllStringFunc(text, func(match string) string {
		n, err := strconv.Atoi(match[1 : len(match)-1])
		if err != nil || n < 1 || n > len(bundle.Flattened) {
			c.logger.Warn("compose", "Stripped invalid citation", map[string]interface{}{
				"reference": match,
			})
			return ""
		}
		if !seen[n-1] {
			seen[n-1] = true
			cited = append(cited, n-1)
		}
		return match
	})

	return cleaned, cited
}
