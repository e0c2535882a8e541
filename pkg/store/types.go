package store

import (
	"fmt"
	"sort"
)

// Category is a web search category. Scores are ordinal within a single
// category only; the aggregator never compares raw scores across categories.
type Category string

const (
	CategoryGeneral  Category = "general"
	CategoryAcademic Category = "academic"
	CategorySocial   Category = "social"
)

// ValidCategory reports whether c is one of the known search categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryGeneral, CategoryAcademic, CategorySocial:
		return true
	}
	return false
}

// Tool identifies a retrieval tool a sub-query may hint at.
type Tool string

const (
	ToolDocument Tool = "document"
	ToolWeb      Tool = "web"
)

// SubQuery is one decomposed information need. It is derived per request
// and never persisted.
type SubQuery struct {
	Text string
	// Hints restrict which tools the router may select for this sub-query.
	// Empty means no restriction.
	Hints []Tool
	// Categories to use when the web tool is selected. Applied uniformly
	// from the request-level setting.
	Categories []Category
}

// HintsContain reports whether the sub-query hints include t. An empty
// hint list allows every tool.
func (s SubQuery) HintsContain(t Tool) bool {
	if len(s.Hints) == 0 {
		return true
	}
	for _, h := range s.Hints {
		if h == t {
			return true
		}
	}
	return false
}

// ToolSelection is the router's decision for one sub-query.
type ToolSelection struct {
	Document bool
	Web      bool
}

// Neither reports that no retrieval tool was selected; the composer must
// answer from the plain LLM.
func (t ToolSelection) Neither() bool {
	return !t.Document && !t.Web
}

// EvidenceKind tags an evidence item as a document chunk or a web result.
type EvidenceKind string

const (
	KindDocument EvidenceKind = "document"
	KindWeb      EvidenceKind = "web"
)

// EvidenceItem is one retrieved grounding candidate.
type EvidenceItem struct {
	Kind     EvidenceKind
	SubQuery int     // originating sub-query index
	Score    float64 // higher = more relevant
	Order    int     // retrieval order within its slice, for tie-breaking

	// Document payload
	Filename string
	Page     int
	Excerpt  string

	// Web payload
	Title   string
	URL     string // normalized
	Snippet string
}

// Key returns the deduplication identity: (filename, page) for document
// items, normalized URL for web items.
func (e EvidenceItem) Key() string {
	if e.Kind == KindDocument {
		return fmt.Sprintf("doc:%s#%d", e.Filename, e.Page)
	}
	return "web:" + e.URL
}

// ContextBundle groups evidence by sub-query and exposes a flattened,
// deterministically ordered list used for citation numbering.
type ContextBundle struct {
	BySubQuery map[int][]EvidenceItem
	Flattened  []EvidenceItem
}

// NewContextBundle builds a bundle from deduplicated items. Per-sub-query
// lists are score-descending; the flattened list is score-descending with
// ties broken by sub-query index, then retrieval order.
func NewContextBundle(items []EvidenceItem) *ContextBundle {
	b := &ContextBundle{BySubQuery: make(map[int][]EvidenceItem)}

	b.Flattened = append(b.Flattened, items...)
	sort.SliceStable(b.Flattened, func(i, j int) bool {
		a, c := b.Flattened[i], b.Flattened[j]
		if a.Score != c.Score {
			return a.Score > c.Score
		}
		if a.SubQuery != c.SubQuery {
			return a.SubQuery < c.SubQuery
		}
		return a.Order < c.Order
	})

	for _, item := range b.Flattened {
		b.BySubQuery[item.SubQuery] = append(b.BySubQuery[item.SubQuery], item)
	}

	return b
}

// Empty reports whether no evidence survived aggregation. The composer
// treats an empty bundle as "answer without grounding".
func (b *ContextBundle) Empty() bool {
	return b == nil || len(b.Flattened) == 0
}

// ComplexityClass drives the answer's shape: continuous prose vs one
// heading per sub-topic.
type ComplexityClass string

const (
	ComplexitySimple     ComplexityClass = "simple"
	ComplexityStructured ComplexityClass = "structured"
)
