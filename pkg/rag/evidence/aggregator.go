package evidence

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"docchat-be/internal/pkg/logger"
	"docchat-be/pkg/chunkstore"
	"docchat-be/pkg/store"
	"docchat-be/pkg/websearch"
)

const (
	DefaultTopK         = 4
	DefaultMinScore     = 0.35
	DefaultWebResultMax = 5
	DefaultFetchTimeout = 20 * time.Second
)

// Aggregator fans out the selected retrieval tools per sub-query,
// absorbs partial failures, deduplicates the evidence and assembles the
// ContextBundle. A failed slice contributes nothing; only a total
// failure leaves the bundle empty, and even that is not an error.
type Aggregator struct {
	chunks chunkstore.Store
	web    websearch.Searcher
	logger logger.ILogger

	topK         int
	minScore     float64
	webResultMax int
	fetchTimeout time.Duration
}

func NewAggregator(
	chunks chunkstore.Store,
	web websearch.Searcher,
	sysLogger logger.ILogger,
	topK int,
	minScore float64,
	webResultMax int,
	fetchTimeout time.Duration,
) *Aggregator {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	if webResultMax <= 0 {
		webResultMax = DefaultWebResultMax
	}
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	return &Aggregator{
		chunks:       chunks,
		web:          web,
		logger:       sysLogger,
		topK:         topK,
		minScore:     minScore,
		webResultMax: webResultMax,
		fetchTimeout: fetchTimeout,
	}
}

// Aggregate executes every selected tool concurrently: sub-queries run
// independently, and within one sub-query each web category is its own
// call. The returned bundle is deterministic given identical adapter
// responses.
func (a *Aggregator) Aggregate(ctx context.Context, subQueries []store.SubQuery, routing []store.ToolSelection) *store.ContextBundle {
	var (
		mu    sync.Mutex
		items []store.EvidenceItem
	)

	g := &errgroup.Group{}

	for i := range subQueries {
		if i >= len(routing) {
			break
		}
		idx, sq, sel := i, subQueries[i], routing[i]

		if sel.Document {
			g.Go(func() error {
				found := a.fetchChunks(ctx, idx, sq)
				mu.Lock()
				items = append(items, found...)
				mu.Unlock()
				return nil
			})
		}

		if sel.Web {
			for _, category := range sq.Categories {
				cat := category
				g.Go(func() error {
					found := a.fetchWeb(ctx, idx, sq, cat)
					mu.Lock()
					items = append(items, found...)
					mu.Unlock()
					return nil
				})
			}
		}
	}

	// Workers never return errors; failures were logged and absorbed.
	_ = g.Wait()

	items = a.capWebPerSubQuery(items)
	items = dedupe(items)

	bundle := store.NewContextBundle(items)
	a.logger.Info("evidence", "Aggregation complete", map[string]interface{}{
		"sub_queries": len(subQueries),
		"evidence":    len(bundle.Flattened),
	})
	return bundle
}

func (a *Aggregator) fetchChunks(ctx context.Context, idx int, sq store.SubQuery) []store.EvidenceItem {
	callCtx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	chunks, err := a.chunks.Query(callCtx, sq.Text, a.topK, a.minScore)
	if err != nil {
		a.logger.Warn("evidence", "Document retrieval failed for sub-query", map[string]interface{}{
			"sub_query": idx,
			"error":     err.Error(),
		})
		return nil
	}

	items := make([]store.EvidenceItem, len(chunks))
	for i, chunk := range chunks {
		items[i] = store.EvidenceItem{
			Kind:     store.KindDocument,
			SubQuery: idx,
			Score:    chunk.Score,
			Order:    i,
			Filename: chunk.Filename,
			Page:     chunk.Page,
			Excerpt:  chunk.Text,
		}
	}
	return items
}

func (a *Aggregator) fetchWeb(ctx context.Context, idx int, sq store.SubQuery, category store.Category) []store.EvidenceItem {
	callCtx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	results, err := a.web.Search(callCtx, sq.Text, category)
	if err != nil {
		a.logger.Warn("evidence", "Web search failed for sub-query", map[string]interface{}{
			"sub_query": idx,
			"category":  string(category),
			"error":     err.Error(),
		})
		return nil
	}

	items := make([]store.EvidenceItem, len(results))
	for i, result := range results {
		items[i] = store.EvidenceItem{
			Kind:     store.KindWeb,
			SubQuery: idx,
			Score:    result.Score,
			Order:    i,
			Title:    result.Title,
			URL:      result.URL,
			Snippet:  result.Snippet,
		}
	}
	return items
}

// capWebPerSubQuery merges the per-category web results of each
// sub-query, drops same-URL duplicates, then keeps the top-N by
// adapter-reported relevance. Dedupe runs before the cap so overlapping
// categories never under-fill the slice while unique results remain.
func (a *Aggregator) capWebPerSubQuery(items []store.EvidenceItem) []store.EvidenceItem {
	webBySubQuery := make(map[int][]store.EvidenceItem)
	var kept []store.EvidenceItem
	for _, item := range items {
		if item.Kind == store.KindWeb {
			webBySubQuery[item.SubQuery] = append(webBySubQuery[item.SubQuery], item)
		} else {
			kept = append(kept, item)
		}
	}

	for _, webItems := range webBySubQuery {
		sort.SliceStable(webItems, func(i, j int) bool {
			if webItems[i].Score != webItems[j].Score {
				return webItems[i].Score > webItems[j].Score
			}
			return webItems[i].Order < webItems[j].Order
		})

		seen := make(map[string]bool, len(webItems))
		var unique []store.EvidenceItem
		for _, item := range webItems {
			key := item.Key()
			if seen[key] {
				// Score-descending scan, so the kept copy is the
				// highest-scored instance of this URL.
				continue
			}
			seen[key] = true
			unique = append(unique, item)
		}

		if len(unique) > a.webResultMax {
			unique = unique[:a.webResultMax]
		}
		kept = append(kept, unique...)
	}
	return kept
}

// dedupe enforces the bundle invariant: no two items with the same
// identifying key. The first sub-query that retrieved an item keeps the
// association; a later, higher-scored duplicate replaces the payload
// (its title or snippet may differ) under that first-seen slot.
func dedupe(items []store.EvidenceItem) []store.EvidenceItem {
	// Scan in (sub-query, retrieval order) so "first seen" is stable
	// regardless of goroutine completion order.
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].SubQuery != items[j].SubQuery {
			return items[i].SubQuery < items[j].SubQuery
		}
		return items[i].Order < items[j].Order
	})

	seen := make(map[string]int)
	var out []store.EvidenceItem
	for _, item := range items {
		key := item.Key()
		if at, dup := seen[key]; dup {
			if item.Score > out[at].Score {
				subQuery, order := out[at].SubQuery, out[at].Order
				out[at] = item
				out[at].SubQuery = subQuery
				out[at].Order = order
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, item)
	}
	return out
}
