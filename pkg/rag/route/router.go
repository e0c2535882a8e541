package route

import (
	"docchat-be/pkg/ragerr"
	"docchat-be/pkg/store"
)

// Select decides which retrieval tools serve one sub-query. It is a pure
// function of its inputs: no I/O, no hidden state.
//
// Decision table over the request toggles (first match wins):
//
//	ragEnabled  webEnabled  hasDocuments  -> selection
//	true        false       true          -> document only
//	true        true        true          -> document + web
//	true        true        false         -> web only
//	false       true        any           -> web only
//	true        false       false         -> neither (plain LLM)
//	false       false       any           -> neither
//
// A sub-query's tool hints can only narrow the selection, never widen it.
// Web enabled with an empty category set is a caller bug: the UI must
// keep at least one category active, and the router rejects the
// violation instead of guessing a default.
func Select(sq store.SubQuery, ragEnabled, webEnabled, hasDocuments bool, categories []store.Category) (store.ToolSelection, error) {
	if webEnabled && len(categories) == 0 {
		return store.ToolSelection{}, ragerr.Configuration("web search enabled with empty search-category set")
	}
	for _, c := range categories {
		if !store.ValidCategory(c) {
			return store.ToolSelection{}, ragerr.Configuration("unknown search category %q", c)
		}
	}

	var sel store.ToolSelection
	switch {
	case ragEnabled && !webEnabled && hasDocuments:
		sel = store.ToolSelection{Document: true}
	case ragEnabled && webEnabled && hasDocuments:
		sel = store.ToolSelection{Document: true, Web: true}
	case webEnabled:
		sel = store.ToolSelection{Web: true}
	default:
		// ragEnabled without documents, or everything off: plain LLM.
		sel = store.ToolSelection{}
	}

	if sel.Document && !sq.HintsContain(store.ToolDocument) {
		sel.Document = false
	}
	if sel.Web && !sq.HintsContain(store.ToolWeb) {
		sel.Web = false
	}

	return sel, nil
}
