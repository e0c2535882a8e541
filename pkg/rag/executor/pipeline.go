package executor

import (
	"context"

	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/logger"
	"docchat-be/pkg/rag/complexity"
	"docchat-be/pkg/rag/compose"
	"docchat-be/pkg/rag/decompose"
	"docchat-be/pkg/rag/evidence"
	"docchat-be/pkg/rag/route"
	"docchat-be/pkg/store"
)

// Request carries everything one chat turn needs from the boundary layer.
type Request struct {
	Query        string
	History      []*entity.ChatTurn
	Images       [][]byte
	RagEnabled   bool
	WebEnabled   bool
	HasDocuments bool
	Categories   []store.Category
	ModelId      string
}

// Result is the pipeline's answer for one turn.
type Result struct {
	Answer          string
	DocumentSources []entity.DocumentSource
	WebSources      []entity.WebSource
	Complexity      store.ComplexityClass
}

// Pipeline wires decomposition, routing, aggregation and composition
// into the per-turn flow. Routing errors surface immediately; retrieval
// failures degrade to an ungrounded answer; only a failed generation
// aborts the turn.
type Pipeline struct {
	decomposer *decompose.Decomposer
	aggregator *evidence.Aggregator
	composer   *compose.Composer
	detector   *complexity.Detector
	logger     logger.ILogger
}

func NewPipeline(
	decomposer *decompose.Decomposer,
	aggregator *evidence.Aggregator,
	composer *compose.Composer,
	detector *complexity.Detector,
	sysLogger logger.ILogger,
) *Pipeline {
	return &Pipeline{
		decomposer: decomposer,
		aggregator: aggregator,
		composer:   composer,
		detector:   detector,
		logger:     sysLogger,
	}
}

func (p *Pipeline) Execute(ctx context.Context, req *Request) (*Result, error) {
	subQueries := p.decomposer.Decompose(ctx, req.Query, req.History)

	routing := make([]store.ToolSelection, len(subQueries))
	for i := range subQueries {
		sel, err := route.Select(subQueries[i], req.RagEnabled, req.WebEnabled, req.HasDocuments, req.Categories)
		if err != nil {
			return nil, err
		}
		routing[i] = sel
		if sel.Web {
			// Categories are a request-level setting applied uniformly
			// to every sub-query that selects the web tool.
			subQueries[i].Categories = req.Categories
		}
		if sel.Neither() {
			p.logger.Debug("pipeline", "Sub-query answered from plain LLM", map[string]interface{}{
				"sub_query": i,
			})
		}
	}

	bundle := p.aggregator.Aggregate(ctx, subQueries, routing)
	class := p.detector.Classify(req.Query, len(subQueries))

	composed, err := p.composer.Compose(ctx, req.Query, req.History, bundle, subQueries, class, req.Images, req.ModelId)
	if err != nil {
		return nil, err
	}

	return &Result{
		Answer:          composed.Text,
		DocumentSources: composed.DocumentSources,
		WebSources:      composed.WebSources,
		Complexity:      class,
	}, nil
}
