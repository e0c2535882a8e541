package chunkstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/pkg/embedding"
	"docchat-be/pkg/ragerr"
	"docchat-be/pkg/utils"
)

// Chunking defaults: large spans with a generous overlap so retrieval
// keeps surrounding context intact.
const (
	DefaultChunkSize = 8000
	DefaultOverlap   = 800
)

// PgvectorStore keeps document chunks in Postgres with pgvector
// embeddings. A coarse RWMutex serializes index/remove against in-flight
// queries: mutations take the write lock, retrievals the read lock.
type PgvectorStore struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger

	chunkSize int
	overlap   int

	mu sync.RWMutex
}

var _ Store = &PgvectorStore{}

func NewPgvectorStore(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	sysLogger logger.ILogger,
	chunkSize, overlap int,
) *PgvectorStore {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
	}
	return &PgvectorStore{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            sysLogger,
		chunkSize:         chunkSize,
		overlap:           overlap,
	}
}

// Index splits and embeds the document content, then swaps the old chunk
// set for the new one in a single transaction. Re-indexing the same
// document is idempotent.
func (s *PgvectorStore) Index(ctx context.Context, documentId uuid.UUID, filename, content string, pages int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks := utils.SplitText(content, s.chunkSize, s.overlap)
	s.logger.Info("chunkstore", "Indexing document", map[string]interface{}{
		"document_id": documentId.String(),
		"filename":    filename,
		"chunks":      len(chunks),
	})

	// Approximate page per chunk from its start offset. The ingestion
	// collaborator reports a page count, not per-chunk pages.
	pageSize := 0
	if pages > 0 {
		pageSize = len(content) / pages
	}

	newChunks := make([]*entity.DocumentChunk, 0, len(chunks))
	offset := 0
	for i, chunk := range chunks {
		res, err := s.generateWithRetry(chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			return ragerr.Adapter("chunkstore.index", true, err)
		}

		page := 1
		if pageSize > 0 {
			page = offset/pageSize + 1
			if page > pages {
				page = pages
			}
		}

		newChunks = append(newChunks, &entity.DocumentChunk{
			Id:             uuid.New(),
			DocumentId:     documentId,
			Filename:       filename,
			Page:           page,
			ChunkIndex:     i,
			Text:           chunk,
			EmbeddingValue: res.Values,
			CreatedAt:      time.Now(),
		})

		offset += len(chunk) - s.overlap
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return ragerr.Adapter("chunkstore.index", true, err)
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, documentId); err != nil {
		return ragerr.Adapter("chunkstore.index", true, err)
	}
	if err := uow.DocumentChunkRepository().CreateBulk(ctx, newChunks); err != nil {
		return ragerr.Adapter("chunkstore.index", true, err)
	}
	if err := uow.Commit(); err != nil {
		return ragerr.Adapter("chunkstore.index", true, err)
	}

	return nil
}

// Query embeds the text and returns the top-k chunks at or above
// minScore. Chunks below the threshold are dropped, never padded.
func (s *PgvectorStore) Query(ctx context.Context, text string, k int, minScore float64) ([]Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.generateWithRetry(text, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, ragerr.Adapter("chunkstore.query", true, err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.DocumentChunkRepository().SearchSimilarWithScore(ctx, res.Values, k, minScore)
	if err != nil {
		return nil, ragerr.Adapter("chunkstore.query", true, err)
	}

	results := make([]Chunk, len(scored))
	for i, sc := range scored {
		results[i] = Chunk{
			Text:     sc.Chunk.Text,
			Filename: sc.Chunk.Filename,
			Page:     sc.Chunk.Page,
			Score:    sc.Similarity,
		}
	}
	return results, nil
}

// Remove hard-deletes every chunk of the document. Once it returns, no
// subsequent Query can see the removed vectors.
func (s *PgvectorStore) Remove(ctx context.Context, documentId uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, documentId); err != nil {
		return ragerr.Adapter("chunkstore.remove", true, err)
	}
	return nil
}

// generateWithRetry retries a failed embedding call once after a short
// backoff. Embedding backends fail transiently far more often than
// persistently.
func (s *PgvectorStore) generateWithRetry(text, taskType string) (*embedding.Embedding, error) {
	res, err := s.embeddingProvider.Generate(text, taskType)
	if err == nil {
		return res, nil
	}
	s.logger.Warn("chunkstore", "Embedding call failed, retrying once", map[string]interface{}{
		"error": err.Error(),
	})
	time.Sleep(500 * time.Millisecond)
	return s.embeddingProvider.Generate(text, taskType)
}
