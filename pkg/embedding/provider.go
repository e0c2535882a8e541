package embedding

// TaskType hints the embedding model at the retrieval role of the text.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

type Embedding struct {
	Values []float32 `json:"values"`
}

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*Embedding, error)
}
