package embedding

// BatchLimit caps the number of texts sent in one provider call. Callers pass
// arbitrarily long slices; providers split them internally.
const BatchLimit = 100

// Task types passed to providers that distinguish query vs document embeddings
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*EmbeddingResponse, error)

	// GenerateBatch embeds many texts, batching requests at BatchLimit.
	// The result slice is index-aligned with texts.
	GenerateBatch(texts []string, taskType string) ([][]float32, error)
}
