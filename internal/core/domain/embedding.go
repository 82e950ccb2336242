package domain

import "time"

// EmbeddableType names the content-record kind an Embedding belongs
// to, playing the role of the polymorphic embeddings.embeddable_type
// column described in spec section 3.
type EmbeddableType string

const (
	EmbeddableText  EmbeddableType = "text_content"
	EmbeddableImage EmbeddableType = "image_content"
	EmbeddableAudio EmbeddableType = "audio_content"
)

// Embedding is a fixed-dimension vector derived from one chunk of a
// content record. (EmbeddableType, EmbeddableID, ChunkIndex) is
// unique (invariant 3).
type Embedding struct {
	ID             string         `json:"id"`
	EmbeddableType EmbeddableType `json:"embeddable_type"`
	EmbeddableID   string         `json:"embeddable_id"`
	DocumentID     string         `json:"document_id"`
	ChunkIndex     int            `json:"chunk_index"`
	Content        string         `json:"content"`
	Vector         []float32      `json:"embedding_vector"`
	EmbeddingModel string         `json:"embedding_model"`
	UsageCount     int            `json:"usage_count"`
	ReturnedAt     *time.Time     `json:"returned_at,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ModelDimensions gives the vector length a given embedding model
// advertises, used to enforce invariant 2 (vector length matches the
// dimension the model advertises).
var ModelDimensions = map[string]int{
	"openai/text-embedding-3-small": 1536,
	"openai/text-embedding-3-large": 3072,
	"openai/text-embedding-ada-002": 1536,
	"azure/text-embedding-3-small":  1536,
	"google/text-embedding-004":     768,
	"huggingface/all-MiniLM-L6-v2":  384,
	"ollama/nomic-embed-text":       768,
	"fallback/deterministic":        1536,
}

// DimensionFor returns the declared dimension for model, defaulting to
// the fallback dimension for unrecognized models.
func DimensionFor(model string) int {
	if d, ok := ModelDimensions[model]; ok {
		return d
	}
	return ModelDimensions["fallback/deterministic"]
}
