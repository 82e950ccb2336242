package domain

import "sync"

// RuntimeConfig tracks which AI capabilities are available right now.
// It is updated whenever the LLM gateway swaps providers (degraded
// mode included) and is read by the search service to decide its
// effective mode. Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	QueueBackend string // "redis" or "postgres"
	LockBackend  string // "redis" or "postgres"

	embeddingAvailable bool
	llmAvailable       bool
	degraded           bool
}

// NewRuntimeConfig creates a RuntimeConfig with the given infra backend names.
func NewRuntimeConfig(queueBackend, lockBackend string) *RuntimeConfig {
	return &RuntimeConfig{QueueBackend: queueBackend, LockBackend: lockBackend}
}

func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

func (c *RuntimeConfig) LLMAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.llmAvailable
}

// Degraded reports whether the gateway is currently running any
// fallback (deterministic) path instead of a real provider.
func (c *RuntimeConfig) Degraded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.degraded
}

func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

func (c *RuntimeConfig) SetLLMAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.llmAvailable = available
}

func (c *RuntimeConfig) SetDegraded(degraded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.degraded = degraded
}

// CanDoSemanticSearch reports whether nearest-neighbor search over
// query embeddings is currently possible.
func (c *RuntimeConfig) CanDoSemanticSearch() bool { return c.EmbeddingAvailable() }

// EffectiveSearchMode returns the best search mode available given
// current capability flags, implementing spec 9's "effectiveMode"
// degraded-mode logic.
func (c *RuntimeConfig) EffectiveSearchMode() SearchMode {
	if c.EmbeddingAvailable() {
		return SearchModeHybrid
	}
	return SearchModeLexical
}

// RequiresEmbedding reports whether mode needs a query embedding.
func (mode SearchMode) RequiresEmbedding() bool {
	return mode == SearchModeHybrid || mode == SearchModeSemantic
}

// Stats is the snapshot Client.Stats returns: corpus size and current
// capability/backend state, for callers that want a health dashboard
// without polling Healthy repeatedly.
type Stats struct {
	DocumentCount       int            `json:"document_count"`
	EmbeddingCount      int            `json:"embedding_count"`
	DocumentsByStatus   map[string]int `json:"documents_by_status"`
	QueueBackend        string         `json:"queue_backend"`
	LockBackend         string         `json:"lock_backend"`
	Degraded            bool           `json:"degraded"`
	EmbeddingAvailable  bool           `json:"embedding_available"`
	LLMAvailable        bool           `json:"llm_available"`
}
