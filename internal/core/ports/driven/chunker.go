package driven

// Chunker splits text into overlapping, boundary-aware chunks (C4).
// The three modes in spec 4.2 (generic sliding-window,
// structure-aware, code-aware) are exposed as separate methods rather
// than a mode flag, since each has a distinct break-point strategy.
type Chunker interface {
	Chunk(text string, chunkSize, overlap int) []string
	ChunkStructureAware(text string, chunkSize, overlap int) []string
	ChunkCodeAware(text string, chunkSize, overlap int) []string
}
