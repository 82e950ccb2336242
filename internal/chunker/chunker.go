package chunker

import (
	"strings"

	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

var _ driven.Chunker = (*SlidingWindow)(nil)

// SlidingWindow implements driven.Chunker (C4): it splits text into
// overlapping chunks, always making forward progress, preferring to
// break at a paragraph boundary, then a sentence terminator, then
// whitespace, before falling back to a hard cut mid-word.
type SlidingWindow struct{}

func New() *SlidingWindow { return &SlidingWindow{} }

// Chunk runs the generic sliding-window algorithm.
func (c *SlidingWindow) Chunk(text string, chunkSize, overlap int) []string {
	return slide(text, chunkSize, overlap, findGenericBreakPoint)
}

// ChunkStructureAware prefers markdown/structural boundaries (headings,
// list items, blank lines) ahead of the generic break-point search, so
// a structured document's sections stay whole where they fit.
func (c *SlidingWindow) ChunkStructureAware(text string, chunkSize, overlap int) []string {
	return slide(text, chunkSize, overlap, findStructuralBreakPoint)
}

// ChunkCodeAware never breaks inside a line: it always lands on a
// newline, preferring a blank line between top-level blocks.
func (c *SlidingWindow) ChunkCodeAware(text string, chunkSize, overlap int) []string {
	return slide(text, chunkSize, overlap, findCodeBreakPoint)
}

type breakPointFn func(text string, start, maxEnd int) int

// slide is the shared sliding-window driver: every mode differs only
// in how it picks a break point, never in the forward-progress or
// overlap bookkeeping.
func slide(text string, chunkSize, overlap int, findBreak breakPointFn) []string {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	if len(text) <= chunkSize {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + chunkSize
		if end > len(text) {
			end = len(text)
		}

		if end < len(text) {
			if bp := findBreak(text, start, end); bp > start {
				end = bp
			}
		}

		if trimmed := strings.TrimSpace(text[start:end]); trimmed != "" {
			chunks = append(chunks, trimmed)
		}

		if end >= len(text) {
			break
		}

		nextStart := end - overlap
		if nextStart <= start {
			// Guarantees forward progress even when the chosen break
			// point is very close to start (invariant: every call
			// advances start).
			nextStart = start + 1
		}
		start = nextStart
	}

	return chunks
}

// findGenericBreakPoint implements the break-point preference from
// spec 4.2: paragraph > sentence-terminator+whitespace > whitespace >
// hard cut. It only searches the tail of the window (the last 100
// characters) so the chosen break point never discards a large
// fraction of the chunk.
func findGenericBreakPoint(text string, start, maxEnd int) int {
	searchStart := maxEnd - 100
	if searchStart < start {
		searchStart = start
	}
	window := text[searchStart:maxEnd]

	if idx := strings.LastIndex(window, "\n\n"); idx != -1 {
		return searchStart + idx + 2
	}

	if bp := lastSentenceEnd(window); bp > 0 {
		return searchStart + bp
	}

	if idx := strings.LastIndex(window, " "); idx != -1 {
		return searchStart + idx + 1
	}

	return maxEnd
}

func lastSentenceEnd(window string) int {
	enders := []string{". ", "! ", "? ", ".\n", "!\n", "?\n"}
	best := -1
	for _, ender := range enders {
		if idx := strings.LastIndex(window, ender); idx != -1 {
			if end := idx + len(ender); end > best {
				best = end
			}
		}
	}
	return best
}

// findStructuralBreakPoint prefers a line that starts a new markdown
// heading or list item, falling back to the generic preference order.
func findStructuralBreakPoint(text string, start, maxEnd int) int {
	searchStart := maxEnd - 300
	if searchStart < start {
		searchStart = start
	}
	window := text[searchStart:maxEnd]

	lines := strings.Split(window, "\n")
	offset := 0
	bestOffset := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if i > 0 && isStructuralBoundary(trimmed) {
			bestOffset = offset
		}
		offset += len(line) + 1
	}
	if bestOffset > 0 {
		return searchStart + bestOffset
	}

	return findGenericBreakPoint(text, start, maxEnd)
}

func isStructuralBoundary(line string) bool {
	if strings.HasPrefix(line, "#") {
		return true
	}
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		return true
	}
	return line == ""
}

// findCodeBreakPoint only ever returns a position right after a
// newline, preferring a blank line, so a chunk boundary never splits
// a source line in two.
func findCodeBreakPoint(text string, start, maxEnd int) int {
	searchStart := maxEnd - 200
	if searchStart < start {
		searchStart = start
	}
	window := text[searchStart:maxEnd]

	if idx := strings.LastIndex(window, "\n\n"); idx != -1 {
		return searchStart + idx + 2
	}
	if idx := strings.LastIndex(window, "\n"); idx != -1 {
		return searchStart + idx + 1
	}
	return maxEnd
}
