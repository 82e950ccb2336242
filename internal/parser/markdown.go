package parser

import (
	"strings"

	"github.com/ragforge/ragcore/internal/chunker"
	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

var _ driven.Parser = (*MarkdownParser)(nil)

// MarkdownParser extracts text from Markdown source. It keeps the
// Markdown markup intact (it's valuable structural signal for
// ChunkStructureAware) but strips a leading H1 out as the document
// title when the caller hasn't supplied one.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(name string, source []byte) (driven.ParseResult, error) {
	raw, mime := decodeText(source)
	title, body := extractMarkdownTitle(raw)
	if title == "" {
		title = titleFromName(name)
	}

	return driven.ParseResult{
		Content:   chunker.NormalizeWhitespace(body),
		MediaType: domain.DocumentTypeMarkdown,
		Title:     title,
		FileMetadata: domain.FileMetadata{
			"size_bytes": len(source),
			"mime_type":  strings.Replace(mime, "text/plain", "text/markdown", 1),
		},
	}, nil
}

func (p *MarkdownParser) SupportedTypes() []string {
	return []string{"text/markdown", ".md", ".markdown"}
}
func (p *MarkdownParser) Priority() int { return 5 }

// extractMarkdownTitle pulls a leading "# Title" line off the document,
// returning the remainder unchanged otherwise.
func extractMarkdownTitle(content string) (title, rest string) {
	lines := strings.SplitN(content, "\n", 2)
	first := strings.TrimSpace(lines[0])
	if strings.HasPrefix(first, "# ") {
		title = strings.TrimSpace(strings.TrimPrefix(first, "# "))
		if len(lines) > 1 {
			return title, lines[1]
		}
		return title, ""
	}
	return "", content
}
