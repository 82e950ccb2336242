package parser

import (
	"bytes"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/ragforge/ragcore/internal/chunker"
	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

var _ driven.Parser = (*PDFParser)(nil)

// PDFParser extracts page text from a PDF, concatenating pages in
// order and deduplicating running headers/footers that repeat on
// every page (spec 4.1's PDF edge case).
type PDFParser struct{}

func (p *PDFParser) Parse(name string, source []byte) (driven.ParseResult, error) {
	reader, err := pdf.NewReader(bytes.NewReader(source), int64(len(source)))
	if err != nil {
		return driven.ParseResult{}, domain.NewError(domain.KindParse, "parser.PDFParser.Parse", "not a valid PDF", err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil && err != io.EOF {
			continue
		}
		pages = append(pages, text)
	}

	deduped := chunker.DeduplicateChunks(pages, 20)
	var joined bytes.Buffer
	for i, page := range deduped {
		if i > 0 {
			joined.WriteString("\n\n")
		}
		joined.WriteString(page)
	}

	return driven.ParseResult{
		Content:   chunker.NormalizeWhitespace(joined.String()),
		MediaType: domain.DocumentTypePDF,
		Title:     titleFromName(name),
		FileMetadata: domain.FileMetadata{
			"size_bytes": len(source),
			"mime_type":  "application/pdf",
			"page_count": numPages,
		},
	}, nil
}

func (p *PDFParser) SupportedTypes() []string { return []string{"application/pdf", ".pdf"} }
func (p *PDFParser) Priority() int             { return 8 }
