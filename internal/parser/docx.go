package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/ragforge/ragcore/internal/chunker"
	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

var _ driven.Parser = (*DOCXParser)(nil)

// DOCXParser reads word/document.xml out of the OOXML zip container
// and concatenates the text runs. No third-party DOCX reader exists
// in the example corpus (see DESIGN.md), so this is built directly on
// archive/zip and encoding/xml, the same pair used by the standard
// library to decode any zip-based XML container.
type DOCXParser struct{}

// docxBody mirrors just enough of the OOXML WordprocessingML schema to
// pull out paragraphs ("w:p") and text runs ("w:t"); everything else
// (styling, tables-as-markup, etc.) is ignored.
type docxBody struct {
	Paragraphs []docxParagraph `xml:"body>p"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []string `xml:"t"`
}

func (p *DOCXParser) Parse(name string, source []byte) (driven.ParseResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(source), int64(len(source)))
	if err != nil {
		return driven.ParseResult{}, domain.NewError(domain.KindParse, "parser.DOCXParser.Parse", "not a valid DOCX (zip) container", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return driven.ParseResult{}, domain.NewError(domain.KindParse, "parser.DOCXParser.Parse", "could not open word/document.xml", err)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return driven.ParseResult{}, domain.NewError(domain.KindParse, "parser.DOCXParser.Parse", "could not read word/document.xml", err)
			}
			break
		}
	}
	if docXML == nil {
		return driven.ParseResult{}, domain.NewError(domain.KindParse, "parser.DOCXParser.Parse", "missing word/document.xml", nil)
	}

	var body docxBody
	if err := xml.Unmarshal(docXML, &body); err != nil {
		return driven.ParseResult{}, domain.NewError(domain.KindParse, "parser.DOCXParser.Parse", "malformed document.xml", err)
	}

	var sb strings.Builder
	for _, para := range body.Paragraphs {
		for _, run := range para.Runs {
			for _, t := range run.Text {
				sb.WriteString(t)
			}
		}
		sb.WriteString("\n\n")
	}

	return driven.ParseResult{
		Content:   chunker.NormalizeWhitespace(sb.String()),
		MediaType: domain.DocumentTypeDOCX,
		Title:     titleFromName(name),
		FileMetadata: domain.FileMetadata{
			"size_bytes": len(source),
			"mime_type":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		},
	}, nil
}

func (p *DOCXParser) SupportedTypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		".docx",
	}
}
func (p *DOCXParser) Priority() int { return 8 }
