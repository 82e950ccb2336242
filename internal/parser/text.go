package parser

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/ragforge/ragcore/internal/chunker"
	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

var _ driven.Parser = (*TextParser)(nil)

// TextParser handles plain text and is the registry's fallback for
// any extension nothing else claims.
type TextParser struct{}

func (p *TextParser) Parse(name string, source []byte) (driven.ParseResult, error) {
	text, mime := decodeText(source)
	content := chunker.NormalizeWhitespace(text)
	return driven.ParseResult{
		Content:   content,
		MediaType: domain.DocumentTypeText,
		Title:     titleFromName(name),
		FileMetadata: domain.FileMetadata{
			"size_bytes": len(source),
			"mime_type":  mime,
		},
	}, nil
}

// decodeText assumes UTF-8 and only falls back to an ISO-8859-1
// (Latin-1) decode when the bytes aren't valid UTF-8, since Latin-1
// maps every byte to a codepoint and a mis-decoded UTF-8 file would
// otherwise surface as replacement characters.
func decodeText(source []byte) (string, string) {
	if utf8.Valid(source) {
		return string(source), "text/plain"
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(source)
	if err != nil {
		return string(source), "text/plain"
	}
	return string(decoded), "text/plain; charset=iso-8859-1"
}

func (p *TextParser) SupportedTypes() []string { return []string{"text/plain", ".txt", "*/*"} }
func (p *TextParser) Priority() int            { return 1 }

// titleFromName derives a human title from a file path when the
// caller doesn't supply one explicitly.
func titleFromName(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.TrimSpace(base)
}
